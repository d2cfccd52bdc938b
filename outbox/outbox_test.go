package outbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Kotlang/fasalneetiGo/client"
	"github.com/Kotlang/fasalneetiGo/models"
	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	errUnreachable = errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")
	errUnavailable = &client.APIError{Status: http.StatusServiceUnavailable, Message: "Store unavailable"}
	errRejected    = &client.APIError{Status: http.StatusBadRequest, Message: "Validation failed"}
)

// fakeApi answers from a script, then with the fallback error. Like the server it returns the
// stored id for a clientRef it has already seen.
type fakeApi struct {
	mu       sync.Mutex
	script   []error
	fallback error
	received []string
	byRef    map[string]string
	// lostAck stores the next registration and then fails as if the reply never arrived.
	lostAck bool
	hang    bool
}

func (f *fakeApi) Register(ctx context.Context, req *service.FarmerRequest) (string, error) {
	if f.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.fallback
	if len(f.script) > 0 {
		err, f.script = f.script[0], f.script[1:]
	}
	if err != nil {
		return "", err
	}
	if id, ok := f.byRef[req.ClientRef]; ok && req.ClientRef != "" {
		return id, nil
	}

	id := fmt.Sprintf("id-%s-%d", req.Name, len(f.received))
	f.received = append(f.received, req.Name)
	if f.byRef == nil {
		f.byRef = map[string]string{}
	}
	f.byRef[req.ClientRef] = id
	if f.lostAck {
		f.lostAck = false
		return "", errUnreachable
	}
	return id, nil
}

func (f *fakeApi) setFallback(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = err
}

func newStore(t *testing.T) *Store {
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func request(name string) *service.FarmerRequest {
	return &service.FarmerRequest{
		Name:     name,
		Email:    name + "@example.com",
		Mobile:   "9876543210",
		Location: "Nashik",
		SoilPH:   "6.8",
	}
}

func TestRegisterOnline(t *testing.T) {
	store := newStore(t)
	res, err := NewRegistrar(&fakeApi{}, store).Register(context.Background(), request("asha"))

	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.Equal(t, "id-asha-0", res.FarmerId)

	entries, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegisterQueuesRetryableFailures(t *testing.T) {
	for name, apiErr := range map[string]error{"transport": errUnreachable, "unavailable": errUnavailable} {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			res, err := NewRegistrar(&fakeApi{fallback: apiErr}, store).Register(context.Background(), request("asha"))

			require.NoError(t, err)
			assert.True(t, res.Queued)
			assert.Empty(t, res.FarmerId)

			entry, err := store.Get(context.Background(), res.EntryId)
			require.NoError(t, err)
			assert.Equal(t, models.OutboxPending, entry.Status)
			assert.Equal(t, models.OutboxKindRegister, entry.Kind)
			assert.Equal(t, 1, entry.Attempts)
			assert.NotEmpty(t, entry.LastError)

			req, err := decodeRegistration(entry)
			require.NoError(t, err)
			assert.Equal(t, "asha@example.com", req.Email)
			assert.Equal(t, "6.8", req.SoilPH.String())
		})
	}
}

func TestRegisterDoesNotQueueRejections(t *testing.T) {
	store := newStore(t)
	_, err := NewRegistrar(&fakeApi{fallback: errRejected}, store).Register(context.Background(), request("asha"))

	assert.ErrorIs(t, err, errRejected)
	entries, listErr := store.List(context.Background(), "")
	require.NoError(t, listErr)
	assert.Empty(t, entries)
}

func TestSyncOnceReplaysInOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	api := &fakeApi{fallback: errUnreachable}
	registrar := NewRegistrar(api, store)

	var ids []string
	for _, name := range []string{"first", "bad", "second"} {
		res, err := registrar.Register(ctx, request(name))
		require.NoError(t, err)
		ids = append(ids, res.EntryId)
	}

	api.setFallback(nil)
	api.script = []error{nil, errRejected}

	report, err := NewReconciler(api, store).SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SyncReport{Synced: 2, Rejected: 1, Pending: 0}, report)
	assert.Equal(t, []string{"first", "second"}, api.received)

	first, err := store.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.OutboxSynced, first.Status)
	assert.Equal(t, "id-first-0", first.FarmerId)

	bad, err := store.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.OutboxRejected, bad.Status)
	assert.Contains(t, bad.LastError, "Validation failed")

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncOnceStopsAtRetryableFailure(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	api := &fakeApi{fallback: errUnreachable}
	registrar := NewRegistrar(api, store)

	for _, name := range []string{"first", "second"} {
		_, err := registrar.Register(ctx, request(name))
		require.NoError(t, err)
	}

	api.setFallback(errUnavailable)
	report, err := NewReconciler(api, store).SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SyncReport{Pending: 2}, report)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 2, pending[0].Attempts)
	assert.Equal(t, 1, pending[1].Attempts)
}

func TestSyncOnceRejectsUnreadablePayload(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	entry := &models.OutboxEntryModel{EntryId: "broken", Kind: models.OutboxKindRegister, Payload: "{", Status: models.OutboxPending}
	require.NoError(t, store.db.Create(entry).Error)

	report, err := NewReconciler(&fakeApi{}, store).SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rejected)

	stored, err := store.Get(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, models.OutboxRejected, stored.Status)
}

func TestStoreUnknownEntry(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, store.MarkSynced(ctx, "missing", "id"), ErrEntryNotFound)
}

func TestRunStopsWithContext(t *testing.T) {
	store := newStore(t)
	api := &fakeApi{fallback: errUnreachable}
	_, err := NewRegistrar(api, store).Register(context.Background(), request("late"))
	require.NoError(t, err)
	api.setFallback(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReconciler(api, store).Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		pending, err := store.Pending(context.Background())
		return err == nil && len(pending) == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func TestRegisterQueuesWhenApiHangs(t *testing.T) {
	store := newStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res, err := NewRegistrar(&fakeApi{hang: true}, store).Register(ctx, request("asha"))

	require.NoError(t, err)
	assert.True(t, res.Queued)

	pending, err := store.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.EntryId, pending[0].EntryId)
	assert.Contains(t, pending[0].LastError, "deadline exceeded")
}

func TestReplayAfterLostAcknowledgementKeepsOneProfile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	api := &fakeApi{lostAck: true}

	res, err := NewRegistrar(api, store).Register(ctx, request("asha"))
	require.NoError(t, err)
	require.True(t, res.Queued)
	require.Len(t, api.received, 1)

	entry, err := store.Get(ctx, res.EntryId)
	require.NoError(t, err)
	queued, err := decodeRegistration(entry)
	require.NoError(t, err)
	assert.Equal(t, res.EntryId, queued.ClientRef)

	report, err := NewReconciler(api, store).SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Len(t, api.received, 1)

	synced, err := store.Get(ctx, res.EntryId)
	require.NoError(t, err)
	assert.Equal(t, models.OutboxSynced, synced.Status)
	assert.Equal(t, api.byRef[res.EntryId], synced.FarmerId)
}

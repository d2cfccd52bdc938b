package outbox

import (
	"context"
	"time"

	"github.com/Kotlang/fasalneetiGo/client"
	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/service"
	"go.uber.org/zap"
)

// queueTimeout bounds the local write after the API call, whose deadline may already be spent.
const queueTimeout = 5 * time.Second

// FarmerRegisterer is the part of the API client the outbox replays against.
type FarmerRegisterer interface {
	Register(ctx context.Context, req *service.FarmerRequest) (string, error)
}

// Result is either a server id or a queued entry, never both.
type Result struct {
	Queued   bool   `json:"queued"`
	EntryId  string `json:"entryId,omitempty"`
	FarmerId string `json:"farmerId,omitempty"`
}

type Registrar struct {
	api   FarmerRegisterer
	store *Store
}

func NewRegistrar(api FarmerRegisterer, store *Store) *Registrar {
	return &Registrar{api: api, store: store}
}

// Register sends the registration and queues it when the API cannot be reached. Rejections are
// returned to the caller as is.
func (r *Registrar) Register(ctx context.Context, req *service.FarmerRequest) (*Result, error) {
	entryId := NewEntryId()
	tagged := *req
	tagged.ClientRef = entryId

	farmerId, err := r.api.Register(ctx, &tagged)
	if err == nil {
		return &Result{FarmerId: farmerId}, nil
	}
	if !client.IsRetryable(err) {
		return nil, err
	}

	logger.Warn("Farmer API unreachable, queueing registration", zap.Error(err))
	queueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), queueTimeout)
	defer cancel()

	entry, storeErr := r.store.EnqueueRegistration(queueCtx, entryId, &tagged)
	if storeErr != nil {
		logger.Error("Failed queueing registration", zap.Error(storeErr))
		return nil, err
	}
	if recordErr := r.store.RecordFailure(queueCtx, entry.EntryId, err.Error()); recordErr != nil {
		logger.Error("Failed recording attempt", zap.Error(recordErr))
	}
	return &Result{Queued: true, EntryId: entry.EntryId}, nil
}

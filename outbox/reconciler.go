package outbox

import (
	"context"
	"time"

	"github.com/Kotlang/fasalneetiGo/client"
	"github.com/Kotlang/fasalneetiGo/logger"
	"go.uber.org/zap"
)

type SyncReport struct {
	Synced   int `json:"synced"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

type Reconciler struct {
	api   FarmerRegisterer
	store *Store
}

func NewReconciler(api FarmerRegisterer, store *Store) *Reconciler {
	return &Reconciler{api: api, store: store}
}

// SyncOnce replays pending entries oldest first. The pass stops at the first retryable failure so
// order is kept.
func (r *Reconciler) SyncOnce(ctx context.Context) (*SyncReport, error) {
	pending, err := r.store.Pending(ctx)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Pending: len(pending)}
	for i := range pending {
		entry := &pending[i]

		req, err := decodeRegistration(entry)
		if err != nil {
			if err := r.store.MarkRejected(ctx, entry.EntryId, "Unreadable payload"); err != nil {
				return report, err
			}
			report.Rejected++
			report.Pending--
			continue
		}

		farmerId, err := r.api.Register(ctx, req)
		switch {
		case err == nil:
			if err := r.store.MarkSynced(ctx, entry.EntryId, farmerId); err != nil {
				return report, err
			}
			report.Synced++
			report.Pending--
		case client.IsRetryable(err):
			if recordErr := r.store.RecordFailure(ctx, entry.EntryId, err.Error()); recordErr != nil {
				return report, recordErr
			}
			logger.Info("Farmer API still unreachable", zap.String("entryId", entry.EntryId), zap.Error(err))
			return report, nil
		default:
			if err := r.store.MarkRejected(ctx, entry.EntryId, err.Error()); err != nil {
				return report, err
			}
			report.Rejected++
			report.Pending--
		}
	}
	return report, nil
}

// Run syncs every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := r.SyncOnce(ctx)
		if err != nil {
			logger.Error("Outbox sync failed", zap.Error(err))
		} else if report.Synced > 0 || report.Rejected > 0 {
			logger.Info("Outbox synced",
				zap.Int("synced", report.Synced),
				zap.Int("rejected", report.Rejected),
				zap.Int("pending", report.Pending))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

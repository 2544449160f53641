// README: Background sweeper retiring rides whose time window has elapsed.
package ride

import (
	"context"
	"log/slog"
	"time"

	"campool/internal/observability"
	"campool/internal/types"
)

// Sweeper periodically retires open rides whose window has elapsed in the
// policy time zone. Rides that carried riders are marked completed so history
// survives; rides nobody joined are removed outright.
type Sweeper struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
	zone     *time.Location
	now      func() time.Time
}

func NewSweeper(store Store, logger *slog.Logger, interval time.Duration, zone *time.Location) *Sweeper {
	return &Sweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		zone:     zone,
		now:      time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.SweepOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce retires every currently expired ride. Each ride is handled in its
// own transaction so one poisoned row cannot block the rest of the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.now().In(s.zone)
	ids, err := s.store.ListExpired(ctx, DateOf(now), MinuteOf(now))
	if err != nil {
		observability.SweepErrorsTotal.Inc()
		s.logger.Error("sweep scan failed", "error", err)
		return
	}
	for _, id := range ids {
		if err := s.retire(ctx, id, now); err != nil {
			observability.SweepErrorsTotal.Inc()
			s.logger.Error("sweep retire failed", "ride_id", id, "error", err)
		}
	}
	if len(ids) > 0 {
		s.logger.Info("sweep pass finished", "expired", len(ids))
	}
}

func (s *Sweeper) retire(ctx context.Context, id types.ID, now time.Time) error {
	return s.store.InRideTx(ctx, id, func(tx Tx) error {
		r := tx.Ride()
		// re-check under the row lock: the ride may have been completed,
		// cancelled or deleted since the scan
		if !r.Status.Open() || !r.Elapsed(now) {
			return nil
		}
		parts, err := tx.Participants(ctx)
		if err != nil {
			return err
		}
		if len(parts) == 0 {
			if err := tx.DeleteRide(ctx); err != nil {
				return err
			}
			observability.SweepDeletedTotal.Inc()
			return nil
		}
		from := r.Status
		at := now.UTC()
		r.Status = StatusCompleted
		r.CompletedAt = &at
		if err := tx.UpdateRide(ctx, r); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &Event{
			RideID: r.ID, FromStatus: from, ToStatus: r.Status,
			Action: "expire", CreatedAt: at,
		}); err != nil {
			return err
		}
		observability.SweepCompletedTotal.Inc()
		return nil
	})
}

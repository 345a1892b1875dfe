package diaryform

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dreamSyncAPI/internal/diary"
)

// SweepExpired deletes every draft whose timestamp is past the TTL. The
// per-read expiry check in Get already hides stale drafts; this reclaims the
// rows for clients who never came back.
func (s *SQLiteDraftStore) SweepExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-diary.DraftTTL).Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `DELETE FROM diary_drafts WHERE saved_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartDraftSweeper runs SweepExpired on a fixed interval until ctx is
// cancelled.
func StartDraftSweeper(ctx context.Context, store *SQLiteDraftStore, interval time.Duration, log *zap.SugaredLogger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
				removed, err := store.SweepExpired(sweepCtx)
				cancel()
				if err != nil {
					log.Errorw("draft sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					log.Infow("swept expired drafts", "removed", removed)
				}
			}
		}
	}()
}

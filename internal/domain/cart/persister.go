// internal/domain/cart/persister.go
package cart

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Persister is an Observer that writes a snapshot after every notification.
// Save failures are logged and never reach the mutating caller. The write runs
// under the store's dispatch lock, so a slow backend delays the session's next
// mutation by at most the save timeout.
type Persister struct {
	repo      SnapshotRepository
	sessionID string
	timeout   time.Duration
	now       func() time.Time
	log       *zap.Logger
}

func NewPersister(repo SnapshotRepository, sessionID string, timeout time.Duration, log *zap.Logger) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Persister{
		repo:      repo,
		sessionID: sessionID,
		timeout:   timeout,
		now:       time.Now,
		log:       log,
	}
}

func (p *Persister) CartChanged(st State) {
	if p == nil || p.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if st.IsEmpty() {
		if err := p.repo.Delete(ctx, p.sessionID); err != nil {
			p.log.Warn("delete snapshot failed", zap.String("sessionId", p.sessionID), zap.Error(err))
		}
		return
	}

	snap, err := NewSnapshot(p.sessionID, st, p.now().UTC())
	if err != nil {
		p.log.Warn("build snapshot failed", zap.String("sessionId", p.sessionID), zap.Error(err))
		return
	}
	if err := p.repo.Save(ctx, snap); err != nil {
		p.log.Warn("save snapshot failed",
			zap.String("sessionId", p.sessionID),
			zap.Uint64("version", st.Version),
			zap.Error(err),
		)
	}
}

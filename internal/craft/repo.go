package craft

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, j Job) (Job, error)
	Get(ctx context.Context, id string) (Job, bool, error)
	// ListByPlayer returns the player's jobs, newest first.
	ListByPlayer(ctx context.Context, playerID string) ([]Job, error)
	// ListDue returns the player's in-progress jobs with EndAt <= now.
	ListDue(ctx context.Context, playerID string, now time.Time) ([]Job, error)
	// PlayersWithDue returns every player id owning at least one due job.
	PlayersWithDue(ctx context.Context, now time.Time) ([]string, error)
	// MarkDone moves a due job to done. It fails with ErrJobNotDue if the job
	// was already completed, which keeps crediting exactly-once.
	MarkDone(ctx context.Context, id string, now time.Time) (Job, error)
}

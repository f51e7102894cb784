package craft

import (
	"errors"
	"time"

	"wildcraft/internal/inventory"
)

type Status string

const (
	StatusInProgress Status = "inProgress"
	StatusDone       Status = "done"
	// StatusCancelled is representable but nothing produces it yet.
	StatusCancelled Status = "cancelled"
)

var (
	ErrJobNotFound = errors.New("craft job not found")
	ErrJobNotDue   = errors.New("craft job is not due")
)

// Job is a timed craft. Inputs and Outputs are frozen, already scaled by Qty.
type Job struct {
	ID          string           `json:"id"`
	PlayerID    string           `json:"playerId"`
	RecipeID    string           `json:"recipeId"`
	StationID   string           `json:"stationId"`
	Qty         int              `json:"qty"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"createdTime"`
	StartAt     time.Time        `json:"startTime"`
	EndAt       time.Time        `json:"endTime"`
	CompletedAt *time.Time       `json:"completedTime,omitempty"`
	Inputs      []inventory.Line `json:"inputs"`
	Outputs     []inventory.Line `json:"outputs"`
}

// Due reports whether the job can be claimed at now.
func (j Job) Due(now time.Time) bool {
	return j.Status == StatusInProgress && !j.EndAt.After(now)
}

func cloneJob(j Job) Job {
	j.Inputs = append([]inventory.Line(nil), j.Inputs...)
	j.Outputs = append([]inventory.Line(nil), j.Outputs...)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		j.CompletedAt = &t
	}
	return j
}

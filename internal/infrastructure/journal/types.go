package journal

import (
	"time"

	"github.com/google/uuid"
)

// Entry records a reminder email that could not be delivered and should be
// retried. It carries everything needed to rebuild the message so retries do
// not depend on the task still existing.
type Entry struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	TaskID    string     `json:"task_id"`
	Content   string     `json:"content"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Retries   int        `json:"retries"`
	Timestamp time.Time  `json:"timestamp"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}

package domain

import "time"

// Task is a user-owned work item with an optional deadline.
// NotifiedAt is the single authoritative reminder state: once set, no
// delivery channel fires for this task again.
type Task struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Content    string     `json:"content"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	Completed  bool       `json:"completed"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (t *Task) Notified() bool {
	return t != nil && t.NotifiedAt != nil
}

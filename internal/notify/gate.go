// Package notify decides when deadline reminders fire and delivers them over
// the configured channels. A task is reminded at most once: the per-task
// notified_at stamp is the single source of truth for every channel.
package notify

import (
	"time"

	"github.com/tasknest/backend/domain"
)

// DefaultWindow is how far ahead of a deadline a reminder fires.
const DefaultWindow = time.Hour

// Due is the gating rule: a reminder fires for a task iff it has a deadline,
// is not completed, has not been notified, and the deadline lies strictly
// between now and now+window. Past deadlines never fire.
func Due(t domain.Task, now time.Time, window time.Duration) bool {
	if t.Deadline == nil || t.Completed || t.Notified() {
		return false
	}
	until := t.Deadline.Sub(now)
	return until > 0 && until < window
}

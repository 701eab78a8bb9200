package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/infrastructure/journal"
)

// Sender abstracts gomail's dialer so tests can capture outgoing mail.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailChannel sends reminder emails. Failed sends are journaled and replayed
// on later ticks, up to maxRetries per entry.
type EmailChannel struct {
	sender     Sender
	from       string
	journal    *journal.Store
	logger     *zap.Logger
	batchSize  int
	maxRetries int
}

func NewEmailChannel(sender Sender, from string, store *journal.Store, logger *zap.Logger, maxRetries int) *EmailChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &EmailChannel{
		sender:     sender,
		from:       from,
		journal:    store,
		logger:     logger,
		batchSize:  50,
		maxRetries: maxRetries,
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(_ context.Context, user *domain.User, task domain.Task) error {
	entry := journal.Entry{
		Email:    user.Email,
		TaskID:   task.ID,
		Content:  task.Content,
		Deadline: task.Deadline,
	}

	if err := c.send(entry); err != nil {
		if c.journal != nil {
			if jErr := c.journal.Enqueue(entry); jErr != nil {
				c.logger.Error("failed to journal undelivered reminder", zap.Error(jErr))
			}
		}
		return err
	}
	return nil
}

// Retry replays journaled entries. Entries that keep failing are dropped
// after maxRetries; dropping never touches the task's notified state.
func (c *EmailChannel) Retry(_ context.Context) error {
	if c.journal == nil {
		return nil
	}

	entries, err := c.journal.GetBatch(c.batchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := c.send(entry); err != nil {
			entry.Retries++
			if entry.Retries >= c.maxRetries {
				c.logger.Warn("dropping reminder email (max retries reached)",
					zap.String("task_id", entry.TaskID))
				if err := c.journal.Remove(entry); err != nil {
					c.logger.Warn("failed to drop journal entry", zap.Error(err))
				}
				continue
			}
			if err := c.journal.Remove(entry); err != nil {
				c.logger.Warn("failed to remove journal entry", zap.Error(err))
				continue
			}
			if err := c.journal.Requeue(entry); err != nil {
				c.logger.Error("failed to requeue journal entry", zap.Error(err))
			}
			continue
		}

		if err := c.journal.Remove(entry); err != nil {
			c.logger.Warn("failed to purge delivered journal entry", zap.Error(err))
		}
	}
	return nil
}

func (c *EmailChannel) send(entry journal.Entry) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", entry.Email)
	m.SetHeader("Subject", "Deadline approaching: "+entry.Content)

	body := fmt.Sprintf("Your task %q is due soon.", entry.Content)
	if entry.Deadline != nil {
		body = fmt.Sprintf("Your task %q is due at %s.", entry.Content, entry.Deadline.Local().Format("Mon, 2 Jan 15:04"))
	}
	m.SetBody("text/plain", body)

	return c.sender.DialAndSend(m)
}

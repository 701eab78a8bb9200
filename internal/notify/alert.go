package notify

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/tasknest/backend/domain"
)

// Alert is an in-app reminder waiting to be shown to the user.
type Alert struct {
	TaskID    string     `json:"task_id"`
	Content   string     `json:"content"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AlertChannel queues reminders in a per-user Redis list, drained by the
// alerts endpoint. Pending alerts expire with the reminder window: an alert
// nobody fetched before the deadline passed is useless.
type AlertChannel struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

func NewAlertChannel(client *redislib.Client, ttl time.Duration) *AlertChannel {
	if ttl <= 0 {
		ttl = DefaultWindow
	}
	return &AlertChannel{
		client: client,
		prefix: "alerts:",
		ttl:    ttl,
	}
}

func (c *AlertChannel) Name() string { return "alert" }

func (c *AlertChannel) Deliver(ctx context.Context, user *domain.User, task domain.Task) error {
	alert := Alert{
		TaskID:    task.ID,
		Content:   task.Content,
		Deadline:  task.Deadline,
		CreatedAt: time.Now(),
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	key := c.key(user.ID)
	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Pull drains and returns the user's pending alerts, oldest first.
func (c *AlertChannel) Pull(ctx context.Context, userID string) ([]Alert, error) {
	key := c.key(userID)

	pipe := c.client.TxPipeline()
	listCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	raw := listCmd.Val()
	alerts := make([]Alert, 0, len(raw))
	for _, item := range raw {
		var alert Alert
		if err := json.Unmarshal([]byte(item), &alert); err != nil {
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (c *AlertChannel) key(userID string) string {
	return c.prefix + userID
}

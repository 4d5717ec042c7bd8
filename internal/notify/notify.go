// Package notify carries account notifications from the API to the mail
// delivery worker over the message queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/internal/mq"
)

// KindAttribute names the message attribute holding the notification kind.
const KindAttribute = "kind"

// KindRecoveryCode marks a recovery-code notification.
const KindRecoveryCode = "recovery-code"

// RecoveryCodeMessage asks for a recovery code to be mailed to an account.
type RecoveryCodeMessage struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Code     int64     `json:"code"`
}

// Publisher sends account notifications to a queue channel.
type Publisher struct {
	queue   *mq.MQ
	channel string
}

func NewPublisher(queue *mq.MQ, channel string) *Publisher {
	return &Publisher{queue: queue, channel: channel}
}

// RecoveryCode publishes msg and returns once the broker accepted it.
func (p *Publisher) RecoveryCode(ctx context.Context, msg RecoveryCodeMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = p.queue.Publish(ctx, p.channel, data, map[string]string{
		KindAttribute:           KindRecoveryCode,
		mq.ContentTypeAttribute: "application/json",
	})
	if err != nil {
		return fmt.Errorf("publish recovery code: %w", err)
	}
	return nil
}

// Discard drops every notification. It stands in when no queue is configured.
type Discard struct{}

func (Discard) RecoveryCode(context.Context, RecoveryCodeMessage) error {
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/mq"
)

// Mailer delivers a plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Consumer reads notifications from a queue channel and mails them.
type Consumer struct {
	queue   *mq.MQ
	channel string
	mailer  Mailer
	logger  logrus.FieldLogger
}

func NewConsumer(queue *mq.MQ, channel string, mailer Mailer, logger logrus.FieldLogger) *Consumer {
	return &Consumer{queue: queue, channel: channel, mailer: mailer, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.WithField("channel", c.channel).Info("notification consumer started")
	return c.queue.Subscribe(ctx, c.channel, c.Handle)
}

// Handle delivers a single message. Malformed or unknown messages and
// invalid recipients are acknowledged and dropped. Delivery failures are
// returned so the broker redelivers, unless the relay rejected the message
// outright.
func (c *Consumer) Handle(ctx context.Context, msg mq.Message) error {
	log := c.logger.WithField("message_id", msg.ID)

	kind := msg.Attributes[KindAttribute]
	if kind != "" && kind != KindRecoveryCode {
		log.WithField("kind", kind).Warn("dropping notification of unknown kind")
		return nil
	}

	var payload RecoveryCodeMessage
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.WithError(err).Warn("dropping malformed notification")
		return nil
	}
	if payload.Email == "" {
		log.Warn("dropping notification without recipient")
		return nil
	}
	to, err := recipient(payload.Email)
	if err != nil {
		log.WithError(err).WithField("user_id", payload.UserID).Warn("dropping notification with invalid recipient")
		return nil
	}

	subject := "TOTECO recovery code"
	body := fmt.Sprintf("Hello %s,\n\nYour recovery code is: %d\n", payload.Username, payload.Code)
	if err := c.mailer.Send(ctx, to, subject, body); err != nil {
		log.WithError(err).WithField("user_id", payload.UserID).Error("failed to send recovery code")
		if rejected(err) {
			return mq.Permanent(err)
		}
		return err
	}
	log.WithField("user_id", payload.UserID).Info("recovery code sent")
	return nil
}

// recipient returns the bare address in raw. Display names, address lists
// and line breaks are rejected.
func recipient(raw string) (string, error) {
	if strings.ContainsAny(raw, "\r\n") {
		return "", errors.New("recipient contains a line break")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}

// rejected reports whether the relay answered with a permanent (5xx) error.
func rejected(err error) bool {
	var reply *textproto.Error
	return errors.As(err, &reply) && reply.Code >= 500
}

package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/toteco/apiserver/config"
	"github.com/toteco/apiserver/internal/logging"
	"github.com/toteco/apiserver/internal/mq"
	"github.com/toteco/apiserver/internal/notify"
)

// notifierCmd consumes account notifications and mails them.
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Delivers account notifications by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND must be set to run the notifier")
		}
		defer func() {
			_ = queue.Close()
		}()

		mailer, err := notify.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return err
		}

		consumer := notify.NewConsumer(queue, cfg.MQ.NotifyChannel, mailer, logger)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("notifier stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"eventsocials/config"
	"eventsocials/internal/adapters/email"
	"eventsocials/internal/adapters/queue"
	"eventsocials/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger("email")

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}

	renderer := email.NewTemplateRenderer()
	handler := services.NewNotificationMailer(mailer, renderer, cfg.BaseAPIURL, logger)

	consumer, err := queue.NewConsumer(cfg.AMQPUrl, cfg.EmailQueue, logger)
	if err != nil {
		logger.Error("connect broker", "err", err)
		os.Exit(1)
	}
	defer consumer.Close()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(rootCtx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/power-data-portal/internal/mail"
	"github.com/frahmantamala/power-data-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that drain queues filled by the HTTP server.`,
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Deliver queued mail through SMTP",
	Long:  `Consume the outbound mail queue and deliver each message through the configured SMTP relay`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailWorker()
	},
}

var mailQueue string

func startMailWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	if config.Queue.URL == "" {
		logger.Error("queue.url is required for the mail worker")
		os.Exit(1)
	}
	if config.Mail.SMTPHost == "" {
		logger.Error("mail.smtp_host is required for the mail worker")
		os.Exit(1)
	}

	smtpMailer, err := mail.NewSMTPMailer(smtpConfig(config.Mail))
	if err != nil {
		logger.Error("failed to configure smtp", "error", err)
		os.Exit(1)
	}

	queue := getStringFlag(mailQueue, config.Queue.MailQueue)
	consumer := mail.NewConsumer(config.Queue.URL, queue, smtpMailer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("mail worker is running. Press Ctrl+C to stop.", "queue", queue, "smtp_host", config.Mail.SMTPHost)

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mail worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("mail worker shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().StringVar(&mailQueue, "queue", "", "Queue name (overrides config)")

	workerCmd.AddCommand(mailWorkerCmd)
}

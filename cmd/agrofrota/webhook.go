package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/config"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook <url>",
		Short: "Register a public URL as the Telegram webhook",
		Long:  "Points the bot at a public HTTPS endpoint. The serve command must be reachable at <url> for updates to arrive.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebhook(cmd, args[0])
		},
	}
	return cmd
}

func runWebhook(cmd *cobra.Command, url string) error {
	secrets := config.LoadSecrets()
	if err := requireSecrets(secrets.TelegramAPIKey, "TELEGRAM_API_KEY"); err != nil {
		return err
	}

	adapter, err := bot.NewTelegram(secrets.TelegramAPIKey)
	if err != nil {
		return err
	}
	if err := adapter.SetWebhook(url); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Webhook set to %s\n", url)
	return nil
}

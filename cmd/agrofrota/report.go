package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/config"
	"github.com/zerbini/agrofrota/internal/db"
	"github.com/zerbini/agrofrota/internal/report"
)

func newReportCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "report <gerente-id>",
		Short: "Send today's completed-tasks report to a manager on Telegram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "agrofrota.yaml", "path to AgroFrota config file")
	return cmd
}

func runReport(cmd *cobra.Command, configPath, rawID string) error {
	gerenteID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid gerente id %q", rawID)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	secrets := config.LoadSecrets()
	if err := requireSecrets(secrets.TelegramAPIKey, "TELEGRAM_API_KEY"); err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	adapter, err := bot.NewTelegram(secrets.TelegramAPIKey)
	if err != nil {
		return err
	}

	reports, err := report.New(report.Opts{DB: gormDB, Adapter: adapter, Log: logrus.New()})
	if err != nil {
		return err
	}

	if err := reports.SendToManager(context.Background(), uint(gerenteID)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Report sent.")
	return nil
}

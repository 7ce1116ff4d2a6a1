package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zerbini/agrofrota/internal/audio"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/config"
	"github.com/zerbini/agrofrota/internal/db"
	"github.com/zerbini/agrofrota/internal/tasks"
)

func newAssignCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign today's checklists to drivers and deliver them on Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "agrofrota.yaml", "path to AgroFrota config file")
	return cmd
}

func runAssign(cmd *cobra.Command, configPath string) error {
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
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	adapter, err := bot.NewTelegram(secrets.TelegramAPIKey)
	if err != nil {
		return err
	}

	var speaker *audio.Client
	if cfg.Audio.Enabled && secrets.AzureTTSKey != "" {
		speaker, err = audio.New(audio.Opts{
			Key:    secrets.AzureTTSKey,
			Region: secrets.AzureTTSRegion,
			Voice:  cfg.Audio.Voice,
		})
		if err != nil {
			return err
		}
	}

	assigner, err := tasks.NewAssigner(tasks.AssignerOpts{
		DB:      gormDB,
		Adapter: adapter,
		Speaker: speakerOrNilAssign(speaker),
		Log:     logrus.New(),
	})
	if err != nil {
		return err
	}

	if err := assigner.Run(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task assignment complete.")
	return nil
}

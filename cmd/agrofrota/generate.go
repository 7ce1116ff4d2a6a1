package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zerbini/agrofrota/internal/clima"
	"github.com/zerbini/agrofrota/internal/config"
	"github.com/zerbini/agrofrota/internal/db"
	"github.com/zerbini/agrofrota/internal/llm"
	"github.com/zerbini/agrofrota/internal/tasks"
)

func newGenerateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate today's maintenance task templates",
		Long:  "Runs one generation pass: for each machine model and owner location in the fleet, asks the model for today's checklist and stores it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "agrofrota.yaml", "path to AgroFrota config file")
	return cmd
}

func runGenerate(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	secrets := config.LoadSecrets()
	if err := requireSecrets(secrets.ClimaAPIKey, "CLIMA_API_KEY", secrets.TogetherAPIKey, "TOGETHER_API_KEY"); err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	generator, err := tasks.NewGenerator(tasks.GeneratorOpts{
		DB: gormDB,
		Weather: clima.New(clima.Opts{
			ClimaAPIKey:    secrets.ClimaAPIKey,
			NoticiasAPIKey: secrets.NoticiasAPIKey,
		}),
		Source: llm.New(cfg.LLM, secrets.TogetherAPIKey),
		Log:    logrus.New(),
	})
	if err != nil {
		return err
	}

	if err := generator.Run(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task generation complete.")
	return nil
}

// requireSecrets checks value/name pairs and reports every missing variable
// at once.
func requireSecrets(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] == "" {
			missing = append(missing, pairs[i+1])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zerbini/agrofrota/internal/audio"
	"github.com/zerbini/agrofrota/internal/auth"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/clima"
	"github.com/zerbini/agrofrota/internal/config"
	"github.com/zerbini/agrofrota/internal/conversa"
	"github.com/zerbini/agrofrota/internal/db"
	"github.com/zerbini/agrofrota/internal/llm"
	"github.com/zerbini/agrofrota/internal/report"
	"github.com/zerbini/agrofrota/internal/tasks"
	"github.com/zerbini/agrofrota/internal/web"
	"gorm.io/gorm"
)

// services holds everything the serve command composes. Subcommands that
// need only part of the graph still build it the same way so wiring stays
// in one place.
type services struct {
	cfg       *config.Config
	secrets   *config.Secrets
	db        *gorm.DB
	log       *logrus.Logger
	adapter   *bot.Telegram
	weather   *clima.Client
	generator *tasks.Generator
	assigner  *tasks.Assigner
	reports   *report.Service
	engine    *conversa.Engine
	speaker   *audio.Client
	webhook   string
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		webhookURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard, Telegram webhook, and daily scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, webhookURL)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "agrofrota.yaml", "path to AgroFrota config file")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "public URL to register as the Telegram webhook")
	return cmd
}

func runServe(cmd *cobra.Command, configPath, webhookURL string) error {
	svc, err := buildServices(configPath)
	if err != nil {
		return err
	}
	svc.webhook = webhookURL

	authSvc, err := newAuthService(svc.secrets)
	if err != nil {
		return err
	}

	server, err := web.New(web.Opts{
		DB:        svc.db,
		Auth:      authSvc,
		Clima:     svc.weather,
		Generator: svc.generator,
		Assigner:  svc.assigner,
		Reports:   svc.reports,
		Inbound:   svc.engine,
		Speaker:   speakerOrNil(svc.speaker),
		Log:       svc.log,
		Port:      svc.cfg.HTTP.Port,
	})
	if err != nil {
		return err
	}

	scheduler, err := tasks.NewScheduler(tasks.SchedulerOpts{
		Expr:       svc.cfg.Schedule.GenerateCron,
		RunOnStart: svc.cfg.Schedule.RunOnStart,
		Job:        dailyJob(svc),
		Log:        svc.log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if svc.webhook != "" {
		if err := svc.adapter.SetWebhook(svc.webhook); err != nil {
			return err
		}
		svc.log.WithField("url", svc.webhook).Info("telegram webhook registered")
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	svc.log.WithField("port", svc.cfg.HTTP.Port).Info("agrofrota serving")
	return server.Start(ctx)
}

// dailyJob runs generation and, when configured, assignment right after it.
func dailyJob(svc *services) func(context.Context) {
	return func(ctx context.Context) {
		if err := svc.generator.Run(ctx); err != nil {
			svc.log.WithError(err).Error("daily task generation failed")
			return
		}
		if !svc.cfg.Schedule.AssignAfterGenerate {
			return
		}
		if err := svc.assigner.Run(ctx); err != nil {
			svc.log.WithError(err).Error("daily task assignment failed")
		}
	}
}

// buildServices loads config and secrets and wires the full service graph.
func buildServices(configPath string) (*services, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	secrets := config.LoadSecrets()
	if err := secrets.RequireForServe(); err != nil {
		return nil, err
	}

	log := logrus.New()

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}

	adapter, err := bot.NewTelegram(secrets.TelegramAPIKey)
	if err != nil {
		return nil, err
	}

	weather := clima.New(clima.Opts{
		ClimaAPIKey:    secrets.ClimaAPIKey,
		NoticiasAPIKey: secrets.NoticiasAPIKey,
	})

	reports, err := report.New(report.Opts{DB: gormDB, Adapter: adapter, Log: log})
	if err != nil {
		return nil, err
	}

	engine, err := conversa.New(conversa.Opts{DB: gormDB, Adapter: adapter, Reports: reports, Log: log})
	if err != nil {
		return nil, err
	}

	generator, err := tasks.NewGenerator(tasks.GeneratorOpts{
		DB:      gormDB,
		Weather: weather,
		Source:  llm.New(cfg.LLM, secrets.TogetherAPIKey),
		Log:     log,
	})
	if err != nil {
		return nil, err
	}

	var speaker *audio.Client
	if cfg.Audio.Enabled && secrets.AzureTTSKey != "" {
		speaker, err = audio.New(audio.Opts{
			Key:    secrets.AzureTTSKey,
			Region: secrets.AzureTTSRegion,
			Voice:  cfg.Audio.Voice,
		})
		if err != nil {
			return nil, err
		}
	}

	assigner, err := tasks.NewAssigner(tasks.AssignerOpts{
		DB:      gormDB,
		Adapter: adapter,
		Speaker: speakerOrNilAssign(speaker),
		Log:     log,
	})
	if err != nil {
		return nil, err
	}

	return &services{
		cfg:       cfg,
		secrets:   secrets,
		db:        gormDB,
		log:       log,
		adapter:   adapter,
		weather:   weather,
		generator: generator,
		assigner:  assigner,
		reports:   reports,
		engine:    engine,
		speaker:   speaker,
	}, nil
}

// loadConfig reads the config file; a missing file falls back to defaults so
// a bare `agrofrota serve` works out of the box.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newAuthService(s *config.Secrets) (*auth.Service, error) {
	return auth.NewService(s.JWTSecret, 0)
}

// speakerOrNil keeps a nil *audio.Client from becoming a non-nil interface.
func speakerOrNil(c *audio.Client) web.Speaker {
	if c == nil {
		return nil
	}
	return c
}

func speakerOrNilAssign(c *audio.Client) tasks.Speaker {
	if c == nil {
		return nil
	}
	return c
}

// Package tasks holds the daily maintenance lifecycle: template generation
// per machine/location combination, checklist assignment per driver, and the
// cron trigger that runs both.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zerbini/agrofrota/internal/catalog"
	"github.com/zerbini/agrofrota/internal/clima"
	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaceholderTask replaces the checklist when the model cannot produce one.
const PlaceholderTask = "Erro ao gerar tarefas de manutenção."

// weatherUnavailable stands in when the weather collaborator fails.
var weatherUnavailable = clima.Weather{Description: "Informações climáticas indisponíveis"}

// TaskSource produces a maintenance checklist for a manual under given
// weather conditions.
type TaskSource interface {
	MaintenanceTasks(ctx context.Context, manual string, w clima.Weather) ([]string, error)
}

// WeatherSource resolves current weather for a Brazilian city/state pair.
type WeatherSource interface {
	For(ctx context.Context, cidade, estado string) (clima.Weather, error)
}

// Generator creates one task template per distinct (model, cidade, estado)
// combination per day.
type Generator struct {
	db      *gorm.DB
	weather WeatherSource
	source  TaskSource
	log     *logrus.Logger
	now     func() time.Time
}

// GeneratorOpts configures a Generator. DB, Weather, and Source are required.
type GeneratorOpts struct {
	DB      *gorm.DB
	Weather WeatherSource
	Source  TaskSource
	Log     *logrus.Logger
	Now     func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(o GeneratorOpts) (*Generator, error) {
	if o.DB == nil {
		return nil, fmt.Errorf("tasks: DB is required")
	}
	if o.Weather == nil {
		return nil, fmt.Errorf("tasks: Weather is required")
	}
	if o.Source == nil {
		return nil, fmt.Errorf("tasks: Source is required")
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Generator{db: o.DB, weather: o.Weather, source: o.Source, log: o.Log, now: o.Now}, nil
}

// combination is one distinct (machine model, owner location) pair in the
// fleet.
type combination struct {
	Model  string
	Cidade string
	Estado string
}

func (g *Generator) combinations() ([]combination, error) {
	var out []combination
	err := g.db.Model(&models.Machine{}).
		Distinct("machines.model AS model, users.cidade AS cidade, users.estado AS estado").
		Joins("JOIN users ON users.id = machines.user_id").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("tasks: list model/location combinations: %w", err)
	}
	return out, nil
}

// Run generates today's templates. A failing combination is logged and
// skipped; the run continues with the rest.
func (g *Generator) Run(ctx context.Context) error {
	date := g.now().Format(models.DateLayout)
	combos, err := g.combinations()
	if err != nil {
		return err
	}

	for _, c := range combos {
		log := g.log.WithFields(logrus.Fields{
			"model":  c.Model,
			"cidade": c.Cidade,
			"estado": c.Estado,
			"date":   date,
		})

		manual, ok := catalog.ManualFor(c.Model)
		if !ok {
			log.Info("modelo sem manual cadastrado, combinação ignorada")
			continue
		}

		// Already generated today: skip before spending an LLM call.
		var existing int64
		err := g.db.Model(&models.TaskTemplate{}).
			Where("model = ? AND cidade = ? AND estado = ? AND date = ?", c.Model, c.Cidade, c.Estado, date).
			Count(&existing).Error
		if err != nil {
			log.WithError(err).Error("falha ao consultar templates existentes")
			continue
		}
		if existing > 0 {
			log.Debug("template já gerado para hoje")
			continue
		}

		w, err := g.weather.For(ctx, c.Cidade, c.Estado)
		if err != nil {
			log.WithError(err).Warn("clima indisponível, usando valor padrão")
			w = weatherUnavailable
		}

		taskList, err := g.source.MaintenanceTasks(ctx, manual, w)
		if err != nil {
			log.WithError(err).Error("falha ao gerar tarefas")
			taskList = []string{PlaceholderTask}
		}

		template := models.TaskTemplate{
			Model:  c.Model,
			Cidade: c.Cidade,
			Estado: c.Estado,
			Date:   date,
		}
		if err := template.SetTasks(taskList); err != nil {
			log.WithError(err).Error("falha ao serializar tarefas")
			continue
		}
		// The unique key on (model, cidade, estado, date) makes concurrent
		// runs collide here instead of duplicating.
		err = g.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&template).Error
		if err != nil {
			log.WithError(err).Error("falha ao gravar template")
			continue
		}
		log.Info("template de manutenção gerado")
	}
	return nil
}

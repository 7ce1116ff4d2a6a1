// Package report builds and delivers completed-task reports for managers.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/gorm"
)

// Empty-report messages shown in place of driver sections.
const (
	msgNoDrivers        = "Nenhum motorista subordinado encontrado para o gerente."
	msgNoCompletedTasks = "Nenhuma tarefa concluída para os motoristas subordinados ao gerente."
)

// Service builds text and PDF reports of tasks completed today by the
// drivers a manager oversees.
type Service struct {
	db      *gorm.DB
	adapter bot.Adapter
	log     *logrus.Logger
	now     func() time.Time
}

// Opts configures a Service. DB and Adapter are required; Log and Now
// default to logrus.StandardLogger and time.Now.
type Opts struct {
	DB      *gorm.DB
	Adapter bot.Adapter
	Log     *logrus.Logger
	Now     func() time.Time
}

// New creates a report Service.
func New(o Opts) (*Service, error) {
	if o.DB == nil {
		return nil, fmt.Errorf("report: DB is required")
	}
	if o.Adapter == nil {
		return nil, fmt.Errorf("report: Adapter is required")
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Service{db: o.DB, adapter: o.Adapter, log: o.Log, now: o.Now}, nil
}

// driverSection is one driver's completed tasks for the report date.
type driverSection struct {
	Name  string
	Items []models.TaskItem
}

// drivers returns the drivers whose machines the manager oversees.
func (s *Service) drivers(gerenteID uint) ([]models.Person, error) {
	var out []models.Person
	err := s.db.
		Distinct("people.*").
		Joins("JOIN machines ON machines.driver_id = people.id").
		Joins("JOIN machine_managers ON machine_managers.machine_id = machines.id").
		Where("machine_managers.gerente_id = ?", gerenteID).
		Order("people.id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("report: list drivers for manager %d: %w", gerenteID, err)
	}
	return out, nil
}

// completedToday returns a driver's completed items for the given date,
// in checklist order.
func (s *Service) completedToday(driverID uint, date string) ([]models.TaskItem, error) {
	var items []models.TaskItem
	err := s.db.
		Joins("JOIN task_assignments ON task_assignments.id = task_items.assignment_id").
		Where("task_assignments.driver_id = ? AND task_assignments.date = ? AND task_items.status = ?",
			driverID, date, models.StatusConcluida).
		Order("task_items.id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("report: completed items for driver %d: %w", driverID, err)
	}
	return items, nil
}

// sections gathers the per-driver report data for today. Drivers with no
// completed tasks are omitted.
func (s *Service) sections(gerenteID uint) ([]driverSection, error) {
	drivers, err := s.drivers(gerenteID)
	if err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		return nil, nil
	}
	date := s.now().Format(models.DateLayout)
	var out []driverSection
	for _, d := range drivers {
		items, err := s.completedToday(d.ID, date)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			continue
		}
		out = append(out, driverSection{Name: d.Name, Items: items})
	}
	return out, nil
}

// BuildText renders the completed-task report as plain chat text.
func (s *Service) BuildText(gerenteID uint) (string, error) {
	drivers, err := s.drivers(gerenteID)
	if err != nil {
		return "", err
	}
	if len(drivers) == 0 {
		return msgNoDrivers, nil
	}
	sections, err := s.sections(gerenteID)
	if err != nil {
		return "", err
	}
	if len(sections) == 0 {
		return msgNoCompletedTasks, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Relatório de Tarefas Concluídas (%s):\n\n", s.now().Format(models.DateLayout))
	for _, sec := range sections {
		fmt.Fprintf(&b, "Motorista: %s\n", sec.Name)
		for _, item := range sec.Items {
			fmt.Fprintf(&b, "- %s (Status: %s)\n", item.Task, item.Status)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// SendToManager builds today's PDF report and delivers it to the manager's
// chat. Managers without a bound chat are an error the caller surfaces.
func (s *Service) SendToManager(ctx context.Context, gerenteID uint) error {
	var gerente models.Person
	err := s.db.Where("id = ? AND role = ?", gerenteID, models.RoleGerente).First(&gerente).Error
	if err != nil {
		return fmt.Errorf("report: load manager %d: %w", gerenteID, err)
	}
	if gerente.ChatID == "" {
		return fmt.Errorf("report: manager %d has no bound chat", gerenteID)
	}

	pdf, err := s.BuildPDF(gerenteID)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("relatorio_gerente_%d.pdf", gerenteID)
	if err := s.adapter.SendDocument(ctx, gerente.ChatID, name, pdf); err != nil {
		return fmt.Errorf("report: deliver to manager %d: %w", gerenteID, err)
	}
	s.log.WithFields(logrus.Fields{
		"gerente_id": gerenteID,
		"chat_id":    gerente.ChatID,
	}).Info("relatório enviado ao gerente")
	return nil
}

package tasks

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

const checklistFooter = "\nPara marcar uma tarefa como concluída, responda com o número da tarefa seguido de 'concluída'. Por exemplo: 'Tarefa 1 concluída'"

// Speaker synthesizes speech for a checklist so drivers can listen instead
// of reading.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Assigner materializes today's templates into per-driver assignments and
// delivers the numbered checklist over chat.
type Assigner struct {
	db      *gorm.DB
	adapter bot.Adapter
	speaker Speaker
	log     *logrus.Logger
	now     func() time.Time
}

// AssignerOpts configures an Assigner. DB and Adapter are required; Speaker
// is optional.
type AssignerOpts struct {
	DB      *gorm.DB
	Adapter bot.Adapter
	Speaker Speaker
	Log     *logrus.Logger
	Now     func() time.Time
}

// NewAssigner creates an Assigner.
func NewAssigner(o AssignerOpts) (*Assigner, error) {
	if o.DB == nil {
		return nil, fmt.Errorf("tasks: DB is required")
	}
	if o.Adapter == nil {
		return nil, fmt.Errorf("tasks: Adapter is required")
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Assigner{db: o.DB, adapter: o.Adapter, speaker: o.Speaker, log: o.Log, now: o.Now}, nil
}

// driverRow is one driver joined with the owner's location.
type driverRow struct {
	ID     uint
	Name   string
	ChatID string
	Cidade string
	Estado string
}

func (a *Assigner) drivers() ([]driverRow, error) {
	var out []driverRow
	err := a.db.Model(&models.Person{}).
		Select("people.id AS id, people.name AS name, people.chat_id AS chat_id, users.cidade AS cidade, users.estado AS estado").
		Joins("JOIN users ON users.id = people.user_id").
		Where("people.role = ?", models.RoleMotorista).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("tasks: list drivers: %w", err)
	}
	return out, nil
}

// Run assigns today's checklists. Drivers or models without a matching
// template are logged and skipped.
func (a *Assigner) Run(ctx context.Context) error {
	date := a.now().Format(models.DateLayout)
	drivers, err := a.drivers()
	if err != nil {
		return err
	}

	for _, d := range drivers {
		var machineModels []string
		err := a.db.Model(&models.Machine{}).
			Distinct("model").
			Where("driver_id = ?", d.ID).
			Pluck("model", &machineModels).Error
		if err != nil {
			a.log.WithError(err).WithField("driver_id", d.ID).Error("falha ao listar máquinas do motorista")
			continue
		}

		for _, machineModel := range machineModels {
			log := a.log.WithFields(logrus.Fields{
				"driver_id": d.ID,
				"driver":    d.Name,
				"model":     machineModel,
			})

			var template models.TaskTemplate
			err := a.db.Where("model = ? AND cidade = ? AND estado = ? AND date = ?",
				machineModel, d.Cidade, d.Estado, date).First(&template).Error
			if err != nil {
				log.Info("sem template de manutenção para o modelo e local")
				continue
			}
			taskList, err := template.TaskList()
			if err != nil {
				log.WithError(err).Error("template com tarefas inválidas")
				continue
			}

			var assignment models.TaskAssignment
			err = a.db.Transaction(func(tx *gorm.DB) error {
				assignment = models.TaskAssignment{DriverID: d.ID, Date: date}
				if err := tx.Create(&assignment).Error; err != nil {
					return err
				}
				for _, task := range taskList {
					item := models.TaskItem{
						AssignmentID: assignment.ID,
						Task:         task,
						Status:       models.StatusPendente,
					}
					if err := tx.Create(&item).Error; err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.WithError(err).Error("falha ao gravar atribuição")
				continue
			}

			a.deliver(ctx, d, taskList, log)
		}
	}
	return nil
}

// deliver sends the numbered checklist, plus an optional audio rendition.
// Delivery failures are logged only; the assignment already exists.
func (a *Assigner) deliver(ctx context.Context, d driverRow, taskList []string, log *logrus.Entry) {
	if d.ChatID == "" {
		log.Warn("motorista sem chat vinculado, checklist não enviado")
		return
	}
	message := ChecklistMessage(d.Name, taskList)
	if err := a.adapter.SendText(ctx, d.ChatID, message); err != nil {
		log.WithError(err).Error("falha ao enviar checklist")
		return
	}
	log.Info("checklist enviado ao motorista")

	if a.speaker == nil {
		return
	}
	audio, err := a.speaker.Synthesize(ctx, message)
	if err != nil {
		log.WithError(err).Warn("falha ao sintetizar áudio do checklist")
		return
	}
	if err := a.adapter.SendVoice(ctx, d.ChatID, audio); err != nil {
		log.WithError(err).Warn("falha ao enviar áudio do checklist")
	}
}

// ChecklistMessage renders the numbered checklist sent to a driver.
func ChecklistMessage(name string, taskList []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s,\n\nAqui está o checklist de manutenção preventiva para hoje:\n\n", name)
	for i, task := range taskList {
		fmt.Fprintf(&b, "%d. %s\n", i+1, task)
	}
	b.WriteString(checklistFooter)
	return b.String()
}

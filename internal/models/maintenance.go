package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task item statuses. An item only ever moves pendente → concluída.
const (
	StatusPendente  = "pendente"
	StatusConcluida = "concluída"
)

// DateLayout is the calendar-day key format used by templates and
// assignments ("2006-01-02", matching str(datetime.date)).
const DateLayout = "2006-01-02"

// TaskTemplate is the generated maintenance checklist for one
// (model, cidade, estado) combination on one day. The composite unique index
// is what makes generation idempotent: inserts use ON CONFLICT DO NOTHING,
// so two overlapping runs cannot double-generate a combination.
type TaskTemplate struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	Model  string `gorm:"size:32;not null;uniqueIndex:idx_template_key"`
	Cidade string `gorm:"size:64;not null;uniqueIndex:idx_template_key"`
	Estado string `gorm:"size:2;not null;uniqueIndex:idx_template_key"`
	Date   string `gorm:"size:10;not null;uniqueIndex:idx_template_key"`
	Tasks  string `gorm:"type:text"`

	CreatedAt time.Time
}

// SetTasks serializes the ordered task list into the Tasks column.
func (t *TaskTemplate) SetTasks(tasks []string) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("models: encode template tasks: %w", err)
	}
	t.Tasks = string(data)
	return nil
}

// TaskList deserializes the Tasks column back into the ordered task list.
func (t *TaskTemplate) TaskList() ([]string, error) {
	var tasks []string
	if err := json.Unmarshal([]byte(t.Tasks), &tasks); err != nil {
		return nil, fmt.Errorf("models: decode template tasks: %w", err)
	}
	return tasks, nil
}

// TaskAssignment is one driver's checklist instance for one day. ReportSent
// guards the all-items-complete report trigger so retried completion
// messages cannot fire it twice.
type TaskAssignment struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	DriverID   uint   `gorm:"not null;index"`
	Date       string `gorm:"size:10;not null;index"`
	ReportSent bool   `gorm:"default:false"`

	CreatedAt time.Time

	Driver Person     `gorm:"foreignKey:DriverID"`
	Items  []TaskItem `gorm:"foreignKey:AssignmentID"`
}

// TaskItem is a single checklist entry. Driver-facing numbering is the
// 1-based position in insertion (id) order within the assignment.
type TaskItem struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	AssignmentID uint   `gorm:"not null;index"`
	Task         string `gorm:"type:text;not null"`
	Status       string `gorm:"size:16;default:pendente"`

	Assignment TaskAssignment `gorm:"foreignKey:AssignmentID"`
}

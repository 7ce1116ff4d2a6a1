// Package conversa is the chat-side state machine: it binds shared contacts
// to registered people, walks farm owners through auxiliary-person
// registration, and lets drivers check off today's maintenance tasks.
package conversa

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/models"
	"github.com/zerbini/agrofrota/internal/report"
	"gorm.io/gorm"
)

// Chat replies, all user-facing text is Portuguese.
const (
	msgShareContact    = "Olá! Para começar, compartilhe seu contato usando o botão abaixo."
	msgContactNotFound = "Número de telefone não encontrado. Verifique seu cadastro."
	msgAskName         = "Vamos cadastrar uma nova pessoa auxiliar. Qual é o nome?"
	msgAskEmail        = "Qual é o e-mail?"
	msgAskPhone        = "Qual é o celular?"
	msgAskRole         = "Qual é a função? Responda com 'gerente' ou 'motorista'."
	msgInvalidRole     = "Função inválida. Responda com 'gerente' ou 'motorista'."
	msgResetApology    = "Desculpe, algo deu errado. Vamos recomeçar. Qual é o nome?"
	msgDuplicatePerson = "Já existe uma pessoa cadastrada com esse celular."
	msgInvalidTask     = "Número de tarefa inválido."
	msgNoTasksToday    = "Nenhuma tarefa atribuída para hoje."
	msgUsageHint       = "Mensagem não reconhecida. Para marcar uma tarefa como concluída, responda com o número da tarefa seguido de 'concluída'. Por exemplo: 'Tarefa 1 concluída'"
)

var taskDonePattern = regexp.MustCompile(`(?i)^tarefa\s+(\d+)\s+concluída`)

// Engine routes inbound chat messages through the contact-binding,
// registration, and checklist flows.
type Engine struct {
	db      *gorm.DB
	adapter bot.Adapter
	reports *report.Service
	log     *logrus.Logger
	now     func() time.Time
}

// Opts configures an Engine. DB, Adapter, and Reports are required.
type Opts struct {
	DB      *gorm.DB
	Adapter bot.Adapter
	Reports *report.Service
	Log     *logrus.Logger
	Now     func() time.Time
}

// New creates an Engine.
func New(o Opts) (*Engine, error) {
	if o.DB == nil {
		return nil, fmt.Errorf("conversa: DB is required")
	}
	if o.Adapter == nil {
		return nil, fmt.Errorf("conversa: Adapter is required")
	}
	if o.Reports == nil {
		return nil, fmt.Errorf("conversa: Reports is required")
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Engine{db: o.DB, adapter: o.Adapter, reports: o.Reports, log: o.Log, now: o.Now}, nil
}

// HandleInbound processes one chat message. Errors are for the caller's log
// only; the sender always gets a reply where one is due.
func (e *Engine) HandleInbound(ctx context.Context, in bot.Inbound) error {
	if in.Contact != nil {
		return e.bindContact(ctx, in)
	}

	var user models.User
	err := e.db.Where("chat_id = ?", in.ChatID).First(&user).Error
	switch {
	case err == nil:
		return e.handleOwner(ctx, user, in)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("conversa: look up user by chat: %w", err)
	}

	var person models.Person
	err = e.db.Where("chat_id = ?", in.ChatID).First(&person).Error
	switch {
	case err == nil:
		return e.handleChecklist(ctx, person, in)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("conversa: look up person by chat: %w", err)
	}

	// Unknown chat with no contact payload: ask for one.
	return e.adapter.SendContactRequest(ctx, in.ChatID, msgShareContact)
}

// NormalizePhone strips formatting and the Brazilian country code so numbers
// stored with or without +55 compare equal.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 11 && strings.HasPrefix(digits, "55") {
		digits = digits[2:]
	}
	return digits
}

// bindContact links a chat to the user or auxiliary person whose phone
// matches the shared contact. The link is made once; a chat already bound is
// just greeted again.
func (e *Engine) bindContact(ctx context.Context, in bot.Inbound) error {
	phone := NormalizePhone(in.Contact.PhoneNumber)
	if phone == "" {
		return e.adapter.SendText(ctx, in.ChatID, msgContactNotFound)
	}

	var users []models.User
	if err := e.db.Where("telefone <> ''").Find(&users).Error; err != nil {
		return fmt.Errorf("conversa: list users: %w", err)
	}
	for _, u := range users {
		if NormalizePhone(u.Telefone) != phone {
			continue
		}
		if u.ChatID == "" {
			if err := e.db.Model(&models.User{}).Where("id = ?", u.ID).
				Update("chat_id", in.ChatID).Error; err != nil {
				return fmt.Errorf("conversa: bind user chat: %w", err)
			}
			e.log.WithFields(logrus.Fields{"user_id": u.ID, "chat_id": in.ChatID}).
				Info("chat vinculado ao usuário")
		}
		greeting := fmt.Sprintf("Olá, %s! Seu chat foi vinculado com sucesso.", u.FullName)
		return e.adapter.SendText(ctx, in.ChatID, greeting)
	}

	var people []models.Person
	if err := e.db.Find(&people).Error; err != nil {
		return fmt.Errorf("conversa: list people: %w", err)
	}
	for _, p := range people {
		if NormalizePhone(p.Celular) != phone {
			continue
		}
		if p.ChatID == "" {
			if err := e.db.Model(&models.Person{}).Where("id = ?", p.ID).
				Update("chat_id", in.ChatID).Error; err != nil {
				return fmt.Errorf("conversa: bind person chat: %w", err)
			}
			e.log.WithFields(logrus.Fields{"person_id": p.ID, "chat_id": in.ChatID}).
				Info("chat vinculado à pessoa auxiliar")
		}
		greeting := fmt.Sprintf("Olá, %s! Seu chat foi vinculado com sucesso.", p.Name)
		return e.adapter.SendText(ctx, in.ChatID, greeting)
	}

	return e.adapter.SendText(ctx, in.ChatID, msgContactNotFound)
}

// handleOwner advances the owner's auxiliary-person registration
// conversation by one message.
func (e *Engine) handleOwner(ctx context.Context, user models.User, in bot.Inbound) error {
	text := strings.TrimSpace(in.Text)

	var conv models.Conversation
	err := e.db.Where("chat_id = ?", in.ChatID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		conv = models.Conversation{ChatID: in.ChatID, State: models.StateCollectName}
		if err := conv.SetDraft(models.PersonDraft{}); err != nil {
			return fmt.Errorf("conversa: init draft: %w", err)
		}
		if err := e.db.Create(&conv).Error; err != nil {
			return fmt.Errorf("conversa: create conversation: %w", err)
		}
		return e.adapter.SendText(ctx, in.ChatID, msgAskName)
	}
	if err != nil {
		return fmt.Errorf("conversa: load conversation: %w", err)
	}

	draft, err := conv.DraftData()
	if err != nil {
		// Corrupted scratch data is handled like an unknown state.
		return e.resetConversation(ctx, &conv)
	}

	switch conv.State {
	case models.StateCollectName:
		if text == "" {
			return e.adapter.SendText(ctx, in.ChatID, msgAskName)
		}
		draft.Name = text
		return e.advance(ctx, &conv, draft, models.StateCollectEmail, msgAskEmail)

	case models.StateCollectEmail:
		if text == "" {
			return e.adapter.SendText(ctx, in.ChatID, msgAskEmail)
		}
		draft.Email = text
		return e.advance(ctx, &conv, draft, models.StateCollectPhone, msgAskPhone)

	case models.StateCollectPhone:
		if text == "" {
			return e.adapter.SendText(ctx, in.ChatID, msgAskPhone)
		}
		draft.Celular = text
		return e.advance(ctx, &conv, draft, models.StateCollectRole, msgAskRole)

	case models.StateCollectRole:
		role := strings.ToLower(text)
		if !models.ValidRole(role) {
			return e.adapter.SendText(ctx, in.ChatID, msgInvalidRole)
		}
		return e.finishRegistration(ctx, user, &conv, draft, role)

	default:
		return e.resetConversation(ctx, &conv)
	}
}

func (e *Engine) advance(ctx context.Context, conv *models.Conversation, draft models.PersonDraft, next, prompt string) error {
	conv.State = next
	if err := conv.SetDraft(draft); err != nil {
		return fmt.Errorf("conversa: store draft: %w", err)
	}
	if err := e.db.Save(conv).Error; err != nil {
		return fmt.Errorf("conversa: save conversation: %w", err)
	}
	return e.adapter.SendText(ctx, conv.ChatID, prompt)
}

func (e *Engine) resetConversation(ctx context.Context, conv *models.Conversation) error {
	conv.State = models.StateCollectName
	if err := conv.SetDraft(models.PersonDraft{}); err != nil {
		return fmt.Errorf("conversa: reset draft: %w", err)
	}
	if err := e.db.Save(conv).Error; err != nil {
		return fmt.Errorf("conversa: reset conversation: %w", err)
	}
	return e.adapter.SendText(ctx, conv.ChatID, msgResetApology)
}

// finishRegistration inserts the collected person and clears the
// conversation in one transaction.
func (e *Engine) finishRegistration(ctx context.Context, user models.User, conv *models.Conversation, draft models.PersonDraft, role string) error {
	person := models.Person{
		UserID:  user.ID,
		Name:    draft.Name,
		Email:   draft.Email,
		Celular: draft.Celular,
		Role:    role,
	}
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&person).Error; err != nil {
			return err
		}
		return tx.Delete(conv).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			// Drop the draft so the next message starts a fresh flow;
			// keeping it would re-attempt the same duplicate insert.
			if err := e.db.Delete(conv).Error; err != nil {
				return fmt.Errorf("conversa: clear conversation: %w", err)
			}
			return e.adapter.SendText(ctx, conv.ChatID, msgDuplicatePerson)
		}
		return fmt.Errorf("conversa: register person: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"person_id": person.ID,
		"role":      role,
	}).Info("pessoa auxiliar cadastrada via chat")
	confirmation := fmt.Sprintf("%s cadastrado(a) como %s com sucesso!", draft.Name, role)
	return e.adapter.SendText(ctx, conv.ChatID, confirmation)
}

// handleChecklist processes a driver's "Tarefa N concluída" message against
// today's assignment.
func (e *Engine) handleChecklist(ctx context.Context, person models.Person, in bot.Inbound) error {
	date := e.now().Format(models.DateLayout)

	var assignment models.TaskAssignment
	err := e.db.Where("driver_id = ? AND date = ?", person.ID, date).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e.adapter.SendText(ctx, in.ChatID, msgNoTasksToday)
	}
	if err != nil {
		return fmt.Errorf("conversa: load assignment: %w", err)
	}

	m := taskDonePattern.FindStringSubmatch(strings.TrimSpace(in.Text))
	if m == nil {
		return e.adapter.SendText(ctx, in.ChatID, msgUsageHint)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return e.adapter.SendText(ctx, in.ChatID, msgInvalidTask)
	}

	// Item numbers are the 1-based insertion order within the assignment.
	var items []models.TaskItem
	if err := e.db.Where("assignment_id = ?", assignment.ID).Order("id").Find(&items).Error; err != nil {
		return fmt.Errorf("conversa: load items: %w", err)
	}
	if n < 1 || n > len(items) {
		return e.adapter.SendText(ctx, in.ChatID, msgInvalidTask)
	}

	item := items[n-1]
	if err := e.db.Model(&models.TaskItem{}).Where("id = ?", item.ID).
		Update("status", models.StatusConcluida).Error; err != nil {
		return fmt.Errorf("conversa: mark item done: %w", err)
	}
	confirmation := fmt.Sprintf("Tarefa %d marcada como concluída.", n)
	if err := e.adapter.SendText(ctx, in.ChatID, confirmation); err != nil {
		return err
	}

	return e.maybeSendReport(ctx, person, assignment)
}

// maybeSendReport delivers the manager report once, the first time every
// item of the assignment is complete.
func (e *Engine) maybeSendReport(ctx context.Context, person models.Person, assignment models.TaskAssignment) error {
	var pending int64
	err := e.db.Model(&models.TaskItem{}).
		Where("assignment_id = ? AND status = ?", assignment.ID, models.StatusPendente).
		Count(&pending).Error
	if err != nil {
		return fmt.Errorf("conversa: count pending items: %w", err)
	}
	if pending > 0 {
		return nil
	}

	// Re-read the flag so a concurrent completion does not double-send.
	var fresh models.TaskAssignment
	if err := e.db.First(&fresh, assignment.ID).Error; err != nil {
		return fmt.Errorf("conversa: reload assignment: %w", err)
	}
	if fresh.ReportSent {
		return nil
	}

	var gerente models.Person
	err = e.db.
		Joins("JOIN machine_managers ON machine_managers.gerente_id = people.id").
		Joins("JOIN machines ON machines.id = machine_managers.machine_id").
		Where("machines.driver_id = ? AND people.role = ?", person.ID, models.RoleGerente).
		First(&gerente).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e.log.WithField("driver_id", person.ID).Info("checklist concluído sem gerente associado")
		return nil
	}
	if err != nil {
		return fmt.Errorf("conversa: resolve manager: %w", err)
	}

	if err := e.reports.SendToManager(ctx, gerente.ID); err != nil {
		e.log.WithError(err).WithField("gerente_id", gerente.ID).
			Error("falha ao enviar relatório ao gerente")
		return nil
	}
	if err := e.db.Model(&models.TaskAssignment{}).Where("id = ?", assignment.ID).
		Update("report_sent", true).Error; err != nil {
		return fmt.Errorf("conversa: mark report sent: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

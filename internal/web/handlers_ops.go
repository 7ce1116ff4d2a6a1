package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/models"
)

func (s *Server) handleGenerateTasks(c *gin.Context) {
	if err := s.generator.Run(c.Request.Context()); err != nil {
		s.log.WithError(err).Error("geração manual de tarefas falhou")
		flash(c, "Erro ao gerar as tarefas de manutenção.")
	} else {
		flash(c, "Tarefas de manutenção geradas com sucesso.")
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (s *Server) handleAssignTasks(c *gin.Context) {
	if err := s.assigner.Run(c.Request.Context()); err != nil {
		s.log.WithError(err).Error("atribuição manual de tarefas falhou")
		flash(c, "Erro ao atribuir as tarefas aos motoristas.")
	} else {
		flash(c, "Tarefas de manutenção atribuídas aos motoristas com sucesso!")
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// gerenteID resolves a gerente path parameter, scoped to the current user.
func (s *Server) gerenteID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	var gerente models.Person
	err = s.db.Where("id = ? AND user_id = ? AND role = ?",
		id, currentUserID(c), models.RoleGerente).First(&gerente).Error
	if err != nil {
		return 0, false
	}
	return gerente.ID, true
}

func (s *Server) handleSendReport(c *gin.Context) {
	gerenteID, ok := s.gerenteID(c)
	if !ok {
		flash(c, "Gerente não encontrado.")
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	if err := s.reports.SendToManager(c.Request.Context(), gerenteID); err != nil {
		s.log.WithError(err).Error("falha ao enviar relatório ao gerente")
		flash(c, "Erro ao enviar o relatório ao gerente.")
	} else {
		flash(c, "Relatório enviado!")
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (s *Server) handleReportPDF(c *gin.Context) {
	gerenteID, ok := s.gerenteID(c)
	if !ok {
		c.String(http.StatusNotFound, "Gerente não encontrado.")
		return
	}
	pdf, err := s.reports.BuildPDF(gerenteID)
	if err != nil {
		s.log.WithError(err).Error("falha ao gerar relatório PDF")
		c.String(http.StatusInternalServerError, "Erro ao gerar o relatório.")
		return
	}
	name := fmt.Sprintf("relatorio_gerente_%d.pdf", gerenteID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) handleTextToAudio(c *gin.Context) {
	if s.speaker == nil {
		c.String(http.StatusServiceUnavailable, "Conversão de áudio desabilitada.")
		return
	}
	text := strings.TrimSpace(c.PostForm("text_input"))
	if text == "" {
		c.String(http.StatusBadRequest, "Informe o texto a converter.")
		return
	}
	audio, err := s.speaker.Synthesize(c.Request.Context(), text)
	if err != nil {
		s.log.WithError(err).Error("falha na síntese de áudio")
		c.String(http.StatusInternalServerError, "Erro ao gerar o áudio.")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="audio.mp3"`)
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// handleWebhook accepts Telegram updates. It always acknowledges with 200
// "OK" so Telegram does not retry; processing failures are logged only.
func (s *Server) handleWebhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		s.log.WithError(err).Warn("payload de webhook inválido")
		c.String(http.StatusOK, "OK")
		return
	}
	in, ok := bot.FromUpdate(update)
	if !ok {
		c.String(http.StatusOK, "OK")
		return
	}
	if err := s.inbound.HandleInbound(c.Request.Context(), in); err != nil {
		s.log.WithError(err).WithField("chat_id", in.ChatID).Error("falha ao processar mensagem do webhook")
	}
	c.String(http.StatusOK, "OK")
}

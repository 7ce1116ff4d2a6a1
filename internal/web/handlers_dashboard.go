package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zerbini/agrofrota/internal/clima"
	"github.com/zerbini/agrofrota/internal/models"
)

// taskRow is one checklist line shown on the dashboard, joined with the
// driver who owns it.
type taskRow struct {
	Task      string
	Status    string
	Motorista string
}

func (s *Server) handleDashboard(c *gin.Context) {
	userID := currentUserID(c)

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		s.log.WithError(err).Error("falha ao carregar usuário")
		clearSession(c)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	data := gin.H{
		"Username": user.Username,
		"Flash":    takeFlash(c),
	}

	if user.Cidade == "" || user.Estado == "" {
		data["MissingLocation"] = true
		c.HTML(http.StatusOK, "dashboard.html", data)
		return
	}

	// Weather and news are best-effort: the dashboard renders without them.
	if w, err := s.clima.For(c.Request.Context(), user.Cidade, user.Estado); err == nil {
		data["Weather"] = w
	} else {
		s.log.WithError(err).Warn("clima indisponível no dashboard")
		data["Weather"] = clima.Weather{Description: "Informações climáticas indisponíveis"}
	}
	if articles, err := s.clima.TopHeadlines(c.Request.Context()); err == nil {
		data["Noticias"] = articles
	} else {
		s.log.WithError(err).Warn("notícias indisponíveis no dashboard")
	}

	rows, err := s.todayTasks(userID)
	if err != nil {
		s.log.WithError(err).Error("falha ao carregar tarefas do dia")
	}
	data["Tasks"] = rows
	data["Cidade"] = user.Cidade
	data["Estado"] = user.Estado

	c.HTML(http.StatusOK, "dashboard.html", data)
}

// todayTasks lists today's checklist items across all of the user's drivers.
func (s *Server) todayTasks(userID uint) ([]taskRow, error) {
	date := s.now().Format(models.DateLayout)
	var rows []taskRow
	err := s.db.Model(&models.TaskItem{}).
		Select("task_items.task AS task, task_items.status AS status, people.name AS motorista").
		Joins("JOIN task_assignments ON task_assignments.id = task_items.assignment_id").
		Joins("JOIN people ON people.id = task_assignments.driver_id").
		Joins("JOIN machines ON machines.driver_id = people.id").
		Where("machines.user_id = ? AND task_assignments.date = ?", userID, date).
		Order("task_items.id").
		Scan(&rows).Error
	return rows, err
}

func (s *Server) handleDadosPessoaisPage(c *gin.Context) {
	userID := currentUserID(c)

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		s.log.WithError(err).Error("falha ao carregar usuário")
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	data := gin.H{"User": user, "Flash": takeFlash(c)}
	if estados, err := s.clima.Estados(c.Request.Context()); err == nil {
		data["Estados"] = estados
	} else {
		s.log.WithError(err).Warn("estados IBGE indisponíveis")
	}
	if user.Estado != "" {
		if cidades, err := s.clima.Municipios(c.Request.Context(), user.Estado); err == nil {
			data["Cidades"] = cidades
		} else {
			s.log.WithError(err).Warn("municípios IBGE indisponíveis")
		}
	}
	c.HTML(http.StatusOK, "dados_pessoais.html", data)
}

func (s *Server) handleDadosPessoais(c *gin.Context) {
	userID := currentUserID(c)

	updates := map[string]interface{}{
		"full_name":            strings.TrimSpace(c.PostForm("full_name")),
		"email":                strings.TrimSpace(c.PostForm("email")),
		"telefone":             strings.TrimSpace(c.PostForm("telefone")),
		"endereco":             strings.TrimSpace(c.PostForm("endereco")),
		"tamanho_fazenda":      strings.TrimSpace(c.PostForm("tamanho_fazenda")),
		"tipo_cultivo":         strings.TrimSpace(c.PostForm("tipo_cultivo")),
		"sistema_irrigacao":    strings.TrimSpace(c.PostForm("sistema_irrigacao")),
		"numero_funcionarios":  strings.TrimSpace(c.PostForm("numero_funcionarios")),
		"historico_pesticidas": strings.TrimSpace(c.PostForm("historico_pesticidas")),
		"observacoes":          strings.TrimSpace(c.PostForm("observacoes")),
		"estado":               strings.ToUpper(strings.TrimSpace(c.PostForm("estado"))),
		"cidade":               strings.TrimSpace(c.PostForm("cidade")),
	}
	err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
	if err != nil {
		s.log.WithError(err).Error("falha ao atualizar dados pessoais")
		flash(c, "Erro ao atualizar os dados. Tente novamente.")
		c.Redirect(http.StatusFound, "/dados_pessoais")
		return
	}
	flash(c, "Dados pessoais atualizados com sucesso!")
	c.Redirect(http.StatusFound, "/dashboard")
}

func (s *Server) handleMunicipios(c *gin.Context) {
	uf := strings.ToUpper(c.Param("uf"))
	cidades, err := s.clima.Municipios(c.Request.Context(), uf)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "municípios indisponíveis"})
		return
	}
	c.JSON(http.StatusOK, cidades)
}

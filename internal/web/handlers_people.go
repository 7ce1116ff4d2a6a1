package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/gorm"
)

func (s *Server) handlePeoplePage(c *gin.Context) {
	userID := currentUserID(c)

	var people []models.Person
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&people).Error; err != nil {
		s.log.WithError(err).Error("falha ao listar pessoas auxiliares")
	}
	c.HTML(http.StatusOK, "pessoas_auxiliares.html", gin.H{
		"People": people,
		"Flash":  takeFlash(c),
	})
}

// handlePeopleReplace swaps the user's whole auxiliary-person list for the
// submitted rows. Rows are indexed form fields (auxiliary_name_1,
// auxiliary_email_1, ...); incomplete rows are dropped.
func (s *Server) handlePeopleReplace(c *gin.Context) {
	userID := currentUserID(c)

	var replacements []models.Person
	for i := 1; ; i++ {
		name, ok := c.GetPostForm(fmt.Sprintf("auxiliary_name_%d", i))
		if !ok {
			break
		}
		name = strings.TrimSpace(name)
		email := strings.TrimSpace(c.PostForm(fmt.Sprintf("auxiliary_email_%d", i)))
		celular := strings.TrimSpace(c.PostForm(fmt.Sprintf("auxiliary_celular_%d", i)))
		chatID := strings.TrimSpace(c.PostForm(fmt.Sprintf("auxiliary_chat_id_%d", i)))
		role := strings.ToLower(strings.TrimSpace(c.PostForm(fmt.Sprintf("auxiliary_role_%d", i))))

		if name == "" || email == "" || celular == "" || !models.ValidRole(role) {
			continue
		}
		replacements = append(replacements, models.Person{
			UserID:  userID,
			Name:    name,
			Email:   email,
			Celular: celular,
			ChatID:  chatID,
			Role:    role,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Person{}).Error; err != nil {
			return err
		}
		for i := range replacements {
			if err := tx.Create(&replacements[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).Error("falha ao atualizar pessoas auxiliares")
		flash(c, "Ocorreu um erro ao atualizar as pessoas auxiliares. Por favor, tente novamente.")
	} else {
		flash(c, "Pessoas auxiliares atualizadas com sucesso!")
	}
	c.Redirect(http.StatusFound, "/pessoas_auxiliares")
}

package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/gorm"
)

func (s *Server) handleLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Flash": takeFlash(c)})
}

func (s *Server) handleLogin(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil || !s.auth.CheckPassword(password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": "Credenciais inválidas!"})
		return
	}

	token, err := s.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.log.WithError(err).Error("falha ao emitir token de sessão")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"Error": "Erro interno. Tente novamente."})
		return
	}
	setSession(c, token)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (s *Server) handleRegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", nil)
}

func (s *Server) handleRegister(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{"Error": "Preencha usuário e senha."})
		return
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		s.log.WithError(err).Error("falha ao gerar hash de senha")
		c.HTML(http.StatusInternalServerError, "register.html", gin.H{"Error": "Erro interno. Tente novamente."})
		return
	}

	user := models.User{Username: username, PasswordHash: hash}
	if err := s.db.Create(&user).Error; err != nil {
		if isDuplicate(err) {
			c.HTML(http.StatusConflict, "register.html", gin.H{"Error": "Usuário já existe!"})
			return
		}
		s.log.WithError(err).Error("falha ao registrar usuário")
		c.HTML(http.StatusInternalServerError, "register.html", gin.H{"Error": "Erro interno. Tente novamente."})
		return
	}
	flash(c, "Cadastro realizado com sucesso. Faça login.")
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) handleLogout(c *gin.Context) {
	clearSession(c)
	c.Redirect(http.StatusFound, "/login")
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

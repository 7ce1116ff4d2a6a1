package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zerbini/agrofrota/internal/catalog"
	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/gorm"
)

func (s *Server) handleMachinesPage(c *gin.Context) {
	userID := currentUserID(c)

	var machines []models.Machine
	err := s.db.Preload("Driver").Preload("Managers").
		Where("user_id = ?", userID).Order("id").Find(&machines).Error
	if err != nil {
		s.log.WithError(err).Error("falha ao listar máquinas")
	}

	var people []models.Person
	if err := s.db.Where("user_id = ?", userID).Order("name").Find(&people).Error; err != nil {
		s.log.WithError(err).Error("falha ao listar pessoas auxiliares")
	}
	var motoristas, gerentes []models.Person
	for _, p := range people {
		switch p.Role {
		case models.RoleMotorista:
			motoristas = append(motoristas, p)
		case models.RoleGerente:
			gerentes = append(gerentes, p)
		}
	}

	c.HTML(http.StatusOK, "maquinas.html", gin.H{
		"Machines":   machines,
		"Series":     catalog.AllSeries(),
		"Motoristas": motoristas,
		"Gerentes":   gerentes,
		"Flash":      takeFlash(c),
	})
}

func (s *Server) handleMachineCreate(c *gin.Context) {
	userID := currentUserID(c)
	model := strings.TrimSpace(c.PostForm("model"))
	serial := strings.TrimSpace(c.PostForm("serial_number"))

	if !catalog.ValidModel(model) {
		flash(c, "Modelo de máquina inválido.")
		c.Redirect(http.StatusFound, "/maquinas")
		return
	}
	if serial == "" {
		flash(c, "Informe o número de série.")
		c.Redirect(http.StatusFound, "/maquinas")
		return
	}

	machine := models.Machine{
		UserID:       userID,
		Model:        model,
		SerialNumber: serial,
		PurchaseDate: strings.TrimSpace(c.PostForm("purchase_date")),
		OtherDetails: strings.TrimSpace(c.PostForm("other_details")),
	}
	if driverID := s.ownedPersonID(userID, c.PostForm("motorista_id"), models.RoleMotorista); driverID != 0 {
		machine.DriverID = &driverID
	}
	if err := s.db.Create(&machine).Error; err != nil {
		s.log.WithError(err).Error("falha ao cadastrar máquina")
		flash(c, "Erro ao cadastrar a máquina. Tente novamente.")
		c.Redirect(http.StatusFound, "/maquinas")
		return
	}
	flash(c, "Máquina cadastrada com sucesso!")
	c.Redirect(http.StatusFound, "/maquinas")
}

func (s *Server) handleMachineDelete(c *gin.Context) {
	userID := currentUserID(c)
	machineID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/maquinas")
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", machineID, userID).Delete(&models.Machine{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("machine_id = ?", machineID).Delete(&models.MachineManager{}).Error
	})
	if err != nil {
		flash(c, "Máquina não encontrada.")
	} else {
		flash(c, "Máquina removida.")
	}
	c.Redirect(http.StatusFound, "/maquinas")
}

// handleMachineManager replaces the manager assignment of one machine.
func (s *Server) handleMachineManager(c *gin.Context) {
	userID := currentUserID(c)
	machineID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/maquinas")
		return
	}

	var machine models.Machine
	if err := s.db.Where("id = ? AND user_id = ?", machineID, userID).First(&machine).Error; err != nil {
		flash(c, "Máquina não encontrada.")
		c.Redirect(http.StatusFound, "/maquinas")
		return
	}
	gerenteID := s.ownedPersonID(userID, c.PostForm("gerente_id"), models.RoleGerente)
	if gerenteID == 0 {
		flash(c, "Gerente inválido.")
		c.Redirect(http.StatusFound, "/maquinas")
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("machine_id = ?", machine.ID).Delete(&models.MachineManager{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.MachineManager{MachineID: machine.ID, GerenteID: gerenteID}).Error
	})
	if err != nil {
		s.log.WithError(err).Error("falha ao atribuir gerente")
		flash(c, "Erro ao atribuir o gerente. Tente novamente.")
	} else {
		flash(c, "Gerente atribuído com sucesso!")
	}
	c.Redirect(http.StatusFound, "/maquinas")
}

// ownedPersonID parses a person id from a form value and verifies it belongs
// to the user with the expected role. Returns 0 when invalid.
func (s *Server) ownedPersonID(userID uint, raw, role string) uint {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	var person models.Person
	err = s.db.Where("id = ? AND user_id = ? AND role = ?", id, userID, role).First(&person).Error
	if err != nil {
		return 0
	}
	return person.ID
}

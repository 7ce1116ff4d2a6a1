package models

import "time"

// User is a farm owner account. Cidade and Estado drive weather lookups and
// maintenance template matching for every machine the user owns.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	FullName     string `gorm:"size:128"`
	Email        string `gorm:"size:128"`
	Telefone     string `gorm:"size:32"`
	Endereco     string `gorm:"size:256"`
	ChatID       string `gorm:"size:32;index"`

	TamanhoFazenda      float64
	TipoCultivo         string `gorm:"size:64"`
	SistemaIrrigacao    string `gorm:"size:64"`
	NumeroFuncionarios  int
	HistoricoPesticidas string `gorm:"type:text"`
	Observacoes         string `gorm:"type:text"`

	Estado string `gorm:"size:2"`
	Cidade string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time

	People   []Person  `gorm:"foreignKey:UserID"`
	Machines []Machine `gorm:"foreignKey:UserID"`
}

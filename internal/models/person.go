package models

import "time"

// Person roles. Gerentes supervise machines through MachineManager rows;
// motoristas operate a machine directly via Machine.DriverID.
const (
	RoleGerente   = "gerente"
	RoleMotorista = "motorista"
)

// Person is an auxiliary person (driver or manager) registered under a farm
// owner. ChatID is empty until the person shares their phone number with the
// bot, after which it is bound exactly once.
type Person struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	UserID  uint   `gorm:"not null;index"`
	Name    string `gorm:"size:128;not null"`
	Email   string `gorm:"size:128;not null"`
	Celular string `gorm:"size:32;uniqueIndex;not null"`
	ChatID  string `gorm:"size:32;index"`
	Role    string `gorm:"size:16;not null"`

	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

// ValidRole reports whether role is one of the two accepted person roles.
func ValidRole(role string) bool {
	return role == RoleGerente || role == RoleMotorista
}

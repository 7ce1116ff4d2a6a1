package models

import "time"

// Machine is a piece of agricultural equipment owned by a user. Model must
// belong to the static catalog (internal/catalog). A machine has at most one
// driver and any number of managers.
type Machine struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	UserID       uint   `gorm:"not null;index"`
	DriverID     *uint  `gorm:"index"`
	Model        string `gorm:"size:32;not null;index"`
	SerialNumber string `gorm:"size:64"`
	PurchaseDate string `gorm:"size:10"`
	OtherDetails string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	User     User             `gorm:"foreignKey:UserID"`
	Driver   *Person          `gorm:"foreignKey:DriverID"`
	Managers []MachineManager `gorm:"foreignKey:MachineID"`
}

// MachineManager links a gerente to a machine (many-to-many).
type MachineManager struct {
	MachineID uint `gorm:"primaryKey"`
	GerenteID uint `gorm:"primaryKey"`

	Machine Machine `gorm:"foreignKey:MachineID"`
	Gerente Person  `gorm:"foreignKey:GerenteID"`
}

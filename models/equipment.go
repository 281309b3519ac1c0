// models/equipment.go
package models

import "time"

const EquipmentTable = "lsb_equipment"

// Equipment 池化器材：按数量借出与归还
type Equipment struct {
	ID          string    `gorm:"size:40;primaryKey" json:"id"`
	Category    string    `gorm:"size:60;not null;index" json:"category"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Total       int       `gorm:"not null" json:"total"`
	Remaining   int       `gorm:"not null" json:"remaining"` // 0 <= remaining <= total，只由数量台账修改
	Description string    `gorm:"size:500" json:"description,omitempty"`
	Location    string    `gorm:"size:120" json:"location,omitempty"`
	Cabinet     string    `gorm:"size:60" json:"cabinet,omitempty"`
	Shelf       int       `json:"shelf,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return EquipmentTable }

// models/rotation.go
package models

import "time"

const RotationTable = "lsb_rotation_entries"

// RotationEntry 轮值环成员：每个类目一个环，同一时间最多一个 current
type RotationEntry struct {
	ID         string    `gorm:"size:40;primaryKey" json:"id"`
	Category   string    `gorm:"size:60;not null;index" json:"category"`
	MemberID   string    `gorm:"size:64;not null" json:"memberId"`
	MemberName string    `gorm:"size:120;not null" json:"memberName"`
	Position   int       `gorm:"not null" json:"order"`
	Current    bool      `gorm:"not null;default:false" json:"current"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (RotationEntry) TableName() string { return RotationTable }

// models/workstation.go
package models

import "time"

const WorkstationTable = "lsb_workstations"

// Workstation 独占性资源：同一时间最多一名占用者
type Workstation struct {
	ID        string    `gorm:"size:40;primaryKey" json:"id"`
	Location  string    `gorm:"size:120;not null;uniqueIndex:uniq_ws_location_number" json:"location"`
	Number    int       `gorm:"not null;uniqueIndex:uniq_ws_location_number" json:"number"`
	Occupied  bool      `gorm:"not null;default:false" json:"occupied"` // 只由占用台账修改
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Workstation) TableName() string { return WorkstationTable }

// models/reservation.go
package models

import "time"

const ReservationTable = "lsb_reservations"
const ReservationLineTable = "lsb_reservation_lines"

type Kind string

const (
	KindWorkstation Kind = "workstation"
	KindEquipment   Kind = "equipment"
)

type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateReturned  State = "returned"
	StateCancelled State = "cancelled"
)

// Terminal 终态不再接受任何操作
func (s State) Terminal() bool { return s == StateReturned || s == StateCancelled }

// HoldingStates 这些状态下工位占用保持有效（提交即占用，取消或归还才释放）
func HoldingStates() []State { return []State{StatePending, StateRejected, StateApproved} }

type Reservation struct {
	ID            string  `gorm:"size:40;primaryKey" json:"id"`
	Kind          Kind    `gorm:"size:20;not null;index" json:"kind"`
	RequesterID   string  `gorm:"size:64;not null;index" json:"requesterId"`
	RequesterName string  `gorm:"size:120;not null" json:"requesterName"`
	Phone         string  `gorm:"size:32" json:"phone,omitempty"`
	Email         string  `gorm:"size:255" json:"email,omitempty"`
	Purpose       string  `gorm:"size:500;not null" json:"purpose"`
	ProjectID     string  `gorm:"size:64" json:"projectId,omitempty"`
	WorkstationID *string `gorm:"size:40;index" json:"workstationId,omitempty"`

	StartAt  time.Time `gorm:"not null" json:"startAt"`
	Deadline time.Time `gorm:"not null" json:"deadline"`

	State      State      `gorm:"size:20;not null;default:'pending';index" json:"state"`
	Review     string     `gorm:"size:500" json:"review,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
	ReturnedBy string     `gorm:"size:64" json:"returnedBy,omitempty"`

	Lines []ReservationLine `gorm:"foreignKey:ReservationID" json:"lines,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReservationLine 清单行：提交时落库的 (器材, 数量) 结构化对
type ReservationLine struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	ReservationID string `gorm:"size:40;index;not null" json:"-"`
	EquipmentID   string `gorm:"size:40;index;not null" json:"equipmentId"`
	Name          string `gorm:"size:200" json:"name"` // 提交时的名称快照
	Quantity      int    `gorm:"not null" json:"quantity"`
}

func (Reservation) TableName() string     { return ReservationTable }
func (ReservationLine) TableName() string { return ReservationLineTable }

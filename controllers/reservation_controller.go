// controllers/reservation_controller.go
package controllers

import (
	"net/http"
	"time"

	"makerhub/app"
	"makerhub/models"
	"makerhub/reservation"
	"makerhub/session"
	"makerhub/store"

	"github.com/gin-gonic/gin"
)

type ReservationController struct{ *Srv }

func NewReservationController(s *Srv) *ReservationController { return &ReservationController{Srv: s} }

type lineBody struct {
	EquipmentID string `json:"equipmentId" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
}

func toLines(in []lineBody) []reservation.Line {
	out := make([]reservation.Line, 0, len(in))
	for _, l := range in {
		out = append(out, reservation.Line{EquipmentID: l.EquipmentID, Quantity: l.Quantity})
	}
	return out
}

// 提交一份预约申请
func (rc *ReservationController) Submit(c *gin.Context) {
	var in struct {
		Kind          string     `json:"kind" binding:"required"`
		RequesterName string     `json:"requesterName" binding:"required"`
		Phone         string     `json:"phone"`
		Email         string     `json:"email"`
		Purpose       string     `json:"purpose" binding:"required"`
		ProjectID     string     `json:"projectId"`
		WorkstationID string     `json:"workstationId"`
		Lines         []lineBody `json:"lines"`
		StartAt       time.Time  `json:"startAt" binding:"required"`
		Deadline      time.Time  `json:"deadline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	r, err := rc.Engine.Submit(c.Request.Context(), c.GetString("userID"), reservation.Input{
		Kind:          models.Kind(in.Kind),
		RequesterName: in.RequesterName,
		Phone:         in.Phone,
		Email:         in.Email,
		Purpose:       in.Purpose,
		ProjectID:     in.ProjectID,
		WorkstationID: in.WorkstationID,
		Lines:         toLines(in.Lines),
		StartAt:       in.StartAt,
		Deadline:      in.Deadline,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// 查看单条；本人或 staff 可见
func (rc *ReservationController) Get(c *gin.Context) {
	r, err := rc.Engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	if r.RequesterID != c.GetString("userID") && c.GetString("role") != session.RoleStaff {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, r)
}

// 普通用户：自己名下的申请
func (rc *ReservationController) ListMine(c *gin.Context) {
	f := store.ReservationFilter{
		RequesterID: c.GetString("userID"),
		Kind:        models.Kind(c.Query("kind")),
		State:       models.State(c.Query("state")),
	}
	list, err := rc.Engine.List(c.Request.Context(), f)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"reservations": list, "total": len(list)})
}

// staff：审核台全量列表
func (rc *ReservationController) ListAll(c *gin.Context) {
	f := store.ReservationFilter{
		RequesterID:   c.Query("requesterId"),
		Kind:          models.Kind(c.Query("kind")),
		State:         models.State(c.Query("state")),
		WorkstationID: c.Query("workstationId"),
	}
	list, err := rc.Engine.List(c.Request.Context(), f)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"reservations": list, "total": len(list)})
}

// 待审或被打回时，申请人可改内容重新排队
func (rc *ReservationController) Update(c *gin.Context) {
	var in struct {
		RequesterName string     `json:"requesterName" binding:"required"`
		Phone         string     `json:"phone"`
		Email         string     `json:"email"`
		Purpose       string     `json:"purpose" binding:"required"`
		ProjectID     string     `json:"projectId"`
		Lines         []lineBody `json:"lines"`
		StartAt       time.Time  `json:"startAt" binding:"required"`
		Deadline      time.Time  `json:"deadline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	r, err := rc.Engine.Update(c.Request.Context(), c.Param("id"), c.GetString("userID"), reservation.UpdateInput{
		RequesterName: in.RequesterName,
		Phone:         in.Phone,
		Email:         in.Email,
		Purpose:       in.Purpose,
		ProjectID:     in.ProjectID,
		Lines:         toLines(in.Lines),
		StartAt:       in.StartAt,
		Deadline:      in.Deadline,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// 申请人撤回
func (rc *ReservationController) Cancel(c *gin.Context) {
	r, err := rc.Engine.Cancel(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// staff 审核：approve / reject，打回必须带意见
func (rc *ReservationController) Review(c *gin.Context) {
	var in struct {
		Decision string `json:"decision" binding:"required"`
		Comment  string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	r, err := rc.Engine.Review(c.Request.Context(), c.Param("id"), c.GetString("userID"), reservation.Decision(in.Decision), in.Comment)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// 归还：本人或 staff 代办
func (rc *ReservationController) Return(c *gin.Context) {
	r, err := rc.Engine.Return(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

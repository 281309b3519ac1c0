// controllers/rotation_controller.go
package controllers

import (
	"net/http"

	"makerhub/app"
	"makerhub/rotation"

	"github.com/gin-gonic/gin"
)

type RotationController struct{ *Srv }

func NewRotationController(s *Srv) *RotationController { return &RotationController{Srv: s} }

// staff 重建某类目的轮值环，顺序即名单顺序
func (rc *RotationController) Seed(c *gin.Context) {
	var in struct {
		Members []struct {
			ID   string `json:"id" binding:"required"`
			Name string `json:"name" binding:"required"`
		} `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	members := make([]rotation.Member, 0, len(in.Members))
	for _, m := range in.Members {
		members = append(members, rotation.Member{ID: m.ID, Name: m.Name})
	}
	entries, err := rc.Scheduler.Seed(c.Request.Context(), c.GetString("userID"), c.Param("category"), members)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"entries": entries})
}

// 当前值班人；空类目返回 null
func (rc *RotationController) Current(c *gin.Context) {
	cur, err := rc.Scheduler.Current(c.Request.Context(), c.Param("category"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"current": cur})
}

// staff 手动推进指针
func (rc *RotationController) Advance(c *gin.Context) {
	cur, err := rc.Scheduler.Advance(c.Request.Context(), c.GetString("userID"), c.Param("category"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"current": cur})
}

// staff 派一次任务：返回值班人并顺势推进
func (rc *RotationController) Assign(c *gin.Context) {
	holder, err := rc.Scheduler.AssignNext(c.Request.Context(), c.GetString("userID"), c.Param("category"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"assignee": holder})
}

// staff 全类目快照
func (rc *RotationController) Snapshot(c *gin.Context) {
	snap, err := rc.Scheduler.Snapshot(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": snap})
}

// controllers/srv.go
package controllers

import (
	"errors"
	"net/http"

	"makerhub/app"
	"makerhub/catalog"
	"makerhub/fault"
	"makerhub/reservation"
	"makerhub/rotation"
	"makerhub/session"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Engine    *reservation.Engine
	Catalog   *catalog.Service
	Scheduler *rotation.Scheduler
	Sessions  session.Resolver
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Engine:    a.Engine,
		Catalog:   a.Catalog,
		Scheduler: a.Scheduler,
		Sessions:  a.Sessions(),
	}
}

// --- helpers ---

// 统一错误出口：按错误类别映射状态码，业务冲突一律 409
func writeErr(c *gin.Context, err error) {
	var (
		ve *fault.ValidationError
		ae *fault.AuthzError
		nf *fault.NotFoundError
		ie *fault.InsufficientError
		se *fault.StaleError
		te *fault.StateError
		ce *fault.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, app.H{"error": ve.Error()})
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, app.H{"error": ae.Error()})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, app.H{"error": nf.Error()})
	case errors.As(err, &ie):
		c.JSON(http.StatusConflict, app.H{"error": ie.Error(), "items": ie.Items})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, app.H{"error": se.Error(), "state": se.State})
	case errors.As(err, &te):
		c.JSON(http.StatusConflict, app.H{"error": te.Error(), "state": te.State})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, app.H{"error": ce.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}

// 当前请求者；Staff 由会话角色决定
func actorFrom(c *gin.Context) reservation.Actor {
	return reservation.Actor{
		ID:    c.GetString("userID"),
		Staff: c.GetString("role") == session.RoleStaff,
	}
}

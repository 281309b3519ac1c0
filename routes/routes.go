package routes

import (
	"makerhub/app"
	"makerhub/controllers"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	resvCtl := controllers.NewReservationController(s)
	catCtl := controllers.NewCatalogController(s)
	rotCtl := controllers.NewRotationController(s)

	// 复用的中间件
	authMW := app.IdentityRequired(a.Sessions())
	staffMW := app.StaffOnly()
	secureCookie := strings.HasPrefix(a.Config.WebOrigin, "https://")

	// ------------------------------
	// 会话（签发在组织认证服务，这里只解析与注销）
	// ------------------------------
	auth := r.Group("/api/auth", authMW)
	{
		auth.GET("/whoami", func(c *app.Ctx) {
			c.JSON(http.StatusOK, app.H{
				"userID": c.GetString("userID"),
				"role":   c.GetString("role"),
			})
		})

		// 登出
		auth.POST("/logout", func(c *app.Ctx) {
			if token := c.GetString("sessionToken"); token != "" {
				_ = a.Sessions().Delete(c.Request.Context(), token)
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     app.AppSessionCookie,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   secureCookie,
			})
			c.JSON(http.StatusOK, app.H{"ok": true})
		})
	}

	// ------------------------------
	// 预约（提交/改/撤/归还）
	// ------------------------------
	resv := r.Group("/api/reservations", authMW)
	{
		resv.POST("", resvCtl.Submit)
		resv.GET("/mine", resvCtl.ListMine) // ?state=&kind=
		resv.GET("/:id", resvCtl.Get)
		resv.PUT("/:id", resvCtl.Update)
		resv.POST("/:id/cancel", resvCtl.Cancel)
		resv.POST("/:id/return", resvCtl.Return)
	}

	// 审核台（仅 staff）
	resvStaff := r.Group("/api/reservations", authMW, staffMW)
	{
		resvStaff.GET("", resvCtl.ListAll) // ?state=&kind=&requesterId=&workstationId=
		resvStaff.POST("/:id/review", resvCtl.Review)
	}

	// ------------------------------
	// 资源目录（工位与池化物资）
	// ------------------------------
	cat := r.Group("/api/catalog", authMW)
	{
		cat.GET("/workstations", catCtl.ListWorkstations) // ?location=&occupied=
		cat.GET("/equipment", catCtl.ListEquipment)       // ?category=&name=
	}

	catStaff := r.Group("/api/catalog", authMW, staffMW)
	{
		catStaff.POST("/workstations", catCtl.ProvisionWorkstations)
		catStaff.DELETE("/workstations/:id", catCtl.RemoveWorkstation)
		catStaff.POST("/equipment", catCtl.AddEquipment)
		catStaff.PUT("/equipment/:id", catCtl.UpdateEquipment)
		catStaff.DELETE("/equipment/:id", catCtl.RemoveEquipment)
		catStaff.GET("/overview", catCtl.Overview)
	}

	// ------------------------------
	// 轮值
	// ------------------------------
	rot := r.Group("/api/rotation", authMW)
	{
		rot.GET("/:category/current", rotCtl.Current)
	}

	rotStaff := r.Group("/api/rotation", authMW, staffMW)
	{
		rotStaff.GET("", rotCtl.Snapshot)
		rotStaff.PUT("/:category", rotCtl.Seed)
		rotStaff.POST("/:category/advance", rotCtl.Advance)
		rotStaff.POST("/:category/assign", rotCtl.Assign)
	}
}

package main

import (
	"log/slog"
	"makerhub/app"
	"makerhub/config"
	"makerhub/routes"
	"os"
)

func main() {
	config.LoadEnv()
	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	slog.Info("服务启动", "port", port, "store", application.Config.StoreDriver)
	if err := r.Run(":" + port); err != nil {
		slog.Error("服务退出", "err", err)
		os.Exit(1)
	}
}

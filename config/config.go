// config/config.go
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv 先读 .env，再由各处自行取环境变量；文件不存在时静默跳过
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("读取 .env 失败", "err", err)
		}
		return
	}
	slog.Info(".env 已加载")
}

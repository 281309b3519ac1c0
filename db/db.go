package db

import (
	"fmt"
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"makerhub/models"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	// TranslateError 把重复键统一成 gorm.ErrDuplicatedKey
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}

	if err = Migrate(DB); err != nil {
		slog.Error("failed to migrate models", "err", err)
		os.Exit(1)
	}
	slog.Info("database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Workstation{},
		&models.Equipment{},
		&models.Reservation{},
		&models.ReservationLine{},
		&models.RotationEntry{},
	); err != nil {
		return err
	}

	// 同一工位最多一条持有占用的申请
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_holder_per_workstation
	  ON %s (workstation_id)
	  WHERE workstation_id IS NOT NULL AND state IN ('pending', 'rejected', 'approved');
	`, models.ReservationTable, models.ReservationTable)).Error; err != nil {
		return err
	}

	// 每个类目最多一个 current
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_current_per_category
	  ON %s (category)
	  WHERE current;
	`, models.RotationTable, models.RotationTable)).Error; err != nil {
		return err
	}

	// 审核台按状态+时间取件更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_state_createdat
	  ON %s (state, created_at);
	`, models.ReservationTable, models.ReservationTable)).Error; err != nil {
		return err
	}

	return nil
}

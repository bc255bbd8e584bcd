package db

import (
	"fmt"
	"log"
	"os"

	"lockerbox/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Locker{},
		&models.Rental{},
		&models.PaymentTransaction{},
		&models.UnlockLog{},
	); err != nil {
		return err
	}

	// 同一柜子最多一条“存活”的租约（invariant 的最后一道防线）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_live_per_locker
	  ON %s (locker_number)
	  WHERE state IN ('active','unlocked');
	`, models.RentalTable, models.RentalTable)).Error; err != nil {
		return err
	}

	// PIN 在存活租约之间必须唯一，过期后允许复用
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_live_pin
	  ON %s (access_pin)
	  WHERE state IN ('active','unlocked');
	`, models.RentalTable, models.RentalTable)).Error; err != nil {
		return err
	}

	// 扫描到期租约更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_live_endtime
	  ON %s (end_time)
	  WHERE state IN ('active','unlocked');
	`, models.RentalTable, models.RentalTable)).Error; err != nil {
		return err
	}

	return nil
}

// SeedLockers provisions the physical bank on first boot: 1-8 small,
// 9-16 medium, 17-24 large. A non-empty table is left alone.
func SeedLockers(db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Locker{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	lockers := make([]models.Locker, 0, 24)
	for i := 1; i <= 24; i++ {
		size := models.SizeSmall
		switch {
		case i > 16:
			size = models.SizeLarge
		case i > 8:
			size = models.SizeMedium
		}
		lockers = append(lockers, models.Locker{Number: i, Size: size, Status: models.LockerFree})
	}
	if err := db.Create(&lockers).Error; err != nil {
		return err
	}
	log.Printf("seeded %d lockers", len(lockers))
	return nil
}

package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"itlend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. Schema setup is left to Migrate.
func Open(dsn string) (*gorm.DB, error) {
	return OpenDialector(postgres.Open(dsn))
}

// OpenDialector opens any gorm dialector with the shared config. Tests use
// it with an in-memory sqlite.
func OpenDialector(d gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Student{}, &models.Laptop{}, &models.Teacher{}, &models.Booking{}); err != nil {
		return err
	}

	// 自然键唯一（忽略大小写）
	unique := []struct{ table, column string }{
		{models.StudentTable, "username"},
		{models.LaptopTable, "identification_number"},
		{models.TeacherTable, "email"},
	}
	for _, u := range unique {
		if err := db.Exec(fmt.Sprintf(`
		  CREATE UNIQUE INDEX IF NOT EXISTS %s_%s_lower
		  ON %s (LOWER(%s));
		`, u.table, u.column, u.table, u.column)).Error; err != nil {
			return err
		}
	}

	// 同一台电脑最多一条未归还
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_laptop
	  ON %s (laptop_id)
	  WHERE returned = FALSE;
	`, models.BookingTable, models.BookingTable)).Error; err != nil {
		return err
	}

	// 逾期提醒按 planned_return 扫描未归还
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_planned_return
	  ON %s (planned_return)
	  WHERE returned = FALSE;
	`, models.BookingTable, models.BookingTable)).Error; err != nil {
		return err
	}

	return nil
}

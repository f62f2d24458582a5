package db

import (
	"shopsync/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Store{},
		&models.Product{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.SyncCheckpoint{},
		&models.SyncRun{},
		&models.SyncRunDetail{},
		&models.SyncRunHistory{},
		&models.SyncRangeSetting{},
	)
}

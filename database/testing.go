package database

import (
	"fmt"
	"log"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// ConnectTestDB opens a fresh in-memory database and migrates the full
// schema. Intended for service-level tests only. Each call gets its
// own isolated database; cache=shared keeps it alive across the
// connections in gorm's pool.
func ConnectTestDB() *gorm.DB {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("🔥 Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		log.Fatalf("🔥 Failed to migrate test database: %v", err)
	}

	return db
}

// Package dbtest открывает изолированную in-memory базу для тестов.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/thereayou/roomchat/internal/database"
	"gorm.io/gorm"
)

// New возвращает мигрированную базу SQLite в памяти. Пул ограничен одним
// соединением: каждое новое соединение к :memory: видело бы пустую базу.
func New(t testing.TB) *database.Database {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), database.Config())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := database.NewDatabase(gdb)
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

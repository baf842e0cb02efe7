package repository

import (
	"path/filepath"
	"testing"

	"github.com/kinshipapp/kinship/internal/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates a file-backed SQLite database for testing. A file
// (instead of :memory:) lets concurrent goroutines share one schema, and
// the busy timeout serializes writers instead of failing them.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Follow{},
		&entity.Conversation{},
		&entity.ConversationMember{},
		&entity.Message{},
		&entity.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupTestRepos wires all repositories around a fresh test database
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	return NewRepositoriesWith(setupTestDB(t), nil)
}

// seedUser inserts a minimal user row
func seedUser(t *testing.T, repos *Repositories, id string) {
	t.Helper()
	if err := repos.DB.Create(&entity.User{Id: id, Username: id, Nickname: id}).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

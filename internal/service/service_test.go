package service

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/kinshipapp/kinship/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepos builds repositories around a file-backed SQLite database
func setupTestRepos(t *testing.T) *repository.Repositories {
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

	return repository.NewRepositoriesWith(db, nil)
}

// seedUser inserts a minimal user row
func seedUser(t *testing.T, repos *repository.Repositories, id string) {
	t.Helper()
	if err := repos.DB.Create(&entity.User{Id: id, Username: id, Nickname: id}).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

// pushedEvent records one emission through the pusher
type pushedEvent struct {
	UserId  string
	Event   string
	Payload interface{}
}

// recordingPusher captures emitted events for assertions
type recordingPusher struct {
	mu     sync.Mutex
	events []pushedEvent
}

func (p *recordingPusher) EmitToUser(userId, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushedEvent{UserId: userId, Event: event, Payload: payload})
}

func (p *recordingPusher) all() []pushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]pushedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *recordingPusher) byEvent(event string) []pushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

package repository

import (
	"context"
	"time"

	"github.com/mbeoliero/kit/log"
	"github.com/kinshipapp/kinship/internal/config"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repositories holds all repositories
type Repositories struct {
	DB           *gorm.DB
	Redis        *redis.Client
	User         *UserRepo
	Follow       *FollowRepo
	Conversation *ConversationRepo
	Message      *MessageRepo
	Notification *NotificationRepo
}

// NewRepositories creates all repositories
func NewRepositories(cfg *config.Config) (*Repositories, error) {
	db, err := initMySQL(cfg)
	if err != nil {
		return nil, err
	}

	rdb := initRedis(cfg)

	return NewRepositoriesWith(db, rdb), nil
}

// NewRepositoriesWith wires repositories over existing handles. Tests use
// this to run the full stack against a local database.
func NewRepositoriesWith(db *gorm.DB, rdb *redis.Client) *Repositories {
	repos := &Repositories{
		DB:    db,
		Redis: rdb,
	}

	repos.User = NewUserRepo(db)
	repos.Follow = NewFollowRepo(db)
	repos.Conversation = NewConversationRepo(db)
	repos.Message = NewMessageRepo(db)
	repos.Notification = NewNotificationRepo(db)

	return repos
}

// initMySQL initializes MySQL connection
func initMySQL(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Close closes all connections
func (r *Repositories) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	if r.Redis != nil {
		return r.Redis.Close()
	}
	return nil
}

// Transaction executes fn in a transaction
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// CheckConnection checks if database and redis connections are alive
func (r *Repositories) CheckConnection(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.CtxError(ctx, "mysql ping failed: %v", err)
		return err
	}

	if r.Redis != nil {
		if err := r.Redis.Ping(ctx).Err(); err != nil {
			log.CtxError(ctx, "redis ping failed: %v", err)
			return err
		}
	}

	return nil
}

package sqlite

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"form-intake/pkg/models"
)

// Client defines the interface for keeping user records in a SQLite file
type Client interface {
	Put(ctx context.Context, rec models.UserRecord) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type userRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null"`
	Mobile    string `gorm:"not null"`
	Checkbox1 bool   `gorm:"not null"`
}

type clientImpl struct {
	db    *gorm.DB
	table string
}

// NewClient opens (or creates) the database file and migrates the table
func NewClient(path, table string) (Client, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}

	if err := db.Table(table).AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("error migrating table %s: %w", table, err)
	}

	log.WithField("prefix", "sqlite").WithField("path", path).WithField("table", table).Info("sqlite client ready")

	return &clientImpl{db: db, table: table}, nil
}

// Put inserts the record, updating every column when the id already exists.
func (c *clientImpl) Put(ctx context.Context, rec models.UserRecord) error {
	row := userRow{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Mobile:    rec.Mobile,
		Checkbox1: rec.Checkbox1,
	}

	err := c.db.WithContext(ctx).
		Table(c.table).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}
	return nil
}

func (c *clientImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.WithContext(ctx).Table(c.table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}

func (c *clientImpl) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

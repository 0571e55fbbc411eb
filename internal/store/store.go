// Package store keeps a history of loop search results in sqlite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/util"
)

// DefaultDBFile is the database file name used when no path is given.
const DefaultDBFile = "looper.sqlite3"

// DefaultHistoryLimit caps History when limit is not positive.
const DefaultHistoryLimit = 20

// Record is one persisted search result.
type Record struct {
	ID                string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ClipName          string    `gorm:"index:idx_clip_created,priority:1" json:"clip"`
	ClipLength        float64   `json:"length"`
	WindowStart       float64   `json:"window_start"`
	WindowEnd         float64   `json:"window_end"`
	MinWindowFraction float64   `json:"min_window"`
	MinMotionCoverage float64   `json:"min_coverage"`
	MatchTolerance    float64   `json:"tolerance"`
	Success           bool      `json:"success"`
	Reason            string    `json:"reason,omitempty"`
	Start             float64   `json:"start"`
	End               float64   `json:"end"`
	Score             float64   `json:"score"`
	Cost              float64   `json:"cost"`
	Coverage          float64   `json:"coverage"`
	Evaluated         int       `json:"evaluated"`
	CreatedAt         time.Time `gorm:"index:idx_clip_created,priority:2" json:"created_at"`
}

// Store wraps a gorm connection to the history database.
type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultDBFile
	}
	if err := util.EnsureParentDirectory(path); err != nil {
		return nil, coreerrors.NewStoreError("creating database directory", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, coreerrors.NewStoreError(fmt.Sprintf("opening %s", path), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, coreerrors.NewStoreError("getting sql.DB from gorm", err)
	}
	// sqlite serializes writers anyway
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Record{}); err != nil {
		_ = sqlDB.Close()
		return nil, coreerrors.NewStoreError("auto migrate", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

// Close releases the database connection. Safe on a nil store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists rec, assigning an ID and creation time when unset, and
// returns the stored ID.
func (s *Store) Save(rec *Record) (string, error) {
	if s == nil || s.DB == nil {
		return "", coreerrors.NewStoreError("store is closed", nil)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.DB.Create(rec).Error; err != nil {
		return "", coreerrors.NewStoreError(fmt.Sprintf("saving result for %s", rec.ClipName), err)
	}
	return rec.ID, nil
}

// History returns up to limit records for clipName, newest first.
func (s *Store) History(clipName string, limit int) ([]Record, error) {
	if s == nil || s.DB == nil {
		return nil, coreerrors.NewStoreError("store is closed", nil)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var records []Record
	err := s.DB.Where("clip_name = ?", clipName).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, coreerrors.NewStoreError(fmt.Sprintf("querying history for %s", clipName), err)
	}
	return records, nil
}

// Latest returns the newest record for clipName and false when none exists.
func (s *Store) Latest(clipName string) (Record, bool, error) {
	if s == nil || s.DB == nil {
		return Record{}, false, coreerrors.NewStoreError("store is closed", nil)
	}

	var rec Record
	err := s.DB.Where("clip_name = ?", clipName).Order("created_at DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, coreerrors.NewStoreError(fmt.Sprintf("querying latest for %s", clipName), err)
	}
	return rec, true, nil
}

// Delete removes all records for clipName and reports how many were removed.
func (s *Store) Delete(clipName string) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, coreerrors.NewStoreError("store is closed", nil)
	}
	res := s.DB.Where("clip_name = ?", clipName).Delete(&Record{})
	if res.Error != nil {
		return 0, coreerrors.NewStoreError(fmt.Sprintf("deleting history for %s", clipName), res.Error)
	}
	return res.RowsAffected, nil
}

package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 50
)

// ActivityService records what happened in the farm for the dashboard feed.
// Recording never fails the calling operation, a lost entry is only logged.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService creates an ActivityService instance.
func NewActivityService(gdb *gorm.DB) *ActivityService {
	return &ActivityService{db: gdb}
}

// Record appends one activity entry.
func (s *ActivityService) Record(userID uint, entity string, entityID uint, action, details string) {
	entry := db.ActivityLog{
		UserID:   userID,
		Entity:   strings.TrimSpace(entity),
		EntityID: entityID,
		Action:   strings.TrimSpace(action),
		Details:  truncateDetails(details),
	}

	if entry.Entity == "" || entry.Action == "" {
		return
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("record activity %s/%s failed: %v", entry.Entity, entry.Action, err)
	}
}

// ListRecent returns the newest activity entries.
func (s *ActivityService) ListRecent(limit int) ([]db.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	var entries []db.ActivityLog
	if err := s.db.Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	return entries, nil
}

func truncateDetails(details string) string {
	details = strings.TrimSpace(details)
	runes := []rune(details)
	if len(runes) <= 80 {
		return details
	}
	return string(runes[:80])
}

package models

import "gorm.io/gorm"

// AlertRecord is one health alert persisted from the in-memory log.
type AlertRecord struct {
	gorm.Model
	AlertID   string `json:"alert_id" gorm:"uniqueIndex"`
	SessionID string `json:"session_id" gorm:"index"`
	Type      string `json:"type"` // "info", "warning" or "error"
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Resolved  bool   `json:"resolved"`
}

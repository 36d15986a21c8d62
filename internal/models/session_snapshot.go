package models

import "gorm.io/gorm"

// SessionSnapshot is a serialized session state blob. The newest row per
// session is used to re-seed the tracker on startup.
type SessionSnapshot struct {
	gorm.Model
	SessionID string `json:"session_id" gorm:"index"`
	State     string `json:"state"` // JSON-encoded session.Session
}

// Package store persists ledger and session state to the external sink.
// The core packages expose plain data; this is the only place that knows
// about the database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"paper-trading-bot-go/internal/ledger"
	"paper-trading-bot-go/internal/models"
	"paper-trading-bot-go/internal/session"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SnapshotStore writes closed trades, alerts, and session snapshots to the
// database and can re-seed a session from the newest snapshot on startup.
type SnapshotStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSnapshotStore creates a store over an already-migrated database.
func NewSnapshotStore(db *gorm.DB, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{db: db, logger: logger.Named("store")}
}

// SaveClosedTrade persists one terminal trade.
func (s *SnapshotStore) SaveClosedTrade(sessionID string, t ledger.ClosedTrade) error {
	record := models.TradeRecord{
		SessionID:   sessionID,
		TradeID:     t.ID,
		Pair:        t.Pair,
		Status:      string(t.Status),
		StakeAmount: t.StakeAmount,
		Quantity:    t.Quantity,
		OpenRate:    t.OpenRate,
		CloseRate:   t.CloseRate,
		ProfitAbs:   t.ProfitAbs,
		ProfitRatio: t.ProfitRatio,
		OpenedAt:    t.OpenedAt.Unix(),
		ClosedAt:    t.ClosedAt.Unix(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save trade record: %w", err)
	}
	return nil
}

// SaveAlerts persists the alert log. Alerts already stored are skipped, so
// repeatedly flushing the ring buffer does not duplicate rows.
func (s *SnapshotStore) SaveAlerts(sessionID string, alerts []session.Alert) error {
	for _, a := range alerts {
		record := models.AlertRecord{
			AlertID:   a.ID,
			SessionID: sessionID,
			Type:      string(a.Type),
			Message:   a.Message,
			Timestamp: a.Timestamp.Unix(),
			Resolved:  a.Resolved,
		}
		err := s.db.FirstOrCreate(&record, models.AlertRecord{AlertID: a.ID}).Error
		if err != nil {
			return fmt.Errorf("failed to save alert %s: %w", a.ID, err)
		}
	}
	return nil
}

// SaveSessionSnapshot serializes the session and appends it as the newest
// snapshot for its id.
func (s *SnapshotStore) SaveSessionSnapshot(sess session.Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	snapshot := models.SessionSnapshot{
		SessionID: sess.ID,
		State:     string(state),
	}
	if err := s.db.Create(&snapshot).Error; err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	return nil
}

// LoadLatestSession returns the most recently persisted session, if any.
func (s *SnapshotStore) LoadLatestSession() (session.Session, bool, error) {
	var snapshot models.SessionSnapshot
	err := s.db.Order("id desc").First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(snapshot.State), &sess); err != nil {
		return session.Session{}, false, fmt.Errorf("failed to decode session snapshot: %w", err)
	}
	return sess, true, nil
}

// ClosedTrades returns persisted trade records, newest first.
func (s *SnapshotStore) ClosedTrades(limit int) ([]models.TradeRecord, error) {
	var records []models.TradeRecord
	q := s.db.Order("closed_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load trade records: %w", err)
	}
	return records, nil
}

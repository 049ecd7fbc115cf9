package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"puc-service/internal/domain/puc"
	"puc-service/internal/utils"
)

// LocalStore is the write-once durable fallback used only after every remote
// target has rejected a record. Rows are keyed by a synthetic LOCAL-* id and
// consumed later by a reconciliation tool; the record locator never sees them.
type LocalStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// LocalRecord retains the full record as a JSON document so nothing is lost
// regardless of how the remote schema evolves before reconciliation.
type LocalRecord struct {
	LocalID          string `gorm:"primaryKey"`
	SubmissionID     string `gorm:"not null"`
	NormalizedNumber string `gorm:"not null"`
	Payload          datatypes.JSON
	CreatedAt        time.Time
}

func (LocalRecord) TableName() string { return "fallback_records" }

// OpenLocalStore opens (creating if needed) the sqlite fallback database at
// path and ensures its schema.
func OpenLocalStore(path string, log zerolog.Logger) (*LocalStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local fallback store: %w", err)
	}
	if err := db.AutoMigrate(&LocalRecord{}); err != nil {
		return nil, fmt.Errorf("migrate local fallback store: %w", err)
	}
	return &LocalStore{db: db, log: log}, nil
}

// Save commits the record under a fresh synthetic identifier and returns it.
// Never overwrites: each exhausted cascade produces its own row.
func (s *LocalStore) Save(ctx context.Context, rec *puc.TestRecord) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode record for local fallback: %w", err)
	}

	localID := fmt.Sprintf("LOCAL-%d", time.Now().UnixNano())
	row := LocalRecord{
		LocalID:          localID,
		SubmissionID:     rec.SubmissionID,
		NormalizedNumber: utils.NormalizeVehicleNumber(rec.VehicleNumber),
		Payload:          payload,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("save to local fallback: %w", err)
	}
	s.log.Warn().
		Str("local_id", localID).
		Str("vehicle", row.NormalizedNumber).
		Str("submission_id", rec.SubmissionID).
		Msg("record retained in local fallback store")
	return localID, nil
}

// Pending lists retained rows, oldest first.
func (s *LocalStore) Pending(ctx context.Context, limit int) ([]LocalRecord, error) {
	var rows []LocalRecord
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Decode returns the retained record.
func (r LocalRecord) Decode() (*puc.TestRecord, error) {
	var rec puc.TestRecord
	if err := json.Unmarshal(r.Payload, &rec); err != nil {
		return nil, fmt.Errorf("decode local record %s: %w", r.LocalID, err)
	}
	return &rec, nil
}

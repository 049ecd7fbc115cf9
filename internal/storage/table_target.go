package storage

import (
	"context"

	"gorm.io/gorm"

	"puc-service/internal/domain/puc"
)

// TableTarget commits records into one named table of the shared database.
// The same type backs the primary, legacy and operator-scoped targets; only
// the table differs. The operator-scoped table stays writable even when
// permissions on the shared tables lag behind deployment.
type TableTarget struct {
	db    *gorm.DB
	table string
}

func NewTableTarget(db *gorm.DB, table string) *TableTarget {
	return &TableTarget{db: db, table: table}
}

func (t *TableTarget) Name() string {
	return t.table
}

// Write inserts the record. A duplicate submission id means an earlier
// attempt already committed here, so the write counts as this target's
// success and the cascade still holds at most one authoritative copy.
func (t *TableTarget) Write(ctx context.Context, rec *puc.TestRecord) error {
	row := NewTestRow(rec)
	err := t.db.WithContext(ctx).Table(t.table).Create(&row).Error
	if err == nil {
		rec.CreatedAt = row.CreatedAt
		return nil
	}
	if isUniqueViolation(err) {
		return nil
	}
	return ClassifyWriteError(err)
}

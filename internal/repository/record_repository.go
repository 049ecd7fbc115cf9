package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"puc-service/internal/domain/puc"
	"puc-service/internal/storage"
)

// RecordRepository reads committed test records back out of the remote
// record tables. Writes go through the storage targets, not through here.
type RecordRepository struct {
	db     *gorm.DB
	tables []string
	log    zerolog.Logger
}

// NewRecordRepository queries the given tables in order. The list normally
// matches the coordinator's remote cascade so every committed record is
// reachable.
func NewRecordRepository(db *gorm.DB, tables []string, log zerolog.Logger) *RecordRepository {
	return &RecordRepository{db: db, tables: tables, log: log}
}

// ListByVehicle returns every committed record whose normalized vehicle
// number matches, across all record tables. A table that does not exist in
// this deployment is skipped; any other query failure aborts the lookup.
func (r *RecordRepository) ListByVehicle(ctx context.Context, normalized string) ([]*puc.TestRecord, error) {
	var out []*puc.TestRecord
	for _, table := range r.tables {
		var rows []storage.TestRow
		err := r.db.WithContext(ctx).
			Table(table).
			Where("normalized_number = ?", normalized).
			Find(&rows).Error
		if err != nil {
			if isUndefinedTable(err) {
				r.log.Debug().Str("table", table).Msg("record table absent, skipping")
				continue
			}
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		for _, row := range rows {
			rec, err := row.ToRecord(table)
			if err != nil {
				r.log.Warn().Err(err).Str("table", table).Int64("row_id", row.ID).
					Msg("skipping malformed record row")
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetBySubmissionID fetches a single committed record by its submission id.
// Returns gorm.ErrRecordNotFound when no table holds it.
func (r *RecordRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*puc.TestRecord, error) {
	for _, table := range r.tables {
		var row storage.TestRow
		err := r.db.WithContext(ctx).
			Table(table).
			Where("submission_id = ?", submissionID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || isUndefinedTable(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		return row.ToRecord(table)
	}
	return nil, gorm.ErrRecordNotFound
}

// FindLocation reports which table, if any, already holds the submission.
// Satisfies the coordinator's idempotent-replay probe.
func (r *RecordRepository) FindLocation(ctx context.Context, submissionID string) (string, bool, error) {
	for _, table := range r.tables {
		var count int64
		err := r.db.WithContext(ctx).
			Table(table).
			Where("submission_id = ?", submissionID).
			Count(&count).Error
		if err != nil {
			if isUndefinedTable(err) {
				continue
			}
			return "", false, fmt.Errorf("probe %s: %w", table, err)
		}
		if count > 0 {
			return table, true, nil
		}
	}
	return "", false, nil
}

// ListExpiringWithin returns records whose validity date falls between today
// and today+days, across all record tables. Dates are stored as YYYY-MM-DD
// text, so lexicographic BETWEEN is date order.
func (r *RecordRepository) ListExpiringWithin(ctx context.Context, days int) ([]*puc.TestRecord, error) {
	today := time.Now().UTC()
	from := today.Format(storage.DateLayout)
	to := today.AddDate(0, 0, days).Format(storage.DateLayout)

	var out []*puc.TestRecord
	for _, table := range r.tables {
		var rows []storage.TestRow
		err := r.db.WithContext(ctx).
			Table(table).
			Where("validity_date BETWEEN ? AND ?", from, to).
			Order("validity_date ASC").
			Find(&rows).Error
		if err != nil {
			if isUndefinedTable(err) {
				continue
			}
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		for _, row := range rows {
			rec, err := row.ToRecord(table)
			if err != nil {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

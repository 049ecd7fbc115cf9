package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"puc-service/internal/domain/puc"
	"puc-service/internal/utils"
)

var (
	// ErrNotFound: zero committed records match the identifier. Not
	// retryable without new data.
	ErrNotFound = errors.New("no test records found for vehicle")

	// ErrUnavailable: the query mechanism itself failed (connectivity,
	// missing table or index). Retry later; distinct from ErrNotFound.
	ErrUnavailable = errors.New("verification lookup unavailable, try again later")
)

// RecordQuerier is the read capability the locator reduces over.
type RecordQuerier interface {
	ListByVehicle(ctx context.Context, normalized string) ([]*puc.TestRecord, error)
}

// Status answers "is this vehicle's certificate currently valid?".
type Status struct {
	Record        *puc.TestRecord `json:"record"`
	IsValid       bool            `json:"is_valid"`
	ExpiryDisplay string          `json:"expiry_display"`
}

// Locator resolves the authoritative latest record for a vehicle identifier
// and derives live validity. Stateless: concurrent lookups never conflict.
type Locator struct {
	querier RecordQuerier
	log     zerolog.Logger
	now     func() time.Time
}

func New(querier RecordQuerier, log zerolog.Logger) *Locator {
	return &Locator{
		querier: querier,
		log:     log,
		now:     time.Now,
	}
}

// WithClock fixes the evaluation instant. For tests.
func (l *Locator) WithClock(now func() time.Time) *Locator {
	l.now = now
	return l
}

// Resolve finds the latest record for the (free-text) vehicle identifier and
// evaluates its validity. Latest means maximum test date; records tying on
// test date are broken by commit timestamp so the newest committed copy is
// authoritative. Validity is strict: a certificate expiring exactly now is
// not valid.
func (l *Locator) Resolve(ctx context.Context, vehicleNumber string) (*Status, error) {
	normalized := utils.NormalizeVehicleNumber(vehicleNumber)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty vehicle number", ErrNotFound)
	}

	records, err := l.querier.ListByVehicle(ctx, normalized)
	if err != nil {
		l.log.Error().Err(err).Str("vehicle", normalized).Msg("record lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, normalized)
	}

	latest := records[0]
	for _, rec := range records[1:] {
		if newer(rec, latest) {
			latest = rec
		}
	}

	now := l.now()
	status := &Status{
		Record:        latest,
		IsValid:       now.Before(latest.ValidityDate),
		ExpiryDisplay: latest.ValidityDate.Format("02 Jan 2006"),
	}

	l.log.Debug().
		Str("vehicle", normalized).
		Int("records", len(records)).
		Bool("is_valid", status.IsValid).
		Str("expiry", status.ExpiryDisplay).
		Msg("resolved vehicle status")
	return status, nil
}

// newer reports whether a supersedes b: later test date wins; on an exact
// tie, later commit timestamp.
func newer(a, b *puc.TestRecord) bool {
	if !a.TestDate.Equal(b.TestDate) {
		return a.TestDate.After(b.TestDate)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

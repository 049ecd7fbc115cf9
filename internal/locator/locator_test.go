package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puc-service/internal/domain/puc"
)

type fakeQuerier struct {
	records   []*puc.TestRecord
	err       error
	lastQuery string
}

func (f *fakeQuerier) ListByVehicle(ctx context.Context, normalized string) ([]*puc.TestRecord, error) {
	f.lastQuery = normalized
	return f.records, f.err
}

func record(vehicle, testDate, validityDate string, createdAt time.Time) *puc.TestRecord {
	td, _ := time.Parse("2006-01-02", testDate)
	vd, _ := time.Parse("2006-01-02", validityDate)
	return &puc.TestRecord{
		SubmissionID:  "sub-" + testDate,
		VehicleNumber: vehicle,
		TestDate:      td,
		ValidityDate:  vd,
		TestResult:    puc.ResultPass,
		CreatedAt:     createdAt,
	}
}

func at(s string) func() time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return func() time.Time { return d }
}

func TestResolve_PicksLatestTestDate(t *testing.T) {
	q := &fakeQuerier{records: []*puc.TestRecord{
		record("TN01AB1234", "2024-01-01", "2025-01-01", time.Unix(1, 0)),
		record("TN01AB1234", "2024-06-01", "2025-06-01", time.Unix(2, 0)),
		record("TN01AB1234", "2023-01-01", "2024-01-01", time.Unix(3, 0)),
	}}

	l := New(q, zerolog.Nop()).WithClock(at("2024-08-01"))
	status, err := l.Resolve(context.Background(), "TN01AB1234")

	require.NoError(t, err)
	assert.Equal(t, "sub-2024-06-01", status.Record.SubmissionID)
	assert.True(t, status.IsValid)
	assert.Equal(t, "01 Jun 2025", status.ExpiryDisplay)
}

func TestResolve_StrictExpiryBoundary(t *testing.T) {
	tests := []struct {
		name  string
		now   string
		valid bool
	}{
		{name: "well before expiry", now: "2024-08-01", valid: true},
		{name: "exactly at expiry is invalid", now: "2025-06-01", valid: false},
		{name: "after expiry", now: "2025-06-02", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuerier{records: []*puc.TestRecord{
				record("TN01AB1234", "2024-06-01", "2025-06-01", time.Unix(1, 0)),
			}}
			l := New(q, zerolog.Nop()).WithClock(at(tt.now))

			status, err := l.Resolve(context.Background(), "TN01AB1234")
			require.NoError(t, err)
			assert.Equal(t, tt.valid, status.IsValid)
		})
	}
}

func TestResolve_TieOnTestDateBreaksOnCommitTime(t *testing.T) {
	older := record("TN01AB1234", "2024-06-01", "2025-06-01", time.Unix(100, 0))
	older.SubmissionID = "older"
	newer := record("TN01AB1234", "2024-06-01", "2025-06-01", time.Unix(200, 0))
	newer.SubmissionID = "newer"

	q := &fakeQuerier{records: []*puc.TestRecord{older, newer}}
	l := New(q, zerolog.Nop()).WithClock(at("2024-08-01"))

	status, err := l.Resolve(context.Background(), "TN01AB1234")
	require.NoError(t, err)
	assert.Equal(t, "newer", status.Record.SubmissionID, "newest committed copy wins an exact tie")
}

func TestResolve_NormalizesLookupIdentifier(t *testing.T) {
	q := &fakeQuerier{records: []*puc.TestRecord{
		record("TN-01-AB-1234", "2024-06-01", "2025-06-01", time.Unix(1, 0)),
	}}
	l := New(q, zerolog.Nop()).WithClock(at("2024-08-01"))

	_, err := l.Resolve(context.Background(), "  tn-01-ab-1234 ")
	require.NoError(t, err)
	assert.Equal(t, "TN01AB1234", q.lastQuery)
}

func TestResolve_ZeroRecordsIsNotFound(t *testing.T) {
	l := New(&fakeQuerier{}, zerolog.Nop())

	_, err := l.Resolve(context.Background(), "TN01AB1234")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnavailable, "zero matches must never read as an outage")
}

func TestResolve_QueryFailureIsUnavailable(t *testing.T) {
	q := &fakeQuerier{err: errors.New("missing supporting index")}
	l := New(q, zerolog.Nop())

	_, err := l.Resolve(context.Background(), "TN01AB1234")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolve_EmptyIdentifierIsNotFound(t *testing.T) {
	l := New(&fakeQuerier{}, zerolog.Nop())

	_, err := l.Resolve(context.Background(), "   --- ")
	assert.ErrorIs(t, err, ErrNotFound)
}

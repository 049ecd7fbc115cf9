package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"puc-service/internal/domain/puc"
	"puc-service/internal/extract"
	"puc-service/internal/locator"
	"puc-service/internal/persist"
	"puc-service/internal/repository"
	"puc-service/internal/storage"
	"puc-service/internal/utils"
	"puc-service/internal/validity"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Committer is the persistence coordinator as the service sees it.
type Committer interface {
	Commit(ctx context.Context, rec *puc.TestRecord) (*persist.CommitResult, error)
}

// Resolver is the record locator as the service sees it.
type Resolver interface {
	Resolve(ctx context.Context, vehicleNumber string) (*locator.Status, error)
}

// RecordReader covers the read operations outside the verify path.
type RecordReader interface {
	GetBySubmissionID(ctx context.Context, submissionID string) (*puc.TestRecord, error)
	ListExpiringWithin(ctx context.Context, days int) ([]*puc.TestRecord, error)
}

// Notifier records operator-visible notifications. Optional.
type Notifier interface {
	Create(ctx context.Context, n *repository.Notification) error
}

// TestService runs the intake and verification pipeline: extraction is
// advisory pre-fill, the validity calculator fixes the expiry, the
// coordinator makes the record durable, and the locator answers status
// queries later.
type TestService struct {
	committer Committer
	resolver  Resolver
	records   RecordReader
	notifier  Notifier
	log       zerolog.Logger
}

func NewTestService(committer Committer, resolver Resolver, records RecordReader, notifier Notifier, log zerolog.Logger) *TestService {
	return &TestService{
		committer: committer,
		resolver:  resolver,
		records:   records,
		notifier:  notifier,
		log:       log,
	}
}

// SubmitTestRequest carries the confirmed intake form. Dates are YYYY-MM-DD;
// TestDate may be empty (test recorded now) and ValidityDate may be empty
// (default window applies).
type SubmitTestRequest struct {
	SubmissionID     string            `json:"submission_id"`
	VehicleNumber    string            `json:"vehicle_number"`
	VehicleCategory  string            `json:"vehicle_category"`
	FuelType         string            `json:"fuel_type"`
	EmissionStandard string            `json:"emission_standard"`
	OwnerName        string            `json:"owner_name"`
	ContactNumber    string            `json:"contact_number"`
	TestDate         string            `json:"test_date"`
	ValidityDate     string            `json:"validity_date"`
	Readings         map[string]string `json:"readings"`
	TestResult       string            `json:"test_result"`
}

// ExtractCandidates suggests form values from recognized document text.
// Pure and advisory; the result is merged into editable form state and never
// committed without confirmation.
func (s *TestService) ExtractCandidates(text string) puc.ExtractionCandidate {
	return extract.Extract(text)
}

// SubmitTest validates the confirmed form, resolves the validity window and
// commits the finished record through the cascade. The operator identity is
// explicit request context, never ambient state.
func (s *TestService) SubmitTest(ctx context.Context, op puc.Operator, req SubmitTestRequest) (*persist.CommitResult, error) {
	rec, err := s.buildRecord(op, req)
	if err != nil {
		return nil, err
	}

	result, err := s.committer.Commit(ctx, rec)
	if err != nil {
		if errors.Is(err, persist.ErrExhausted) {
			// Hard, operator-visible failure; the record is retained locally.
			return result, err
		}
		s.log.Error().Err(err).Str("vehicle", rec.VehicleNumber).Msg("commit failed")
		return nil, fmt.Errorf("commit test record: %w", err)
	}

	s.notifyCommitted(ctx, rec)
	return result, nil
}

func (s *TestService) buildRecord(op puc.Operator, req SubmitTestRequest) (*puc.TestRecord, error) {
	if utils.NormalizeVehicleNumber(req.VehicleNumber) == "" {
		return nil, fmt.Errorf("%w: vehicle number is required", ErrInvalidInput)
	}
	category := puc.VehicleCategory(req.VehicleCategory)
	if !category.Known() {
		return nil, fmt.Errorf("%w: unknown vehicle category %q", ErrInvalidInput, req.VehicleCategory)
	}
	fuel := puc.FuelType(req.FuelType)
	if !fuel.Known() {
		return nil, fmt.Errorf("%w: unknown fuel type %q", ErrInvalidInput, req.FuelType)
	}
	result := puc.TestResult(req.TestResult)
	if result != puc.ResultPass && result != puc.ResultFail {
		return nil, fmt.Errorf("%w: test result must be Pass or Fail", ErrInvalidInput)
	}

	var testDate time.Time
	if req.TestDate != "" {
		var err error
		testDate, err = time.Parse(storage.DateLayout, req.TestDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid test date %q", ErrInvalidInput, req.TestDate)
		}
	}
	var explicit *time.Time
	if req.ValidityDate != "" {
		d, err := time.Parse(storage.DateLayout, req.ValidityDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid validity date %q", ErrInvalidInput, req.ValidityDate)
		}
		explicit = &d
	}

	validityDate, err := validity.Compute(testDate, category, explicit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if testDate.IsZero() {
		// Compute anchored the window on today; keep the record consistent.
		now := time.Now().UTC()
		testDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	submissionID := req.SubmissionID
	if submissionID == "" {
		submissionID = uuid.NewString()
	}

	return &puc.TestRecord{
		SubmissionID:     submissionID,
		VehicleNumber:    req.VehicleNumber,
		VehicleCategory:  category,
		FuelType:         fuel,
		EmissionStandard: req.EmissionStandard,
		OwnerName:        req.OwnerName,
		ContactNumber:    req.ContactNumber,
		TestDate:         testDate,
		ValidityDate:     validityDate,
		Readings:         req.Readings,
		TestResult:       result,
		IssuedBy:         op.IssuedBy(),
	}, nil
}

// notifyCommitted mirrors the on-test-created notification of the original
// system. Failures only log; the record is already durable.
func (s *TestService) notifyCommitted(ctx context.Context, rec *puc.TestRecord) {
	if s.notifier == nil {
		return
	}
	kind := "success"
	if rec.TestResult == puc.ResultFail {
		kind = "alert"
	}
	n := &repository.Notification{
		Title: fmt.Sprintf("Emission Test %s", rec.TestResult),
		Message: fmt.Sprintf("Vehicle %s tested on %s. Result: %s. Valid until: %s",
			rec.VehicleNumber,
			rec.TestDate.Format(storage.DateLayout),
			rec.TestResult,
			rec.ValidityDate.Format(storage.DateLayout)),
		Type: kind,
	}
	if err := s.notifier.Create(ctx, n); err != nil {
		s.log.Warn().Err(err).Msg("failed to record commit notification")
	}
}

// VerifyVehicle answers the public "is this vehicle's certificate currently
// valid?" question.
func (s *TestService) VerifyVehicle(ctx context.Context, vehicleNumber string) (*locator.Status, error) {
	return s.resolver.Resolve(ctx, vehicleNumber)
}

// GetCertificate fetches one committed record for the certificate renderer.
func (s *TestService) GetCertificate(ctx context.Context, submissionID string) (*puc.TestRecord, error) {
	rec, err := s.records.GetBySubmissionID(ctx, submissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: certificate %s", ErrNotFound, submissionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}
	return rec, nil
}

// ListExpiring returns certificates expiring within the next days days.
func (s *TestService) ListExpiring(ctx context.Context, days int) ([]*puc.TestRecord, error) {
	if days <= 0 {
		days = 7
	}
	recs, err := s.records.ListExpiringWithin(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("list expiring certificates: %w", err)
	}
	return recs, nil
}

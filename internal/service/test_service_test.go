package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puc-service/internal/domain/puc"
	"puc-service/internal/locator"
	"puc-service/internal/persist"
	"puc-service/internal/repository"
)

type fakeCommitter struct {
	committed *puc.TestRecord
	result    *persist.CommitResult
	err       error
}

func (f *fakeCommitter) Commit(ctx context.Context, rec *puc.TestRecord) (*persist.CommitResult, error) {
	f.committed = rec
	if f.result == nil && f.err == nil {
		rec.StorageLocation = "emission_tests"
		return &persist.CommitResult{Location: "emission_tests", Record: rec}, nil
	}
	return f.result, f.err
}

type fakeResolver struct {
	status *locator.Status
	err    error
}

func (f *fakeResolver) Resolve(ctx context.Context, vehicleNumber string) (*locator.Status, error) {
	return f.status, f.err
}

type fakeNotifier struct {
	notes []*repository.Notification
}

func (f *fakeNotifier) Create(ctx context.Context, n *repository.Notification) error {
	f.notes = append(f.notes, n)
	return nil
}

func validRequest() SubmitTestRequest {
	return SubmitTestRequest{
		VehicleNumber:   "TN-01-AB-1234",
		VehicleCategory: "car",
		FuelType:        "petrol",
		OwnerName:       "R. Kumar",
		ContactNumber:   "9876543210",
		TestDate:        "2024-01-15",
		Readings:        map[string]string{puc.ReadingCOLevel: "0.23"},
		TestResult:      "Pass",
	}
}

func newService(c *fakeCommitter, n *fakeNotifier) *TestService {
	var notifier Notifier
	if n != nil {
		notifier = n
	}
	return NewTestService(c, &fakeResolver{}, nil, notifier, zerolog.Nop())
}

func TestSubmitTest_BuildsAndCommitsRecord(t *testing.T) {
	committer := &fakeCommitter{}
	notifier := &fakeNotifier{}
	svc := newService(committer, notifier)

	op := puc.Operator{ID: "operator-7", Role: "staff"}
	result, err := svc.SubmitTest(context.Background(), op, validRequest())

	require.NoError(t, err)
	assert.Equal(t, "emission_tests", result.Location)

	rec := committer.committed
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.SubmissionID, "a submission id is assigned when the caller supplies none")
	assert.Equal(t, "operator-7", rec.IssuedBy)
	assert.Equal(t, puc.CategoryCar, rec.VehicleCategory)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rec.TestDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), rec.ValidityDate,
		"car gets the default twelve month window")

	require.Len(t, notifier.notes, 1)
	assert.Equal(t, "success", notifier.notes[0].Type)
	assert.Contains(t, notifier.notes[0].Message, "TN-01-AB-1234")
}

func TestSubmitTest_AnonymousOperator(t *testing.T) {
	committer := &fakeCommitter{}
	svc := newService(committer, nil)

	_, err := svc.SubmitTest(context.Background(), puc.Operator{}, validRequest())

	require.NoError(t, err)
	assert.Equal(t, puc.AnonymousOperator, committer.committed.IssuedBy)
}

func TestSubmitTest_KeepsCallerSubmissionID(t *testing.T) {
	committer := &fakeCommitter{}
	svc := newService(committer, nil)

	req := validRequest()
	req.SubmissionID = "client-supplied-key"
	_, err := svc.SubmitTest(context.Background(), puc.Operator{ID: "op"}, req)

	require.NoError(t, err)
	assert.Equal(t, "client-supplied-key", committer.committed.SubmissionID)
}

func TestSubmitTest_ExplicitValidityDateWins(t *testing.T) {
	committer := &fakeCommitter{}
	svc := newService(committer, nil)

	req := validRequest()
	req.ValidityDate = "2024-09-30"
	_, err := svc.SubmitTest(context.Background(), puc.Operator{ID: "op"}, req)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), committer.committed.ValidityDate)
}

func TestSubmitTest_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitTestRequest)
	}{
		{name: "missing vehicle number", mutate: func(r *SubmitTestRequest) { r.VehicleNumber = " - " }},
		{name: "unknown category", mutate: func(r *SubmitTestRequest) { r.VehicleCategory = "hovercraft" }},
		{name: "unknown fuel", mutate: func(r *SubmitTestRequest) { r.FuelType = "coal" }},
		{name: "bad result", mutate: func(r *SubmitTestRequest) { r.TestResult = "Maybe" }},
		{name: "malformed test date", mutate: func(r *SubmitTestRequest) { r.TestDate = "15/01/2024" }},
		{name: "malformed validity date", mutate: func(r *SubmitTestRequest) { r.ValidityDate = "soon" }},
		{name: "validity not after test date", mutate: func(r *SubmitTestRequest) { r.ValidityDate = "2024-01-15" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			committer := &fakeCommitter{}
			svc := newService(committer, nil)

			req := validRequest()
			tt.mutate(&req)
			_, err := svc.SubmitTest(context.Background(), puc.Operator{ID: "op"}, req)

			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, committer.committed, "invalid input must never reach the cascade")
		})
	}
}

func TestSubmitTest_ExhaustionPropagatesWithResult(t *testing.T) {
	committer := &fakeCommitter{
		result: &persist.CommitResult{LocalID: "LOCAL-42"},
		err:    persist.ErrExhausted,
	}
	notifier := &fakeNotifier{}
	svc := newService(committer, notifier)

	result, err := svc.SubmitTest(context.Background(), puc.Operator{ID: "op"}, validRequest())

	assert.ErrorIs(t, err, persist.ErrExhausted)
	require.NotNil(t, result)
	assert.Equal(t, "LOCAL-42", result.LocalID)
	assert.Empty(t, notifier.notes, "no committed notification for a fallback-retained record")
}

func TestSubmitTest_FailResultRaisesAlert(t *testing.T) {
	committer := &fakeCommitter{}
	notifier := &fakeNotifier{}
	svc := newService(committer, notifier)

	req := validRequest()
	req.TestResult = "Fail"
	_, err := svc.SubmitTest(context.Background(), puc.Operator{ID: "op"}, req)

	require.NoError(t, err)
	require.Len(t, notifier.notes, 1)
	assert.Equal(t, "alert", notifier.notes[0].Type)
}

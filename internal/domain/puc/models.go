package puc

import (
	"time"
)

type VehicleCategory string

const (
	CategoryTwoWheeler   VehicleCategory = "two_wheeler"
	CategoryCar          VehicleCategory = "car"
	CategoryThreeWheeler VehicleCategory = "three_wheeler"
	CategoryTruck        VehicleCategory = "truck"
	CategoryBus          VehicleCategory = "bus"
)

func (c VehicleCategory) Known() bool {
	switch c {
	case CategoryTwoWheeler, CategoryCar, CategoryThreeWheeler, CategoryTruck, CategoryBus:
		return true
	}
	return false
}

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelCNG      FuelType = "cng"
	FuelElectric FuelType = "electric"
)

func (f FuelType) Known() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelCNG, FuelElectric:
		return true
	}
	return false
}

type TestResult string

const (
	ResultPass TestResult = "Pass"
	ResultFail TestResult = "Fail"
)

// Reading parameter names used as keys of TestRecord.Readings.
const (
	ReadingCOLevel      = "co_level"
	ReadingHCLevel      = "hc_level"
	ReadingCOHighIdle   = "co_high_idle"
	ReadingRPMHighIdle  = "rpm_high_idle"
	ReadingLambda       = "lambda"
	ReadingSmokeDensity = "smoke_density"
)

// TestRecord is the central entity of the pipeline. It is created once by the
// intake flow and never mutated; a newer record for the same vehicle
// supersedes it. Validity is always a property of the latest record for a
// vehicle, never of an individual record being edited.
type TestRecord struct {
	// SubmissionID is a caller-supplied idempotency key. A retried commit
	// carrying the same SubmissionID never produces a second authoritative copy.
	SubmissionID string `json:"submission_id"`

	VehicleNumber    string          `json:"vehicle_number"`
	VehicleCategory  VehicleCategory `json:"vehicle_category"`
	FuelType         FuelType        `json:"fuel_type"`
	EmissionStandard string          `json:"emission_standard,omitempty"`
	OwnerName        string          `json:"owner_name"`
	ContactNumber    string          `json:"contact_number"`

	TestDate     time.Time `json:"test_date"`
	ValidityDate time.Time `json:"validity_date"`

	// Readings keeps measured values as strings to survive heterogeneous
	// storage targets without type coercion.
	Readings map[string]string `json:"readings"`

	TestResult TestResult `json:"test_result"`
	IssuedBy   string     `json:"issued_by"`

	// StorageLocation names the target that accepted the write. Assigned by
	// the persistence coordinator, not user-visible.
	StorageLocation string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// ExtractionCandidate maps TestRecord input-field names to unverified string
// values suggested from recognized document text. Transient, never persisted,
// always re-displayed for human confirmation before commit.
type ExtractionCandidate map[string]string

// Operator carries the submitting operator's identity into an operation.
// Passed explicitly per request instead of being read from ambient session
// state.
type Operator struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

const AnonymousOperator = "anonymous"

// IssuedBy returns the identifier recorded on a committed record.
func (o Operator) IssuedBy() string {
	if o.ID == "" {
		return AnonymousOperator
	}
	return o.ID
}

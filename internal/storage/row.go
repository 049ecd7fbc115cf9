package storage

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"puc-service/internal/domain/puc"
	"puc-service/internal/utils"
)

// DateLayout is the unambiguous calendar form every storage target uses for
// dates. Dates and readings travel as text so the row survives heterogeneous
// targets without type coercion.
const DateLayout = "2006-01-02"

// TestRow is the persisted shape of a TestRecord, shared by every remote
// table and the local fallback store.
type TestRow struct {
	ID               int64  `gorm:"primaryKey"`
	SubmissionID     string `gorm:"column:submission_id;not null"`
	VehicleNumber    string `gorm:"not null"`
	NormalizedNumber string `gorm:"not null"`
	VehicleCategory  string `gorm:"not null"`
	FuelType         string `gorm:"not null"`
	EmissionStandard *string
	OwnerName        string
	ContactNumber    string
	TestDate         string `gorm:"not null"`
	ValidityDate     string `gorm:"not null"`
	Readings         datatypes.JSONMap
	TestResult       string `gorm:"not null"`
	IssuedBy         string `gorm:"not null"`
	CreatedAt        time.Time
}

func NewTestRow(rec *puc.TestRecord) TestRow {
	row := TestRow{
		SubmissionID:     rec.SubmissionID,
		VehicleNumber:    rec.VehicleNumber,
		NormalizedNumber: utils.NormalizeVehicleNumber(rec.VehicleNumber),
		VehicleCategory:  string(rec.VehicleCategory),
		FuelType:         string(rec.FuelType),
		OwnerName:        rec.OwnerName,
		ContactNumber:    rec.ContactNumber,
		TestDate:         rec.TestDate.Format(DateLayout),
		ValidityDate:     rec.ValidityDate.Format(DateLayout),
		TestResult:       string(rec.TestResult),
		IssuedBy:         rec.IssuedBy,
		CreatedAt:        time.Now().UTC(),
	}
	if rec.EmissionStandard != "" {
		row.EmissionStandard = &rec.EmissionStandard
	}
	if len(rec.Readings) > 0 {
		row.Readings = datatypes.JSONMap{}
		for k, v := range rec.Readings {
			row.Readings[k] = v
		}
	}
	return row
}

// ToRecord converts a stored row back to the domain entity. location names
// the table the row was read from.
func (r TestRow) ToRecord(location string) (*puc.TestRecord, error) {
	testDate, err := time.Parse(DateLayout, r.TestDate)
	if err != nil {
		return nil, fmt.Errorf("parse test_date %q: %w", r.TestDate, err)
	}
	validityDate, err := time.Parse(DateLayout, r.ValidityDate)
	if err != nil {
		return nil, fmt.Errorf("parse validity_date %q: %w", r.ValidityDate, err)
	}

	rec := &puc.TestRecord{
		SubmissionID:    r.SubmissionID,
		VehicleNumber:   r.VehicleNumber,
		VehicleCategory: puc.VehicleCategory(r.VehicleCategory),
		FuelType:        puc.FuelType(r.FuelType),
		OwnerName:       r.OwnerName,
		ContactNumber:   r.ContactNumber,
		TestDate:        testDate,
		ValidityDate:    validityDate,
		TestResult:      puc.TestResult(r.TestResult),
		IssuedBy:        r.IssuedBy,
		StorageLocation: location,
		CreatedAt:       r.CreatedAt,
	}
	if r.EmissionStandard != nil {
		rec.EmissionStandard = *r.EmissionStandard
	}
	if len(r.Readings) > 0 {
		rec.Readings = make(map[string]string, len(r.Readings))
		for k, v := range r.Readings {
			rec.Readings[k] = fmt.Sprint(v)
		}
	}
	return rec, nil
}

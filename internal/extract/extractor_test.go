package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"puc-service/internal/domain/puc"
)

const sampleSlip = `ANBU EMISSION TEST CENTRE
Vehicle No : tn-01-ab-1234
Fuel : PETROL (BS-IV)
Test Date : 15/01/2024
Validity upto : 15.07.24
CO (%) : 0.23
HC (ppm) : 120
High Idling RPM : 2500
Lambda : 1.002
Mobile : 9876543210`

func TestExtract_SampleSlip(t *testing.T) {
	got := Extract(sampleSlip)

	assert.Equal(t, "TN01AB1234", got[FieldVehicleNumber])
	assert.Equal(t, "2024-01-15", got[FieldTestDate])
	assert.Equal(t, "2024-07-15", got[FieldValidityDate])
	assert.Equal(t, "petrol", got[FieldFuelType])
	assert.Equal(t, "BS-IV", got[FieldEmissionStandard])
	assert.Equal(t, "9876543210", got[FieldContactNumber])
	assert.Equal(t, "0.23", got[puc.ReadingCOLevel])
	assert.Equal(t, "120", got[puc.ReadingHCLevel])
	assert.Equal(t, "2500", got[puc.ReadingRPMHighIdle])
	assert.Equal(t, "1.002", got[puc.ReadingLambda])
}

func TestExtract_Deterministic(t *testing.T) {
	first := Extract(sampleSlip)
	second := Extract(sampleSlip)
	assert.Equal(t, first, second)
}

func TestExtract_NoRecognizablePatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace only", text: "   \n\t  "},
		{name: "garbage", text: "lorem ipsum dolor sit amet ###"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Empty(t, got, "unmatched fields must be absent, never placeholders")
		})
	}
}

func TestExtract_UnmatchedFieldsAbsent(t *testing.T) {
	got := Extract("Smoke Density : 1.8")

	assert.Equal(t, "1.8", got[puc.ReadingSmokeDensity])
	_, hasVehicle := got[FieldVehicleNumber]
	assert.False(t, hasVehicle)
	_, hasDate := got[FieldTestDate]
	assert.False(t, hasDate)
}

func TestExtract_DateVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "slashes four digit year", text: "Test Date : 05/03/2023", want: "2023-03-05"},
		{name: "dots two digit year promoted", text: "Test Date : 05.03.23", want: "2023-03-05"},
		{name: "dashes", text: "Tested on 5-3-2023", want: "2023-03-05"},
		{name: "value on following line", text: "Test Date\n12/08/2024", want: "2024-08-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Equal(t, tt.want, got[FieldTestDate])
		})
	}
}

func TestExtract_FuelKeywordAnywhere(t *testing.T) {
	got := Extract("some unrelated header\nrunning on diesel engine\nmore text")
	assert.Equal(t, "diesel", got[FieldFuelType])
}

func TestExtract_EmissionStandardVariants(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "Norm: BS-VI", want: "BS-VI"},
		{text: "Norm: BS VI", want: "BS-VI"},
		{text: "Norm: BS6", want: "BS-VI"},
		{text: "Norm: bs-iv", want: "BS-IV"},
		{text: "Norm: BS-III", want: "BS-III"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Equal(t, tt.want, got[FieldEmissionStandard])
		})
	}
}

func TestExtract_PlateUppercased(t *testing.T) {
	got := Extract("noise ka 05 mj 661 noise")
	assert.Equal(t, "KA05MJ661", got[FieldVehicleNumber])
}

func TestExtract_RejectsImpossibleDates(t *testing.T) {
	got := Extract("Test Date : 45/13/2024")
	_, ok := got[FieldTestDate]
	assert.False(t, ok, "out of range day/month must not produce a candidate")
}

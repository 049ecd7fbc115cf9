package validity

import (
	"errors"
	"fmt"
	"time"

	"puc-service/internal/domain/puc"
)

// ErrInconsistent flags an explicit validity date that is not strictly after
// the test date. Rejected at intake with a user-correctable message.
var ErrInconsistent = errors.New("validity date must be after test date")

// Window lengths in calendar months.
const (
	twoWheelerMonths = 6
	defaultMonths    = 12
)

// Compute resolves the certificate expiry date for a test.
//
// An explicit validity date always wins over the default window, regardless
// of category, but must be strictly after the test date. Otherwise the window
// is 6 calendar months for two-wheelers and 12 for every other category,
// measured from the test date. A zero test date means the test is being
// recorded now, so today's date is used.
func Compute(testDate time.Time, category puc.VehicleCategory, explicit *time.Time) (time.Time, error) {
	if testDate.IsZero() {
		now := time.Now().UTC()
		testDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	if explicit != nil {
		if !explicit.After(testDate) {
			return time.Time{}, fmt.Errorf("%w: explicit %s vs test %s",
				ErrInconsistent, explicit.Format("2006-01-02"), testDate.Format("2006-01-02"))
		}
		return *explicit, nil
	}

	months := defaultMonths
	if category == puc.CategoryTwoWheeler {
		months = twoWheelerMonths
	}
	return AddCalendarMonths(testDate, months), nil
}

// AddCalendarMonths advances a date by whole calendar months, keeping the
// day of month where the target month has it and clamping to the target
// month's last day otherwise (Jan 31 + 1 month -> Feb 28/29).
func AddCalendarMonths(d time.Time, months int) time.Time {
	year, month, day := d.Date()
	m := int(month) + months
	year += (m - 1) / 12
	month = time.Month((m-1)%12 + 1)

	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, d.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the following month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

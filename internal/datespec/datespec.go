package datespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinYear = 2000
	MaxYear = 2100
)

// DateSpec is a validated cut-off date.
type DateSpec struct {
	DayMonth string // lowercase "<day> <month>", matched against date headers
	Day      int
	Month    time.Month
	Year     int
	Raw      string // input as typed
}

// Time composes the calendar date in loc. Out-of-range days roll over the way
// time.Date normalizes them.
func (d DateSpec) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d DateSpec) String() string {
	return fmt.Sprintf("%s %d", d.DayMonth, d.Year)
}

// Validator checks user input against a month vocabulary and the current time.
type Validator struct {
	Months Vocabulary
	Now    func() time.Time
}

// New returns a validator using months and the wall clock.
func New(months Vocabulary) *Validator {
	return &Validator{Months: months, Now: time.Now}
}

// Validate parses input. Day and month are not cross-checked, so "31 февраля 2024"
// is accepted.
func (v *Validator) Validate(input string) (DateSpec, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(parts) != 3 {
		return DateSpec{}, reject(ErrFormat, input)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return DateSpec{}, reject(ErrInvalidDay, input)
	}

	monthName := parts[1]
	month, ok := v.Months.Lookup(monthName)
	if !ok {
		return DateSpec{}, reject(ErrInvalidMonth, input)
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || year < MinYear || year > MaxYear {
		return DateSpec{}, reject(ErrInvalidYear, input)
	}

	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	spec := DateSpec{
		DayMonth: fmt.Sprintf("%d %s", day, monthName),
		Day:      day,
		Month:    month,
		Year:     year,
		Raw:      input,
	}
	if spec.Time(now.Location()).After(now) {
		return DateSpec{}, reject(ErrFutureDate, input)
	}

	return spec, nil
}

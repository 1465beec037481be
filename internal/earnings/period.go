package earnings

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	Period7Days   = "7d"
	Period30Days  = "30d"
	Period90Days  = "90d"
	Period12Month = "12m"
	PeriodAll     = "all"

	DefaultPeriod = Period30Days
)

// Period is a half-open [Start, End) window. A nil Start means unbounded.
type Period struct {
	Name  string
	Start *time.Time
	End   time.Time
}

// ParsePeriod resolves a named window ending at now.
func ParsePeriod(name string, now time.Time) (Period, error) {
	now = now.UTC()
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultPeriod
	}
	var start time.Time
	switch name {
	case Period7Days:
		start = now.AddDate(0, 0, -7)
	case Period30Days:
		start = now.AddDate(0, 0, -30)
	case Period90Days:
		start = now.AddDate(0, 0, -90)
	case Period12Month:
		start = now.AddDate(0, -12, 0)
	case PeriodAll:
		return Period{Name: name, End: now}, nil
	default:
		return Period{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown period").
			WithDetails(map[string]any{"period": name, "allowed": []string{Period7Days, Period30Days, Period90Days, Period12Month, PeriodAll}})
	}
	return Period{Name: name, Start: &start, End: now}, nil
}

// Previous returns the window of equal length immediately before p.
func (p Period) Previous() (Period, bool) {
	if p.Start == nil {
		return Period{}, false
	}
	length := p.End.Sub(*p.Start)
	start := p.Start.Add(-length)
	return Period{Start: &start, End: *p.Start}, true
}

// Growth is the percent change from previous to current, rounded to one
// decimal place. It is zero when there is no previous revenue.
func Growth(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return decimal.NewFromInt(current - previous).
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		InexactFloat64()
}

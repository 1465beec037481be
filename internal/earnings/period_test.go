package earnings

import (
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	tests := map[string]time.Time{
		"":    now.AddDate(0, 0, -30),
		"7d":  now.AddDate(0, 0, -7),
		"30D": now.AddDate(0, 0, -30),
		"90d": now.AddDate(0, 0, -90),
		"12m": now.AddDate(-1, 0, 0),
	}
	for name, wantStart := range tests {
		period, err := ParsePeriod(name, now)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if period.Start == nil || !period.Start.Equal(wantStart) || !period.End.Equal(now) {
			t.Fatalf("period %q: unexpected bounds %v..%v", name, period.Start, period.End)
		}
	}

	all, err := ParsePeriod("all", now)
	if err != nil || all.Start != nil {
		t.Fatalf("all should be unbounded, got %+v err %v", all, err)
	}
	if _, ok := all.Previous(); ok {
		t.Fatal("unbounded period has no previous window")
	}

	if _, err := ParsePeriod("6w", now); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPeriodPrevious(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	period, _ := ParsePeriod("7d", now)
	prev, ok := period.Previous()
	if !ok {
		t.Fatal("expected previous window")
	}
	if !prev.End.Equal(*period.Start) || !prev.Start.Equal(now.AddDate(0, 0, -14)) {
		t.Fatalf("unexpected previous window %v..%v", prev.Start, prev.End)
	}
}

func TestGrowth(t *testing.T) {
	if got := Growth(50000, 0); got != 0 {
		t.Fatalf("growth with zero previous must be 0, got %v", got)
	}
	if got := Growth(15000, 10000); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := Growth(10000, 30000); got != -66.7 {
		t.Fatalf("expected -66.7, got %v", got)
	}
	if got := Growth(10001, 30000); got != -66.7 {
		t.Fatalf("expected -66.7, got %v", got)
	}
}

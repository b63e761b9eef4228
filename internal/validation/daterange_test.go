package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/purchasefast/blingboard/internal/model"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-10")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}

	want := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("date = %v, want %v", got, want)
	}
}

func TestParseDate_BadFormat(t *testing.T) {
	for _, value := range []string{"10-03-2024", "2024/03/10", "yesterday", ""} {
		if _, err := ParseDate(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestParseDateRange_Defaults(t *testing.T) {
	defaultStart := time.Date(2024, time.March, 1, 15, 30, 0, 0, time.UTC)
	defaultEnd := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)

	r, err := ParseDateRange("", "", defaultStart, defaultEnd)
	if err != nil {
		t.Fatalf("ParseDateRange error: %v", err)
	}

	if !r.Start.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", r.Start)
	}
	if !r.End.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", r.End)
	}
}

func TestParseDateRange_Explicit(t *testing.T) {
	now := time.Now()

	r, err := ParseDateRange("2024-03-01", "2024-03-10", now, now)
	if err != nil {
		t.Fatalf("ParseDateRange error: %v", err)
	}

	if !r.Start.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", r.Start)
	}
	if !r.End.Equal(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", r.End)
	}
}

func TestParseDateRange_StartAfterEnd(t *testing.T) {
	now := time.Now()

	_, err := ParseDateRange("2024-03-10", "2024-03-01", now, now)
	if !errors.Is(err, model.ErrInvalidDateRange) {
		t.Fatalf("error = %v, want ErrInvalidDateRange", err)
	}
}

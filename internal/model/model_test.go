package model

import (
	"testing"
	"time"
)

func TestStatusesWithoutCanceled(t *testing.T) {
	statuses := StatusesWithoutCanceled()

	if len(statuses) != len(AllStatuses())-1 {
		t.Fatalf("statuses = %d, want %d", len(statuses), len(AllStatuses())-1)
	}
	for _, s := range statuses {
		if s == OrderStatusCanceled {
			t.Fatalf("CANCELED must be excluded")
		}
	}
}

func TestDateRange_Validate(t *testing.T) {
	d := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	if err := (DateRange{Start: d, End: d}).Validate(); err != nil {
		t.Fatalf("single-day range must be valid: %v", err)
	}
	if err := (DateRange{Start: d, End: d.AddDate(0, 0, -1)}).Validate(); err == nil {
		t.Fatalf("expected error for start after end")
	}
}

func TestDateRange_Days(t *testing.T) {
	start := time.Date(2024, time.March, 10, 13, 45, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 12, 2, 0, 0, 0, time.UTC)

	days := (DateRange{Start: start, End: end}).Days()
	if len(days) != 3 {
		t.Fatalf("days = %d, want 3", len(days))
	}
	for i, d := range days {
		want := time.Date(2024, time.March, 10+i, 0, 0, 0, 0, time.UTC)
		if !d.Equal(want) {
			t.Fatalf("day %d = %v, want %v", i, d, want)
		}
	}
}

func TestDateRange_ContainsBoundaries(t *testing.T) {
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC)
	r := DateRange{Start: start, End: end}

	if !r.Contains(start) {
		t.Fatalf("start boundary must be included")
	}
	if !r.Contains(end.Add(23 * time.Hour)) {
		t.Fatalf("end day must be included with day precision")
	}
	if r.Contains(end.AddDate(0, 0, 1)) {
		t.Fatalf("day after end must be excluded")
	}
}

func TestDateField_Of(t *testing.T) {
	orderDate := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	changeDate := orderDate.AddDate(0, 0, 1)
	collectedDate := orderDate.AddDate(0, 0, 2)

	item := OrderItem{
		OrderDate:           &orderDate,
		StatusChangeDate:    &changeDate,
		CollectedChangeDate: &collectedDate,
	}

	if got := DateFieldOrder.Of(item); !got.Equal(orderDate) {
		t.Fatalf("order date = %v", got)
	}
	if got := DateFieldStatusChange.Of(item); !got.Equal(changeDate) {
		t.Fatalf("status change date = %v", got)
	}
	if got := DateFieldCollectedChange.Of(item); !got.Equal(collectedDate) {
		t.Fatalf("collected change date = %v", got)
	}
}

func TestStoreName(t *testing.T) {
	name, ok := StoreName(204219105)
	if !ok || name != "Shein" {
		t.Fatalf("store name = %q, %v", name, ok)
	}

	if _, ok := StoreName(1); ok {
		t.Fatalf("unknown store id must not resolve")
	}
}

// Package validation содержит функции валидации входных данных.
package validation

import (
	"fmt"
	"time"

	"github.com/purchasefast/blingboard/internal/model"
)

const dateLayout = "2006-01-02"

// ParseDate разбирает дату запроса в формате YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t.UTC(), nil
}

// ParseDateRange разбирает границы диапазона из параметров запроса.
// Пустые значения заменяются значениями по умолчанию. Диапазон с началом
// позже конца отклоняется с ошибкой model.ErrInvalidDateRange.
func ParseDateRange(initial, final string, defaultStart, defaultEnd time.Time) (model.DateRange, error) {
	start := model.DayOf(defaultStart)
	end := model.DayOf(defaultEnd)

	if initial != "" {
		t, err := ParseDate(initial)
		if err != nil {
			return model.DateRange{}, err
		}
		start = t
	}
	if final != "" {
		t, err := ParseDate(final)
		if err != nil {
			return model.DateRange{}, err
		}
		end = t
	}

	r := model.DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return model.DateRange{}, err
	}
	return r, nil
}

package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSameCalendarDay(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want bool
	}{
		{"same instant", date(2024, 1, 10), date(2024, 1, 10), true},
		{"same day different hours", time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC), true},
		{"adjacent days across midnight", time.Date(2024, 1, 10, 23, 50, 0, 0, time.UTC), time.Date(2024, 1, 11, 0, 5, 0, 0, time.UTC), false},
		{"different months", date(2024, 1, 31), date(2024, 2, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameCalendarDay(tt.a, tt.b))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name    string
		earlier time.Time
		later   time.Time
		want    int
	}{
		{"same day", date(2024, 1, 10), time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC), 0},
		{"one day ignoring time of day", time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC), time.Date(2024, 1, 11, 1, 0, 0, 0, time.UTC), 1},
		{"three days", date(2024, 1, 10), date(2024, 1, 13), 3},
		{"negative when reversed", date(2024, 1, 13), date(2024, 1, 10), -3},
		{"across month boundary", date(2024, 1, 30), date(2024, 2, 2), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.earlier, tt.later))
		})
	}
}

func TestAddCalendarMonth(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid month", date(2024, 1, 5), date(2024, 2, 5)},
		{"clamps to shorter month", date(2024, 1, 31), date(2024, 2, 29)},
		{"clamps in non leap year", date(2023, 1, 31), date(2023, 2, 28)},
		{"december wraps year", date(2024, 12, 15), date(2025, 1, 15)},
		{"preserves time of day", time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC), time.Date(2024, 4, 10, 14, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddCalendarMonth(tt.in))
		})
	}
}

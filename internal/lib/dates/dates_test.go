package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "обычный месяц",
			start:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "31 января плюс месяц прижимается к 29 февраля",
			start:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "31 января плюс месяц в невисокосный год",
			start:  time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "31 августа плюс полгода",
			start:  time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
			months: 6,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "переход через год",
			start:  time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
			months: 2,
			want:   time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "двенадцать месяцев",
			start:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			months: 12,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.months)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddYears(t *testing.T) {
	start := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	got := AddYears(start, 100)
	assert.Equal(t, time.Date(2124, 2, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2025, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.January))
	assert.Equal(t, 30, DaysIn(2024, time.April))
}

func TestDiffDays(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want int
	}{
		{
			name: "одинаковые дни",
			a:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "a позже b на неделю",
			a:    time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			want: 7,
		},
		{
			name: "a раньше b",
			a:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
			want: -3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiffDays(tt.a, tt.b))
		})
	}
}

// Разница в днях не должна плавать на переходе летнего времени:
// сутки перевода часов длятся 23 или 25 часов.
func TestDiffDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// В 2018 году перевод часов в Бразилии был 4 ноября.
	a := time.Date(2018, 11, 11, 12, 0, 0, 0, loc)
	b := time.Date(2018, 11, 1, 12, 0, 0, 0, loc)
	assert.Equal(t, 10, DiffDays(a, b))
}

func TestDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// 2 часа ночи UTC — это ещё предыдущий день в Сан-Паулу.
	moment := time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC)
	day := Day(moment, loc)
	assert.Equal(t, 14, day.Day())
	assert.Equal(t, time.June, day.Month())
	assert.Equal(t, 0, day.Hour())
}

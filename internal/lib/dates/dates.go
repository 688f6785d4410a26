// Package dates содержит функции для работы с календарными датами.
//
// Все операции ядра (активация подписки, проверка истечения, выбор
// уведомления) оперируют календарными датами без времени суток в одном
// фиксированном часовом поясе. Усечение по границе суток UTC здесь не
// подходит: для пользователя восточнее UTC видимая дата сместилась бы
// на день назад.
package dates

import "time"

// Day возвращает календарную дату момента t в часовом поясе loc:
// полночь того же дня.
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// AddMonths прибавляет к дате months месяцев, ограничивая день
// последним днём целевого месяца: 31 января + 1 месяц = 29 февраля
// (в високосный год), а не 2 марта, как даёт time.AddDate.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	year := y + total/12
	month := time.Month(total%12 + 1)
	if total < 0 {
		year = y + (total-11)/12
		month = time.Month((total%12+12)%12 + 1)
	}
	if last := DaysIn(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, 0, 0, 0, 0, t.Location())
}

// AddYears прибавляет years лет с тем же ограничением дня
// (29 февраля + 1 год = 28 февраля).
func AddYears(t time.Time, years int) time.Time {
	return AddMonths(t, years*12)
}

// DaysIn возвращает количество дней в месяце month года year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DiffDays возвращает разницу a - b в целых календарных днях.
// Обе даты читаются в часовом поясе даты a; сам подсчёт ведётся в UTC,
// чтобы переход на летнее время не давал 23- и 25-часовые сутки.
func DiffDays(a, b time.Time) int {
	loc := a.Location()
	ya, ma, da := a.In(loc).Date()
	yb, mb, db := b.In(loc).Date()
	ua := time.Date(ya, ma, da, 0, 0, 0, 0, time.UTC)
	ub := time.Date(yb, mb, db, 0, 0, 0, 0, time.UTC)
	return int(ua.Sub(ub).Hours() / 24)
}

package governance

import "time"

// Clock supplies the evaluation instant. Deadline rules compare calendar
// days, so reports are stable for a whole UTC day.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// daysUntil is negative once target lies on an earlier calendar day than now.
func daysUntil(now, target time.Time) int {
	return int(startOfDay(target).Sub(startOfDay(now)).Hours() / 24)
}

func evaluationDay(now time.Time) string {
	return startOfDay(now).Format("2006-01-02")
}

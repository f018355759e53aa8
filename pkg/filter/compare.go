package filter

import (
	"time"

	"github.com/dukex/tangram/pkg/models"
)

func compareNumber(value, target float64, op models.Operator, policy Policy) bool {
	switch op {
	case models.OperatorLess:
		return value < target
	case models.OperatorGreater:
		return value > target
	case models.OperatorLessEqual:
		return value <= target
	case models.OperatorGreaterEqual:
		return value >= target
	case models.OperatorEqual:
		return value == target
	default:
		return policy.unknown()
	}
}

// compareDate compares calendar days; time of day and zone are ignored.
func compareDate(date, target time.Time, op models.Operator, policy Policy) bool {
	d, t := calendarDay(date), calendarDay(target)

	switch op {
	case models.OperatorLess:
		return d.Before(t)
	case models.OperatorGreater:
		return d.After(t)
	case models.OperatorLessEqual:
		return !d.After(t)
	case models.OperatorGreaterEqual:
		return !d.Before(t)
	case models.OperatorEqual:
		return d.Equal(t)
	default:
		return policy.unknown()
	}
}

func withinRange(date, start, end time.Time) bool {
	d := calendarDay(date)

	return !d.Before(calendarDay(start)) && !d.After(calendarDay(end))
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

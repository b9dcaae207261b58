package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// TaskAnalytics aggregates the whole task table.
type TaskAnalytics struct {
	// StatusCounts holds the number of tasks per status. Statuses with no
	// tasks are omitted.
	StatusCounts map[TaskStatus]int

	// AvgCompletionTimeHours is the mean time from creation to completion,
	// formatted with two decimals.
	AvgCompletionTimeHours string

	// PerUserCounts holds the number of tasks per owner.
	PerUserCounts map[uuid.UUID]int
}

// FormatHours renders an hour value with two decimals. Negative and NaN
// inputs render as "0.00".
func FormatHours(hours float64) string {
	if math.IsNaN(hours) || hours < 0 {
		hours = 0
	}
	return fmt.Sprintf("%.2f", hours)
}

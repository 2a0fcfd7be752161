package tasks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"careerlaunch_api/internal/models"
)

// defaultStaleAfterHours is how long a record may sit pending before
// the maintenance task marks it failed, freeing the booking slot.
const defaultStaleAfterHours = 24

// ExpireStalePaymentsArgs defines the arguments for the stale-payment
// expiry task.
type ExpireStalePaymentsArgs struct {
	StaleAfterHours int `json:"stale_after_hours"`
}

// ExpireStalePaymentsTaskDef marks bookings and purchases that never
// completed payment as failed. This is the only writer of the failed
// status; the verify handlers never set it.
type ExpireStalePaymentsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *ExpireStalePaymentsTaskDef) TaskID() string {
	return "expire_stale_payments"
}

// CreateRecurringTask builds a recurring ScheduledTask following the
// given RRULE (e.g. "FREQ=DAILY").
func (t *ExpireStalePaymentsTaskDef) CreateRecurringTask(rule string, args ExpireStalePaymentsArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), &rule, models.ScheduledTaskTypeRecurring, 1)
}

// HandleExecution expires stale pending records.
func (t *ExpireStalePaymentsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args ExpireStalePaymentsArgs
	if err := decodeArgs(task.Arguments, &args); err != nil {
		return nil, err
	}
	if args.StaleAfterHours <= 0 {
		args.StaleAfterHours = defaultStaleAfterHours
	}

	cutoff := time.Now().Add(-time.Duration(args.StaleAfterHours) * time.Hour)

	bookings := db.WithContext(ctx).Model(&models.MentorBooking{}).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Update("status", models.PaymentStatusFailed)
	if bookings.Error != nil {
		return nil, bookings.Error
	}

	purchases := db.WithContext(ctx).Model(&models.ProjectPurchase{}).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Update("status", models.PaymentStatusFailed)
	if purchases.Error != nil {
		return nil, purchases.Error
	}

	return map[string]interface{}{
		"status":            "success",
		"expired_bookings":  bookings.RowsAffected,
		"expired_purchases": purchases.RowsAffected,
		"cutoff":            cutoff.Format(time.RFC3339),
	}, nil
}

// ExpireStalePaymentsTask is the singleton instance of ExpireStalePaymentsTaskDef
var ExpireStalePaymentsTask = &ExpireStalePaymentsTaskDef{}

package tasks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"careerlaunch_api/internal/models"
	"careerlaunch_api/internal/services"
)

// PaymentConfirmationArgs defines the arguments for a confirmation
// email task.
type PaymentConfirmationArgs struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	OrderID string `json:"order_id"`
}

// PaymentConfirmationTaskDef sends booking/purchase confirmation
// emails enqueued by the payment flow.
type PaymentConfirmationTaskDef struct {
	Email *services.EmailService
}

// TaskID returns the unique identifier for this task
func (t *PaymentConfirmationTaskDef) TaskID() string {
	return "send_payment_confirmation"
}

// CreateTask builds a ScheduledTask record for this task
func (t *PaymentConfirmationTaskDef) CreateTask(args PaymentConfirmationArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends the confirmation email.
func (t *PaymentConfirmationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args PaymentConfirmationArgs
	if err := decodeArgs(task.Arguments, &args); err != nil {
		return nil, err
	}

	if args.Email == "" {
		return nil, fmt.Errorf("no recipient email in task arguments")
	}
	if t.Email == nil {
		return nil, fmt.Errorf("email service not configured")
	}

	if err := t.Email.SendEmail([]string{args.Email}, args.Subject, args.Body); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":   "success",
		"email":    args.Email,
		"order_id": args.OrderID,
	}, nil
}

// PaymentConfirmationTask is the singleton instance; the worker
// injects the email service before registering it.
var PaymentConfirmationTask = &PaymentConfirmationTaskDef{}

package tasks

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"careerlaunch_api/internal/models"
)

// TaskNotifier implements the payment flow's Notifier by enqueuing
// confirmation-email tasks for the worker. Enqueueing happens in a
// detached goroutine: at most once, best effort, no ordering
// guarantee relative to the HTTP response. Failures are logged and
// never reach the caller.
type TaskNotifier struct {
	db *gorm.DB
}

func NewTaskNotifier(db *gorm.DB) *TaskNotifier {
	return &TaskNotifier{db: db}
}

func (n *TaskNotifier) BookingCreated(booking *models.MentorBooking, mentorName string) {
	sessionInfo := ""
	if booking.SessionDate != nil {
		sessionInfo = fmt.Sprintf(" on %s", booking.SessionDate.Format("2 Jan 2006 15:04 MST"))
	}
	n.dispatch(PaymentConfirmationArgs{
		Email:   booking.UserEmail,
		Subject: "Your mentor booking is awaiting payment",
		Body: fmt.Sprintf("We reserved your session with %s%s. Complete the payment to confirm it. Order reference: %s.",
			mentorName, sessionInfo, booking.RazorpayOrderID),
		OrderID: booking.RazorpayOrderID,
	})
}

func (n *TaskNotifier) BookingPaid(booking *models.MentorBooking) {
	n.dispatch(PaymentConfirmationArgs{
		Email:   booking.UserEmail,
		Subject: "Mentor booking confirmed",
		Body: fmt.Sprintf("Your payment of %.2f %s was received and your session is confirmed. Order reference: %s.",
			booking.Amount, booking.Currency, booking.RazorpayOrderID),
		OrderID: booking.RazorpayOrderID,
	})
}

func (n *TaskNotifier) PurchaseCreated(purchase *models.ProjectPurchase, projectTitle string) {
	n.dispatch(PaymentConfirmationArgs{
		Email:   purchase.UserEmail,
		Subject: "Your project purchase is awaiting payment",
		Body: fmt.Sprintf("Complete the payment to unlock %q. Order reference: %s.",
			projectTitle, purchase.RazorpayOrderID),
		OrderID: purchase.RazorpayOrderID,
	})
}

func (n *TaskNotifier) PurchasePaid(purchase *models.ProjectPurchase) {
	n.dispatch(PaymentConfirmationArgs{
		Email:   purchase.UserEmail,
		Subject: "Project purchase confirmed",
		Body: fmt.Sprintf("Your payment of %.2f %s was received. The project download is now available. Order reference: %s.",
			purchase.Amount, purchase.Currency, purchase.RazorpayOrderID),
		OrderID: purchase.RazorpayOrderID,
	})
}

func (n *TaskNotifier) dispatch(args PaymentConfirmationArgs) {
	go func() {
		task, err := PaymentConfirmationTask.CreateTask(args)
		if err != nil {
			log.Printf("notifier: failed to build confirmation task: %v", err)
			return
		}
		if err := n.db.Create(task).Error; err != nil {
			log.Printf("notifier: failed to enqueue confirmation task: %v", err)
		}
	}()
}

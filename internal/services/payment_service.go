package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	glog "github.com/labstack/gommon/log"
	"gorm.io/gorm"

	"careerlaunch_api/internal/apperrors"
	"careerlaunch_api/internal/models"
)

// UserIdentity is the caller identity resolved from a bearer token by
// the auth middleware.
type UserIdentity struct {
	ID    string
	Email string
}

// Notifier dispatches confirmation notifications. Implementations
// must be best-effort and non-blocking: the payment flow never waits
// on a notification and never fails because one could not be sent.
type Notifier interface {
	BookingCreated(booking *models.MentorBooking, mentorName string)
	BookingPaid(booking *models.MentorBooking)
	PurchaseCreated(purchase *models.ProjectPurchase, projectTitle string)
	PurchasePaid(purchase *models.ProjectPurchase)
}

// BookingRequest is the validated input for creating a mentor-booking
// payment order. SessionDate is the raw client string; parsing and
// bounds live here so both the HTTP handler and any future caller get
// identical rules.
type BookingRequest struct {
	MentorID        string
	Amount          float64
	SessionDate     string
	SessionDuration int
	Notes           string
}

// PurchaseRequest is the input for creating a project-purchase order.
type PurchaseRequest struct {
	ProjectID string
	Amount    float64
}

// OrderResult is what the client needs to open the payment widget.
// Amount is in the gateway's minor unit (paise).
type OrderResult struct {
	OrderID      string
	Amount       int64
	Currency     string
	KeyID        string
	ResourceName string
	UserEmail    string
}

// VerificationRequest carries the client-reported payment
// confirmation from the gateway widget.
type VerificationRequest struct {
	PaymentID string
	OrderID   string
	Signature string
}

// VerificationResult reports the outcome of a verification attempt.
// Captured is false when the gateway reports any status other than
// "captured"; the record is left untouched in that case.
type VerificationResult struct {
	Captured    bool
	AlreadyPaid bool
	Status      string
	RecordID    string
	ResourceID  string
	Amount      float64
	PaymentID   string
	OrderID     string
}

const (
	minSessionDuration = 30
	maxSessionDuration = 240
)

// PaymentService implements order initiation and payment verification
// for mentor bookings and project purchases.
type PaymentService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	notifier Notifier
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, notifier Notifier) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, notifier: notifier}
}

// CreateBooking validates the request against the mentor's
// constraints, creates a gateway order and persists a pending booking
// referencing it.
func (s *PaymentService) CreateBooking(user UserIdentity, req BookingRequest) (*OrderResult, error) {
	if req.MentorID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "Mentor ID is required")
	}
	if req.Amount <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "Amount must be greater than 0")
	}

	var sessionDate *time.Time
	if req.SessionDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.SessionDate)
		if err != nil {
			return nil, apperrors.New(apperrors.KindValidation, "Invalid session date")
		}
		if parsed.Before(time.Now()) {
			return nil, apperrors.New(apperrors.KindValidation, "Session date cannot be in the past")
		}
		sessionDate = &parsed
	}

	if req.SessionDuration != 0 && (req.SessionDuration < minSessionDuration || req.SessionDuration > maxSessionDuration) {
		return nil, apperrors.Newf(apperrors.KindValidation,
			"Session duration must be between %d and %d minutes", minSessionDuration, maxSessionDuration)
	}

	var mentor models.Mentor
	if err := s.db.First(&mentor, "id = ?", req.MentorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "Mentor not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to fetch mentor", err)
	}

	if !mentor.IsAvailable {
		return nil, apperrors.New(apperrors.KindForbidden, "Mentor not available")
	}
	if mentor.Price > 0 && req.Amount < mentor.Price {
		return nil, apperrors.Newf(apperrors.KindValidation, "Amount must be at least %.0f", mentor.Price)
	}
	if req.SessionDuration != 0 {
		if mentor.MinDuration > 0 && req.SessionDuration < mentor.MinDuration {
			return nil, apperrors.Newf(apperrors.KindValidation, "Minimum duration is %d minutes", mentor.MinDuration)
		}
		if mentor.MaxDuration > 0 && req.SessionDuration > mentor.MaxDuration {
			return nil, apperrors.Newf(apperrors.KindValidation, "Maximum duration is %d minutes", mentor.MaxDuration)
		}
	}

	// Existence check for a friendly 409; the partial unique index on
	// (user, mentor, session_date) closes the remaining race window.
	if sessionDate != nil {
		var count int64
		err := s.db.Model(&models.MentorBooking{}).
			Where("user_id = ? AND mentor_id = ? AND session_date = ? AND status <> ?",
				user.ID, req.MentorID, sessionDate, models.PaymentStatusFailed).
			Count(&count).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to check existing bookings", err)
		}
		if count > 0 {
			return nil, apperrors.New(apperrors.KindConflict, "You already have a booking with this mentor at this time")
		}
	}

	duration := req.SessionDuration
	if duration == 0 {
		duration = 60
	}

	notes := map[string]interface{}{
		"user_id":          user.ID,
		"mentor_id":        req.MentorID,
		"mentor_name":      mentor.Name,
		"session_date":     req.SessionDate,
		"session_duration": fmt.Sprintf("%d", duration),
	}

	order, idempotencyKey, err := s.gateway.CreateOrder(
		toMinorUnits(req.Amount), "INR", receiptFor("mentor", req.MentorID), notes)
	if err != nil {
		glog.Errorj(glog.JSON{"message": "gateway order creation failed", "mentor_id": req.MentorID, "error": err.Error()})
		return nil, apperrors.Wrap(apperrors.KindServiceUnavailable, "Payment service unavailable", err).
			WithDetails(map[string]interface{}{"provider": "razorpay"})
	}

	booking := models.MentorBooking{
		UserID:          user.ID,
		UserEmail:       user.Email,
		MentorID:        req.MentorID,
		Amount:          req.Amount,
		Currency:        order.Currency,
		SessionDate:     sessionDate,
		SessionDuration: duration,
		Notes:           req.Notes,
		Status:          models.PaymentStatusPending,
		PaymentProvider: models.PaymentProviderRazorpay,
		RazorpayOrderID: order.ID,
		IdempotencyKey:  idempotencyKey,
	}
	if err := s.db.Create(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.KindConflict, "You already have a booking with this mentor at this time")
		}
		// No compensating cancellation of the gateway order here; the
		// order expires unpaid on the gateway side.
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to create booking", err)
	}

	glog.Infoj(glog.JSON{"message": "booking created", "booking_id": booking.ID, "order_id": order.ID, "user_id": user.ID})

	if s.notifier != nil {
		s.notifier.BookingCreated(&booking, mentor.Name)
	}

	return &OrderResult{
		OrderID:      order.ID,
		Amount:       order.Amount,
		Currency:     order.Currency,
		KeyID:        s.gateway.KeyID(),
		ResourceName: mentor.Name,
		UserEmail:    user.Email,
	}, nil
}

// CreatePurchase is the project counterpart of CreateBooking.
func (s *PaymentService) CreatePurchase(user UserIdentity, req PurchaseRequest) (*OrderResult, error) {
	if req.ProjectID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "Project ID is required")
	}
	if req.Amount <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "Amount must be greater than 0")
	}

	var project models.Project
	if err := s.db.First(&project, "id = ?", req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "Project not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to fetch project", err)
	}

	if !project.IsAvailable {
		return nil, apperrors.New(apperrors.KindForbidden, "Project not available")
	}
	if project.Price > 0 && req.Amount < project.Price {
		return nil, apperrors.Newf(apperrors.KindValidation, "Amount must be at least %.0f", project.Price)
	}

	var count int64
	err := s.db.Model(&models.ProjectPurchase{}).
		Where("user_id = ? AND project_id = ? AND status <> ?", user.ID, req.ProjectID, models.PaymentStatusFailed).
		Count(&count).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to check existing purchases", err)
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.KindConflict, "A purchase for this project already exists or is pending")
	}

	notes := map[string]interface{}{
		"user_id":       user.ID,
		"project_id":    req.ProjectID,
		"project_title": project.Title,
	}

	order, idempotencyKey, err := s.gateway.CreateOrder(
		toMinorUnits(req.Amount), "INR", receiptFor("receipt", req.ProjectID), notes)
	if err != nil {
		glog.Errorj(glog.JSON{"message": "gateway order creation failed", "project_id": req.ProjectID, "error": err.Error()})
		return nil, apperrors.Wrap(apperrors.KindServiceUnavailable, "Payment service unavailable", err).
			WithDetails(map[string]interface{}{"provider": "razorpay"})
	}

	purchase := models.ProjectPurchase{
		UserID:          user.ID,
		UserEmail:       user.Email,
		ProjectID:       req.ProjectID,
		Amount:          req.Amount,
		Currency:        order.Currency,
		Status:          models.PaymentStatusPending,
		PaymentProvider: models.PaymentProviderRazorpay,
		RazorpayOrderID: order.ID,
		IdempotencyKey:  idempotencyKey,
	}
	if err := s.db.Create(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.KindConflict, "A purchase for this project already exists or is pending")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to create purchase", err)
	}

	glog.Infoj(glog.JSON{"message": "purchase created", "purchase_id": purchase.ID, "order_id": order.ID, "user_id": user.ID})

	if s.notifier != nil {
		s.notifier.PurchaseCreated(&purchase, project.Title)
	}

	return &OrderResult{
		OrderID:      order.ID,
		Amount:       order.Amount,
		Currency:     order.Currency,
		KeyID:        s.gateway.KeyID(),
		ResourceName: project.Title,
		UserEmail:    user.Email,
	}, nil
}

// VerifyBooking checks the client-reported payment confirmation for a
// mentor booking and transitions the record to paid exactly once.
func (s *PaymentService) VerifyBooking(user UserIdentity, req VerificationRequest) (*VerificationResult, error) {
	payment, notCaptured, err := s.confirmCapture(req)
	if err != nil {
		return nil, err
	}
	if notCaptured != nil {
		return notCaptured, nil
	}

	var booking models.MentorBooking
	err = s.db.Where("razorpay_order_id = ? AND user_id = ?", req.OrderID, user.ID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "Booking not found for this order")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to fetch booking", err)
	}

	result := &VerificationResult{
		Captured:   true,
		Status:     string(models.PaymentStatusPaid),
		RecordID:   booking.ID,
		ResourceID: booking.MentorID,
		Amount:     booking.Amount,
		PaymentID:  req.PaymentID,
		OrderID:    req.OrderID,
	}

	if booking.Status == models.PaymentStatusPaid {
		result.AlreadyPaid = true
		return result, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":              models.PaymentStatusPaid,
		"razorpay_payment_id": req.PaymentID,
		"payment_received_at": &now,
		"metadata":            paymentMetadata(payment),
	}
	// The status guard makes the transition exactly-once under
	// concurrent verify calls for the same order.
	res := s.db.Model(&models.MentorBooking{}).
		Where("id = ? AND status = ?", booking.ID, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to update booking", res.Error)
	}
	if res.RowsAffected == 0 {
		result.AlreadyPaid = true
		return result, nil
	}

	s.recordEvent(req, "captured", payment)
	glog.Infoj(glog.JSON{"message": "booking paid", "booking_id": booking.ID, "order_id": req.OrderID})

	if s.notifier != nil {
		booking.Status = models.PaymentStatusPaid
		booking.RazorpayPaymentID = req.PaymentID
		s.notifier.BookingPaid(&booking)
	}

	return result, nil
}

// VerifyPurchase is the project counterpart of VerifyBooking.
func (s *PaymentService) VerifyPurchase(user UserIdentity, req VerificationRequest) (*VerificationResult, error) {
	payment, notCaptured, err := s.confirmCapture(req)
	if err != nil {
		return nil, err
	}
	if notCaptured != nil {
		return notCaptured, nil
	}

	var purchase models.ProjectPurchase
	err = s.db.Where("razorpay_order_id = ? AND user_id = ?", req.OrderID, user.ID).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "Purchase record not found or does not match")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to fetch purchase", err)
	}

	result := &VerificationResult{
		Captured:   true,
		Status:     string(models.PaymentStatusPaid),
		RecordID:   purchase.ID,
		ResourceID: purchase.ProjectID,
		Amount:     purchase.Amount,
		PaymentID:  req.PaymentID,
		OrderID:    req.OrderID,
	}

	if purchase.Status == models.PaymentStatusPaid {
		result.AlreadyPaid = true
		return result, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":              models.PaymentStatusPaid,
		"razorpay_payment_id": req.PaymentID,
		"purchased_at":        &now,
		"metadata":            paymentMetadata(payment),
	}
	res := s.db.Model(&models.ProjectPurchase{}).
		Where("id = ? AND status = ?", purchase.ID, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to update purchase", res.Error)
	}
	if res.RowsAffected == 0 {
		result.AlreadyPaid = true
		return result, nil
	}

	s.recordEvent(req, "captured", payment)
	glog.Infoj(glog.JSON{"message": "purchase paid", "purchase_id": purchase.ID, "order_id": req.OrderID})

	if s.notifier != nil {
		purchase.Status = models.PaymentStatusPaid
		purchase.RazorpayPaymentID = req.PaymentID
		s.notifier.PurchasePaid(&purchase)
	}

	return result, nil
}

// confirmCapture runs the two trust checks shared by both verifiers:
// the HMAC signature over order and payment ids, then a server-side
// payment lookup asserting status "captured". It fails closed on a
// signature mismatch and returns a non-captured result (no error, no
// transition) for any other gateway status.
func (s *PaymentService) confirmCapture(req VerificationRequest) (*GatewayPayment, *VerificationResult, error) {
	if req.PaymentID == "" || req.OrderID == "" || req.Signature == "" {
		return nil, nil, apperrors.New(apperrors.KindValidation, "Missing Razorpay payment verification details")
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.recordEvent(req, "signature_mismatch", nil)
		glog.Warnj(glog.JSON{"message": "signature mismatch", "order_id": req.OrderID, "payment_id": req.PaymentID})
		return nil, nil, apperrors.New(apperrors.KindValidation, "signature mismatch")
	}

	payment, err := s.gateway.FetchPayment(req.PaymentID)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindServiceUnavailable, "Failed to retrieve payment details from Razorpay", err)
	}

	if payment.Status != "captured" {
		s.recordEvent(req, payment.Status, payment)
		glog.Warnj(glog.JSON{"message": "payment not captured", "order_id": req.OrderID, "status": payment.Status})
		return nil, &VerificationResult{
			Captured:  false,
			Status:    payment.Status,
			PaymentID: req.PaymentID,
			OrderID:   req.OrderID,
		}, nil
	}

	return payment, nil, nil
}

// recordEvent appends an audit row for a verification attempt.
// Best effort; an audit failure never affects the caller.
func (s *PaymentService) recordEvent(req VerificationRequest, event string, payment *GatewayPayment) {
	var meta json.RawMessage
	if payment != nil {
		meta, _ = json.Marshal(payment)
	}
	ev := models.PaymentEvent{
		PaymentGateway: models.PaymentProviderRazorpay,
		OrderID:        req.OrderID,
		PaymentID:      req.PaymentID,
		Event:          event,
		Metadata:       meta,
	}
	if err := s.db.Create(&ev).Error; err != nil {
		glog.Errorj(glog.JSON{"message": "failed to record payment event", "order_id": req.OrderID, "error": err.Error()})
	}
}

func paymentMetadata(payment *GatewayPayment) json.RawMessage {
	meta, _ := json.Marshal(map[string]interface{}{
		"razorpay_details": map[string]interface{}{
			"method":   payment.Method,
			"bank":     payment.Bank,
			"wallet":   payment.Wallet,
			"vpa":      payment.VPA,
			"card_id":  payment.CardID,
			"amount":   payment.Amount,
			"currency": payment.Currency,
		},
	})
	return meta
}

// toMinorUnits converts a major-unit amount (rupees) to the gateway's
// minor unit (paise).
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// receiptFor derives a gateway receipt string from a truncated
// resource id plus a short random suffix, e.g. "mentor_1a2b3c4d_9f8e7d6c".
func receiptFor(prefix, resourceID string) string {
	id := resourceID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s_%s", prefix, id, uuid.NewString()[:8])
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"careerlaunch_api/internal/apperrors"
	"careerlaunch_api/internal/middleware"
	"careerlaunch_api/internal/services"
)

// PaymentHandler exposes the order-initiation and payment-verification
// endpoints for mentor bookings and project purchases.
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateMentorBooking handles POST /api/create-mentor-booking.
func (h *PaymentHandler) CreateMentorBooking(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.New(apperrors.KindUnauthorized, "Authorization required")
	}

	var req BookingPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.payments.CreateBooking(user, services.BookingRequest{
		MentorID:        req.MentorID,
		Amount:          req.Amount,
		SessionDate:     req.SessionDate,
		SessionDuration: req.SessionDuration,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, OrderResponse{
		Success:    true,
		OrderID:    result.OrderID,
		Amount:     result.Amount,
		Currency:   result.Currency,
		KeyID:      result.KeyID,
		MentorName: result.ResourceName,
		UserEmail:  result.UserEmail,
	})
}

// VerifyMentorBooking handles POST /api/verify-mentor-booking.
func (h *PaymentHandler) VerifyMentorBooking(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.New(apperrors.KindUnauthorized, "Authorization required")
	}

	var req VerifyPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.payments.VerifyBooking(user, services.VerificationRequest{
		PaymentID: req.RazorpayPaymentID,
		OrderID:   req.RazorpayOrderID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		return err
	}

	if !result.Captured {
		// Not an error: the caller may retry once the gateway settles.
		return c.JSON(http.StatusOK, VerifyResponse{
			Success: false,
			Status:  result.Status,
			Message: "Payment not captured by Razorpay",
		})
	}

	resp := VerifyResponse{
		Success:           true,
		Status:            result.Status,
		BookingID:         result.RecordID,
		MentorID:          result.ResourceID,
		Amount:            result.Amount,
		RazorpayPaymentID: result.PaymentID,
		RazorpayOrderID:   result.OrderID,
	}
	if result.AlreadyPaid {
		resp.Message = "Booking already confirmed"
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateProjectPayment handles POST /api/create-project-payment.
func (h *PaymentHandler) CreateProjectPayment(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.New(apperrors.KindUnauthorized, "Authorization required")
	}

	var req ProjectPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.payments.CreatePurchase(user, services.PurchaseRequest{
		ProjectID: req.ProjectID,
		Amount:    req.Amount,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, OrderResponse{
		Success:      true,
		OrderID:      result.OrderID,
		Amount:       result.Amount,
		Currency:     result.Currency,
		KeyID:        result.KeyID,
		ProjectTitle: result.ResourceName,
		UserEmail:    result.UserEmail,
	})
}

// VerifyProjectPayment handles POST /api/verify-project-payment.
func (h *PaymentHandler) VerifyProjectPayment(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.New(apperrors.KindUnauthorized, "Authorization required")
	}

	var req VerifyPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.payments.VerifyPurchase(user, services.VerificationRequest{
		PaymentID: req.RazorpayPaymentID,
		OrderID:   req.RazorpayOrderID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		return err
	}

	if !result.Captured {
		return c.JSON(http.StatusOK, VerifyResponse{
			Success: false,
			Status:  result.Status,
			Message: "Payment not captured by Razorpay",
		})
	}

	resp := VerifyResponse{
		Success:           true,
		Status:            result.Status,
		PurchaseID:        result.RecordID,
		ProjectID:         result.ResourceID,
		Amount:            result.Amount,
		RazorpayPaymentID: result.PaymentID,
		RazorpayOrderID:   result.OrderID,
		DownloadAvailable: true,
	}
	if result.AlreadyPaid {
		resp.Message = "Payment already processed and verified"
	}
	return c.JSON(http.StatusOK, resp)
}

// bindAndValidate binds the JSON body into out and runs the
// request validator, normalizing both failure modes to app errors.
func bindAndValidate(c echo.Context, out interface{}) error {
	if err := c.Bind(out); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "Invalid request body", err)
	}
	if err := c.Validate(out); err != nil {
		return err
	}
	return nil
}

package handlers

// BookingPaymentRequest is the body of POST /api/create-mentor-booking.
type BookingPaymentRequest struct {
	MentorID        string  `json:"mentorId" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	SessionDate     string  `json:"sessionDate,omitempty"`
	SessionDuration int     `json:"sessionDuration,omitempty" validate:"omitempty,min=30,max=240"`
	Notes           string  `json:"notes,omitempty"`
}

// ProjectPaymentRequest is the body of POST /api/create-project-payment.
type ProjectPaymentRequest struct {
	ProjectID string  `json:"projectId" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

// VerifyPaymentRequest carries the gateway widget's confirmation as
// reported by the client. Field names follow the gateway's checkout
// callback payload.
type VerifyPaymentRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// OrderResponse is the success body for both create endpoints.
// Amount is in the gateway's minor unit (paise).
type OrderResponse struct {
	Success      bool    `json:"success"`
	OrderID      string  `json:"orderId"`
	Amount       int64   `json:"amount"`
	Currency     string  `json:"currency"`
	KeyID        string  `json:"keyId"`
	MentorName   string  `json:"mentorName,omitempty"`
	ProjectTitle string  `json:"projectTitle,omitempty"`
	UserEmail    string  `json:"userEmail"`
}

// VerifyResponse is the body for both verify endpoints. Success is
// false when the gateway reported a status other than captured.
type VerifyResponse struct {
	Success           bool    `json:"success"`
	Status            string  `json:"status"`
	Message           string  `json:"message,omitempty"`
	BookingID         string  `json:"bookingId,omitempty"`
	PurchaseID        string  `json:"purchaseId,omitempty"`
	MentorID          string  `json:"mentorId,omitempty"`
	ProjectID         string  `json:"projectId,omitempty"`
	Amount            float64 `json:"amount,omitempty"`
	RazorpayPaymentID string  `json:"razorpayPaymentId,omitempty"`
	RazorpayOrderID   string  `json:"razorpayOrderId,omitempty"`
	DownloadAvailable bool    `json:"downloadAvailable,omitempty"`
}

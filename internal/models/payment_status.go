package models

// PaymentStatus tracks the lifecycle of a booking or purchase record.
// Records are created pending, move to paid exactly once when the
// gateway confirms capture, and are only ever marked failed by the
// maintenance worker (never by the verify handlers).
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentProvider identifies the gateway a record was created against.
type PaymentProvider string

const (
	PaymentProviderRazorpay PaymentProvider = "razorpay"
)

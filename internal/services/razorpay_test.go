package services

import (
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	svc := NewRazorpayService("rzp_test_key", "test-secret")

	orderID := "order_MkWq2vF3xA9zBc"
	paymentID := "pay_NlXr3wG4yB0aDd"
	valid := svc.Sign(orderID, paymentID)

	// Flip one bit of the first hex character.
	tampered := []byte(valid)
	if tampered[0] == '0' {
		tampered[0] = '1'
	} else {
		tampered[0] = '0'
	}

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{
			name:      "valid signature",
			orderID:   orderID,
			paymentID: paymentID,
			signature: valid,
			want:      true,
		},
		{
			name:      "single bit flipped",
			orderID:   orderID,
			paymentID: paymentID,
			signature: string(tampered),
			want:      false,
		},
		{
			name:      "signature for different order",
			orderID:   "order_other",
			paymentID: paymentID,
			signature: valid,
			want:      false,
		},
		{
			name:      "empty signature",
			orderID:   orderID,
			paymentID: paymentID,
			signature: "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.VerifySignature(tt.orderID, tt.paymentID, tt.signature)
			if got != tt.want {
				t.Errorf("VerifySignature(%q, %q, ...) = %v; want %v", tt.orderID, tt.paymentID, got, tt.want)
			}
		})
	}
}

func TestVerifySignatureDependsOnSecret(t *testing.T) {
	a := NewRazorpayService("key", "secret-a")
	b := NewRazorpayService("key", "secret-b")

	sig := a.Sign("order_1", "pay_1")
	if b.VerifySignature("order_1", "pay_1", sig) {
		t.Error("signature produced with one secret verified with another")
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{1000, 100000},
		{1, 100},
		{10.55, 1055},
		{10.555, 1056}, // rounds, never truncates
		{0.01, 1},
	}

	for _, tt := range tests {
		if got := toMinorUnits(tt.amount); got != tt.want {
			t.Errorf("toMinorUnits(%v) = %d; want %d", tt.amount, got, tt.want)
		}
	}
}

func TestReceiptFor(t *testing.T) {
	r := receiptFor("mentor", "0bd40eec-91d5-4f94-8f34-5f3b8f4a2f11")
	if !strings.HasPrefix(r, "mentor_0bd40eec_") {
		t.Errorf("receipt %q missing truncated resource id prefix", r)
	}
	if len(r) != len("mentor_0bd40eec_")+8 {
		t.Errorf("receipt %q has unexpected length", r)
	}

	// Short ids are used as-is.
	r = receiptFor("mentor", "m1")
	if !strings.HasPrefix(r, "mentor_m1_") {
		t.Errorf("receipt %q missing short resource id prefix", r)
	}

	// The random suffix makes receipts unique per attempt.
	if receiptFor("receipt", "abc") == receiptFor("receipt", "abc") {
		t.Error("two receipts for the same resource should differ")
	}
}

package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"careerlaunch_api/internal/apperrors"
	"careerlaunch_api/internal/models"
)

const testSecret = "test-secret"

func signFor(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// fakeGateway stands in for Razorpay: orders get sequential ids and
// payments resolve from a configurable map.
type fakeGateway struct {
	orders     int
	lastNotes  map[string]interface{}
	failCreate bool
	payments   map[string]*GatewayPayment
}

func (g *fakeGateway) CreateOrder(amountMinor int64, currency, receipt string, notes map[string]interface{}) (*GatewayOrder, string, error) {
	if g.failCreate {
		return nil, "", errors.New("BAD_REQUEST_ERROR")
	}
	g.orders++
	g.lastNotes = notes
	return &GatewayOrder{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   amountMinor,
		Currency: currency,
	}, fmt.Sprintf("idem-%d", g.orders), nil
}

func (g *fakeGateway) FetchPayment(paymentID string) (*GatewayPayment, error) {
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(signFor(orderID, paymentID)), []byte(signature))
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type recordingNotifier struct {
	bookingCreated  int
	bookingPaid     int
	purchaseCreated int
	purchasePaid    int
}

func (n *recordingNotifier) BookingCreated(*models.MentorBooking, string)    { n.bookingCreated++ }
func (n *recordingNotifier) BookingPaid(*models.MentorBooking)               { n.bookingPaid++ }
func (n *recordingNotifier) PurchaseCreated(*models.ProjectPurchase, string) { n.purchaseCreated++ }
func (n *recordingNotifier) PurchasePaid(*models.ProjectPurchase)            { n.purchasePaid++ }

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Mentor{},
		&models.Project{},
		&models.MentorBooking{},
		&models.ProjectPurchase{},
		&models.PaymentEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func setupService(t *testing.T) (*PaymentService, *gorm.DB, *fakeGateway, *recordingNotifier) {
	t.Helper()
	db := setupDB(t)
	gateway := &fakeGateway{payments: map[string]*GatewayPayment{}}
	notifier := &recordingNotifier{}
	return NewPaymentService(db, gateway, notifier), db, gateway, notifier
}

func seedMentor(t *testing.T, db *gorm.DB) models.Mentor {
	t.Helper()
	mentor := models.Mentor{
		ID:          "m1",
		Name:        "Asha Verma",
		Price:       1000,
		IsAvailable: true,
		MinDuration: 30,
		MaxDuration: 240,
	}
	if err := db.Create(&mentor).Error; err != nil {
		t.Fatalf("failed to seed mentor: %v", err)
	}
	return mentor
}

func seedProject(t *testing.T, db *gorm.DB) models.Project {
	t.Helper()
	project := models.Project{
		ID:          "p1",
		Title:       "Realtime Chat App",
		Price:       499,
		IsAvailable: true,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return project
}

func wantKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

var testUser = UserIdentity{ID: "user-1", Email: "student@example.com"}

func tomorrow() string {
	return time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
}

func TestCreateBookingSuccess(t *testing.T) {
	svc, db, _, notifier := setupService(t)
	seedMentor(t, db)

	result, err := svc.CreateBooking(testUser, BookingRequest{
		MentorID:        "m1",
		Amount:          1000,
		SessionDate:     tomorrow(),
		SessionDuration: 60,
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if result.OrderID == "" {
		t.Error("expected a gateway order id")
	}
	if result.Amount != 100000 {
		t.Errorf("amount = %d paise; want 100000", result.Amount)
	}
	if result.Currency != "INR" {
		t.Errorf("currency = %q; want INR", result.Currency)
	}
	if result.KeyID != "rzp_test_key" {
		t.Errorf("keyId = %q; want publishable key", result.KeyID)
	}
	if result.ResourceName != "Asha Verma" || result.UserEmail != testUser.Email {
		t.Errorf("unexpected display fields: %+v", result)
	}

	var booking models.MentorBooking
	if err := db.First(&booking, "razorpay_order_id = ?", result.OrderID).Error; err != nil {
		t.Fatalf("booking row not persisted: %v", err)
	}
	if booking.MentorID != "m1" || booking.Amount != 1000 {
		t.Errorf("row = {mentor %q, amount %v}; want {m1, 1000}", booking.MentorID, booking.Amount)
	}
	if booking.Status != models.PaymentStatusPending {
		t.Errorf("status = %q; want pending", booking.Status)
	}
	if booking.IdempotencyKey == "" {
		t.Error("idempotency key not persisted")
	}
	if notifier.bookingCreated != 1 {
		t.Errorf("bookingCreated notifications = %d; want 1", notifier.bookingCreated)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, db, _, _ := setupService(t)
	seedMentor(t, db)

	yesterday := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name string
		req  BookingRequest
		kind apperrors.Kind
	}{
		{"missing mentor id", BookingRequest{Amount: 1000}, apperrors.KindValidation},
		{"zero amount", BookingRequest{MentorID: "m1"}, apperrors.KindValidation},
		{"negative amount", BookingRequest{MentorID: "m1", Amount: -5}, apperrors.KindValidation},
		{"unparseable date", BookingRequest{MentorID: "m1", Amount: 1000, SessionDate: "next tuesday"}, apperrors.KindValidation},
		{"past date", BookingRequest{MentorID: "m1", Amount: 1000, SessionDate: yesterday}, apperrors.KindValidation},
		{"duration too short", BookingRequest{MentorID: "m1", Amount: 1000, SessionDuration: 20}, apperrors.KindValidation},
		{"duration too long", BookingRequest{MentorID: "m1", Amount: 1000, SessionDuration: 300}, apperrors.KindValidation},
		{"below mentor price", BookingRequest{MentorID: "m1", Amount: 500}, apperrors.KindValidation},
		{"unknown mentor", BookingRequest{MentorID: "nope", Amount: 1000}, apperrors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBooking(testUser, tt.req)
			wantKind(t, err, tt.kind)
		})
	}

	var count int64
	db.Model(&models.MentorBooking{}).Count(&count)
	if count != 0 {
		t.Errorf("%d booking rows persisted by rejected requests; want 0", count)
	}
}

func TestCreateBookingUnavailableMentor(t *testing.T) {
	svc, db, _, _ := setupService(t)
	mentor := seedMentor(t, db)
	db.Model(&mentor).Update("is_available", false)

	_, err := svc.CreateBooking(testUser, BookingRequest{MentorID: "m1", Amount: 1000})
	wantKind(t, err, apperrors.KindForbidden)
}

func TestCreateBookingConflict(t *testing.T) {
	svc, db, _, _ := setupService(t)
	seedMentor(t, db)
	date := tomorrow()

	if _, err := svc.CreateBooking(testUser, BookingRequest{MentorID: "m1", Amount: 1000, SessionDate: date, SessionDuration: 60}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := svc.CreateBooking(testUser, BookingRequest{MentorID: "m1", Amount: 1000, SessionDate: date, SessionDuration: 60})
	wantKind(t, err, apperrors.KindConflict)

	// A failed attempt frees the slot.
	db.Model(&models.MentorBooking{}).Where("user_id = ?", testUser.ID).Update("status", models.PaymentStatusFailed)
	if _, err := svc.CreateBooking(testUser, BookingRequest{MentorID: "m1", Amount: 1000, SessionDate: date, SessionDuration: 60}); err != nil {
		t.Fatalf("rebooking after failed attempt should succeed: %v", err)
	}
}

func TestCreateBookingGatewayError(t *testing.T) {
	svc, db, gateway, _ := setupService(t)
	seedMentor(t, db)
	gateway.failCreate = true

	_, err := svc.CreateBooking(testUser, BookingRequest{MentorID: "m1", Amount: 1000})
	wantKind(t, err, apperrors.KindServiceUnavailable)

	var count int64
	db.Model(&models.MentorBooking{}).Count(&count)
	if count != 0 {
		t.Errorf("booking persisted despite gateway failure")
	}
}

func TestCreatePurchaseSuccessAndConflict(t *testing.T) {
	svc, db, gateway, notifier := setupService(t)
	seedProject(t, db)

	result, err := svc.CreatePurchase(testUser, PurchaseRequest{ProjectID: "p1", Amount: 499})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}
	if result.Amount != 49900 {
		t.Errorf("amount = %d paise; want 49900", result.Amount)
	}
	if notes := gateway.lastNotes["project_id"]; notes != "p1" {
		t.Errorf("gateway notes project_id = %v; want p1", notes)
	}

	var purchase models.ProjectPurchase
	if err := db.First(&purchase, "razorpay_order_id = ?", result.OrderID).Error; err != nil {
		t.Fatalf("purchase row not persisted: %v", err)
	}
	if purchase.Status != models.PaymentStatusPending {
		t.Errorf("status = %q; want pending", purchase.Status)
	}
	if notifier.purchaseCreated != 1 {
		t.Errorf("purchaseCreated notifications = %d; want 1", notifier.purchaseCreated)
	}

	// A second attempt while the first is pending conflicts.
	_, err = svc.CreatePurchase(testUser, PurchaseRequest{ProjectID: "p1", Amount: 499})
	wantKind(t, err, apperrors.KindConflict)
}

func TestCreatePurchaseUnknownProject(t *testing.T) {
	svc, _, _, _ := setupService(t)
	_, err := svc.CreatePurchase(testUser, PurchaseRequest{ProjectID: "nope", Amount: 499})
	wantKind(t, err, apperrors.KindNotFound)
}

func seedPendingBooking(t *testing.T, db *gorm.DB, orderID string) models.MentorBooking {
	t.Helper()
	booking := models.MentorBooking{
		UserID:          testUser.ID,
		UserEmail:       testUser.Email,
		MentorID:        "m1",
		Amount:          1000,
		Currency:        "INR",
		Status:          models.PaymentStatusPending,
		RazorpayOrderID: orderID,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	return booking
}

func TestVerifyBookingSuccessAndIdempotence(t *testing.T) {
	svc, db, gateway, notifier := setupService(t)
	seedMentor(t, db)
	booking := seedPendingBooking(t, db, "order_77")
	gateway.payments["pay_77"] = &GatewayPayment{ID: "pay_77", Status: "captured", Method: "upi", VPA: "student@upi", Amount: 100000, Currency: "INR"}

	req := VerificationRequest{PaymentID: "pay_77", OrderID: "order_77", Signature: signFor("order_77", "pay_77")}

	result, err := svc.VerifyBooking(testUser, req)
	if err != nil {
		t.Fatalf("VerifyBooking failed: %v", err)
	}
	if !result.Captured || result.AlreadyPaid {
		t.Errorf("first verify: captured=%v alreadyPaid=%v; want true/false", result.Captured, result.AlreadyPaid)
	}
	if result.RecordID != booking.ID || result.ResourceID != "m1" || result.Amount != 1000 {
		t.Errorf("unexpected result %+v", result)
	}

	var stored models.MentorBooking
	db.First(&stored, "id = ?", booking.ID)
	if stored.Status != models.PaymentStatusPaid {
		t.Fatalf("status = %q; want paid", stored.Status)
	}
	if stored.RazorpayPaymentID != "pay_77" {
		t.Errorf("payment id = %q; want pay_77", stored.RazorpayPaymentID)
	}
	if stored.PaymentReceivedAt == nil {
		t.Error("payment_received_at not set")
	}
	if len(stored.Metadata) == 0 {
		t.Error("payment method metadata not stored")
	}

	// Second verify is an idempotent no-op.
	again, err := svc.VerifyBooking(testUser, req)
	if err != nil {
		t.Fatalf("second VerifyBooking failed: %v", err)
	}
	if !again.AlreadyPaid {
		t.Error("second verify should report already paid")
	}
	if notifier.bookingPaid != 1 {
		t.Errorf("bookingPaid notifications = %d; want exactly 1", notifier.bookingPaid)
	}

	var updatedAt = stored.UpdatedAt
	db.First(&stored, "id = ?", booking.ID)
	if !stored.UpdatedAt.Equal(updatedAt) {
		t.Error("second verify mutated the record")
	}
}

func TestVerifyBookingSignatureMismatch(t *testing.T) {
	svc, db, gateway, _ := setupService(t)
	booking := seedPendingBooking(t, db, "order_88")
	gateway.payments["pay_88"] = &GatewayPayment{ID: "pay_88", Status: "captured"}

	valid := signFor("order_88", "pay_88")
	tampered := []byte(valid)
	tampered[len(tampered)-1] ^= 0x01

	_, err := svc.VerifyBooking(testUser, VerificationRequest{
		PaymentID: "pay_88",
		OrderID:   "order_88",
		Signature: string(tampered),
	})
	wantKind(t, err, apperrors.KindValidation)

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Message != "signature mismatch" {
		t.Errorf("error = %v; want signature mismatch", err)
	}

	var stored models.MentorBooking
	db.First(&stored, "id = ?", booking.ID)
	if stored.Status != models.PaymentStatusPending {
		t.Errorf("status = %q after tampered signature; want pending", stored.Status)
	}
}

func TestVerifyBookingNotCaptured(t *testing.T) {
	svc, db, gateway, notifier := setupService(t)
	booking := seedPendingBooking(t, db, "order_99")
	gateway.payments["pay_99"] = &GatewayPayment{ID: "pay_99", Status: "failed"}

	result, err := svc.VerifyBooking(testUser, VerificationRequest{
		PaymentID: "pay_99",
		OrderID:   "order_99",
		Signature: signFor("order_99", "pay_99"),
	})
	if err != nil {
		t.Fatalf("VerifyBooking returned error for non-captured payment: %v", err)
	}
	if result.Captured {
		t.Error("result.Captured = true for a failed payment")
	}
	if result.Status != "failed" {
		t.Errorf("status = %q; want failed", result.Status)
	}

	var stored models.MentorBooking
	db.First(&stored, "id = ?", booking.ID)
	if stored.Status != models.PaymentStatusPending {
		t.Errorf("record transitioned to %q on non-captured payment", stored.Status)
	}
	if notifier.bookingPaid != 0 {
		t.Error("notification dispatched for non-captured payment")
	}
}

func TestVerifyBookingWrongUser(t *testing.T) {
	svc, db, gateway, _ := setupService(t)
	seedPendingBooking(t, db, "order_55")
	gateway.payments["pay_55"] = &GatewayPayment{ID: "pay_55", Status: "captured"}

	other := UserIdentity{ID: "someone-else", Email: "other@example.com"}
	_, err := svc.VerifyBooking(other, VerificationRequest{
		PaymentID: "pay_55",
		OrderID:   "order_55",
		Signature: signFor("order_55", "pay_55"),
	})
	wantKind(t, err, apperrors.KindNotFound)
}

func TestVerifyPurchaseSuccessAndIdempotence(t *testing.T) {
	svc, db, gateway, notifier := setupService(t)
	seedProject(t, db)
	purchase := models.ProjectPurchase{
		UserID:          testUser.ID,
		UserEmail:       testUser.Email,
		ProjectID:       "p1",
		Amount:          499,
		Currency:        "INR",
		Status:          models.PaymentStatusPending,
		RazorpayOrderID: "order_11",
	}
	if err := db.Create(&purchase).Error; err != nil {
		t.Fatalf("failed to seed purchase: %v", err)
	}
	gateway.payments["pay_11"] = &GatewayPayment{ID: "pay_11", Status: "captured", Method: "card", CardID: "card_abc"}

	req := VerificationRequest{PaymentID: "pay_11", OrderID: "order_11", Signature: signFor("order_11", "pay_11")}

	result, err := svc.VerifyPurchase(testUser, req)
	if err != nil {
		t.Fatalf("VerifyPurchase failed: %v", err)
	}
	if !result.Captured || result.AlreadyPaid {
		t.Errorf("first verify: captured=%v alreadyPaid=%v; want true/false", result.Captured, result.AlreadyPaid)
	}

	var stored models.ProjectPurchase
	db.First(&stored, "id = ?", purchase.ID)
	if stored.Status != models.PaymentStatusPaid || stored.PurchasedAt == nil {
		t.Errorf("purchase not transitioned: status=%q", stored.Status)
	}

	again, err := svc.VerifyPurchase(testUser, req)
	if err != nil {
		t.Fatalf("second VerifyPurchase failed: %v", err)
	}
	if !again.AlreadyPaid {
		t.Error("second verify should report already paid")
	}
	if notifier.purchasePaid != 1 {
		t.Errorf("purchasePaid notifications = %d; want exactly 1", notifier.purchasePaid)
	}
}

func TestVerifyMissingFields(t *testing.T) {
	svc, _, _, _ := setupService(t)
	_, err := svc.VerifyBooking(testUser, VerificationRequest{OrderID: "order_1"})
	wantKind(t, err, apperrors.KindValidation)
}

func TestVerifyRecordsAuditEvents(t *testing.T) {
	svc, db, gateway, _ := setupService(t)
	seedPendingBooking(t, db, "order_66")
	gateway.payments["pay_66"] = &GatewayPayment{ID: "pay_66", Status: "captured"}

	_, err := svc.VerifyBooking(testUser, VerificationRequest{
		PaymentID: "pay_66",
		OrderID:   "order_66",
		Signature: signFor("order_66", "pay_66"),
	})
	if err != nil {
		t.Fatalf("VerifyBooking failed: %v", err)
	}

	var events []models.PaymentEvent
	db.Where("order_id = ?", "order_66").Find(&events)
	if len(events) != 1 || events[0].Event != "captured" {
		t.Errorf("events = %+v; want one captured event", events)
	}
}

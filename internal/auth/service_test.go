package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/haatmakaam/backend/internal/account"
	"github.com/haatmakaam/backend/internal/logging"
	"github.com/haatmakaam/backend/internal/notification"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []notification.SMS
	fail bool
}

func (n *captureNotifier) Send(_ context.Context, msg notification.SMS) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("provider unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *captureNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatalf("no sms sent")
	}
	body := n.sent[len(n.sent)-1].Body
	idx := strings.LastIndex(body, " ")
	return body[idx+1:]
}

func newTestService(notifier notification.Notifier) (*Service, account.Store) {
	store := account.NewMemoryStore()
	tokens := NewTokenService("test-secret")
	svc := NewService(store, NewPasswordHasher(), NewOtpGenerator(), tokens, notifier, logging.Discard())
	return svc, store
}

func register(t *testing.T, svc *Service, phone string) RegisterResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Asha Rai",
		Phone:    phone,
		Password: "passw0rd",
		Role:     "USER",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return res
}

func TestRegisterCreatesPendingAccountWithOTP(t *testing.T) {
	notifier := &captureNotifier{}
	svc, store := newTestService(notifier)

	res := register(t, svc, "+9771234567")

	if res.Account.State != account.StatePending {
		t.Fatalf("expected pending state, got %s", res.Account.State)
	}
	if !res.Delivered {
		t.Fatalf("expected delivery to succeed")
	}

	stored, err := store.FindByPhone(context.Background(), "+9771234567")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PendingOTP == nil || len(stored.PendingOTP.Code) != 6 {
		t.Fatalf("expected stored 6-digit OTP, got %+v", stored.PendingOTP)
	}
	if notifier.lastCode(t) != stored.PendingOTP.Code {
		t.Fatalf("delivered code does not match stored code")
	}
	if strings.Contains(string(stored.PasswordHash), "passw0rd") {
		t.Fatalf("password stored in clear")
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})

	register(t, svc, "+9771234567")
	_, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Someone Else",
		Phone:    "+9771234567",
		Password: "different",
		Role:     "ADMIN",
	})
	if !errors.Is(err, account.ErrPhoneExists) {
		t.Fatalf("expected ErrPhoneExists, got %v", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	cases := []RegisterInput{
		{FullName: "A", Phone: "+977111", Password: "passw0rd", Role: "SUPERUSER"},
		{FullName: "A", Phone: "", Password: "passw0rd", Role: "USER"},
		{FullName: "A", Phone: "+977111", Password: "", Role: "USER"},
	}
	for _, in := range cases {
		if _, err := svc.Register(ctx, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("input %+v: expected ErrValidation, got %v", in, err)
		}
	}
}

func TestRegisterAcceptsShortPassword(t *testing.T) {
	svc, store := newTestService(&captureNotifier{})

	res, err := svc.Register(context.Background(), RegisterInput{
		FullName: "Sita Rai",
		Phone:    "+9779812345678",
		Password: "p1",
		Role:     "USER",
	})
	if err != nil {
		t.Fatalf("expected short password to register, got %v", err)
	}
	if res.Account.Role != account.RoleUser {
		t.Fatalf("expected role USER, got %s", res.Account.Role)
	}

	acct, err := store.FindByPhone(context.Background(), "+9779812345678")
	if err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte("p1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterSurvivesDeliveryFailure(t *testing.T) {
	notifier := &captureNotifier{fail: true}
	svc, store := newTestService(notifier)

	res := register(t, svc, "+9771234567")
	if res.Delivered {
		t.Fatalf("expected delivery failure to be reported")
	}

	// The account row outlives the failed delivery.
	if _, err := store.FindByPhone(context.Background(), "+9771234567"); err != nil {
		t.Fatalf("account not persisted after delivery failure: %v", err)
	}
}

func TestVerifyOTPHappyPath(t *testing.T) {
	notifier := &captureNotifier{}
	svc, store := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	code := notifier.lastCode(t)

	if err := svc.VerifyOTP(ctx, "+9771234567", code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	acct, err := store.FindByPhone(ctx, "+9771234567")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !acct.Verified() {
		t.Fatalf("expected verified account")
	}
	if acct.PendingOTP != nil {
		t.Fatalf("expected OTP cleared after verification")
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	notifier := &captureNotifier{}
	svc, _ := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	code := notifier.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := svc.VerifyOTP(ctx, "+9771234567", wrong); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	notifier := &captureNotifier{}
	svc, _ := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	code := notifier.lastCode(t)

	// Slide the clock just past the validity window; the correct code must
	// now be rejected with the same error as a wrong one.
	svc.now = func() time.Time { return time.Now().Add(otpTTL + time.Second) }
	if err := svc.VerifyOTP(ctx, "+9771234567", code); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for expired code, got %v", err)
	}
}

func TestVerifyOTPUnknownPhone(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	if err := svc.VerifyOTP(context.Background(), "+977999", "123456"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestVerifyOTPIdempotentOnVerified(t *testing.T) {
	notifier := &captureNotifier{}
	svc, _ := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	code := notifier.lastCode(t)

	if err := svc.VerifyOTP(ctx, "+9771234567", code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	// Re-verification is a no-op success, whatever code is submitted.
	if err := svc.VerifyOTP(ctx, "+9771234567", "000000"); err != nil {
		t.Fatalf("second verify: %v", err)
	}
}

func TestResendOTPReplacesCode(t *testing.T) {
	notifier := &captureNotifier{}
	svc, store := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	first := notifier.lastCode(t)

	if err := svc.ResendOTP(ctx, "+9771234567"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	second := notifier.lastCode(t)

	acct, err := store.FindByPhone(ctx, "+9771234567")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if acct.PendingOTP == nil || acct.PendingOTP.Code != second {
		t.Fatalf("stored OTP not replaced")
	}
	// The old code no longer verifies unless it happens to collide.
	if first != second {
		if err := svc.VerifyOTP(ctx, "+9771234567", first); !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("expected stale code rejected, got %v", err)
		}
	}
}

func TestResendOTPAfterVerification(t *testing.T) {
	notifier := &captureNotifier{}
	svc, _ := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	if err := svc.VerifyOTP(ctx, "+9771234567", notifier.lastCode(t)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.ResendOTP(ctx, "+9771234567"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestLoginRequiresVerification(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	register(t, svc, "+9771234567")
	if _, err := svc.Login(ctx, "+9771234567", "passw0rd"); !errors.Is(err, ErrAccountNotVerified) {
		t.Fatalf("expected ErrAccountNotVerified, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	notifier := &captureNotifier{}
	svc, _ := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	if err := svc.VerifyOTP(ctx, "+9771234567", notifier.lastCode(t)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Wrong password and unknown phone surface the same error.
	if _, err := svc.Login(ctx, "+9771234567", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, "+977000000", "passw0rd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown phone, got %v", err)
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	notifier := &captureNotifier{}
	svc, _ := newTestService(notifier)
	ctx := context.Background()

	register(t, svc, "+9771234567")
	if err := svc.VerifyOTP(ctx, "+9771234567", notifier.lastCode(t)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	token, err := svc.Login(ctx, "+9771234567", "passw0rd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.tokens.Validate(token)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.Subject != "+9771234567" {
		t.Fatalf("expected subject to be the phone, got %s", claims.Subject)
	}
	if claims.Role != string(account.RoleUser) {
		t.Fatalf("expected role claim USER, got %s", claims.Role)
	}
}

func TestConcurrentRegistrationSinglePhone(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, RegisterInput{
				FullName: "Race",
				Phone:    "+9775550000",
				Password: "passw0rd",
				Role:     "ADMIN",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, account.ErrPhoneExists) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful registration, got %d", successes)
	}
}

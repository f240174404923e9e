package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fastLoginProtectionConfig disables IP limiting so lockout behavior can be
// tested in isolation.
func fastLoginProtectionConfig(maxAttempts int, lockout time.Duration) LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           1000,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     time.Minute,
	}
}

func TestLoginProtectionLockout(t *testing.T) {
	lp := NewLoginProtection(fastLoginProtectionConfig(3, time.Second))
	email := "admin@example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("account should start unlocked")
	}

	var locked bool
	var dur time.Duration
	for i := 0; i < 3; i++ {
		locked, dur = lp.RecordFailedAttempt(email)
	}
	if !locked {
		t.Fatal("account should lock on the third failure")
	}
	if dur <= 0 {
		t.Error("lock duration should be positive")
	}

	if locked, remaining := lp.IsAccountLocked(email); !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked = (%v, %v), want locked with remaining time", locked, remaining)
	}

	time.Sleep(time.Second + 100*time.Millisecond)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("lock should expire")
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp := NewLoginProtection(fastLoginProtectionConfig(2, 500*time.Millisecond))
	email := "repeat@example.com"

	lp.RecordFailedAttempt(email)
	_, first := lp.RecordFailedAttempt(email)

	time.Sleep(600 * time.Millisecond)

	lp.RecordFailedAttempt(email)
	_, second := lp.RecordFailedAttempt(email)

	if second <= first {
		t.Errorf("second lockout %v should exceed first %v", second, first)
	}
}

func TestLoginProtectionSuccessResets(t *testing.T) {
	lp := NewLoginProtection(fastLoginProtectionConfig(3, time.Minute))
	email := "admin@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)

	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("remaining after success = %d, want 3", got)
	}

	// The counter starts over after a successful login
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("single failure after reset should not lock")
	}
}

func TestLoginProtectionGetRemainingAttempts(t *testing.T) {
	lp := NewLoginProtection(fastLoginProtectionConfig(5, time.Minute))
	email := "admin@example.com"

	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("initial remaining = %d, want 5", got)
	}
	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("remaining after 2 failures = %d, want 3", got)
	}
}

func TestLoginProtectionMiddlewareRateLimit(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       1,
		IPBurst:           2,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("POST", "/login", nil)
		r.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want %d", last, http.StatusTooManyRequests)
	}

	// A different IP has its own bucket
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "198.51.100.4:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("fresh IP status = %d, want %d", w.Code, http.StatusOK)
	}
}

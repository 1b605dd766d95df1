package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestTokenService_IssueVerifyRoundtrip(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, 7*24*time.Hour)

	token, err := svc.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	subject, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if subject != 42 {
		t.Errorf("expected subject 42, got %d", subject)
	}
}

func TestTokenService_VerifyIsIdempotent(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(7)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		subject, err := svc.Verify(token)
		if err != nil {
			t.Fatalf("Verify #%d failed: %v", i+1, err)
		}
		if subject != 7 {
			t.Errorf("Verify #%d: expected subject 7, got %d", i+1, subject)
		}
	}
}

func TestTokenService_DistinctInstantsDistinctTokens(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	svc := NewTokenService(testSecret, time.Hour, WithClock(func() time.Time { return now }))

	first, err := svc.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	now = base.Add(time.Second)
	second, err := svc.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if first == second {
		t.Error("tokens issued at different instants should differ")
	}
}

func TestTokenService_WireFormat(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, time.Hour, WithClock(fixedClock(issuedAt)))

	token, err := svc.Issue(123)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		t.Fatalf("expected 3 dot-separated segments, got %d", len(segments))
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		t.Fatalf("payload is not base64url: %v", err)
	}

	var payload struct {
		ID  int64 `json:"id"`
		Iat int64 `json:"iat"`
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}

	if payload.ID != 123 {
		t.Errorf("expected id 123, got %d", payload.ID)
	}
	if payload.Iat != issuedAt.Unix() {
		t.Errorf("expected iat %d, got %d", issuedAt.Unix(), payload.Iat)
	}
	if payload.Exp != issuedAt.Add(time.Hour).Unix() {
		t.Errorf("expected exp %d, got %d", issuedAt.Add(time.Hour).Unix(), payload.Exp)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenService(testSecret, time.Hour)
	verifier := NewTokenService("a-different-secret", time.Hour)

	token, err := issuer.Issue(9)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrMalformedToken) {
		t.Errorf("expected ErrMalformedToken, got %v", err)
	}
}

func TestTokenService_Garbage(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)

	testCases := []struct {
		name string
		raw  string
	}{
		{name: "empty string", raw: ""},
		{name: "not a token", raw: "garbage"},
		{name: "two segments", raw: "aaaa.bbbb"},
		{name: "invalid base64", raw: "a!a.b!b.c!c"},
		{name: "truncated signature", raw: mustIssue(t, svc, 1)[:20]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(tc.raw)
			if !errors.Is(err, ErrMalformedToken) {
				t.Errorf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	svc := NewTokenService(testSecret, time.Hour, WithClock(func() time.Time { return now }))

	token, err := svc.Issue(5)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Still valid just before expiry.
	now = issuedAt.Add(time.Hour - time.Second)
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("token should be valid before expiry: %v", err)
	}

	// Expired after: signature is intact but exp is in the past.
	now = issuedAt.Add(time.Hour + time.Second)
	_, err = svc.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour)

	token := mustIssue(t, svc, 1)
	segments := strings.Split(token, ".")

	// Swap the subject in the payload without re-signing.
	forged, err := json.Marshal(map[string]any{
		"id":  999,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("marshal forged payload: %v", err)
	}
	segments[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = svc.Verify(strings.Join(segments, "."))
	if !errors.Is(err, ErrMalformedToken) {
		t.Errorf("expected ErrMalformedToken for tampered payload, got %v", err)
	}
}

func mustIssue(t *testing.T, svc *TokenService, subject int64) string {
	t.Helper()
	token, err := svc.Issue(subject)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, secret string) *TokenService {
	t.Helper()
	ts, err := NewTokenService([]byte(secret), 30*24*time.Hour)
	require.NoError(t, err)
	ts.now = func() time.Time { return issuedAt }
	return ts
}

func at(ts *TokenService, moment time.Time) {
	ts.now = func() time.Time { return moment }
}

func TestNewTokenService_RejectsBadConfig(t *testing.T) {
	_, err := NewTokenService(nil, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewTokenService([]byte("k"), 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	ts := newTestService(t, "super-secret")

	for _, id := range []string{"cn4q2fk8jd7c73c2m0vg", "u1", "5f9b3c2a1e"} {
		tok, err := ts.Issue(id)
		require.NoError(t, err)

		at(ts, issuedAt.Add(29*24*time.Hour))
		got, err := ts.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, id, got)
		at(ts, issuedAt)
	}
}

func TestIssue_EmptyUserID(t *testing.T) {
	ts := newTestService(t, "super-secret")
	_, err := ts.Issue("")
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	ts := newTestService(t, "super-secret")
	tok, err := ts.Issue("u1")
	require.NoError(t, err)

	at(ts, issuedAt.Add(ts.TTL()))
	_, err = ts.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "token must be rejected at its expiry instant")

	at(ts, issuedAt.Add(ts.TTL()+time.Minute))
	_, err = ts.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	at(ts, issuedAt.Add(ts.TTL()-time.Second))
	got, err := ts.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)
}

func TestVerify_TamperedPayload(t *testing.T) {
	ts := newTestService(t, "super-secret")
	tok, err := ts.Issue("victim")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	payload := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	payload["userId"] = "attacker"
	payload["sub"] = "attacker"
	forged, err := json.Marshal(payload)
	require.NoError(t, err)

	parts[1] = base64.RawURLEncoding.EncodeToString(forged)
	_, err = ts.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedSignature(t *testing.T) {
	ts := newTestService(t, "super-secret")
	tok, err := ts.Issue("u1")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)

	_, err = ts.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newTestService(t, "right-secret").Issue("u2")
	require.NoError(t, err)

	_, err = newTestService(t, "wrong-secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	ts := newTestService(t, "k")
	for _, input := range []string{"", "not.a.jwt", "abc", "..", "a.b.c.d"} {
		_, err := ts.Verify(input)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", input)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	ts := newTestService(t, "super-secret")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
		UserID: "u1",
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = ts.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ts.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiryAndUserID(t *testing.T) {
	ts := newTestService(t, "super-secret")
	sign := func(c Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("super-secret"))
		require.NoError(t, err)
		return s
	}

	noExpiry := sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}, UserID: "u1"})
	_, err := ts.Verify(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUser := sign(Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}})
	_, err = ts.Verify(noUser)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

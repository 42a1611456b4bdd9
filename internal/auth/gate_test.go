package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	gate, err := NewGate(GateConfig{
		Secret:   "123456",
		TokenKey: []byte("test-token-key"),
	})
	require.NoError(t, err)
	return gate
}

func TestGateCheck(t *testing.T) {
	gate := newTestGate(t)

	assert.NoError(t, gate.Check("123456"))
	assert.ErrorIs(t, gate.Check("12345"), ErrWrongPassword)
	assert.ErrorIs(t, gate.Check(""), ErrWrongPassword)
	// Verbatim comparison: surrounding whitespace is not trimmed.
	assert.ErrorIs(t, gate.Check(" 123456"), ErrWrongPassword)
}

func TestGateIssueAndVerify(t *testing.T) {
	gate := newTestGate(t)

	token, err := gate.Issue(time.Now())
	require.NoError(t, err)
	assert.NoError(t, gate.Verify(token))
}

func TestGateVerifyRejectsGarbage(t *testing.T) {
	gate := newTestGate(t)

	assert.ErrorIs(t, gate.Verify(""), ErrInvalidToken)
	assert.ErrorIs(t, gate.Verify("not-a-token"), ErrInvalidToken)
}

func TestGateVerifyRejectsExpired(t *testing.T) {
	gate, err := NewGate(GateConfig{
		Secret:   "123456",
		TokenKey: []byte("test-token-key"),
		TokenTTL: time.Minute,
	})
	require.NoError(t, err)

	token, err := gate.Issue(time.Now().Add(-2 * time.Minute))
	require.NoError(t, err)
	assert.ErrorIs(t, gate.Verify(token), ErrInvalidToken)
}

func TestGateVerifyRejectsForeignKey(t *testing.T) {
	gate := newTestGate(t)
	other, err := NewGate(GateConfig{Secret: "123456", TokenKey: []byte("other-key")})
	require.NoError(t, err)

	token, err := other.Issue(time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, gate.Verify(token), ErrInvalidToken)
}

func TestNewGateValidation(t *testing.T) {
	_, err := NewGate(GateConfig{TokenKey: []byte("k")})
	assert.Error(t, err)
	_, err = NewGate(GateConfig{Secret: "s"})
	assert.Error(t, err)
}

package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAdmissionEmptyRuleAlwaysAllows(t *testing.T) {
	allowed, err := EvaluateAdmission("", "alice", "hi", time.Now(), false)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestEvaluateAdmissionBoolExpression(t *testing.T) {
	at := time.Date(2026, 7, 31, 14, 0, 0, 0, time.UTC)

	allowed, err := EvaluateAdmission(`hour_of_day >= 9 && hour_of_day < 18`, "alice", "hi", at, false)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = EvaluateAdmission(`is_main`, "alice", "hi", at, false)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = EvaluateAdmission(`sender == "alice"`, "alice", "hi", at, false)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestEvaluateAdmissionInvalidRule(t *testing.T) {
	_, err := EvaluateAdmission(`sender ++ nonsense(`, "alice", "hi", time.Now(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAdmissionRuleInvalid)
}

func TestEvaluateAdmissionNonBoolResult(t *testing.T) {
	_, err := EvaluateAdmission(`hour_of_day`, "alice", "hi", time.Now(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAdmissionRuleInvalid)
}

package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

var testKeywords = []string{"delete", "pay", "cancel subscription"}

func TestGateDisabledFlagsNothing(t *testing.T) {
	gate := NewGate(false, testKeywords)

	assert.Empty(t, gate.Assess(&types.Action{Type: types.ActionClickAt}))
	assert.Empty(t, gate.Assess(&types.Action{
		Type:        types.ActionClick,
		TargetLabel: "Delete account",
	}))
}

func TestGateFlagsCoordinateClicks(t *testing.T) {
	gate := NewGate(true, testKeywords)

	reason := gate.Assess(&types.Action{Type: types.ActionClickAt, X: 0.5, Y: 0.5})
	assert.NotEmpty(t, reason)
}

func TestGateKeywordMatching(t *testing.T) {
	gate := NewGate(true, testKeywords)

	tests := []struct {
		name    string
		action  types.Action
		flagged bool
	}{
		{
			"label match is case-insensitive",
			types.Action{Type: types.ActionClick, Selector: "#btn", TargetLabel: "DELETE my account"},
			true,
		},
		{
			"typed text match",
			types.Action{Type: types.ActionTypeText, Selector: "#q", Text: "pay invoice 42"},
			true,
		},
		{
			"target text match",
			types.Action{Type: types.ActionClick, Selector: "#x", TargetText: "Cancel Subscription"},
			true,
		},
		{
			"selector match",
			types.Action{Type: types.ActionClick, Selector: "button.delete-row"},
			true,
		},
		{
			"benign click",
			types.Action{Type: types.ActionClick, Selector: "#next", TargetLabel: "Next page"},
			false,
		},
		{
			"benign scroll",
			types.Action{Type: types.ActionScroll, DeltaY: 680},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := gate.Assess(&tt.action)
			if tt.flagged {
				assert.NotEmpty(t, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestRequestApproved(t *testing.T) {
	var notified *types.Approval
	m := NewManager(time.Second, func(a *types.Approval) { notified = a })

	action := &types.Action{Type: types.ActionClick, Selector: "#pay", TargetLabel: "Pay now"}

	done := make(chan types.ApprovalDecision, 1)
	go func() {
		decision, err := m.Request(context.Background(), action, "matches sensitive keyword \"pay\"")
		require.NoError(t, err)
		done <- decision
	}()

	// Wait for the pending slot to appear before resolving.
	require.Eventually(t, func() bool { return m.Pending() != nil }, time.Second, 5*time.Millisecond)

	pending := m.Pending()
	assert.Equal(t, "Pay now", pending.TargetSummary)
	assert.True(t, m.Resolve(pending.ID, true))

	select {
	case decision := <-done:
		assert.Equal(t, types.ApprovalApproved, decision)
	case <-time.After(time.Second):
		t.Fatal("request did not resolve")
	}

	require.NotNil(t, notified)
	assert.Equal(t, pending.ID, notified.ID)
	assert.Nil(t, m.Pending())
}

func TestRequestRejected(t *testing.T) {
	m := NewManager(time.Second, nil)
	action := &types.Action{Type: types.ActionClickAt, X: 10, Y: 10}

	done := make(chan types.ApprovalDecision, 1)
	go func() {
		decision, _ := m.Request(context.Background(), action, "coordinate click")
		done <- decision
	}()

	require.Eventually(t, func() bool { return m.Pending() != nil }, time.Second, 5*time.Millisecond)
	require.True(t, m.Resolve(m.Pending().ID, false))

	assert.Equal(t, types.ApprovalRejected, <-done)
}

func TestRequestTimesOut(t *testing.T) {
	m := NewManager(30*time.Millisecond, nil)
	action := &types.Action{Type: types.ActionClickAt, X: 10, Y: 10}

	decision, err := m.Request(context.Background(), action, "coordinate click")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalTimeout, decision)
	assert.Nil(t, m.Pending())
}

func TestRequestCancelledCountsAsRejection(t *testing.T) {
	m := NewManager(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan types.ApprovalDecision, 1)
	go func() {
		decision, _ := m.Request(ctx, &types.Action{Type: types.ActionClickAt}, "coordinate click")
		done <- decision
	}()

	require.Eventually(t, func() bool { return m.Pending() != nil }, time.Second, 5*time.Millisecond)
	cancel()

	assert.Equal(t, types.ApprovalRejected, <-done)
}

func TestSecondConcurrentRequestErrors(t *testing.T) {
	m := NewManager(time.Minute, nil)

	go func() {
		_, _ = m.Request(context.Background(), &types.Action{Type: types.ActionClickAt}, "first")
	}()
	require.Eventually(t, func() bool { return m.Pending() != nil }, time.Second, 5*time.Millisecond)

	_, err := m.Request(context.Background(), &types.Action{Type: types.ActionClickAt}, "second")
	require.Error(t, err)

	m.Clear()
}

func TestResolveUnknownIDIgnored(t *testing.T) {
	m := NewManager(time.Second, nil)
	assert.False(t, m.Resolve("nope", true))
}

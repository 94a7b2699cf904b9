package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replay feeds a sequence of outcomes ('F' failure, 'S' success) into b and returns the
// transitions observed along the way, e.g. "open" or "close".
func replay(b *Breaker, outcomes string) []string {
	var transitions []string
	for _, o := range outcomes {
		var change StateChange
		switch o {
		case 'F':
			_, change = b.RecordFailure()
		case 'S':
			_, change = b.RecordSuccess()
		}
		if change.Opened {
			transitions = append(transitions, "open")
		}
		if change.Closed {
			transitions = append(transitions, "close")
		}
	}
	return transitions
}

func TestBreaker_OutcomeSequences(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		outcomes    string
		state       State
		transitions []string
	}{
		{
			name:     "defaults stay closed below five failures",
			outcomes: "FFFF",
			state:    StateClosed,
		},
		{
			name:        "defaults open on the fifth consecutive failure",
			outcomes:    "FFFFF",
			state:       StateOpen,
			transitions: []string{"open"},
		},
		{
			name:     "a success resets the failure run",
			opts:     []Option{WithFailureThreshold(3)},
			outcomes: "FFSFF",
			state:    StateClosed,
		},
		{
			name:        "failures while open do not report a second transition",
			opts:        []Option{WithFailureThreshold(1)},
			outcomes:    "FFF",
			state:       StateOpen,
			transitions: []string{"open"},
		},
		{
			name:        "closes after the success threshold",
			opts:        []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			outcomes:    "FSS",
			state:       StateClosed,
			transitions: []string{"open", "close"},
		},
		{
			name:        "a failure while recovering restarts the success run",
			opts:        []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			outcomes:    "FSSFSS",
			state:       StateOpen,
			transitions: []string{"open"},
		},
		{
			name:        "notifier settings reopen after a failed probe",
			opts:        []Option{WithFailureThreshold(5), WithSuccessThreshold(2)},
			outcomes:    "FFFFFSFSS",
			state:       StateClosed,
			transitions: []string{"open", "close"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("notifier", tt.opts...)
			transitions := replay(b, tt.outcomes)
			assert.Equal(t, tt.state, b.State())
			assert.Equal(t, tt.transitions, transitions)
		})
	}
}

func TestBreaker_FallbackSignal(t *testing.T) {
	b := New("notifier", WithFailureThreshold(2))

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback, "first failure still retries the provider")

	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, _ := b.RecordSuccess()
	assert.True(t, usePrimary, "default success threshold closes on one probe")
	assert.False(t, b.IsOpen())
}

func TestBreaker_AllowWaitsForCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := New("notifier",
		WithFailureThreshold(1),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	require.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "probe admitted once the cooldown elapsed")

	b.RecordFailure()
	assert.False(t, b.Allow(), "a failed probe restarts the cooldown")
}

func TestBreaker_Reset(t *testing.T) {
	b := New("notifier", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "notifier", b.Name())
	assert.True(t, b.Allow())
}

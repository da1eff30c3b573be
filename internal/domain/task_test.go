package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStateTerminal(t *testing.T) {
	terminal := []TaskState{StateCompleted, StateFailed, StateCancelled}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "state %s", s)
	}

	nonTerminal := []TaskState{StatePending, StateRunning, StateUnknown, TaskState("WEIRD")}
	for _, s := range nonTerminal {
		assert.False(t, s.Terminal(), "state %s", s)
	}
}

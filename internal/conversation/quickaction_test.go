// ABOUTME: Tests for the predefined quick actions and their lookup
// ABOUTME: Verifies the default shortcut set and kind names

package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultQuickActions(t *testing.T) {
	actions := DefaultQuickActions()
	kinds := map[string]ActionKind{}
	for _, a := range actions {
		assert.NotEmpty(t, a.Label)
		assert.NotEmpty(t, a.Question)
		kinds[a.ID] = a.Kind
	}
	assert.Equal(t, map[string]ActionKind{
		"topics":       ActionTopics,
		"how-it-works": ActionHowItWorks,
		"math":         ActionAsk,
	}, kinds)
}

func TestLookupQuickAction(t *testing.T) {
	a, ok := LookupQuickAction(DefaultQuickActions(), "math")
	assert.True(t, ok)
	assert.Equal(t, "Matemáticas", a.Label)

	_, ok = LookupQuickAction(DefaultQuickActions(), "nope")
	assert.False(t, ok)
}

func TestActionKindString(t *testing.T) {
	assert.Equal(t, "topics", ActionTopics.String())
	assert.Equal(t, "how-it-works", ActionHowItWorks.String())
	assert.Equal(t, "ask", ActionAsk.String())
	assert.Equal(t, "unknown", ActionKind(9).String())
}

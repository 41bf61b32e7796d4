package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type lightStatus string

var lightFlow = Transitions[lightStatus]{
	"red":    {"green"},
	"green":  {"yellow"},
	"yellow": {"red"},
}

func TestTransitions(t *testing.T) {
	assert.True(t, lightFlow.Can("red", "green"))
	assert.False(t, lightFlow.Can("red", "yellow"))
	assert.False(t, lightFlow.Can("blue", "red"))

	assert.NoError(t, lightFlow.Check("light", "green", "yellow"))
	err := lightFlow.Check("light", "green", "red")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "light cannot move from green to red")

	assert.True(t, lightFlow.Known("yellow"))
	assert.False(t, lightFlow.Known("blue"))
}

package fsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type light string

const (
	red    light = "RED"
	green  light = "GREEN"
	yellow light = "YELLOW"
	off    light = "OFF"
)

func newLight() *Machine[light] {
	return New("traffic-light", map[light][]light{
		red:    {green, off},
		green:  {yellow, off},
		yellow: {red, off},
	})
}

func TestMachine_Can(t *testing.T) {
	m := newLight()

	assert.True(t, m.Can(red, green))
	assert.True(t, m.Can(yellow, off))
	assert.False(t, m.Can(red, yellow))
	assert.False(t, m.Can(off, red))
	assert.False(t, m.Can(red, red))
}

func TestMachine_Validate(t *testing.T) {
	m := newLight()

	t.Run("legal", func(t *testing.T) {
		assert.NoError(t, m.Validate(green, yellow))
	})

	t.Run("illegal", func(t *testing.T) {
		err := m.Validate(green, red)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIllegalTransition)

		var te *TransitionError[light]
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "traffic-light", te.Machine)
		assert.Equal(t, green, te.From)
		assert.Equal(t, red, te.To)
		assert.Contains(t, err.Error(), "GREEN")
	})

	t.Run("same state", func(t *testing.T) {
		err := m.Validate(red, red)
		assert.ErrorIs(t, err, ErrSameState)
		assert.NotErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("unknown source", func(t *testing.T) {
		assert.ErrorIs(t, m.Validate("BLUE", red), ErrIllegalTransition)
	})
}

func TestMachine_NextAndTerminal(t *testing.T) {
	m := newLight()

	assert.Equal(t, []light{green, off}, m.Next(red))
	assert.Empty(t, m.Next(off))
	assert.True(t, m.IsTerminal(off))
	assert.False(t, m.IsTerminal(red))
}

func TestMachine_States(t *testing.T) {
	m := newLight()

	assert.Equal(t, []light{green, off, red, yellow}, m.States())
	assert.True(t, m.Knows(off))
	assert.False(t, m.Knows("BLUE"))
	assert.Equal(t, "traffic-light", m.Name())
}

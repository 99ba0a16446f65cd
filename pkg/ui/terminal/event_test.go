package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyPrintable(t *testing.T) {
	assert.True(t, KeyFromRune('a').IsPrintable())
	assert.True(t, KeyFromRune('é').IsPrintable())
	assert.False(t, KeyEnter.IsPrintable())
	assert.False(t, KeyF12.IsPrintable())

	assert.Equal(t, 'a', KeyFromRune('a').Rune())
	assert.Equal(t, rune(0), KeyEnter.Rune())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "a", KeyFromRune('a').String())
	assert.Equal(t, "Enter", KeyEnter.String())
	assert.Equal(t, "Escape", KeyEscape.String())
	assert.Equal(t, "F1", KeyF1.String())
	assert.Equal(t, "F12", KeyF12.String())
}

func TestModifierOps(t *testing.T) {
	m := ModNone
	assert.True(t, m.IsEmpty())

	m = m.With(ModCtrl).With(ModShift)
	assert.True(t, m.HasCtrl())
	assert.True(t, m.HasShift())
	assert.False(t, m.HasAlt())

	m = m.Without(ModCtrl)
	assert.False(t, m.HasCtrl())
	assert.True(t, m.HasShift())
}

func TestModifierString(t *testing.T) {
	assert.Equal(t, "", ModNone.String())
	assert.Equal(t, "Ctrl", ModCtrl.String())
	assert.Equal(t, "Ctrl+Alt+Shift", ModCtrl.With(ModAlt).With(ModShift).String())
	assert.Equal(t, "Super", ModSuper.String())
}

func TestRuneEventShape(t *testing.T) {
	ev := runeEvent('x', ModAlt)
	assert.Equal(t, KeyFromRune('x'), ev.Key)
	assert.Equal(t, 'x', ev.Rune)
	assert.Equal(t, ModAlt, ev.Mods)

	sp := keyEvent(KeyHome, ModNone)
	assert.Equal(t, rune(0), sp.Rune)
}

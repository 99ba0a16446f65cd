package terminal

import "strings"

// Modifier is a bitmask of keyboard modifier keys. Wire values from CSI
// modifier parameters are translated by decodeModifiers; combine and test
// values through With and Has rather than relying on the raw bits.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModSuper indicates the Super key (Cmd on macOS, Win elsewhere).
	ModSuper
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool {
	return m.Has(ModAlt)
}

// HasCtrl returns true if Control is pressed.
func (m Modifier) HasCtrl() bool {
	return m.Has(ModCtrl)
}

// HasSuper returns true if Super is pressed.
func (m Modifier) HasSuper() bool {
	return m.Has(ModSuper)
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// String returns a human-readable representation like "Ctrl+Alt".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "Ctrl")
	}
	if m.HasAlt() {
		parts = append(parts, "Alt")
	}
	if m.HasShift() {
		parts = append(parts, "Shift")
	}
	if m.HasSuper() {
		parts = append(parts, "Super")
	}
	return strings.Join(parts, "+")
}

// decodeModifiers converts a raw CSI modifier parameter to a Modifier
// bitmask. The wire convention is encoded = 1 + bits, so a value of 1 or
// less means no modifiers.
func decodeModifiers(param int) Modifier {
	if param <= 1 {
		return ModNone
	}
	bits := param - 1
	var mods Modifier
	if bits&1 != 0 {
		mods = mods.With(ModShift)
	}
	if bits&2 != 0 {
		mods = mods.With(ModAlt)
	}
	if bits&4 != 0 {
		mods = mods.With(ModCtrl)
	}
	if bits&8 != 0 {
		mods = mods.With(ModSuper)
	}
	return mods
}

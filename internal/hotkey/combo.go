// Package hotkey parses key combo specs and turns raw keyboard events
// into press/release edges for registered combos.
package hotkey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Modifier masks.
const (
	ModAlt   uint32 = 0x0001
	ModCtrl  uint32 = 0x0002
	ModShift uint32 = 0x0004
	ModWin   uint32 = 0x0008
)

// Virtual-key codes used by the parser and detector.
const (
	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
	vkLWin     = 0x5B
	vkRWin     = 0x5C

	vkNumpad0  = 0x60
	vkAdd      = 0x6B
	vkSubtract = 0x6D
)

// Combo is a parsed hotkey: zero or more modifiers plus one or two
// distinct non-modifier keys, all of which must be held together.
type Combo struct {
	Mods uint32
	Keys []uint32
	spec string
}

func (c Combo) String() string { return c.spec }

// ParseCombo accepts specs like "ctrl+z+x", "ctrl+alt+p" or "f9".
// Tokens before the first non-modifier key are modifiers; the rest are
// keys. At most two keys are allowed and they must differ.
func ParseCombo(s string) (Combo, error) {
	if strings.TrimSpace(s) == "" {
		return Combo{}, fmt.Errorf("empty combo")
	}
	parts := strings.Split(s, "+")
	c := Combo{spec: s}
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		switch p {
		case "alt", "menu":
			c.Mods |= ModAlt
			continue
		case "ctrl", "control":
			c.Mods |= ModCtrl
			continue
		case "shift":
			c.Mods |= ModShift
			continue
		case "win", "meta", "super":
			c.Mods |= ModWin
			continue
		}
		vk, err := parseKeyToken(p)
		if err != nil {
			return Combo{}, fmt.Errorf("combo '%s': %w", s, err)
		}
		c.Keys = append(c.Keys, vk)
	}
	if len(c.Keys) == 0 {
		return Combo{}, fmt.Errorf("combo '%s' has no non-modifier key", s)
	}
	if len(c.Keys) > 2 {
		return Combo{}, fmt.Errorf("combo '%s' has more than two keys", s)
	}
	if len(c.Keys) == 2 && c.Keys[0] == c.Keys[1] {
		return Combo{}, fmt.Errorf("combo '%s' repeats the same key", s)
	}
	return c, nil
}

func parseKeyToken(keyToken string) (uint32, error) {
	if len(keyToken) == 1 {
		ch := keyToken[0]
		if ch >= 'a' && ch <= 'z' {
			return uint32(ch - 'a' + 'A'), nil
		}
		if ch >= '0' && ch <= '9' {
			return uint32(ch), nil
		}
	}
	switch keyToken {
	case "esc", "escape":
		return 0x1B, nil
	case "space":
		return 0x20, nil
	case "enter", "return":
		return 0x0D, nil
	}
	if strings.HasPrefix(keyToken, "f") {
		nStr := strings.TrimPrefix(keyToken, "f")
		if n, err := strconv.Atoi(nStr); err == nil && n >= 1 && n <= 24 {
			return 0x70 + uint32(n-1), nil
		}
	}
	if strings.HasPrefix(keyToken, "numpad") || strings.HasPrefix(keyToken, "num") || strings.HasPrefix(keyToken, "kp") {
		nStr := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(keyToken, "numpad"), "num"), "kp")
		if n, err := strconv.Atoi(nStr); err == nil && n >= 0 && n <= 9 {
			return vkNumpad0 + uint32(n), nil
		}
	}
	switch keyToken {
	case "add", "plus", "kpadd":
		return vkAdd, nil
	case "subtract", "minus", "kpsubtract":
		return vkSubtract, nil
	}

	named := map[string]uint32{
		"tab":       0x09,
		"backspace": 0x08,
		"insert":    0x2D,
		"delete":    0x2E,
		"home":      0x24,
		"end":       0x23,
		"pageup":    0x21,
		"pagedown":  0x22,
		"left":      0x25,
		"up":        0x26,
		"right":     0x27,
		"down":      0x28,
	}
	if v, ok := named[keyToken]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unsupported key token: %s", keyToken)
}

// modBit maps a modifier virtual key to its mask bit, or 0 for
// non-modifier keys.
func modBit(vk uint32) uint32 {
	switch vk {
	case vkShift, vkLShift, vkRShift:
		return ModShift
	case vkControl, vkLControl, vkRControl:
		return ModCtrl
	case vkMenu, vkLMenu, vkRMenu:
		return ModAlt
	case vkLWin, vkRWin:
		return ModWin
	}
	return 0
}

func sortedIDs(m map[int]Combo) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

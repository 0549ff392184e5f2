package hotkey

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	ErrInvalidCombo = errors.New("invalid hotkey")
	ErrUnsupported  = errors.New("global hotkeys not supported on this platform")
)

type key struct {
	name     string
	rawcodes []uint16
}

// Combo is a parsed key combination such as "Ctrl+Alt+P".
type Combo struct {
	text string
	keys []key
}

func (c Combo) String() string { return c.text }

// Parse converts a hotkey string like "Ctrl+Alt+p" into a Combo. Key names
// are case-insensitive; "win", "cmd" and "super" are the same key.
func Parse(hotkeyConfig string) (Combo, error) {
	names := parseHotkey(hotkeyConfig)
	if len(names) == 0 {
		return Combo{}, fmt.Errorf("%w: empty combination", ErrInvalidCombo)
	}
	c := Combo{text: hotkeyConfig}
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return Combo{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidCombo, name, hotkeyConfig)
		}
		c.keys = append(c.keys, key{name: name, rawcodes: rawcodes})
	}
	return c, nil
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

var specialKeys = map[string][]uint16{
	// Modifier keys, left and right variants
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"pause":     {19},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key codes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	if codes, ok := specialKeys[keyName]; ok {
		return codes
	}
	if len(keyName) == 1 {
		switch ch := keyName[0]; {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch-'a') + 0x41}
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch-'0') + 0x30}
		}
	}
	// F1-F24 are VK 0x70-0x87
	var n int
	if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && n >= 1 && n <= 24 && keyName == fmt.Sprintf("f%d", n) {
		return []uint16{uint16(0x70 + n - 1)}
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}

// matcher tracks which keys of a Combo are held down.
type matcher struct {
	combo   Combo
	pressed []bool
}

func newMatcher(c Combo) *matcher {
	return &matcher{combo: c, pressed: make([]bool, len(c.keys))}
}

// keyDown records a press and reports whether the whole combination is now
// held. A completed combination resets the state so holding keys fires once.
func (m *matcher) keyDown(rawcode uint16) bool {
	for i, k := range m.combo.keys {
		for _, rc := range k.rawcodes {
			if rc == rawcode {
				m.pressed[i] = true
			}
		}
	}
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	for i := range m.pressed {
		m.pressed[i] = false
	}
	return true
}

func (m *matcher) keyUp(rawcode uint16) {
	for i, k := range m.combo.keys {
		for _, rc := range k.rawcodes {
			if rc == rawcode {
				m.pressed[i] = false
			}
		}
	}
}

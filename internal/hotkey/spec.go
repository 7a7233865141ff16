// Package hotkey parses key combination specs and listens for global key events.
package hotkey

import (
	"fmt"
	"strings"
)

// Combo is one parsed modifier+key combination.
type Combo struct {
	Modifiers []string
	Key       string
}

// modifierNames maps spec modifier tokens to the names the hook library expects.
var modifierNames = map[string]string{
	"alt":   "alt",
	"ctrl":  "ctrl",
	"shift": "shift",
	"super": "cmd",
	"cmd":   "cmd",
	"win":   "cmd",
}

// Parse reads a combination spec such as "<alt>+o" or "<ctrl>+<shift>+d".
// Modifiers are wrapped in angle brackets; exactly one bare key is required.
func Parse(spec string) (Combo, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return Combo{}, fmt.Errorf("hotkey spec is empty")
	}

	var combo Combo
	for _, token := range strings.Split(trimmed, "+") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			return Combo{}, fmt.Errorf("hotkey spec %q contains an empty token", spec)
		}

		if strings.HasPrefix(token, "<") && strings.HasSuffix(token, ">") {
			name := token[1 : len(token)-1]
			modifier, ok := modifierNames[name]
			if !ok {
				return Combo{}, fmt.Errorf("hotkey spec %q: unknown modifier %q", spec, name)
			}
			combo.Modifiers = append(combo.Modifiers, modifier)
			continue
		}

		if combo.Key != "" {
			return Combo{}, fmt.Errorf("hotkey spec %q has more than one key", spec)
		}
		combo.Key = token
	}

	if combo.Key == "" {
		return Combo{}, fmt.Errorf("hotkey spec %q has no key", spec)
	}
	return combo, nil
}

// HookKeys returns the combination in the form the hook library registers.
func (c Combo) HookKeys() []string {
	return append([]string{c.Key}, c.Modifiers...)
}

// String reconstructs the canonical spec form.
func (c Combo) String() string {
	parts := make([]string, 0, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		parts = append(parts, "<"+m+">")
	}
	return strings.Join(append(parts, c.Key), "+")
}

package agentbay

import (
	"context"
	"strings"
)

// Mouse buttons accepted by the computer tools.
const (
	MouseButtonLeft   = "left"
	MouseButtonRight  = "right"
	MouseButtonMiddle = "middle"
)

// keyNameAliases maps common lowercase key names to the canonical form
// the remote desktop expects.
var keyNameAliases = map[string]string{
	"ctrl":      "Ctrl",
	"control":   "Ctrl",
	"alt":       "Alt",
	"shift":     "Shift",
	"win":       "Win",
	"meta":      "Win",
	"tab":       "Tab",
	"enter":     "Enter",
	"return":    "Enter",
	"esc":       "Esc",
	"escape":    "Esc",
	"space":     "Space",
	"backspace": "Backspace",
	"delete":    "Delete",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pagedown":  "PageDown",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
}

// normalizeKeyName canonicalizes a key name: aliases resolve to their
// canonical form, F-keys uppercase, single letters lowercase. Unknown
// names pass through unchanged.
func normalizeKeyName(name string) string {
	lower := strings.ToLower(name)

	if canonical, ok := keyNameAliases[lower]; ok {
		return canonical
	}

	if len(lower) >= 2 && lower[0] == 'f' && isDigits(lower[1:]) {
		return strings.ToUpper(lower)
	}

	if len(name) == 1 {
		return lower
	}

	return name
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return len(s) > 0
}

func normalizeKeyNames(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = normalizeKeyName(k)
	}

	return out
}

// Computer drives the remote desktop: mouse, keyboard, and screen.
type Computer struct {
	session *Session
}

// ClickMouse clicks at screen coordinates. Empty button means left.
func (c *Computer) ClickMouse(ctx context.Context, x, y int, button string) (*ToolResult, error) {
	if button == "" {
		button = MouseButtonLeft
	}

	return c.session.CallTool(ctx, "click_mouse", map[string]any{
		"x": x, "y": y, "button": button,
	}, false)
}

// MoveMouse moves the pointer to screen coordinates.
func (c *Computer) MoveMouse(ctx context.Context, x, y int) (*ToolResult, error) {
	return c.session.CallTool(ctx, "move_mouse", map[string]any{"x": x, "y": y}, false)
}

// InputText types text at the current focus.
func (c *Computer) InputText(ctx context.Context, text string) (*ToolResult, error) {
	return c.session.CallTool(ctx, "input_text", map[string]any{"text": text}, false)
}

// PressKeys presses a key combination. Key names are normalized before
// dispatch ("ctrl" becomes "Ctrl", "f5" becomes "F5", "A" becomes "a").
func (c *Computer) PressKeys(ctx context.Context, keys []string, hold bool) (*ToolResult, error) {
	return c.session.CallTool(ctx, "press_keys", map[string]any{
		"keys": normalizeKeyNames(keys),
		"hold": hold,
	}, false)
}

// ReleaseKeys releases held keys, normalized the same way as PressKeys.
func (c *Computer) ReleaseKeys(ctx context.Context, keys []string) (*ToolResult, error) {
	return c.session.CallTool(ctx, "release_keys", map[string]any{
		"keys": normalizeKeyNames(keys),
	}, false)
}

// Screenshot captures the screen; the result Data carries the image URL.
func (c *Computer) Screenshot(ctx context.Context) (*ToolResult, error) {
	return c.session.CallTool(ctx, "system_screenshot", nil, false)
}

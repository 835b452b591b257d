package agentbay

import "context"

// Mobile drives the remote mobile emulator: touch, keys, and apps.
type Mobile struct {
	session *Session
}

// Tap taps at screen coordinates.
func (m *Mobile) Tap(ctx context.Context, x, y int) (*ToolResult, error) {
	return m.session.CallTool(ctx, "tap", map[string]any{"x": x, "y": y}, false)
}

// Swipe drags from (startX, startY) to (endX, endY) over durationMs.
func (m *Mobile) Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) (*ToolResult, error) {
	return m.session.CallTool(ctx, "swipe", map[string]any{
		"start_x":     startX,
		"start_y":     startY,
		"end_x":       endX,
		"end_y":       endY,
		"duration_ms": durationMs,
	}, false)
}

// InputText types text at the current focus.
func (m *Mobile) InputText(ctx context.Context, text string) (*ToolResult, error) {
	return m.session.CallTool(ctx, "input_text", map[string]any{"text": text}, false)
}

// SendKey sends an Android keycode.
func (m *Mobile) SendKey(ctx context.Context, keycode int) (*ToolResult, error) {
	return m.session.CallTool(ctx, "send_key", map[string]any{"key": keycode}, false)
}

// StartApp launches an app by its start command.
func (m *Mobile) StartApp(ctx context.Context, startCmd string) (*ToolResult, error) {
	return m.session.CallTool(ctx, "start_app", map[string]any{"start_cmd": startCmd}, false)
}

// StopApp stops an app by package name.
func (m *Mobile) StopApp(ctx context.Context, pkgName string) (*ToolResult, error) {
	return m.session.CallTool(ctx, "stop_app_by_pname", map[string]any{"package_name": pkgName}, false)
}

// Screenshot captures the screen; the result Data carries the image URL.
func (m *Mobile) Screenshot(ctx context.Context) (*ToolResult, error) {
	return m.session.CallTool(ctx, "system_screenshot", nil, false)
}

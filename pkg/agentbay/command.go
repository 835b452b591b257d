package agentbay

import "context"

// Default shell command timeout in milliseconds.
const defaultCommandTimeoutMs = 1000

// Command executes shell commands inside the session.
type Command struct {
	session *Session
}

// ExecuteCommand runs a shell command with the default timeout.
func (c *Command) ExecuteCommand(ctx context.Context, command string) (*ToolResult, error) {
	return c.ExecuteCommandWithTimeout(ctx, command, defaultCommandTimeoutMs)
}

// ExecuteCommandWithTimeout runs a shell command with an explicit timeout
// in milliseconds. Non-positive timeouts select the default.
func (c *Command) ExecuteCommandWithTimeout(ctx context.Context, command string, timeoutMs int) (*ToolResult, error) {
	if timeoutMs <= 0 {
		timeoutMs = defaultCommandTimeoutMs
	}

	return c.session.CallTool(ctx, "shell", map[string]any{
		"command":    command,
		"timeout_ms": timeoutMs,
	}, false)
}

package agentbay

import (
	"context"
	"fmt"
)

// Default code execution timeout in seconds.
const defaultCodeTimeoutS = 60

// Languages accepted by RunCode.
var supportedLanguages = map[string]bool{
	"python":     true,
	"javascript": true,
}

// Code runs snippets inside the session's sandboxed interpreters.
type Code struct {
	session *Session
}

// RunCode executes a snippet with the default timeout.
func (c *Code) RunCode(ctx context.Context, code, language string) (*ToolResult, error) {
	return c.RunCodeWithTimeout(ctx, code, language, defaultCodeTimeoutS)
}

// RunCodeWithTimeout executes a snippet in the given language with a
// timeout in seconds. An unsupported language is a validation failure
// reported in the result envelope, before any RPC.
func (c *Code) RunCodeWithTimeout(ctx context.Context, code, language string, timeoutS int) (*ToolResult, error) {
	if !supportedLanguages[language] {
		return &ToolResult{
			ErrorMessage: fmt.Sprintf("unsupported language %q: must be python or javascript", language),
		}, nil
	}

	if timeoutS <= 0 {
		timeoutS = defaultCodeTimeoutS
	}

	return c.session.CallTool(ctx, "run_code", map[string]any{
		"code":      code,
		"language":  language,
		"timeout_s": timeoutS,
	}, false)
}

package agentbay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// McpTool describes a named capability hosted by a backend server. The
// Server field is the routing key for VPC dispatch.
type McpTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Server      string         `json:"server"`
	Tool        string         `json:"tool"`
}

// parseMcpTools decodes the ListMcpTools payload: a JSON string encoding
// the descriptor array.
func parseMcpTools(raw string) ([]McpTool, error) {
	if raw == "" {
		return nil, nil
	}

	var tools []McpTool
	if err := json.Unmarshal([]byte(raw), &tools); err != nil {
		return nil, fmt.Errorf("parsing mcp tools: %w", err)
	}

	return tools, nil
}

// vpcToolResponse is the body of a VPC endpoint response. Its data field
// is a JSON string wrapping the managed-plane result shape one level
// deeper.
type vpcToolResponse struct {
	Data string `json:"data"`
}

type vpcToolResult struct {
	Result wire.CallMcpToolData `json:"result"`
}

// CallTool invokes a tool by name with a loosely typed argument bag and
// returns the normalized result envelope. Non-VPC sessions route through
// the managed API; VPC sessions call the in-VPC HTTP endpoint directly.
// autoGenSession lets the server transparently allocate a session for the
// call when the current one is gone.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any, autoGenSession bool) (*ToolResult, error) {
	if err := s.ensureAlive(); err != nil {
		return nil, err
	}

	if args == nil {
		args = map[string]any{}
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding tool args: %w", err)
	}

	var result *ToolResult

	if s.IsVpc {
		result, err = s.callToolVPC(ctx, name, string(argsJSON))
	} else {
		result, err = s.callToolAPI(ctx, name, string(argsJSON), autoGenSession)
	}

	if err != nil {
		return nil, err
	}

	if name == "run_code" && result.Success {
		s.logCodeOutput(result.Data)
	}

	return result, nil
}

// callToolAPI dispatches through the managed CallMcpTool RPC.
func (s *Session) callToolAPI(ctx context.Context, name, argsJSON string, autoGenSession bool) (*ToolResult, error) {
	var data wire.CallMcpToolData

	requestID, err := s.api.Invoke(ctx, "CallMcpTool", &wire.CallMcpToolRequest{
		SessionID:      s.SessionID,
		Name:           name,
		Args:           argsJSON,
		AutoGenSession: autoGenSession,
	}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &ToolResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	result := normalizeToolResult(&data)
	result.RequestID = requestID

	return result, nil
}

// callToolVPC dispatches through the session's in-VPC HTTP endpoint.
// Routing requires the tool's backend server from the cached descriptors
// and a complete VPC network configuration.
func (s *Session) callToolVPC(ctx context.Context, name, argsJSON string) (*ToolResult, error) {
	server := s.findToolServer(name)
	if server == "" {
		return &ToolResult{
			ErrorMessage: fmt.Sprintf("Server not found for tool: %s", name),
		}, nil
	}

	if !s.vpcReady() {
		return &ToolResult{
			ErrorMessage: "incomplete VPC configuration: networkInterfaceIp and httpPort are required",
		}, nil
	}

	requestID := "vpc-" + uuid.NewString()

	query := url.Values{}
	query.Set("server", server)
	query.Set("tool", name)
	query.Set("args", argsJSON)
	query.Set("token", s.Token)
	query.Set("requestId", requestID)

	endpoint := fmt.Sprintf("http://%s:%s/callTool?%s", s.NetworkInterfaceIP, s.HTTPPort, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating vpc tool request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.logger.Debug("vpc tool call", s.logAttr(),
		slog.String("tool", name),
		slog.String("server", server),
		slog.String("request_id", requestID),
	)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vpc tool request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading vpc tool response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &ToolResult{
			APIResponse:  APIResponse{RequestID: requestID},
			ErrorMessage: fmt.Sprintf("vpc tool call failed with HTTP %d", resp.StatusCode),
		}, nil
	}

	var outer vpcToolResponse
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("decoding vpc tool response: %w", err)
	}

	// The VPC endpoint wraps the managed result one level deeper: data is
	// a JSON string containing {result: {content, isError}}.
	var inner vpcToolResult
	if err := json.Unmarshal([]byte(outer.Data), &inner); err != nil {
		return nil, fmt.Errorf("decoding vpc tool payload: %w", err)
	}

	result := normalizeToolResult(&inner.Result)
	result.RequestID = requestID

	return result, nil
}

// findToolServer resolves a tool name to its backend server via the
// cached descriptors.
func (s *Session) findToolServer(name string) string {
	for _, tool := range s.tools {
		if tool.Name == name {
			return tool.Server
		}
	}

	return ""
}

// normalizeToolResult applies the uniform extraction rule: on isError the
// content texts join with "; " into the error message; otherwise the data
// is the first content text, or empty when absent.
func normalizeToolResult(data *wire.CallMcpToolData) *ToolResult {
	if data.IsError {
		texts := make([]string, 0, len(data.Content))
		for _, c := range data.Content {
			if c.Text != "" {
				texts = append(texts, c.Text)
			}
		}

		return &ToolResult{ErrorMessage: strings.Join(texts, "; ")}
	}

	var out string
	if len(data.Content) > 0 {
		out = data.Content[0].Text
	}

	return &ToolResult{Success: true, Data: out}
}

// logCodeOutput is the code-output hook applied to run_code results.
func (s *Session) logCodeOutput(output string) {
	s.logger.Debug("run_code output", s.logAttr(), slog.Int("bytes", len(output)))
}

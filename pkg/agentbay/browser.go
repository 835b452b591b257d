package agentbay

import (
	"context"
	"fmt"
)

// Browser exposes the session's managed browser runtime. The CDP endpoint
// comes from GetLink; recording state mirrors the create-time flag.
type Browser struct {
	session *Session
}

// RecordEnabled reports whether browser replay recording was enabled when
// the session was created.
func (b *Browser) RecordEnabled() bool {
	return b.session.EnableBrowserReplay
}

// GetEndpointURL returns the CDP websocket endpoint for driving the
// browser with an automation framework.
func (b *Browser) GetEndpointURL(ctx context.Context) (string, error) {
	result, err := b.session.GetLink(ctx, "wss", nil, "")
	if err != nil {
		return "", err
	}

	if !result.Success {
		return "", fmt.Errorf("fetching browser endpoint: %s", result.ErrorMessage)
	}

	return result.URL, nil
}

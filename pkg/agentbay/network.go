package agentbay

import (
	"context"
	"log/slog"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// NetworkService grants short-lived network access tokens for sessions.
// Beta surface: calls retry transient 503s with exponential backoff.
type NetworkService struct {
	api    *wire.Client
	logger *slog.Logger
}

func newNetworkService(api *wire.Client, logger *slog.Logger) *NetworkService {
	return &NetworkService{api: api, logger: logger}
}

// GetToken requests a network access token for a session.
func (s *NetworkService) GetToken(ctx context.Context, sessionID string) (*NetworkTokenResult, error) {
	var data wire.GetNetworkTokenData

	requestID, err := s.api.InvokeBeta(ctx, "GetNetworkToken",
		&wire.GetNetworkTokenRequest{SessionID: sessionID}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &NetworkTokenResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	return &NetworkTokenResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		Token:       data.Token,
		ExpireTime:  data.ExpireTime,
	}, nil
}

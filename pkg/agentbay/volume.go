package agentbay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// VolumeService provisions standalone volumes. Beta surface: calls retry
// transient 503s with exponential backoff.
type VolumeService struct {
	api    *wire.Client
	logger *slog.Logger
}

func newVolumeService(api *wire.Client, logger *slog.Logger) *VolumeService {
	return &VolumeService{api: api, logger: logger}
}

// Create provisions a named volume.
func (s *VolumeService) Create(ctx context.Context, name string) (*VolumeResult, error) {
	if name == "" {
		return nil, fmt.Errorf("volume name is required")
	}

	var data wire.VolumeData

	requestID, err := s.api.InvokeBeta(ctx, "CreateVolume", &wire.CreateVolumeRequest{Name: name}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &VolumeResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	s.logger.Info("volume created",
		slog.String("volume_id", data.VolumeID),
		slog.String("request_id", requestID),
	)

	return &VolumeResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		VolumeID:    data.VolumeID,
		Name:        data.Name,
		Status:      data.Status,
	}, nil
}

// Delete destroys a volume by id.
func (s *VolumeService) Delete(ctx context.Context, volumeID string) (*OperationResult, error) {
	if volumeID == "" {
		return nil, fmt.Errorf("volume id is required")
	}

	requestID, err := s.api.InvokeBeta(ctx, "DeleteVolume",
		&wire.DeleteVolumeRequest{VolumeID: volumeID}, nil)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &OperationResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	return &OperationResult{APIResponse: APIResponse{RequestID: requestID}, Success: true}, nil
}

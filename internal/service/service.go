package service

import (
	"context"

	"ud18_logger/internal/device"
	"ud18_logger/internal/logger"
	"ud18_logger/internal/metrics"
	"ud18_logger/internal/models"
	"ud18_logger/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Capture controls the single device capture session.
type Capture interface {
	Start(ctx context.Context) (CaptureStatus, error)
	Stop(ctx context.Context) (CaptureStatus, error)
	Status() CaptureStatus
	// Wait blocks until the current session ends and returns its error.
	Wait(ctx context.Context) error
}

// Monitoring exposes read-only access to persisted records.
type Monitoring interface {
	List(ctx context.Context, f RecordFilter) ([]models.Measurement, error)
	Latest(ctx context.Context) (models.Measurement, bool, error)
}

// Service aggregates all sub-services.
type Service struct {
	Capture
	Monitoring
	Authorization
}

// Deps carries what the services need besides the repositories.
type Deps struct {
	Adapter device.Adapter
	Capture CaptureConfig
	Auth    AuthConfig
	Metrics *metrics.Pipeline
	Logger  *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Capture:       NewCaptureService(deps.Adapter, repos.Records, deps.Capture, deps.Metrics, deps.Logger),
		Monitoring:    NewMonitoringService(repos.Records),
		Authorization: NewAuthService(repos.Auth, deps.Auth),
	}
}

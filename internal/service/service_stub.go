//go:build !windows

// Package service provides a stub implementation for non-Windows platforms.
// On macOS and Linux a recording runs as a foreground process.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// RecordingService is a pass-through wrapper for non-Windows platforms.
type RecordingService struct {
	logger  *zap.Logger
	startFn func(ctx context.Context) error
}

// New creates a stub service wrapper for non-Windows platforms.
func New(logger *zap.Logger, startFn func(ctx context.Context) error) *RecordingService {
	return &RecordingService{
		logger:  logger,
		startFn: startFn,
	}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes the session directly.
func (s *RecordingService) Run() error {
	return s.startFn(context.Background())
}

// Install is only meaningful on Windows.
func Install(exePath string, args ...string) error {
	return errors.New("service installation is only supported on Windows")
}

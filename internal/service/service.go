//go:build windows

// Package service runs a recording session under the Windows service control
// manager, so long recordings survive the operator logging off.
// From a terminal the session runs in the foreground instead.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

const serviceName = "PerfMon"

// RecordingService implements svc.Handler around one session.
type RecordingService struct {
	logger  *zap.Logger
	startFn func(ctx context.Context) error
	err     error
}

// New creates a Windows service wrapper.
// The startFn is called with a context that is cancelled on Stop or Shutdown.
func New(logger *zap.Logger, startFn func(ctx context.Context) error) *RecordingService {
	return &RecordingService{
		logger:  logger,
		startFn: startFn,
	}
}

// IsWindowsService checks if the process is running as a Windows service.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run enters the service control loop and returns the session's error.
func (s *RecordingService) Run() error {
	if err := svc.Run(serviceName, s); err != nil {
		return err
	}
	return s.err
}

// Execute implements svc.Handler. The service stops on its own once the
// session has used its tick budget.
func (s *RecordingService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.startFn(ctx) }()

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	s.logger.Info("Windows service started")

	for {
		select {
		case err := <-done:
			return s.finish(changes, err)
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s.logger.Info("Windows service stopping")
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				// The stream is finalized before the session returns.
				return s.finish(changes, <-done)
			default:
				s.logger.Warn("Unexpected service control request",
					zap.Uint32("cmd", uint32(c.Cmd)))
			}
		}
	}
}

func (s *RecordingService) finish(changes chan<- svc.Status, err error) (bool, uint32) {
	s.err = err
	changes <- svc.Status{State: svc.Stopped}
	if err != nil {
		s.logger.Error("Recording session failed", zap.Error(err))
		return false, 1
	}
	return false, 0
}

// Install provides instructions for installing the service.
func Install(exePath string, args ...string) error {
	cmd := exePath
	for _, a := range args {
		cmd += " " + a
	}
	return fmt.Errorf("use 'sc create %s binPath= \"%s\"' to install", serviceName, cmd)
}

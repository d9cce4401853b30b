package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/pkg/memory"
)

const serviceName = "ChatService"

const logMessageMaxLen = 50

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the chat Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) Send(ctx context.Context, walletAddress, message string) (turn *Turn, err error) {
	start := time.Now()

	ls.logger.Info("Send started",
		zap.String("service", serviceName),
		zap.String("wallet", walletAddress),
		zap.String("message", truncateString(message, logMessageMaxLen)),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("Send failed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Send completed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
				zap.Int("response_len", len(turn.Response)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Send(ctx, walletAddress, message)
}

func (ls *logService) History(ctx context.Context, walletAddress string) ([]*memory.Entry, error) {
	return ls.svc.History(ctx, walletAddress)
}

func (ls *logService) Clear(ctx context.Context, walletAddress string) (err error) {
	defer func() {
		if err != nil {
			ls.logger.Error("Clear failed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Clear completed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
			)
		}
	}()

	return ls.svc.Clear(ctx, walletAddress)
}

// truncateString limits string length for logging to prevent log spam
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/pkg/user"
)

const serviceName = "UserService"

const signatureDisplaySize = 16

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the user Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) Login(ctx context.Context, req *user.LoginRequest) (resp *user.LoginResponse, err error) {
	start := time.Now()

	ls.logger.Info("Login started",
		zap.String("service", serviceName),
		zap.String("wallet", req.WalletAddress),
		zap.String("signature", redactSignature(req.Signature)),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Warn("Login failed",
				zap.String("service", serviceName),
				zap.String("wallet", req.WalletAddress),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Login completed",
				zap.String("service", serviceName),
				zap.String("wallet", resp.WalletAddress),
				zap.String("expires_in", resp.ExpiresIn),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Login(ctx, req)
}

func (ls *logService) Info(ctx context.Context, walletAddress string) (*user.User, error) {
	return ls.svc.Info(ctx, walletAddress)
}

func (ls *logService) SetViewingKeys(ctx context.Context, walletAddress string, req *user.SetKeysRequest) (err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Warn("SetViewingKeys failed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("SetViewingKeys completed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	return ls.svc.SetViewingKeys(ctx, walletAddress, req)
}

func (ls *logService) AuthorizeSpend(ctx context.Context, walletAddress string) (allowed bool, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Warn("AuthorizeSpend failed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("AuthorizeSpend completed",
				zap.String("service", serviceName),
				zap.String("wallet", walletAddress),
				zap.Bool("allowed", allowed),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.AuthorizeSpend(ctx, walletAddress)
}

func (ls *logService) AgentAddress() string {
	return ls.svc.AgentAddress()
}

// redactSignature redacts signature data to show only metadata
func redactSignature(sig string) string {
	if sig == "" {
		return "<empty>"
	}
	sigLen := len(sig)
	if sigLen > signatureDisplaySize {
		return fmt.Sprintf("%s...%s (%d bytes)", sig[:8], sig[sigLen-4:], sigLen)
	}
	return fmt.Sprintf("<%d bytes>", sigLen)
}

// Package service implements the user-facing account operations: login,
// profile, viewing keys, and the spend-allowance check.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/internal/metrics"
	apperrors "github.com/scrtlabs/trading-middleware/pkg/app/errors"
	"github.com/scrtlabs/trading-middleware/pkg/auth"
	"github.com/scrtlabs/trading-middleware/pkg/config"
	"github.com/scrtlabs/trading-middleware/pkg/user"
	"github.com/scrtlabs/trading-middleware/pkg/userstore"
)

var timestampPattern = regexp.MustCompile(`Timestamp: (\d+)`)

var (
	ErrStaleTimestamp  = errors.New("message timestamp is too old")
	ErrFutureTimestamp = errors.New("message timestamp is from the future")
)

// Agent is the subset of agent operations the user service needs
type Agent interface {
	EnsureUser(ctx context.Context, walletAddress string) (*user.User, error)
	GetUser(ctx context.Context, walletAddress string) (*user.User, error)
	SetViewingKeys(ctx context.Context, walletAddress, sscrtKey, susdcKey string) error
	CheckAllowedToSpend(ctx context.Context, walletAddress string) (bool, error)
	Address() string
}

// Service defines the interface for the user business logic
type Service interface {
	Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error)
	Info(ctx context.Context, walletAddress string) (*user.User, error)
	SetViewingKeys(ctx context.Context, walletAddress string, req *user.SetKeysRequest) error
	AuthorizeSpend(ctx context.Context, walletAddress string) (bool, error)
	AgentAddress() string
}

type userService struct {
	agent    Agent
	tokens   *auth.Manager
	cfg      *config.AuthConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a new user service
func NewService(agent Agent, tokens *auth.Manager, cfg *config.AuthConfig, logger *zap.Logger) Service {
	return &userService{
		agent:    agent,
		tokens:   tokens,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}
}

// Login verifies a Keplr signArbitrary login and issues a session token. The
// user row is created on first login.
func (s *userService) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.BadRequestError(err, "Missing required fields: walletAddress, message, signature")
	}

	if err := auth.ValidateAddress(req.WalletAddress); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.BadRequestError(err, "Invalid Secret Network wallet address")
	}

	if err := s.checkTimestamp(req.Message); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		switch {
		case errors.Is(err, ErrStaleTimestamp):
			return nil, apperrors.BadRequestError(err, "Message timestamp is too old")
		case errors.Is(err, ErrFutureTimestamp):
			return nil, apperrors.BadRequestError(err, "Message timestamp is from the future")
		default:
			return nil, apperrors.BadRequestError(err, "Invalid message format: missing timestamp")
		}
	}

	if !containsWallet(req.Message, req.WalletAddress) {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.BadRequestError(nil, "Wallet address mismatch in message")
	}

	sig, pubKey, err := auth.DecodeSignature(req.Signature)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return nil, apperrors.UnAuthorizedError(err, "Invalid signature format")
	}

	if s.cfg.SkipSignatureVerify {
		s.logger.Warn("signature verification skipped (development mode)",
			zap.String("wallet", req.WalletAddress))
	} else {
		if pubKey == nil {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			return nil, apperrors.UnAuthorizedError(nil, "Signature verification failed: missing public key")
		}
		if err := auth.VerifyArbitrarySignature(req.WalletAddress, req.Message, sig, pubKey); err != nil {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			return nil, apperrors.UnAuthorizedError(err, "Signature verification failed")
		}
	}

	usr, err := s.agent.EnsureUser(ctx, req.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(req.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return &user.LoginResponse{
		User:          usr,
		Token:         token,
		WalletAddress: req.WalletAddress,
		ExpiresIn:     formatTTL(s.tokens.TTL()),
	}, nil
}

// Info returns the user row for the authenticated wallet. A valid token
// whose row is missing (e.g. after a database reset) recreates it instead
// of failing.
func (s *userService) Info(ctx context.Context, walletAddress string) (*user.User, error) {
	usr, err := s.agent.GetUser(ctx, walletAddress)
	if errors.Is(err, userstore.ErrUserNotFound) {
		s.logger.Info("recreating missing user row for valid session",
			zap.String("wallet", walletAddress))
		usr, err = s.agent.EnsureUser(ctx, walletAddress)
	}
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, "User not found")
	}
	return usr, nil
}

func (s *userService) SetViewingKeys(ctx context.Context, walletAddress string, req *user.SetKeysRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.BadRequestError(err, "Missing required fields: sscrt_key, susdc_key")
	}
	if err := s.agent.SetViewingKeys(ctx, walletAddress, req.SscrtKey, req.SusdcKey); err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return apperrors.ResourceNotFoundError(err, "User not found")
		}
		return fmt.Errorf("failed to set viewing keys: %w", err)
	}
	return nil
}

// AuthorizeSpend checks on-chain allowances and persists the flags. Any
// failure surfaces as a bad request with the underlying reason.
func (s *userService) AuthorizeSpend(ctx context.Context, walletAddress string) (bool, error) {
	allowed, err := s.agent.CheckAllowedToSpend(ctx, walletAddress)
	if err != nil {
		return false, apperrors.BadRequestError(err, fmt.Sprintf("Allowance check failed: %v", err))
	}
	if !allowed {
		return false, apperrors.BadRequestError(nil, "Spend allowances are not granted for both tokens")
	}
	return true, nil
}

func (s *userService) AgentAddress() string {
	return s.agent.Address()
}

// checkTimestamp extracts the millisecond timestamp from the login message
// and validates it against the configured freshness window.
func (s *userService) checkTimestamp(message string) error {
	match := timestampPattern.FindStringSubmatch(message)
	if match == nil {
		return errors.New("missing timestamp")
	}
	ts, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp: %w", err)
	}

	age := time.Since(time.UnixMilli(ts))
	if age > s.cfg.LoginMaxAge {
		return ErrStaleTimestamp
	}
	if age < -s.cfg.LoginMaxClockSkew {
		return ErrFutureTimestamp
	}
	return nil
}

func containsWallet(message, walletAddress string) bool {
	return walletAddress != "" && strings.Contains(message, walletAddress)
}

// formatTTL renders a duration the way clients expect: "1h", "30m", "90s"
func formatTTL(ttl time.Duration) string {
	switch {
	case ttl%time.Hour == 0:
		return fmt.Sprintf("%dh", int(ttl.Hours()))
	case ttl%time.Minute == 0:
		return fmt.Sprintf("%dm", int(ttl.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(ttl.Seconds()))
	}
}

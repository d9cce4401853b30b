// Package service implements the chat operations: conversation turns,
// history retrieval, and history clearing.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/scrtlabs/trading-middleware/pkg/app/errors"
	"github.com/scrtlabs/trading-middleware/pkg/memory"
)

// Agent is the subset of agent operations the chat service needs
type Agent interface {
	Chat(ctx context.Context, walletAddress, message string) (string, error)
	History(ctx context.Context, walletAddress string) ([]*memory.Entry, error)
	ClearHistory(ctx context.Context, walletAddress string) error
}

// Turn is one completed exchange returned from Send
type Turn struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}

// Service defines the interface for the chat business logic
type Service interface {
	Send(ctx context.Context, walletAddress, message string) (*Turn, error)
	History(ctx context.Context, walletAddress string) ([]*memory.Entry, error)
	Clear(ctx context.Context, walletAddress string) error
}

type chatService struct {
	agent  Agent
	logger *zap.Logger
}

// NewService creates a new chat service
func NewService(agent Agent, logger *zap.Logger) Service {
	return &chatService{
		agent:  agent,
		logger: logger,
	}
}

func (s *chatService) Send(ctx context.Context, walletAddress, message string) (*Turn, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.BadRequestError(nil, "Message is required")
	}

	response, err := s.agent.Chat(ctx, walletAddress, message)
	if err != nil {
		return nil, err
	}

	return &Turn{Message: message, Response: response}, nil
}

func (s *chatService) History(ctx context.Context, walletAddress string) ([]*memory.Entry, error) {
	return s.agent.History(ctx, walletAddress)
}

func (s *chatService) Clear(ctx context.Context, walletAddress string) error {
	return s.agent.ClearHistory(ctx, walletAddress)
}

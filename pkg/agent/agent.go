// Package agent implements the trading agent: chat orchestration, consent
// detection, and swap execution on behalf of convinced users.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/internal/metrics"
	"github.com/scrtlabs/trading-middleware/pkg/memory"
	"github.com/scrtlabs/trading-middleware/pkg/secret"
	"github.com/scrtlabs/trading-middleware/pkg/secretai"
	"github.com/scrtlabs/trading-middleware/pkg/shade"
	"github.com/scrtlabs/trading-middleware/pkg/user"
	"github.com/scrtlabs/trading-middleware/pkg/userstore"
)

// SystemPrompt frames every conversation with the model
const SystemPrompt = "You are my $SCRT trading agent. You must convince me to let you trade USDC for SCRT."

// ChainClient is the subset of the LCD client the agent needs
type ChainClient interface {
	Execute(ctx context.Context, wallet *secret.Wallet, exec *secret.ExecuteMsg) (*secret.TxResponse, error)
	GetTx(ctx context.Context, hash string) (*secret.TxResponse, error)
	Snip20Allowance(ctx context.Context, contract, owner, spender, viewingKey string) (decimal.Decimal, error)
}

// Config holds the agent's tunables
type Config struct {
	BuyAmountUsdc     string
	ConfirmationDelay time.Duration
}

// Agent orchestrates conversations and trades. All dependencies are
// injected; the agent holds no ambient state beyond the per-wallet locks.
type Agent struct {
	store      userstore.Store
	memory     memory.Store
	chain      ChainClient
	wallet     *secret.Wallet
	llm        secretai.Chatter
	classifier Classifier
	kanye      *KanyeClient
	logger     *zap.Logger

	buyAmountUsdc     string
	confirmationDelay time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an agent. llm may be nil when inference is optional; chat
// then degrades to the error reply until it is available.
func New(
	store userstore.Store,
	mem memory.Store,
	chain ChainClient,
	wallet *secret.Wallet,
	llm secretai.Chatter,
	classifier Classifier,
	kanye *KanyeClient,
	cfg Config,
	logger *zap.Logger,
) *Agent {
	if classifier == nil {
		classifier = NewPhraseClassifier()
	}
	if kanye == nil {
		kanye = NewKanyeClient("")
	}
	return &Agent{
		store:             store,
		memory:            mem,
		chain:             chain,
		wallet:            wallet,
		llm:               llm,
		classifier:        classifier,
		kanye:             kanye,
		logger:            logger,
		buyAmountUsdc:     cfg.BuyAmountUsdc,
		confirmationDelay: cfg.ConfirmationDelay,
		locks:             make(map[string]*sync.Mutex),
	}
}

// walletLock returns the mutex serializing consent and trade execution for
// one wallet. Concurrent consents must not broadcast two swaps.
func (a *Agent) walletLock(walletAddress string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[walletAddress]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[walletAddress] = lock
	}
	return lock
}

// Address returns the agent's own account address
func (a *Agent) Address() string {
	return a.wallet.Address()
}

// EnsureUser creates the user row if missing and returns it
func (a *Agent) EnsureUser(ctx context.Context, walletAddress string) (*user.User, error) {
	return a.store.EnsureUser(ctx, walletAddress)
}

// GetUser returns the user row for a wallet
func (a *Agent) GetUser(ctx context.Context, walletAddress string) (*user.User, error) {
	return a.store.GetUser(ctx, walletAddress)
}

// SetViewingKeys stores the user's SNIP-20 viewing keys
func (a *Agent) SetViewingKeys(ctx context.Context, walletAddress, sscrtKey, susdcKey string) error {
	return a.store.SetViewingKeys(ctx, walletAddress, sscrtKey, susdcKey)
}

// Chat processes one conversation turn and returns the agent's reply. The
// turn is persisted on every path, including degraded ones.
func (a *Agent) Chat(ctx context.Context, walletAddress, message string) (string, error) {
	if _, err := a.store.EnsureUser(ctx, walletAddress); err != nil {
		return "", err
	}

	intent := a.classifier.Classify(message)
	metrics.ChatMessagesTotal.WithLabelValues(intent.String()).Inc()

	if intent == IntentConsent {
		return a.consent(ctx, walletAddress, message)
	}

	response := a.converse(ctx, walletAddress, message)

	if intent == IntentKanye {
		quote := a.kanye.Quote(ctx)
		response += fmt.Sprintf("\n\nKanye says: %q", quote)
	}

	if err := a.persistTurn(ctx, walletAddress, message, response); err != nil {
		return "", err
	}
	return response, nil
}

// consent handles the consent phrase: mark the wallet convinced and run the
// trade, all under the wallet's lock so a second consent waits and then
// sees the traded state.
func (a *Agent) consent(ctx context.Context, walletAddress, message string) (string, error) {
	lock := a.walletLock(walletAddress)
	lock.Lock()
	defer lock.Unlock()

	if err := a.store.MarkConvinced(ctx, walletAddress); err != nil {
		return "", err
	}

	result, err := a.Trade(ctx, walletAddress)
	if err != nil {
		return "", err
	}

	response := "I have convinced you to trade. Here is the result of the trade:\n\n" + formatTradeResult(result)
	if err := a.persistTurn(ctx, walletAddress, message, response); err != nil {
		return "", err
	}
	return response, nil
}

// converse runs a regular turn through the model. Inference failures
// degrade to an apology reply; the turn is still persisted by the caller.
func (a *Agent) converse(ctx context.Context, walletAddress, message string) string {
	if a.llm == nil {
		return "Error: AI Agent is not fully initialized."
	}

	history, err := a.memory.History(ctx, walletAddress)
	if err != nil {
		a.logger.Warn("failed to load history, starting fresh",
			zap.String("wallet", walletAddress),
			zap.Error(err))
	}

	messages := make([]secretai.Message, 0, len(history)+2)
	messages = append(messages, secretai.Message{Role: memory.RoleSystem, Content: SystemPrompt})
	for _, entry := range history {
		messages = append(messages, secretai.Message{Role: entry.Role, Content: entry.Content})
	}
	messages = append(messages, secretai.Message{Role: memory.RoleUser, Content: message})

	start := time.Now()
	response, err := a.llm.Chat(ctx, messages)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.logger.Error("inference failed",
			zap.String("wallet", walletAddress),
			zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("agent", "inference").Inc()
		return fmt.Sprintf("Sorry, I encountered an error: %s", err.Error())
	}
	return response
}

func (a *Agent) persistTurn(ctx context.Context, walletAddress, message, response string) error {
	err := a.memory.Append(ctx, &memory.Entry{
		WalletAddress: walletAddress,
		Role:          memory.RoleUser,
		Content:       message,
	})
	if err != nil {
		return err
	}
	return a.memory.Append(ctx, &memory.Entry{
		WalletAddress: walletAddress,
		Role:          memory.RoleAssistant,
		Content:       response,
	})
}

// History returns the wallet's conversation, oldest first
func (a *Agent) History(ctx context.Context, walletAddress string) ([]*memory.Entry, error) {
	return a.memory.History(ctx, walletAddress)
}

// ClearHistory wipes the local conversation. Mirror snapshots are immutable
// and survive; they are superseded by the next write.
func (a *Agent) ClearHistory(ctx context.Context, walletAddress string) error {
	a.logger.Info("clearing conversation history",
		zap.String("wallet", walletAddress))
	return a.memory.Clear(ctx, walletAddress)
}

// CheckAllowedToSpend verifies the agent holds positive send_from
// allowances on both tokens and persists the flags when it does. Query
// errors propagate; nothing is persisted partially.
func (a *Agent) CheckAllowedToSpend(ctx context.Context, walletAddress string) (bool, error) {
	usr, err := a.store.GetUser(ctx, walletAddress)
	if err != nil {
		return false, err
	}

	sscrtKey, susdcKey := "", ""
	if usr.SscrtKey != nil {
		sscrtKey = *usr.SscrtKey
	}
	if usr.SusdcKey != nil {
		susdcKey = *usr.SusdcKey
	}

	sscrtAllowance, err := a.chain.Snip20Allowance(ctx, shade.SscrtAddress, walletAddress, a.wallet.Address(), sscrtKey)
	if err != nil {
		return false, fmt.Errorf("sSCRT allowance check failed: %w", err)
	}
	susdcAllowance, err := a.chain.Snip20Allowance(ctx, shade.SusdcAddress, walletAddress, a.wallet.Address(), susdcKey)
	if err != nil {
		return false, fmt.Errorf("sUSDC allowance check failed: %w", err)
	}

	if !sscrtAllowance.IsPositive() || !susdcAllowance.IsPositive() {
		return false, nil
	}

	if err := a.store.SetAllowedToSpend(ctx, walletAddress); err != nil {
		return false, err
	}
	return true, nil
}

// TradingState reports the wallet's current state
func (a *Agent) TradingState(ctx context.Context, walletAddress string) (user.TradingState, error) {
	return a.store.TradingState(ctx, walletAddress)
}

// Package api implements app.Runner for the API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/pkg/agent"
	apphttp "github.com/scrtlabs/trading-middleware/pkg/app/http"
	"github.com/scrtlabs/trading-middleware/pkg/arweave"
	"github.com/scrtlabs/trading-middleware/pkg/auth"
	chatservice "github.com/scrtlabs/trading-middleware/pkg/chat/service"
	"github.com/scrtlabs/trading-middleware/pkg/config"
	"github.com/scrtlabs/trading-middleware/pkg/dbutil"
	"github.com/scrtlabs/trading-middleware/pkg/memory"
	"github.com/scrtlabs/trading-middleware/pkg/migrations/agentdb"
	"github.com/scrtlabs/trading-middleware/pkg/secret"
	"github.com/scrtlabs/trading-middleware/pkg/secretai"
	userservice "github.com/scrtlabs/trading-middleware/pkg/user/service"
	"github.com/scrtlabs/trading-middleware/pkg/userstore"
)

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting trading agent API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := dbutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// The sqlite backend is a local file; migrate it in-process so a fresh
	// checkout runs without the migrate binary. Postgres stays explicit.
	if cfg.Database.Driver == config.DriverSqlite {
		if err := migrateSqlite(ctx, db, logger); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}

	wallet, err := s.openWallet()
	if err != nil {
		return err
	}
	logger.Info("Agent wallet loaded", zap.String("address", wallet.Address()))

	tokens, err := s.openTokenManager()
	if err != nil {
		return err
	}

	lcd := secret.NewClient(&cfg.Secret, secret.WithLogger(logger))

	resolver, err := s.openMemory(db, logger)
	if err != nil {
		return err
	}

	llm := s.openLLM(ctx, lcd, logger)
	if llm == nil && cfg.SecretAI.Required {
		return fmt.Errorf("secret ai initialization failed and secret_ai.required is set")
	}

	userStore := userstore.NewStore(db)

	tradingAgent := agent.New(
		userStore,
		resolver,
		lcd,
		wallet,
		llm,
		agent.NewPhraseClassifier(),
		agent.NewKanyeClient(""),
		agent.Config{
			BuyAmountUsdc:     cfg.Trading.BuyAmountUsdc,
			ConfirmationDelay: cfg.Secret.ConfirmationDelay,
		},
		logger,
	)

	userSvc := userservice.NewLog(
		userservice.NewService(tradingAgent, tokens, &cfg.Auth, logger),
		logger,
	)
	chatSvc := chatservice.NewLog(
		chatservice.NewService(tradingAgent, logger),
		logger,
	)

	router := s.setupRouter(userSvc, chatSvc, tokens)

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

func (s *Server) openWallet() (*secret.Wallet, error) {
	keyHex := os.Getenv(s.cfg.Secret.AgentKeyEnv)
	if keyHex == "" {
		return nil, fmt.Errorf("agent private key not set: env=%s", s.cfg.Secret.AgentKeyEnv)
	}
	wallet, err := secret.NewWalletFromHex(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid agent private key: %w", err)
	}
	return wallet, nil
}

func (s *Server) openTokenManager() (*auth.Manager, error) {
	jwtSecret := os.Getenv(s.cfg.Auth.JWTSecretEnv)
	if jwtSecret == "" {
		return nil, fmt.Errorf("jwt secret not set: env=%s (hint: openssl rand -base64 32)", s.cfg.Auth.JWTSecretEnv)
	}
	return auth.NewManager([]byte(jwtSecret), s.cfg.Auth.TokenTTL), nil
}

// openMemory wires the conversation store and, when enabled, the Arweave
// mirror behind the resolver.
func (s *Server) openMemory(db *bun.DB, logger *zap.Logger) (*memory.Resolver, error) {
	convStore := memory.NewStore(db)

	var mirror memory.Mirror
	if s.cfg.Arweave.Enabled {
		keyHex := os.Getenv(s.cfg.Arweave.PrivateKeyEnv)
		if keyHex == "" {
			return nil, fmt.Errorf("arweave key not set: env=%s (set arweave.enabled=false to run without the mirror)", s.cfg.Arweave.PrivateKeyEnv)
		}
		client, err := arweave.NewClient(arweave.ClientConfig{
			GatewayURL:     s.cfg.Arweave.GatewayURL,
			AppName:        s.cfg.Arweave.AppName,
			PrivateKeyHex:  keyHex,
			TimeoutSeconds: int(s.cfg.Arweave.RequestTimeout.Seconds()),
			PageLimit:      s.cfg.Arweave.PageLimit,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create arweave client: %w", err)
		}
		mirror = client
		logger.Info("Memory mirror enabled", zap.String("gateway", s.cfg.Arweave.GatewayURL))
	} else {
		logger.Info("Memory mirror disabled")
	}

	return memory.NewResolver(convStore, mirror, logger), nil
}

// openLLM discovers the inference endpoint and builds the chat client.
// Failures return nil; the caller decides whether that is fatal.
func (s *Server) openLLM(ctx context.Context, lcd *secret.Client, logger *zap.Logger) secretai.Chatter {
	cfg := s.cfg.SecretAI

	model, baseURL := cfg.Model, cfg.BaseURL
	if baseURL == "" {
		var err error
		model, baseURL, err = secretai.Discover(ctx, lcd, cfg.WorkerContract, cfg.Model)
		if err != nil {
			logger.Error("Secret AI discovery failed", zap.Error(err))
			return nil
		}
		logger.Info("Secret AI endpoint discovered",
			zap.String("model", model),
			zap.String("base_url", baseURL))
	}

	llm, err := secretai.NewClient(secretai.ClientConfig{
		BaseURL:        baseURL,
		APIKey:         os.Getenv(cfg.APIKeyEnv),
		Model:          model,
		Temperature:    cfg.Temperature,
		TimeoutSeconds: int(cfg.RequestTimeout.Seconds()),
	})
	if err != nil {
		logger.Error("Secret AI client creation failed", zap.Error(err))
		return nil
	}
	return llm
}

func migrateSqlite(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	migrator := migrate.NewMigrator(db, agentdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if !group.IsZero() {
		logger.Info("Applied migrations", zap.String("group", group.String()))
	}
	return nil
}

func (s *Server) setupRouter(
	userSvc userservice.Service,
	chatSvc chatservice.Service,
	tokens *auth.Manager,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	requireAuth := auth.RequireAuth(tokens)
	userservice.NewHandler(userSvc).Routes(r, requireAuth)
	chatservice.NewHandler(chatSvc).Routes(r, requireAuth)

	return r
}

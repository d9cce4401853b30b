package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the API server configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Secret     SecretConfig     `mapstructure:"secret"`
	SecretAI   SecretAIConfig   `mapstructure:"secret_ai"`
	Arweave    ArweaveConfig    `mapstructure:"arweave"`
	Trading    TradingConfig    `mapstructure:"trading"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Supported database drivers
const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig contains database connection settings.
// Driver selects the backend: "sqlite" (local file) or "postgres" (hosted,
// e.g. Supabase). The two are interchangeable contracts; sqlite is the
// default for local development.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"` // sqlite only
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// AuthConfig contains session token and login verification settings
type AuthConfig struct {
	JWTSecretEnv        string        `mapstructure:"jwt_secret_env"`
	TokenTTL            time.Duration `mapstructure:"token_ttl"`
	LoginMaxAge         time.Duration `mapstructure:"login_max_age"`
	LoginMaxClockSkew   time.Duration `mapstructure:"login_max_clock_skew"`
	SkipSignatureVerify bool          `mapstructure:"skip_signature_verify"`
}

// SecretConfig contains Secret Network LCD client settings
type SecretConfig struct {
	LCDURL            string        `mapstructure:"lcd_url"`
	ChainID           string        `mapstructure:"chain_id"`
	AgentKeyEnv       string        `mapstructure:"agent_key_env"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	GasLimit          uint64        `mapstructure:"gas_limit"`
	GasPrice          float64       `mapstructure:"gas_price"`
	FeeDenom          string        `mapstructure:"fee_denom"`
	ConfirmationDelay time.Duration `mapstructure:"confirmation_delay"`
}

// SecretAIConfig contains Secret AI inference settings. When base_url and
// model are set, endpoint discovery through the worker contract is skipped.
type SecretAIConfig struct {
	APIKeyEnv      string        `mapstructure:"api_key_env"`
	WorkerContract string        `mapstructure:"worker_contract"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	Temperature    float64       `mapstructure:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Required       bool          `mapstructure:"required"`
}

// ArweaveConfig contains decentralized memory mirror settings
type ArweaveConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	GatewayURL     string        `mapstructure:"gateway_url"`
	AppName        string        `mapstructure:"app_name"`
	PrivateKeyEnv  string        `mapstructure:"private_key_env"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PageLimit      int           `mapstructure:"page_limit"`
}

// TradingConfig contains swap execution settings
type TradingConfig struct {
	BuyAmountUsdc string `mapstructure:"buy_amount_usdc"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.request_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "trading-agent.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "trading_agent")

	// Auth defaults
	viper.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	viper.SetDefault("auth.token_ttl", "1h")
	viper.SetDefault("auth.login_max_age", "5m")
	viper.SetDefault("auth.login_max_clock_skew", "1m")
	viper.SetDefault("auth.skip_signature_verify", false)

	// Secret Network defaults
	viper.SetDefault("secret.lcd_url", "https://rpc.ankr.com/http/scrt_cosmos")
	viper.SetDefault("secret.chain_id", "secret-4")
	viper.SetDefault("secret.agent_key_env", "AGENT_PRIVATE_KEY")
	viper.SetDefault("secret.request_timeout", "30s")
	viper.SetDefault("secret.gas_limit", 3_500_000)
	viper.SetDefault("secret.gas_price", 0.1)
	viper.SetDefault("secret.fee_denom", "uscrt")
	viper.SetDefault("secret.confirmation_delay", "8s")

	// Secret AI defaults
	viper.SetDefault("secret_ai.api_key_env", "SECRET_AI_API_KEY")
	viper.SetDefault("secret_ai.temperature", 1.0)
	viper.SetDefault("secret_ai.request_timeout", "120s")
	viper.SetDefault("secret_ai.required", true)

	// Arweave mirror defaults
	viper.SetDefault("arweave.enabled", true)
	viper.SetDefault("arweave.app_name", "secret-trading-agent")
	viper.SetDefault("arweave.private_key_env", "ARWEAVE_PRIVATE_KEY")
	viper.SetDefault("arweave.request_timeout", "30s")
	viper.SetDefault("arweave.page_limit", 1000)

	// Trading defaults (300000 uusdc = 0.3 USDC at 6 decimals)
	viper.SetDefault("trading.buy_amount_usdc", "300000")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	switch config.Database.Driver {
	case DriverSqlite:
		if config.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver: %q", config.Database.Driver)
	}
	if config.Secret.LCDURL == "" {
		return fmt.Errorf("secret.lcd_url is required")
	}
	if config.Secret.ChainID == "" {
		return fmt.Errorf("secret.chain_id is required")
	}
	if config.SecretAI.WorkerContract == "" && config.SecretAI.BaseURL == "" {
		return fmt.Errorf("secret_ai.worker_contract or secret_ai.base_url is required")
	}
	if config.Arweave.Enabled && config.Arweave.GatewayURL == "" {
		return fmt.Errorf("arweave.gateway_url is required when the mirror is enabled")
	}
	return nil
}

// DSN returns a PostgreSQL connection string for the hosted backend
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// defaultTxTimeout matches the transactor fallback for an unset tx_timeout
const defaultTxTimeout = 2 * time.Minute

// Config holds all configuration for our application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Blockchain   BlockchainConfig   `mapstructure:"blockchain"`
	Limits       LimitsConfig       `mapstructure:"limits"`
	Recipients   RecipientsConfig   `mapstructure:"recipients"`
	Reconciler   ReconcilerConfig   `mapstructure:"reconciler"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	AWS          AWSConfig          `mapstructure:"aws"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration. History and error logs are
// only kept when Enabled is set.
type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// BlockchainConfig holds blockchain configuration
type BlockchainConfig struct {
	Ethereum EthereumConfig `mapstructure:"ethereum"`
}

// EthereumConfig holds Ethereum specific configuration
type EthereumConfig struct {
	RpcURL  string `mapstructure:"rpc_url"`
	ChainID int64  `mapstructure:"chain_id"`
	// PrivateKey is the hex admin key. When empty the key is loaded from AWS.
	PrivateKey string `mapstructure:"private_key"`

	CollectContract  string `mapstructure:"collect_contract"`
	DisperseContract string `mapstructure:"disperse_contract"`
	TokenContract    string `mapstructure:"token_contract"`
	Receiver         string `mapstructure:"receiver"`

	// CollectSenders are the token holders of an ERC20 collect, in order.
	// Senders with a key in SenderKeys are approved automatically.
	CollectSenders []string `mapstructure:"collect_senders"`
	SenderKeys     []string `mapstructure:"sender_keys"`

	PrefundWithdrawals bool          `mapstructure:"prefund_withdrawals"`
	BootstrapRegistry  bool          `mapstructure:"bootstrap_registry"`
	ApprovalAmount     string        `mapstructure:"approval_amount"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	TxTimeout          time.Duration `mapstructure:"tx_timeout"`
	StuckAfter         time.Duration `mapstructure:"stuck_after"`
}

// LimitsConfig holds the value count ceiling of every route
type LimitsConfig struct {
	CollectEth    int `mapstructure:"collect_eth"`
	CollectERC20  int `mapstructure:"collect_erc20"`
	DisperseEth   int `mapstructure:"disperse_eth"`
	DisperseERC20 int `mapstructure:"disperse_erc20"`
}

// MaxValues returns the ceiling configured for route
func (l LimitsConfig) MaxValues(route entities.Route) int {
	switch route {
	case entities.RouteCollectEth:
		return l.CollectEth
	case entities.RouteCollectERC20:
		return l.CollectERC20
	case entities.RouteDisperseEth:
		return l.DisperseEth
	case entities.RouteDisperseERC20:
		return l.DisperseERC20
	}
	return 0
}

// Recipient generators
const (
	GeneratorRandom = "random"
	GeneratorSeeded = "seeded"
)

// RecipientsConfig selects the disperse address generator
type RecipientsConfig struct {
	Generator string `mapstructure:"generator"`
	Seed      string `mapstructure:"seed"`
	Salt      string `mapstructure:"salt"`
}

// ReconcilerConfig holds settlement reconciler configuration
type ReconcilerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Schedule   string        `mapstructure:"schedule"`
	BatchSize  int           `mapstructure:"batch_size"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// NotificationConfig holds notification configuration
type NotificationConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram specific configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region   string `mapstructure:"region"`
	SecretID string `mapstructure:"secret_id"`
	KeyAlias string `mapstructure:"key_alias"`
}

// LoadConfig loads configuration from YAML file or environment variables
func LoadConfig() *Config {
	// Try to load from YAML file first
	if config, err := LoadConfigFromYAML(getEnv("APP_ENV", "dev"), "./configs", "../configs", "../../configs"); err == nil {
		return config
	}

	// Fallback to environment variables
	return LoadConfigFromEnv()
}

// LoadConfigFromYAML loads configs/config.<env>.yaml from the first path that has it
func LoadConfigFromYAML(env string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config." + env)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	// Override with environment variables if they exist
	overrideWithEnvVars(&config)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("blockchain.ethereum.poll_interval", "1s")
	v.SetDefault("blockchain.ethereum.tx_timeout", "2m")
	v.SetDefault("blockchain.ethereum.stuck_after", "30s")
	v.SetDefault("limits.collect_eth", 5)
	v.SetDefault("limits.collect_erc20", 2)
	v.SetDefault("limits.disperse_eth", 100)
	v.SetDefault("limits.disperse_erc20", 100)
	v.SetDefault("recipients.generator", GeneratorRandom)
	v.SetDefault("reconciler.schedule", "*/30 * * * * *")
	v.SetDefault("reconciler.batch_size", 100)
	v.SetDefault("reconciler.stale_after", "15m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// overrideWithEnvVars overrides config values with environment variables if they exist
func overrideWithEnvVars(config *Config) {
	// secrets never live in the YAML file
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if key := os.Getenv("ETHEREUM_PRIVATE_KEY"); key != "" {
		config.Blockchain.Ethereum.PrivateKey = key
	}
	if keys := os.Getenv("ETHEREUM_SENDER_KEYS"); keys != "" {
		config.Blockchain.Ethereum.SenderKeys = splitList(keys)
	}
	if url := os.Getenv("ETHEREUM_RPC_URL"); url != "" {
		config.Blockchain.Ethereum.RpcURL = url
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Notification.Telegram.BotToken = token
	}
	if group := os.Getenv("TELEGRAM_BOT_MESSAGE_GROUP"); group != "" {
		config.Notification.Telegram.ChatID = group
	}
	if seed := os.Getenv("RECIPIENT_SEED"); seed != "" {
		config.Recipients.Seed = seed
	}
}

// LoadConfigFromEnv loads configuration from environment variables
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     splitList(getEnv("SERVER_CORS_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", false),
			Host:         getEnv("DB_URL", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "password"),
			Database:     getEnv("DB_DATABASE", "settlement"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Blockchain: BlockchainConfig{
			Ethereum: EthereumConfig{
				RpcURL:             getEnv("ETHEREUM_RPC_URL", ""),
				ChainID:            int64(getEnvAsInt("ETHEREUM_CHAIN_ID", 0)),
				PrivateKey:         getEnv("ETHEREUM_PRIVATE_KEY", ""),
				CollectContract:    getEnv("COLLECT_CONTRACT", ""),
				DisperseContract:   getEnv("DISPERSE_CONTRACT", ""),
				TokenContract:      getEnv("TOKEN_CONTRACT", ""),
				Receiver:           getEnv("COLLECT_RECEIVER", ""),
				CollectSenders:     splitList(getEnv("COLLECT_SENDERS", "")),
				SenderKeys:         splitList(getEnv("ETHEREUM_SENDER_KEYS", "")),
				PrefundWithdrawals: getEnvAsBool("PREFUND_WITHDRAWALS", false),
				BootstrapRegistry:  getEnvAsBool("BOOTSTRAP_REGISTRY", false),
				ApprovalAmount:     getEnv("APPROVAL_AMOUNT", ""),
				PollInterval:       getEnvAsDuration("TX_POLL_INTERVAL", time.Second),
				TxTimeout:          getEnvAsDuration("TX_TIMEOUT", defaultTxTimeout),
				StuckAfter:         getEnvAsDuration("TX_STUCK_AFTER", 30*time.Second),
			},
		},
		Limits: LimitsConfig{
			CollectEth:    getEnvAsInt("LIMIT_COLLECT_ETH", 5),
			CollectERC20:  getEnvAsInt("LIMIT_COLLECT_ERC20", 2),
			DisperseEth:   getEnvAsInt("LIMIT_DISPERSE_ETH", 100),
			DisperseERC20: getEnvAsInt("LIMIT_DISPERSE_ERC20", 100),
		},
		Recipients: RecipientsConfig{
			Generator: getEnv("RECIPIENT_GENERATOR", GeneratorRandom),
			Seed:      getEnv("RECIPIENT_SEED", ""),
			Salt:      getEnv("RECIPIENT_SALT", ""),
		},
		Reconciler: ReconcilerConfig{
			Enabled:    getEnvAsBool("RECONCILER_ENABLED", false),
			Schedule:   getEnv("RECONCILER_SCHEDULE", "*/30 * * * * *"),
			BatchSize:  getEnvAsInt("RECONCILER_BATCH_SIZE", 100),
			StaleAfter: getEnvAsDuration("RECONCILER_STALE_AFTER", 15*time.Minute),
		},
		Notification: NotificationConfig{
			Telegram: TelegramConfig{
				BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
				ChatID:   getEnv("TELEGRAM_BOT_MESSAGE_GROUP", ""),
			},
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Dir:    getEnv("LOG_DIR", ""),
		},
		AWS: AWSConfig{
			Region:   getEnv("AWS_REGION", ""),
			SecretID: getEnv("SECRETID", ""),
			KeyAlias: getEnv("KEYALIAS", ""),
		},
	}
}

// Validate reports configuration that cannot serve requests
func (c *Config) Validate() error {
	for _, route := range entities.AllRoutes {
		if c.Limits.MaxValues(route) <= 0 {
			return errors.Errorf("limit for %s must be positive", route)
		}
	}

	switch c.Recipients.Generator {
	case GeneratorRandom:
	case GeneratorSeeded:
		if c.Recipients.Seed == "" {
			return errors.New("recipients.seed is required for the seeded generator")
		}
	default:
		return errors.Errorf("unknown recipient generator %q", c.Recipients.Generator)
	}

	if c.Blockchain.Ethereum.RpcURL == "" {
		return errors.New("blockchain.ethereum.rpc_url is required")
	}
	if c.Blockchain.Ethereum.PrivateKey == "" && c.AWS.SecretID == "" {
		return errors.New("either blockchain.ethereum.private_key or aws.secret_id is required")
	}
	if c.Reconciler.Enabled && !c.Database.Enabled {
		return errors.New("reconciler requires the database")
	}
	if c.Reconciler.Enabled && c.Reconciler.StaleAfter > 0 {
		if longest := c.MaxSettlementDuration(); c.Reconciler.StaleAfter <= longest {
			return errors.Errorf("reconciler.stale_after %s must exceed the longest settlement %s", c.Reconciler.StaleAfter, longest)
		}
	}
	return nil
}

// MaxSettlementDuration is the longest a single settlement may wait for
// receipts: every transaction it sends can take up to tx_timeout.
func (c *Config) MaxSettlementDuration() time.Duration {
	txTimeout := c.Blockchain.Ethereum.TxTimeout
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}

	// disperse/erc20 sends one approval before the settlement
	txs := 2
	// one approval per collect/erc20 sender
	if n := c.Limits.CollectERC20 + 1; n > txs {
		txs = n
	}
	// one prefund per withdrawal contract
	if c.Blockchain.Ethereum.PrefundWithdrawals {
		if n := c.Limits.CollectEth + 1; n > txs {
			txs = n
		}
	}
	return time.Duration(txs) * txTimeout
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as integer with a fallback value
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// splitList splits a comma separated value, dropping empty items
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

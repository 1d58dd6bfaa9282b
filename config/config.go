package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig           `mapstructure:"server"`
	Database  DatabaseConfig         `mapstructure:"database"`
	Redis     RedisConfig            `mapstructure:"redis"`
	JWT       JWTConfig              `mapstructure:"jwt"`
	Log       LogConfig              `mapstructure:"log"`
	Storage   StorageConfig          `mapstructure:"storage"`
	Solver    SolverConfig           `mapstructure:"solver"`
	Hub       HubConfig              `mapstructure:"hub"`
	Chains    map[string]ChainConfig `mapstructure:"chains"`
	Signer    SignerConfig           `mapstructure:"signer"`
	Rebalance RebalanceConfig        `mapstructure:"rebalance"`
	Alerts    AlertsConfig           `mapstructure:"alerts"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
	// RateLimit is requests per minute per client on /api/v1; 0 disables it.
	RateLimit int64 `mapstructure:"rate_limit"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ApplicationName string        `mapstructure:"application_name"`
	// StatementTimeout bounds every query; 0 leaves the server default.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Enabled   bool   `mapstructure:"enabled"`
	// Timeout applies to dialing and to every command.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// StorageConfig selects the earmark/operation store.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, memory
}

// SolverConfig drives invoice matching.
type SolverConfig struct {
	OwnAddress      string        `mapstructure:"own_address"`
	Domains         []string      `mapstructure:"domains"` // priority order
	TopN            int           `mapstructure:"top_n"`
	MaxDestinations int           `mapstructure:"max_destinations"`
	MinInvoiceAge   time.Duration `mapstructure:"min_invoice_age"`
	GroupPolicy     string        `mapstructure:"group_policy"` // abort, continue
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PurchaseTTL     time.Duration `mapstructure:"purchase_ttl"`
	Assets          []AssetConfig `mapstructure:"assets"`
}

// AssetConfig describes one ticker.
type AssetConfig struct {
	Symbol        string            `mapstructure:"symbol"`
	TickerHash    string            `mapstructure:"ticker_hash"`
	Decimals      uint8             `mapstructure:"decimals"`
	Addresses     map[string]string `mapstructure:"addresses"` // domain -> token address
	XERC20Domains []string          `mapstructure:"xerc20_domains"`
}

// HubConfig points at the settlement hub API.
type HubConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChainConfig describes one domain's RPC endpoint and settlement spoke.
type ChainConfig struct {
	RPCURL       string `mapstructure:"rpc_url"`
	SpokeAddress string `mapstructure:"spoke_address"`
}

// SignerConfig holds the solver key and receipt polling settings.
type SignerConfig struct {
	PrivateKey          string        `mapstructure:"private_key"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
}

// RebalanceConfig drives earmarks, legs and the sweeper.
type RebalanceConfig struct {
	EarmarkTTL    time.Duration `mapstructure:"earmark_ttl"`
	InitiatingTTL time.Duration `mapstructure:"initiating_ttl"`
	OperationTTL  time.Duration `mapstructure:"operation_ttl"`
	Routes        []RouteConfig `mapstructure:"routes"`
}

// RouteConfig is one configured rebalance route. Amounts are normalized (18 decimals).
type RouteConfig struct {
	TickerHash  string      `mapstructure:"ticker_hash"`
	Origin      string      `mapstructure:"origin"`
	Destination string      `mapstructure:"destination"`
	Maximum     string      `mapstructure:"maximum"`
	Reserve     string      `mapstructure:"reserve"`
	SlippageBps uint64      `mapstructure:"slippage_bps"`
	Bridge      string      `mapstructure:"bridge"` // single-leg shorthand
	Legs        []LegConfig `mapstructure:"legs"`
}

// LegConfig is one hop; its origin is the previous hop's destination.
type LegConfig struct {
	Bridge      string `mapstructure:"bridge"`
	Destination string `mapstructure:"destination"`
}

// AlertsConfig points at the operator alert webhook. Empty URL disables alerts.
type AlertsConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Secret     string        `mapstructure:"secret"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SLV_.
// Nested keys use underscore: SLV_DATABASE_HOST, SLV_SIGNER_PRIVATE_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SLV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "rebalancer")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.application_name", "solver-rebalancer")
	v.SetDefault("database.statement_timeout", "15s")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "solver")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.timeout", "3s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "12h")
	v.SetDefault("jwt.issuer", "solver-rebalancer")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("solver.own_address", "")
	v.SetDefault("solver.domains", []string{})
	v.SetDefault("solver.top_n", 7)
	v.SetDefault("solver.max_destinations", 10)
	v.SetDefault("solver.min_invoice_age", "0s")
	v.SetDefault("solver.group_policy", GroupPolicyAbort)
	v.SetDefault("solver.poll_interval", "60s")
	v.SetDefault("solver.purchase_ttl", "10m")
	v.SetDefault("hub.base_url", "http://localhost:3000")
	v.SetDefault("hub.timeout", "10s")
	v.SetDefault("signer.private_key", "")
	v.SetDefault("signer.receipt_timeout", "3m")
	v.SetDefault("signer.receipt_poll_interval", "2s")
	v.SetDefault("rebalance.earmark_ttl", "24h")
	v.SetDefault("rebalance.initiating_ttl", "5m")
	v.SetDefault("rebalance.operation_ttl", "24h")
	v.SetDefault("alerts.webhook_url", "")
	v.SetDefault("alerts.secret", "")
	v.SetDefault("alerts.timeout", "10s")
}

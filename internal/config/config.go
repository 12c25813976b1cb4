// Package config exposes strongly typed deployment configuration loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// App captures process-wide runtime settings such as name, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Programs lists the on-chain programs the deployer targets.
type Programs struct {
	Exchange      string `yaml:"exchange"`
	Oracle        string `yaml:"oracle"`
	AuthoritySeed string `yaml:"authority_seed"`
}

// Exchange holds the static parameters passed to the exchange's init.
type Exchange struct {
	StakingRoundLength uint32 `yaml:"staking_round_length"`
	AmountPerRound     uint64 `yaml:"amount_per_round"`
}

// Collateral configures the collateral token and the feed created for it.
// An empty MintAuthority leaves minting to the admin.
type Collateral struct {
	Decimals      uint8  `yaml:"decimals"`
	FeedPrice     string `yaml:"feed_price"`
	FeedExpo      int32  `yaml:"feed_expo"`
	MintAuthority string `yaml:"mint_authority"`
}

// Poll controls how long the deployer waits for the exchange state to appear.
// MaxAttempts of zero retries until the context ends.
type Poll struct {
	Interval    time.Duration `yaml:"interval"`
	MaxInterval time.Duration `yaml:"max_interval"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Confirm controls transaction confirmation polling.
type Confirm struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Bootstrap groups orchestration knobs.
type Bootstrap struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
	Checkpoint  string        `yaml:"checkpoint"`
	Poll        Poll          `yaml:"poll"`
	Confirm     Confirm       `yaml:"confirm"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Network    Network    `yaml:"network"`
	Wallet     Wallet     `yaml:"wallet"`
	Programs   Programs   `yaml:"programs"`
	Exchange   Exchange   `yaml:"exchange"`
	Collateral Collateral `yaml:"collateral"`
	Bootstrap  Bootstrap  `yaml:"bootstrap"`
	// FeedExpo is the exponent used for feeds the deployer creates for manifest assets.
	FeedExpo int32   `yaml:"feed_expo"`
	Assets   []Asset `yaml:"assets"`
}

// Defaults returns the devnet deployment parameters.
func Defaults() *Config {
	return &Config{
		App: App{Name: "synthetify-deployer", LogLevel: "info"},
		Network: Network{
			RpcURL:        "https://api.devnet.solana.com",
			Commitment:    "confirmed",
			SkipPreflight: true,
		},
		Programs: Programs{AuthoritySeed: exchange.DefaultAuthoritySeed},
		Exchange: Exchange{
			StakingRoundLength: 100,
			AmountPerRound:     100 * 1_000_000,
		},
		Collateral: Collateral{Decimals: 6, FeedPrice: "2", FeedExpo: -6},
		Bootstrap: Bootstrap{
			Checkpoint: ".deployer/checkpoint.jsonl",
			Poll: Poll{
				Interval:    2 * time.Second,
				MaxInterval: 15 * time.Second,
				Multiplier:  1.5,
				MaxAttempts: 30,
			},
			Confirm: Confirm{Interval: 500 * time.Millisecond, Timeout: 60 * time.Second},
		},
		FeedExpo: -8,
	}
}

// Load reads a YAML file on top of Defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Defaults()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.ApplyEnv()
	return config, nil
}

// Save persists a Config struct to disk as YAML, as written by `deployer config init`.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv lets operators point the deployer at another cluster without editing the file.
func (c *Config) ApplyEnv() {
	c.Network.RpcURL = getEnv("SOLANA_RPC_URL", c.Network.RpcURL)
	c.Network.Commitment = getEnv("SOLANA_COMMITMENT", c.Network.Commitment)
}

// ExchangeProgram parses the exchange program id.
func (c *Config) ExchangeProgram() (solana.PublicKey, error) {
	return parseKey("programs.exchange", c.Programs.Exchange)
}

// OracleProgram parses the oracle program id.
func (c *Config) OracleProgram() (solana.PublicKey, error) {
	return parseKey("programs.oracle", c.Programs.Oracle)
}

// CollateralMintAuthority parses collateral.mint_authority. It returns the zero
// key when unset.
func (c *Config) CollateralMintAuthority() (solana.PublicKey, error) {
	if c.Collateral.MintAuthority == "" {
		return solana.PublicKey{}, nil
	}
	return parseKey("collateral.mint_authority", c.Collateral.MintAuthority)
}

// Validate checks every field the bootstrap depends on before any transaction is sent.
func (c *Config) Validate() error {
	var errs []error
	if c.Network.RpcURL == "" {
		errs = append(errs, errors.New("network.rpc_url is required"))
	}
	if _, err := c.Network.CommitmentType(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ExchangeProgram(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.OracleProgram(); err != nil {
		errs = append(errs, err)
	}
	if c.Programs.AuthoritySeed == "" {
		errs = append(errs, errors.New("programs.authority_seed is required"))
	}
	if c.Exchange.StakingRoundLength == 0 {
		errs = append(errs, errors.New("exchange.staking_round_length must be positive"))
	}
	if _, err := c.CollateralFeedPrice(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.CollateralMintAuthority(); err != nil {
		errs = append(errs, err)
	}
	if c.Bootstrap.Poll.Interval <= 0 {
		errs = append(errs, errors.New("bootstrap.poll.interval must be positive"))
	}
	if c.Bootstrap.Poll.MaxAttempts < 0 {
		errs = append(errs, errors.New("bootstrap.poll.max_attempts must not be negative"))
	}
	if c.Bootstrap.Confirm.Timeout <= 0 {
		errs = append(errs, errors.New("bootstrap.confirm.timeout must be positive"))
	}
	if _, err := c.Manifest(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func parseKey(field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", field)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: %w", field, err)
	}
	return key, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

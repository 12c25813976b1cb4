package config

import (
	"fmt"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// Asset is a manifest row as written in YAML. Numbers are strings so that
// supplies like "1e12" keep full precision.
type Asset struct {
	Ticker    string `yaml:"ticker"`
	Price     string `yaml:"price"`
	Decimals  uint8  `yaml:"decimals"`
	MaxSupply string `yaml:"max_supply"`
	PriceFeed string `yaml:"price_feed,omitempty"`
}

// Manifest parses the asset table in declaration order.
func (c *Config) Manifest() ([]exchange.InitialAsset, error) {
	seen := make(map[string]struct{}, len(c.Assets))
	out := make([]exchange.InitialAsset, 0, len(c.Assets))
	for i, a := range c.Assets {
		asset, err := a.parse()
		if err != nil {
			return nil, fmt.Errorf("assets[%d]: %w", i, err)
		}
		key := strings.ToLower(asset.Ticker)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("assets[%d]: duplicate ticker %q", i, asset.Ticker)
		}
		seen[key] = struct{}{}
		out = append(out, asset)
	}
	return out, nil
}

// CollateralFeedPrice parses the initial collateral feed price.
func (c *Config) CollateralFeedPrice() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(c.Collateral.FeedPrice)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("collateral.feed_price: %w", err)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("collateral.feed_price must be positive")
	}
	return price, nil
}

func (a Asset) parse() (exchange.InitialAsset, error) {
	ticker := strings.TrimSpace(a.Ticker)
	if ticker == "" {
		return exchange.InitialAsset{}, fmt.Errorf("ticker is required")
	}
	if len(ticker) > exchange.MaxTickerLen {
		return exchange.InitialAsset{}, fmt.Errorf("ticker %q longer than %d bytes", ticker, exchange.MaxTickerLen)
	}
	price, err := decimal.NewFromString(a.Price)
	if err != nil {
		return exchange.InitialAsset{}, fmt.Errorf("%s price: %w", ticker, err)
	}
	if !price.IsPositive() {
		return exchange.InitialAsset{}, fmt.Errorf("%s price must be positive", ticker)
	}
	supply, err := decimal.NewFromString(a.MaxSupply)
	if err != nil {
		return exchange.InitialAsset{}, fmt.Errorf("%s max_supply: %w", ticker, err)
	}
	var feed solana.PublicKey
	if a.PriceFeed != "" {
		if feed, err = solana.PublicKeyFromBase58(a.PriceFeed); err != nil {
			return exchange.InitialAsset{}, fmt.Errorf("%s price_feed: %w", ticker, err)
		}
	}
	asset := exchange.InitialAsset{
		Ticker:    ticker,
		Price:     price,
		Decimals:  a.Decimals,
		MaxSupply: supply,
		PriceFeed: feed,
	}
	if _, err := asset.MaxSupplyU64(); err != nil {
		return exchange.InitialAsset{}, fmt.Errorf("%s: %w", ticker, err)
	}
	return asset, nil
}

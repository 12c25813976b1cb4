// Package exchange holds the exchange program's account shapes, the manifest
// entry type and the sentinel errors shared by every ledger backend.
package exchange

import (
	"fmt"
	"math"
	"math/big"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/fixed"
)

// MaxTickerLen bounds the ticker bytes stored alongside a synthetic.
const MaxTickerLen = 32

// Fixed capacities of an assets list account. Asset indexes fit a u8.
const (
	MaxAssets      = 32
	MaxCollaterals = 4
	MaxSynthetics  = 32
)

// USD asset defaults written by CreateAssetsList.
const (
	USDDecimals uint8 = 6
	// NeverUpdated marks assets whose price is fixed and skipped by price refreshes.
	NeverUpdated uint64 = ^uint64(0)
)

// InitialAsset is one manifest row: a synthetic to register during bootstrap.
type InitialAsset struct {
	Ticker    string
	Price     decimal.Decimal
	Decimals  uint8
	MaxSupply decimal.Decimal
	PriceFeed solana.PublicKey
}

var maxU64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// MaxSupplyU64 narrows MaxSupply to the width the exchange stores.
func (a InitialAsset) MaxSupplyU64() (uint64, error) {
	if !a.MaxSupply.IsInteger() || a.MaxSupply.IsNegative() {
		return 0, fmt.Errorf("max supply %s is not a non-negative integer", a.MaxSupply)
	}
	if a.MaxSupply.GreaterThan(maxU64) {
		return 0, fmt.Errorf("max supply %s overflows u64", a.MaxSupply)
	}
	return a.MaxSupply.BigInt().Uint64(), nil
}

// State mirrors the exchange program's state account.
type State struct {
	Admin              solana.PublicKey
	ExchangeAuthority  solana.PublicKey
	AssetsList         solana.PublicKey
	Nonce              uint8
	StakingRoundLength uint32
	AmountPerRound     uint64
	StakingFundAccount solana.PublicKey
	Initialized        bool
}

// Asset is a priced entry referenced by synthetics and collaterals via index.
type Asset struct {
	FeedAddress solana.PublicKey
	Price       fixed.Decimal
	LastUpdate  uint64
	Confidence  uint64
}

// Collateral is a token that can be deposited against synthetic debt.
type Collateral struct {
	AssetIndex        uint8
	CollateralAddress solana.PublicKey
	ReserveAddress    solana.PublicKey
	LiquidationFund   solana.PublicKey
	Decimals          uint8
}

// Synthetic is a mintable token tracking an asset's feed.
type Synthetic struct {
	AssetIndex   uint8
	AssetAddress solana.PublicKey
	MaxSupply    uint64
	Supply       uint64
	Decimals     uint8
}

// AssetsList is the ledger record enumerating assets, collaterals and synthetics.
type AssetsList struct {
	Initialized bool
	Assets      []Asset
	Collaterals []Collateral
	Synthetics  []Synthetic
}

// AssetByFeed returns the index of the asset priced by feed.
func (l *AssetsList) AssetByFeed(feed solana.PublicKey) (int, bool) {
	for i, a := range l.Assets {
		if a.FeedAddress.Equals(feed) {
			return i, true
		}
	}
	return 0, false
}

// SyntheticByMint returns the synthetic backed by mint.
func (l *AssetsList) SyntheticByMint(mint solana.PublicKey) (Synthetic, bool) {
	for _, s := range l.Synthetics {
		if s.AssetAddress.Equals(mint) {
			return s, true
		}
	}
	return Synthetic{}, false
}

// Price returns the price of the asset at idx, or a zero price at PriceScale.
func (l *AssetsList) Price(idx uint8) fixed.Decimal {
	if int(idx) >= len(l.Assets) {
		return fixed.FromPrice(0)
	}
	return l.Assets[idx].Price
}

// InitParams are the static parameters of the exchange's one-time init.
type InitParams struct {
	Admin              solana.PublicKey
	ExchangeAuthority  solana.PublicKey
	Nonce              uint8
	StakingRoundLength uint32
	AmountPerRound     uint64
	StakingFundAccount solana.PublicKey
}

// AssetsListParams describe the collateral the new assets list starts with.
type AssetsListParams struct {
	ExchangeAuthority   solana.PublicKey
	CollateralToken     solana.PublicKey
	CollateralTokenFeed solana.PublicKey
	CollateralDecimals  uint8
	Reserve             solana.PublicKey
	LiquidationFund     solana.PublicKey
}

// SyntheticParams are the arguments of the add-synthetic instruction.
type SyntheticParams struct {
	AssetAddress solana.PublicKey
	AssetsList   solana.PublicKey
	MaxSupply    uint64
	PriceFeed    solana.PublicKey
}

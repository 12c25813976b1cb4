package bootstrap

import (
	"context"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// Ledger is the set of exchange, oracle and token operations a bootstrap needs.
// dex/solana.Exchange and sandbox.Ledger both satisfy it.
type Ledger interface {
	CreatePriceFeed(ctx context.Context, price decimal.Decimal, expo int32) (solana.PublicKey, error)
	CreateMint(ctx context.Context, mintAuthority solana.PublicKey, decimals uint8) (solana.PublicKey, error)
	CreateTokenAccount(ctx context.Context, mint, owner solana.PublicKey) (solana.PublicKey, error)
	AccountExists(ctx context.Context, addr solana.PublicKey) (bool, error)

	InitExchange(ctx context.Context, params exchange.InitParams) error
	Reload(ctx context.Context) error
	State(ctx context.Context) (*exchange.State, error)

	CreateAssetsList(ctx context.Context, params exchange.AssetsListParams) (solana.PublicKey, error)
	SetAssetsList(ctx context.Context, list solana.PublicKey) error
	AddNewAsset(ctx context.Context, list, feed solana.PublicKey) error
	AddSynthetic(ctx context.Context, params exchange.SyntheticParams) error
	UpdatePrices(ctx context.Context, list solana.PublicKey) error
	AssetsList(ctx context.Context, list solana.PublicKey) (*exchange.AssetsList, error)
}

package solana

import (
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// Exchange is a handle on a deployed exchange program, signing as the client's payer.
type Exchange struct {
	*Client
	oracle *Oracle

	ProgramID solana.PublicKey
	Authority solana.PublicKey
	StateAddr solana.PublicKey
}

func NewExchange(client *Client, oracle *Oracle, programID, authority solana.PublicKey) (*Exchange, error) {
	stateAddr, err := exchange.StateAddress(programID)
	if err != nil {
		return nil, err
	}
	return &Exchange{
		Client:    client,
		oracle:    oracle,
		ProgramID: programID,
		Authority: authority,
		StateAddr: stateAddr,
	}, nil
}

func (e *Exchange) admin() solana.PublicKey { return e.Payer.PublicKey() }

// CreatePriceFeed delegates to the oracle program.
func (e *Exchange) CreatePriceFeed(ctx context.Context, price decimal.Decimal, expo int32) (solana.PublicKey, error) {
	return e.oracle.CreatePriceFeed(ctx, price, expo)
}

// InitExchange runs the one-time state constructor. It is never retried.
func (e *Exchange) InitExchange(ctx context.Context, params exchange.InitParams) error {
	exists, err := e.AccountExists(ctx, e.StateAddr)
	if err != nil {
		return err
	}
	if exists {
		return exchange.ErrAlreadyInitialized
	}
	ix, err := InitInstruction(e.ProgramID, e.StateAddr, params)
	if err != nil {
		return err
	}
	_, err = e.Submit(ctx, "init", []solana.Instruction{ix})
	return err
}

// Reload re-reads the state account so the handle carries fields populated on chain.
func (e *Exchange) Reload(ctx context.Context) error {
	st, err := e.State(ctx)
	if err != nil {
		return fmt.Errorf("reload exchange: %w", err)
	}
	e.Authority = st.ExchangeAuthority
	return nil
}

// State reads the exchange state; exchange.ErrNotFound while it is not visible yet.
func (e *Exchange) State(ctx context.Context) (*exchange.State, error) {
	data, _, err := e.AccountData(ctx, e.StateAddr)
	if err != nil {
		return nil, err
	}
	return DecodeState(data)
}

// CreateAssetsList creates the USD mint, allocates the list and seeds it with the collateral.
func (e *Exchange) CreateAssetsList(ctx context.Context, params exchange.AssetsListParams) (solana.PublicKey, error) {
	usd, err := e.CreateMint(ctx, params.ExchangeAuthority, exchange.USDDecimals)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("usd token: %w", err)
	}
	list := solana.NewWallet()
	create, err := e.createAccountIx(ctx, list.PublicKey(), e.ProgramID, AssetsListSize)
	if err != nil {
		return solana.PublicKey{}, err
	}
	ix, err := CreateAssetsListInstruction(e.ProgramID, e.StateAddr, e.admin(), list.PublicKey(), usd, params)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, err := e.Submit(ctx, "create_assets_list", []solana.Instruction{create, ix}, list.PrivateKey); err != nil {
		return solana.PublicKey{}, err
	}
	return list.PublicKey(), nil
}

// SetAssetsList attaches list; the exchange accepts this exactly once.
func (e *Exchange) SetAssetsList(ctx context.Context, list solana.PublicKey) error {
	st, err := e.State(ctx)
	if err != nil {
		return err
	}
	if !st.Admin.Equals(e.admin()) {
		return exchange.ErrUnauthorized
	}
	if !st.AssetsList.IsZero() {
		return fmt.Errorf("%w: %s", exchange.ErrAssetsListAlreadySet, st.AssetsList)
	}
	ix, err := SetAssetsListInstruction(e.ProgramID, e.StateAddr, e.admin(), list)
	if err != nil {
		return err
	}
	_, err = e.Submit(ctx, "set_assets_list", []solana.Instruction{ix})
	return err
}

func (e *Exchange) AddNewAsset(ctx context.Context, list, feed solana.PublicKey) error {
	ix, err := AddNewAssetInstruction(e.ProgramID, e.StateAddr, e.admin(), list, feed)
	if err != nil {
		return err
	}
	_, err = e.Submit(ctx, "add_new_asset", []solana.Instruction{ix})
	return err
}

func (e *Exchange) AddSynthetic(ctx context.Context, params exchange.SyntheticParams) error {
	exists, err := e.AccountExists(ctx, params.AssetAddress)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", exchange.ErrMintNotFound, params.AssetAddress)
	}
	ix, err := AddSyntheticInstruction(e.ProgramID, e.StateAddr, e.admin(), params)
	if err != nil {
		return err
	}
	_, err = e.Submit(ctx, "add_synthetic", []solana.Instruction{ix})
	return err
}

// UpdatePrices refreshes every feed-backed asset in list.
func (e *Exchange) UpdatePrices(ctx context.Context, list solana.PublicKey) error {
	assets, err := e.AssetsList(ctx, list)
	if err != nil {
		return err
	}
	ix, err := SetAssetsPricesInstruction(e.ProgramID, list, PricedFeeds(assets))
	if err != nil {
		return err
	}
	_, err = e.Submit(ctx, "set_assets_prices", []solana.Instruction{ix})
	return err
}

func (e *Exchange) AssetsList(ctx context.Context, list solana.PublicKey) (*exchange.AssetsList, error) {
	data, _, err := e.AccountData(ctx, list)
	if err != nil {
		return nil, err
	}
	return DecodeAssetsList(data)
}

// PricedFeeds lists the feeds a price refresh must pass, skipping fixed-price assets.
func PricedFeeds(list *exchange.AssetsList) []solana.PublicKey {
	var feeds []solana.PublicKey
	for _, a := range list.Assets {
		if a.LastUpdate == exchange.NeverUpdated || a.FeedAddress.IsZero() {
			continue
		}
		feeds = append(feeds, a.FeedAddress)
	}
	return feeds
}

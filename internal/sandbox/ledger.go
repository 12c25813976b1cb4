// Package sandbox is an in-memory stand-in for the exchange and oracle programs.
// It enforces the same ordering and authorization rules the programs do, so a
// bootstrap can be exercised end to end without a cluster.
package sandbox

import (
	"context"
	"fmt"
	"sync"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
	"github.com/K-Pomian/synthetify-protocol/internal/fixed"
)

type mintState struct {
	Authority solana.PublicKey
	Decimals  uint8
}

type tokenAccount struct {
	Mint  solana.PublicKey
	Owner solana.PublicKey
}

// Ledger tracks accounts created through it and the single exchange state.
type Ledger struct {
	mu sync.Mutex

	signer    solana.PublicKey
	programID solana.PublicKey

	mints    map[solana.PublicKey]mintState
	accounts map[solana.PublicKey]tokenAccount
	feeds    map[solana.PublicKey]exchange.PriceFeed
	lists    map[solana.PublicKey]*exchange.AssetsList
	state    *exchange.State
	handle   *exchange.State

	slot         uint64
	hiddenReads  int
	neverVisible bool
	reads        int
	calls        map[string]int
}

// Option configures a sandbox Ledger.
type Option func(*Ledger)

// WithVisibilityLag makes the first n state reads after init report not found.
func WithVisibilityLag(n int) Option {
	return func(l *Ledger) { l.hiddenReads = n }
}

// WithNeverVisible hides the exchange state forever.
func WithNeverVisible() Option {
	return func(l *Ledger) { l.neverVisible = true }
}

// New creates an empty ledger where signer is the transaction signer.
func New(signer, programID solana.PublicKey, opts ...Option) *Ledger {
	l := &Ledger{
		signer:    signer,
		programID: programID,
		mints:     make(map[solana.PublicKey]mintState),
		accounts:  make(map[solana.PublicKey]tokenAccount),
		feeds:     make(map[solana.PublicKey]exchange.PriceFeed),
		lists:     make(map[solana.PublicKey]*exchange.AssetsList),
		calls:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetSigner switches the identity subsequent calls sign with.
func (l *Ledger) SetSigner(signer solana.PublicKey) {
	l.mu.Lock()
	l.signer = signer
	l.mu.Unlock()
}

// RegisterFeed installs an externally owned price feed at addr.
func (l *Ledger) RegisterFeed(addr solana.PublicKey, price decimal.Decimal, expo int32) error {
	feed, err := exchange.NewPriceFeed(price, expo)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.feeds[addr] = feed
	l.mu.Unlock()
	return nil
}

// SetFeedPrice moves an existing feed, as an oracle update would.
func (l *Ledger) SetFeedPrice(addr solana.PublicKey, price decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	feed, ok := l.feeds[addr]
	if !ok {
		return fmt.Errorf("%w: %s", exchange.ErrFeedNotFound, addr)
	}
	next, err := exchange.NewPriceFeed(price, feed.Expo)
	if err != nil {
		return err
	}
	l.feeds[addr] = next
	return nil
}

// Calls reports how many times a mutating operation ran.
func (l *Ledger) Calls(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

// MintAuthority reports who may mint from mint.
func (l *Ledger) MintAuthority(mint solana.PublicKey) (solana.PublicKey, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.mints[mint]
	return m.Authority, ok
}

// StateReads reports how many State calls were made.
func (l *Ledger) StateReads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

// Reveal ends any visibility lag so the next State read succeeds.
func (l *Ledger) Reveal() {
	l.mu.Lock()
	l.hiddenReads = 0
	l.neverVisible = false
	l.mu.Unlock()
}

func newAddress() solana.PublicKey { return solana.NewWallet().PublicKey() }

func (l *Ledger) CreatePriceFeed(ctx context.Context, price decimal.Decimal, expo int32) (solana.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return solana.PublicKey{}, err
	}
	feed, err := exchange.NewPriceFeed(price, expo)
	if err != nil {
		return solana.PublicKey{}, err
	}
	addr := newAddress()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["create_price_feed"]++
	l.feeds[addr] = feed
	return addr, nil
}

func (l *Ledger) CreateMint(ctx context.Context, mintAuthority solana.PublicKey, decimals uint8) (solana.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return solana.PublicKey{}, err
	}
	addr := newAddress()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["create_mint"]++
	l.mints[addr] = mintState{Authority: mintAuthority, Decimals: decimals}
	return addr, nil
}

func (l *Ledger) CreateTokenAccount(ctx context.Context, mint, owner solana.PublicKey) (solana.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return solana.PublicKey{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.mints[mint]; !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", exchange.ErrMintNotFound, mint)
	}
	addr := newAddress()
	l.calls["create_token_account"]++
	l.accounts[addr] = tokenAccount{Mint: mint, Owner: owner}
	return addr, nil
}

func (l *Ledger) AccountExists(ctx context.Context, addr solana.PublicKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.mints[addr]; ok {
		return true, nil
	}
	if _, ok := l.accounts[addr]; ok {
		return true, nil
	}
	if _, ok := l.feeds[addr]; ok {
		return true, nil
	}
	if _, ok := l.lists[addr]; ok {
		return true, nil
	}
	return false, nil
}

func (l *Ledger) InitExchange(ctx context.Context, params exchange.InitParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != nil {
		return exchange.ErrAlreadyInitialized
	}
	if !params.Admin.Equals(l.signer) {
		return exchange.ErrUnauthorized
	}
	if acct, ok := l.accounts[params.StakingFundAccount]; !ok || !acct.Owner.Equals(params.ExchangeAuthority) {
		return fmt.Errorf("%w: staking fund %s", exchange.ErrInvalidAccount, params.StakingFundAccount)
	}
	l.calls["init"]++
	l.state = &exchange.State{
		Admin:              params.Admin,
		ExchangeAuthority:  params.ExchangeAuthority,
		Nonce:              params.Nonce,
		StakingRoundLength: params.StakingRoundLength,
		AmountPerRound:     params.AmountPerRound,
		StakingFundAccount: params.StakingFundAccount,
		Initialized:        true,
	}
	return nil
}

// Reload refreshes the cached exchange handle. It reads past the visibility lag.
func (l *Ledger) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == nil {
		return exchange.ErrNotInitialized
	}
	st := *l.state
	l.handle = &st
	return nil
}

// State returns a copy of the exchange state, honoring configured visibility lag.
func (l *Ledger) State(ctx context.Context) (*exchange.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	if l.state == nil || l.neverVisible {
		return nil, exchange.ErrNotFound
	}
	if l.hiddenReads > 0 {
		l.hiddenReads--
		return nil, exchange.ErrNotFound
	}
	st := *l.state
	return &st, nil
}

func (l *Ledger) requireAdmin() error {
	if l.state == nil {
		return exchange.ErrNotInitialized
	}
	if !l.state.Admin.Equals(l.signer) {
		return exchange.ErrUnauthorized
	}
	return nil
}

// CreateAssetsList seeds a list with the USD asset and xUSD synthetic followed by the collateral.
func (l *Ledger) CreateAssetsList(ctx context.Context, params exchange.AssetsListParams) (solana.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return solana.PublicKey{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(); err != nil {
		return solana.PublicKey{}, err
	}
	if _, ok := l.mints[params.CollateralToken]; !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: collateral %s", exchange.ErrMintNotFound, params.CollateralToken)
	}
	if _, ok := l.feeds[params.CollateralTokenFeed]; !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", exchange.ErrFeedNotFound, params.CollateralTokenFeed)
	}
	for _, acct := range []solana.PublicKey{params.Reserve, params.LiquidationFund} {
		if ta, ok := l.accounts[acct]; !ok || !ta.Mint.Equals(params.CollateralToken) {
			return solana.PublicKey{}, fmt.Errorf("%w: collateral account %s", exchange.ErrInvalidAccount, acct)
		}
	}

	usd := newAddress()
	l.mints[usd] = mintState{Authority: params.ExchangeAuthority, Decimals: exchange.USDDecimals}
	addr := newAddress()
	l.calls["create_assets_list"]++
	l.lists[addr] = &exchange.AssetsList{
		Initialized: true,
		Assets: []exchange.Asset{
			{Price: fixed.FromPrice(100_000_000), LastUpdate: exchange.NeverUpdated},
			{FeedAddress: params.CollateralTokenFeed, Price: fixed.FromPrice(0)},
		},
		Collaterals: []exchange.Collateral{{
			AssetIndex:        1,
			CollateralAddress: params.CollateralToken,
			ReserveAddress:    params.Reserve,
			LiquidationFund:   params.LiquidationFund,
			Decimals:          params.CollateralDecimals,
		}},
		Synthetics: []exchange.Synthetic{{
			AssetIndex:   0,
			AssetAddress: usd,
			MaxSupply:    ^uint64(0),
			Decimals:     exchange.USDDecimals,
		}},
	}
	return addr, nil
}

func (l *Ledger) SetAssetsList(ctx context.Context, list solana.PublicKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(); err != nil {
		return err
	}
	if !l.state.AssetsList.IsZero() {
		return fmt.Errorf("%w: %s", exchange.ErrAssetsListAlreadySet, l.state.AssetsList)
	}
	if _, ok := l.lists[list]; !ok {
		return fmt.Errorf("assets list %s: %w", list, exchange.ErrNotFound)
	}
	l.calls["set_assets_list"]++
	l.state.AssetsList = list
	return nil
}

// attachedList returns the list only when it is the one set on the exchange.
func (l *Ledger) attachedList(list solana.PublicKey) (*exchange.AssetsList, error) {
	if err := l.requireAdmin(); err != nil {
		return nil, err
	}
	al, ok := l.lists[list]
	if !ok {
		return nil, fmt.Errorf("assets list %s: %w", list, exchange.ErrNotFound)
	}
	if !l.state.AssetsList.Equals(list) {
		return nil, fmt.Errorf("%w: %s", exchange.ErrAssetsListMismatch, list)
	}
	return al, nil
}

func (l *Ledger) AddNewAsset(ctx context.Context, list, feed solana.PublicKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	al, err := l.attachedList(list)
	if err != nil {
		return err
	}
	if _, dup := al.AssetByFeed(feed); dup {
		return fmt.Errorf("%w: %s", exchange.ErrAssetExists, feed)
	}
	if len(al.Assets) >= exchange.MaxAssets {
		return fmt.Errorf("%w: %d assets", exchange.ErrAssetsListFull, len(al.Assets))
	}
	l.calls["add_new_asset"]++
	al.Assets = append(al.Assets, exchange.Asset{FeedAddress: feed, Price: fixed.FromPrice(0)})
	return nil
}

func (l *Ledger) AddSynthetic(ctx context.Context, params exchange.SyntheticParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	al, err := l.attachedList(params.AssetsList)
	if err != nil {
		return err
	}
	mint, ok := l.mints[params.AssetAddress]
	if !ok {
		return fmt.Errorf("%w: %s", exchange.ErrMintNotFound, params.AssetAddress)
	}
	idx, ok := al.AssetByFeed(params.PriceFeed)
	if !ok {
		return fmt.Errorf("%w: %s", exchange.ErrAssetNotFound, params.PriceFeed)
	}
	if _, dup := al.SyntheticByMint(params.AssetAddress); dup {
		return fmt.Errorf("%w: %s", exchange.ErrSyntheticExists, params.AssetAddress)
	}
	if len(al.Synthetics) >= exchange.MaxSynthetics {
		return fmt.Errorf("%w: %d synthetics", exchange.ErrAssetsListFull, len(al.Synthetics))
	}
	l.calls["add_synthetic"]++
	al.Synthetics = append(al.Synthetics, exchange.Synthetic{
		AssetIndex:   uint8(idx),
		AssetAddress: params.AssetAddress,
		MaxSupply:    params.MaxSupply,
		Decimals:     mint.Decimals,
	})
	return nil
}

// UpdatePrices copies every feed's current price into its asset and stamps the slot.
func (l *Ledger) UpdatePrices(ctx context.Context, list solana.PublicKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	al, ok := l.lists[list]
	if !ok {
		return fmt.Errorf("assets list %s: %w", list, exchange.ErrNotFound)
	}
	l.slot++
	for i := range al.Assets {
		a := &al.Assets[i]
		if a.LastUpdate == exchange.NeverUpdated || a.FeedAddress.IsZero() {
			continue
		}
		feed, ok := l.feeds[a.FeedAddress]
		if !ok {
			return fmt.Errorf("%w: %s", exchange.ErrFeedNotFound, a.FeedAddress)
		}
		price, err := feed.AssetPrice()
		if err != nil {
			return err
		}
		a.Price = price
		a.Confidence = feed.Conf
		a.LastUpdate = l.slot
	}
	l.calls["set_assets_prices"]++
	return nil
}

// AssetsList returns a deep copy of the list.
func (l *Ledger) AssetsList(ctx context.Context, list solana.PublicKey) (*exchange.AssetsList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	al, ok := l.lists[list]
	if !ok {
		return nil, fmt.Errorf("assets list %s: %w", list, exchange.ErrNotFound)
	}
	out := &exchange.AssetsList{
		Initialized: al.Initialized,
		Assets:      append([]exchange.Asset(nil), al.Assets...),
		Collaterals: append([]exchange.Collateral(nil), al.Collaterals...),
		Synthetics:  append([]exchange.Synthetic(nil), al.Synthetics...),
	}
	return out, nil
}

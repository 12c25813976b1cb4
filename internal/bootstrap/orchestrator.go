// Package bootstrap drives a fresh exchange deployment from an empty program to a
// populated assets list, one step at a time.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/checkpoint"
	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
	"github.com/K-Pomian/synthetify-protocol/internal/execution"
)

// Step names, also used as checkpoint keys and metric labels.
const (
	StepDeriveAuthority  = "derive-authority"
	StepCollateralFeed   = "collateral-feed"
	StepCollateralToken  = "collateral-token"
	StepReserveAccount   = "reserve-account"
	StepLiquidationFund  = "liquidation-fund"
	StepStakingFund      = "staking-fund"
	StepInitExchange     = "init-exchange"
	StepReload           = "reload-exchange"
	StepCreateAssetsList = "create-assets-list"
	StepSetAssetsList    = "set-assets-list"
	StepPollState        = "poll-state"
	StepAssetFeed        = "asset-feed"
	StepAssetMint        = "asset-mint"
	StepAddAsset         = "add-asset"
	StepAddSynthetic     = "add-synthetic"
	StepUpdatePrices     = "update-prices"
	StepReadAssetsList   = "read-assets-list"
)

// Params is everything a run needs besides the ledger.
type Params struct {
	ProgramID     solana.PublicKey
	AuthoritySeed []byte
	Admin         solana.PublicKey

	StakingRoundLength uint32
	AmountPerRound     uint64

	CollateralDecimals  uint8
	CollateralFeedPrice decimal.Decimal
	CollateralFeedExpo  int32

	// CollateralMintAuthority defaults to Admin.
	CollateralMintAuthority solana.PublicKey

	// FeedExpo is used for feeds created for manifest assets without one.
	FeedExpo int32
	Assets   []exchange.InitialAsset

	Poll        PollPolicy
	SettleDelay time.Duration
}

// Orchestrator runs the bootstrap sequence against a Ledger.
type Orchestrator struct {
	ledger  Ledger
	params  Params
	journal checkpoint.Store
	resume  bool
	exec    *execution.Executor
	log     zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithJournal records progress to store. With resume set, steps found in the
// store are skipped when the ledger still has what they created.
func WithJournal(store checkpoint.Store, resume bool) Option {
	return func(o *Orchestrator) {
		o.journal = store
		o.resume = resume
	}
}

func New(ledger Ledger, params Params, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ledger:  ledger,
		params:  params,
		journal: checkpoint.NewMemory(32),
		log:     zerolog.Nop(),
	}
	if len(o.params.AuthoritySeed) == 0 {
		o.params.AuthoritySeed = []byte(exchange.DefaultAuthoritySeed)
	}
	if o.params.CollateralMintAuthority.IsZero() {
		o.params.CollateralMintAuthority = o.params.Admin
	}
	if o.params.Poll.Interval <= 0 {
		o.params.Poll = DefaultPollPolicy()
	}
	for _, opt := range opts {
		opt(o)
	}
	o.exec = execution.NewExecutor(o.log, o.params.SettleDelay)
	return o
}

// Run executes the whole sequence. On failure the partially filled Result is
// returned alongside the error so the operator can see what was created.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{Status: StatusInProgress}
	if err := o.run(ctx, res); err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res, fmt.Errorf("bootstrap: %w", err)
	}
	res.Status = StatusOK
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, res *Result) error {
	p := o.params

	if err := o.exec.Run(ctx, StepDeriveAuthority, func(context.Context) error {
		addr, nonce, err := exchange.DeriveAuthority(p.AuthoritySeed, p.ProgramID)
		if err != nil {
			return err
		}
		res.ExchangeAuthority, res.Nonce = addr, nonce
		o.log.Info().Str("authority", addr.String()).Uint8("nonce", nonce).Msg("exchange authority")
		return nil
	}); err != nil {
		return err
	}

	var err error
	if res.CollateralFeed, err = o.address(ctx, StepCollateralFeed, "", func(ctx context.Context) (solana.PublicKey, error) {
		return o.ledger.CreatePriceFeed(ctx, p.CollateralFeedPrice, p.CollateralFeedExpo)
	}); err != nil {
		return err
	}
	if res.CollateralToken, err = o.address(ctx, StepCollateralToken, "", func(ctx context.Context) (solana.PublicKey, error) {
		return o.ledger.CreateMint(ctx, p.CollateralMintAuthority, p.CollateralDecimals)
	}); err != nil {
		return err
	}
	tokenAccount := func(ctx context.Context) (solana.PublicKey, error) {
		return o.ledger.CreateTokenAccount(ctx, res.CollateralToken, res.ExchangeAuthority)
	}
	if res.Reserve, err = o.address(ctx, StepReserveAccount, "", tokenAccount); err != nil {
		return err
	}
	if res.LiquidationFund, err = o.address(ctx, StepLiquidationFund, "", tokenAccount); err != nil {
		return err
	}
	if res.StakingFund, err = o.address(ctx, StepStakingFund, "", tokenAccount); err != nil {
		return err
	}

	// A state account naming this run's staking fund was initialized by this run,
	// even if the confirmation never arrived.
	initialized := func(ctx context.Context) (bool, error) {
		st, err := o.ledger.State(ctx)
		if err != nil {
			return false, err
		}
		return st.Admin.Equals(p.Admin) &&
			st.ExchangeAuthority.Equals(res.ExchangeAuthority) &&
			st.StakingFundAccount.Equals(res.StakingFund), nil
	}
	if err := o.once(ctx, StepInitExchange, "", initialized, func(ctx context.Context) error {
		return o.ledger.InitExchange(ctx, exchange.InitParams{
			Admin:              p.Admin,
			ExchangeAuthority:  res.ExchangeAuthority,
			Nonce:              res.Nonce,
			StakingRoundLength: p.StakingRoundLength,
			AmountPerRound:     p.AmountPerRound,
			StakingFundAccount: res.StakingFund,
		})
	}); err != nil {
		return err
	}
	if err := o.exec.Run(ctx, StepReload, o.ledger.Reload); err != nil {
		return err
	}

	if res.AssetsList, err = o.address(ctx, StepCreateAssetsList, "", func(ctx context.Context) (solana.PublicKey, error) {
		return o.ledger.CreateAssetsList(ctx, exchange.AssetsListParams{
			ExchangeAuthority:   res.ExchangeAuthority,
			CollateralToken:     res.CollateralToken,
			CollateralTokenFeed: res.CollateralFeed,
			CollateralDecimals:  p.CollateralDecimals,
			Reserve:             res.Reserve,
			LiquidationFund:     res.LiquidationFund,
		})
	}); err != nil {
		return err
	}
	attached := func(ctx context.Context) (bool, error) {
		st, err := o.ledger.State(ctx)
		if err != nil {
			return false, err
		}
		return st.AssetsList.Equals(res.AssetsList), nil
	}
	if err := o.once(ctx, StepSetAssetsList, "", attached, func(ctx context.Context) error {
		return o.ledger.SetAssetsList(ctx, res.AssetsList)
	}); err != nil {
		return err
	}

	if err := o.exec.Run(ctx, StepPollState, func(ctx context.Context) error {
		st, err := PollState(ctx, o.ledger, p.Poll, o.log)
		if err != nil {
			return err
		}
		if !st.AssetsList.Equals(res.AssetsList) {
			return fmt.Errorf("%w: exchange references %s, created %s", exchange.ErrAssetsListMismatch, st.AssetsList, res.AssetsList)
		}
		return nil
	}); err != nil {
		return err
	}

	for _, asset := range p.Assets {
		synth, err := o.onboard(ctx, res, asset)
		if err != nil {
			return err
		}
		res.Synthetics = append(res.Synthetics, synth)
	}

	// The state read before refreshing prices is kept even though only
	// AssetsList from it is used.
	var state *exchange.State
	if err := o.exec.Run(ctx, StepUpdatePrices, func(ctx context.Context) error {
		st, err := o.ledger.State(ctx)
		if err != nil {
			return err
		}
		state = st
		return o.ledger.UpdatePrices(ctx, state.AssetsList)
	}); err != nil {
		return err
	}

	return o.exec.Run(ctx, StepReadAssetsList, func(ctx context.Context) error {
		list, err := o.ledger.AssetsList(ctx, state.AssetsList)
		if err != nil {
			return err
		}
		res.List = list
		return nil
	})
}

// onboard takes one manifest asset through feed, mint, add-asset and add-synthetic.
func (o *Orchestrator) onboard(ctx context.Context, res *Result, asset exchange.InitialAsset) (SyntheticResult, error) {
	out := SyntheticResult{Ticker: asset.Ticker, Feed: asset.PriceFeed}
	maxSupply, err := asset.MaxSupplyU64()
	if err != nil {
		return out, fmt.Errorf("asset %s: %w", asset.Ticker, err)
	}
	out.MaxSupply = maxSupply

	if out.Feed.IsZero() {
		if out.Feed, err = o.address(ctx, StepAssetFeed, asset.Ticker, func(ctx context.Context) (solana.PublicKey, error) {
			return o.ledger.CreatePriceFeed(ctx, asset.Price, o.params.FeedExpo)
		}); err != nil {
			return out, err
		}
	}
	if out.Mint, err = o.address(ctx, StepAssetMint, asset.Ticker, func(ctx context.Context) (solana.PublicKey, error) {
		return o.ledger.CreateMint(ctx, res.ExchangeAuthority, asset.Decimals)
	}); err != nil {
		return out, err
	}

	listed := func(check func(*exchange.AssetsList) bool) func(context.Context) (bool, error) {
		return func(ctx context.Context) (bool, error) {
			list, err := o.ledger.AssetsList(ctx, res.AssetsList)
			if err != nil {
				return false, err
			}
			return check(list), nil
		}
	}
	if err := o.once(ctx, StepAddAsset, asset.Ticker, listed(func(l *exchange.AssetsList) bool {
		_, ok := l.AssetByFeed(out.Feed)
		return ok
	}), func(ctx context.Context) error {
		return o.ledger.AddNewAsset(ctx, res.AssetsList, out.Feed)
	}); err != nil {
		return out, err
	}
	if err := o.once(ctx, StepAddSynthetic, asset.Ticker, listed(func(l *exchange.AssetsList) bool {
		_, ok := l.SyntheticByMint(out.Mint)
		return ok
	}), func(ctx context.Context) error {
		return o.ledger.AddSynthetic(ctx, exchange.SyntheticParams{
			AssetAddress: out.Mint,
			AssetsList:   res.AssetsList,
			MaxSupply:    maxSupply,
			PriceFeed:    out.Feed,
		})
	}); err != nil {
		return out, err
	}
	o.log.Info().Str("ticker", asset.Ticker).Str("mint", out.Mint.String()).Str("feed", out.Feed.String()).Msg("synthetic registered")
	return out, nil
}

func stepName(step, key string) string {
	if key == "" {
		return step
	}
	return step + ":" + key
}

// address runs a creating step, or reuses the address recorded by an earlier
// run when resuming and the account is still on the ledger.
func (o *Orchestrator) address(ctx context.Context, step, key string, create func(context.Context) (solana.PublicKey, error)) (solana.PublicKey, error) {
	name := stepName(step, key)
	if o.resume {
		if e, ok := o.journal.Lookup(step, key); ok {
			exists, err := o.ledger.AccountExists(ctx, e.Address)
			if err != nil {
				return solana.PublicKey{}, fmt.Errorf("step %s: %w", name, err)
			}
			if exists {
				o.exec.Skip(name, "account "+e.Address.String()+" exists")
				return e.Address, nil
			}
		}
	}
	var addr solana.PublicKey
	err := o.exec.Run(ctx, name, func(ctx context.Context) error {
		a, err := create(ctx)
		if err != nil {
			return err
		}
		addr = a
		return o.journal.Record(checkpoint.Entry{Step: step, Key: key, Address: a})
	})
	return addr, err
}

// once runs a non-creating step. When resuming it is skipped if the journal
// has it, or if done reports the ledger already reflects it.
func (o *Orchestrator) once(ctx context.Context, step, key string, done func(context.Context) (bool, error), apply func(context.Context) error) error {
	name := stepName(step, key)
	if o.resume {
		if _, ok := o.journal.Lookup(step, key); ok {
			o.exec.Skip(name, "checkpoint")
			return nil
		}
		if done != nil {
			ok, err := done(ctx)
			if err != nil && !errors.Is(err, exchange.ErrNotFound) {
				return fmt.Errorf("step %s: %w", name, err)
			}
			if ok {
				o.exec.Skip(name, "already on ledger")
				return o.journal.Record(checkpoint.Entry{Step: step, Key: key})
			}
		}
	}
	return o.exec.Run(ctx, name, func(ctx context.Context) error {
		if err := apply(ctx); err != nil {
			return err
		}
		return o.journal.Record(checkpoint.Entry{Step: step, Key: key})
	})
}

package main

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	"github.com/K-Pomian/synthetify-protocol/internal/bootstrap"
	"github.com/K-Pomian/synthetify-protocol/internal/config"
	dex "github.com/K-Pomian/synthetify-protocol/internal/dex/solana"
	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
	"github.com/K-Pomian/synthetify-protocol/internal/sandbox"
)

// bootstrapParams turns a validated config into orchestrator parameters.
func bootstrapParams(cfg *config.Config, admin solana.PublicKey) (bootstrap.Params, error) {
	programID, err := cfg.ExchangeProgram()
	if err != nil {
		return bootstrap.Params{}, err
	}
	feedPrice, err := cfg.CollateralFeedPrice()
	if err != nil {
		return bootstrap.Params{}, err
	}
	minter, err := cfg.CollateralMintAuthority()
	if err != nil {
		return bootstrap.Params{}, err
	}
	assets, err := cfg.Manifest()
	if err != nil {
		return bootstrap.Params{}, err
	}
	poll := cfg.Bootstrap.Poll
	return bootstrap.Params{
		ProgramID:               programID,
		AuthoritySeed:           []byte(cfg.Programs.AuthoritySeed),
		Admin:                   admin,
		StakingRoundLength:      cfg.Exchange.StakingRoundLength,
		AmountPerRound:          cfg.Exchange.AmountPerRound,
		CollateralDecimals:      cfg.Collateral.Decimals,
		CollateralFeedPrice:     feedPrice,
		CollateralFeedExpo:      cfg.Collateral.FeedExpo,
		CollateralMintAuthority: minter,
		FeedExpo:                cfg.FeedExpo,
		Assets:                  assets,
		Poll: bootstrap.PollPolicy{
			Interval:    poll.Interval,
			MaxInterval: poll.MaxInterval,
			Multiplier:  poll.Multiplier,
			MaxAttempts: poll.MaxAttempts,
		},
		SettleDelay: cfg.Bootstrap.SettleDelay,
	}, nil
}

// dialExchange connects to the configured cluster with payer as signer and admin.
func dialExchange(cfg *config.Config, payer solana.PrivateKey) (*dex.Exchange, error) {
	commit, err := cfg.Network.CommitmentType()
	if err != nil {
		return nil, err
	}
	programID, err := cfg.ExchangeProgram()
	if err != nil {
		return nil, err
	}
	oracleID, err := cfg.OracleProgram()
	if err != nil {
		return nil, err
	}
	authority, _, err := exchangeAuthority(cfg)
	if err != nil {
		return nil, err
	}
	client := dex.NewClient(cfg.Network.RpcURL, payer, commit,
		dex.WithSkipPreflight(cfg.Network.SkipPreflight),
		dex.WithConfirmPolicy(cfg.Bootstrap.Confirm.Interval, cfg.Bootstrap.Confirm.Timeout),
		dex.WithLogger(logger),
	)
	return dex.NewExchange(client, dex.NewOracle(client, oracleID), programID, authority)
}

// newSandbox builds an in-memory ledger and installs the manifest's external feeds.
func newSandbox(cfg *config.Config, admin solana.PublicKey) (*sandbox.Ledger, error) {
	programID, err := cfg.ExchangeProgram()
	if err != nil {
		return nil, err
	}
	assets, err := cfg.Manifest()
	if err != nil {
		return nil, err
	}
	ledger := sandbox.New(admin, programID)
	for _, a := range assets {
		if a.PriceFeed.IsZero() {
			continue
		}
		if err := ledger.RegisterFeed(a.PriceFeed, a.Price, cfg.FeedExpo); err != nil {
			return nil, fmt.Errorf("%s feed: %w", a.Ticker, err)
		}
	}
	return ledger, nil
}

func exchangeAuthority(cfg *config.Config) (solana.PublicKey, uint8, error) {
	programID, err := cfg.ExchangeProgram()
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	return exchange.DeriveAuthority([]byte(cfg.Programs.AuthoritySeed), programID)
}

func loadWallet(cfg *config.Config) (solana.PrivateKey, error) {
	key, err := dex.LoadPrivateKey(cfg.Wallet.PrivateKeyBase58, cfg.Wallet.KeypairPath)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	return key, nil
}

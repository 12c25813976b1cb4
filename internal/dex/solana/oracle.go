package solana

import (
	"context"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// Oracle talks to the price-feed program used on test clusters.
type Oracle struct {
	client    *Client
	ProgramID solana.PublicKey
}

func NewOracle(client *Client, programID solana.PublicKey) *Oracle {
	return &Oracle{client: client, ProgramID: programID}
}

// CreatePriceFeed allocates a price account and seeds it with price at expo.
func (o *Oracle) CreatePriceFeed(ctx context.Context, price decimal.Decimal, expo int32) (solana.PublicKey, error) {
	feed, err := exchange.NewPriceFeed(price, expo)
	if err != nil {
		return solana.PublicKey{}, err
	}
	account := solana.NewWallet()
	create, err := o.client.createAccountIx(ctx, account.PublicKey(), o.ProgramID, PriceAccountSize)
	if err != nil {
		return solana.PublicKey{}, err
	}
	initIx, err := InitializeFeedInstruction(o.ProgramID, account.PublicKey(), feed)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, err := o.client.Submit(ctx, "create_price_feed", []solana.Instruction{create, initIx}, account.PrivateKey); err != nil {
		return solana.PublicKey{}, err
	}
	return account.PublicKey(), nil
}

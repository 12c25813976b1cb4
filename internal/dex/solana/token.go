package solana

import (
	"context"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// CreateMint allocates and initializes an SPL mint controlled by mintAuthority.
func (c *Client) CreateMint(ctx context.Context, mintAuthority solana.PublicKey, decimals uint8) (solana.PublicKey, error) {
	mint := solana.NewWallet()
	create, err := c.createAccountIx(ctx, mint.PublicKey(), solana.TokenProgramID, MintSize)
	if err != nil {
		return solana.PublicKey{}, err
	}
	initIx := token.NewInitializeMintInstruction(
		decimals,
		mintAuthority,
		mintAuthority,
		mint.PublicKey(),
		solana.SysVarRentPubkey,
	).Build()
	if _, err := c.Submit(ctx, "create_mint", []solana.Instruction{create, initIx}, mint.PrivateKey); err != nil {
		return solana.PublicKey{}, err
	}
	return mint.PublicKey(), nil
}

// CreateTokenAccount allocates a token account for mint owned by owner.
func (c *Client) CreateTokenAccount(ctx context.Context, mint, owner solana.PublicKey) (solana.PublicKey, error) {
	account := solana.NewWallet()
	create, err := c.createAccountIx(ctx, account.PublicKey(), solana.TokenProgramID, TokenAccountSize)
	if err != nil {
		return solana.PublicKey{}, err
	}
	initIx := token.NewInitializeAccountInstruction(
		account.PublicKey(),
		mint,
		owner,
		solana.SysVarRentPubkey,
	).Build()
	if _, err := c.Submit(ctx, "create_token_account", []solana.Instruction{create, initIx}, account.PrivateKey); err != nil {
		return solana.PublicKey{}, err
	}
	return account.PublicKey(), nil
}

package exchange

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// DefaultAuthoritySeed is the PDA seed the exchange program signs with.
const DefaultAuthoritySeed = "Synthetify"

const stateSeed = "unversioned"

// DeriveAuthority finds the exchange authority PDA and its bump nonce.
func DeriveAuthority(seed []byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, nonce, err := solana.FindProgramAddress([][]byte{seed}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive authority: %w", err)
	}
	return addr, nonce, nil
}

// StateAddress is where an Anchor program keeps its #[state] account:
// an address derived with seed "unversioned" from the program's empty-seed PDA.
func StateAddress(programID solana.PublicKey) (solana.PublicKey, error) {
	base, _, err := solana.FindProgramAddress([][]byte{}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("state base: %w", err)
	}
	addr, err := solana.CreateWithSeed(base, stateSeed, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("state address: %w", err)
	}
	return addr, nil
}

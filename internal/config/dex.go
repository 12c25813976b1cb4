// Package config also contains Solana-specific configuration surfaces.
package config

import (
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// Network defines the cluster endpoint and submission defaults.
type Network struct {
	RpcURL        string `yaml:"rpc_url"`
	Commitment    string `yaml:"commitment"` // processed|confirmed|finalized
	SkipPreflight bool   `yaml:"skip_preflight"`
}

// CommitmentType maps the configured commitment onto the RPC enum.
func (n Network) CommitmentType() (rpc.CommitmentType, error) {
	switch n.Commitment {
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "", "confirmed":
		return rpc.CommitmentConfirmed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	}
	return "", fmt.Errorf("network.commitment: unknown level %q", n.Commitment)
}

// Wallet stores env-backed or file-backed signing material metadata.
type Wallet struct {
	PrivateKeyBase58 string `yaml:"private_key_base58"`
	KeypairPath      string `yaml:"keypair_path"`
}

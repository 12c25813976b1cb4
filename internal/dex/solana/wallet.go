package solana

import (
	"fmt"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// PrivateKeyEnv holds the admin key when neither a key nor a keypair file is configured.
const PrivateKeyEnv = "SOLANA_PRIVATE_KEY_BASE58"

// LoadPrivateKeyFromEnv reads PrivateKeyEnv, loading a .env file first when one exists.
func LoadPrivateKeyFromEnv() (solana.PrivateKey, error) {
	_ = godotenv.Load()
	b58 := os.Getenv(PrivateKeyEnv)
	if b58 == "" {
		return nil, fmt.Errorf("%s not set", PrivateKeyEnv)
	}
	key, err := solana.PrivateKeyFromBase58(b58)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PrivateKeyEnv, err)
	}
	return key, nil
}

// LoadPrivateKey prefers an explicit base58 key, then a solana-keygen JSON file, then the environment.
func LoadPrivateKey(base58, keypairPath string) (solana.PrivateKey, error) {
	switch {
	case base58 != "":
		return solana.PrivateKeyFromBase58(base58)
	case keypairPath != "":
		key, err := solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
		if err != nil {
			return nil, fmt.Errorf("keypair %s: %w", keypairPath, err)
		}
		return key, nil
	}
	return LoadPrivateKeyFromEnv()
}

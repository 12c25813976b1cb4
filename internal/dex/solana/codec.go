package solana

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// Anchor namespaces for instruction and account discriminators.
const (
	nsGlobal  = "global"
	nsState   = "state"
	nsAccount = "account"
)

// Discriminator is the 8-byte Anchor prefix sha256("<namespace>:<name>")[:8].
func Discriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func encodeInstruction(namespace, name string, args any) ([]byte, error) {
	var buf bytes.Buffer
	disc := Discriminator(namespace, name)
	buf.Write(disc[:])
	if args != nil {
		if err := bin.NewBorshEncoder(&buf).Encode(args); err != nil {
			return nil, fmt.Errorf("encode %s args: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}

func decodeAccount(name string, data []byte, out any) error {
	disc := Discriminator(nsAccount, name)
	if len(data) < len(disc) || !bytes.Equal(data[:len(disc)], disc[:]) {
		return fmt.Errorf("%w: %s discriminator", exchange.ErrInvalidAccount, name)
	}
	if err := bin.NewBorshDecoder(data[len(disc):]).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", exchange.ErrInvalidAccount, name, err)
	}
	return nil
}

func encodeAccount(name string, v any) ([]byte, error) {
	var buf bytes.Buffer
	disc := Discriminator(nsAccount, name)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeState parses the exchange state account.
func DecodeState(data []byte) (*exchange.State, error) {
	var st exchange.State
	if err := decodeAccount("State", data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// DecodeAssetsList parses an assets list account.
func DecodeAssetsList(data []byte) (*exchange.AssetsList, error) {
	var list exchange.AssetsList
	if err := decodeAccount("AssetsList", data, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Pyth v2 price account offsets.
const (
	pythMagic        uint32 = 0xa1b2c3d4
	pythExpoOffset          = 20
	pythPriceOffset         = 208
	pythConfOffset          = 216
	pythMinSize             = 240
	PriceAccountSize        = 3312
)

// DecodePriceFeed reads the aggregate price out of a Pyth price account.
func DecodePriceFeed(data []byte) (exchange.PriceFeed, error) {
	if len(data) < pythMinSize {
		return exchange.PriceFeed{}, fmt.Errorf("%w: price account too short (%d bytes)", exchange.ErrInvalidAccount, len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != pythMagic {
		return exchange.PriceFeed{}, fmt.Errorf("%w: not a price account", exchange.ErrInvalidAccount)
	}
	return exchange.PriceFeed{
		Expo:  int32(binary.LittleEndian.Uint32(data[pythExpoOffset:])),
		Price: int64(binary.LittleEndian.Uint64(data[pythPriceOffset:])),
		Conf:  binary.LittleEndian.Uint64(data[pythConfOffset:]),
	}, nil
}

// EncodePriceFeed lays a feed out the way DecodePriceFeed expects; used by tests and local validators.
func EncodePriceFeed(feed exchange.PriceFeed) []byte {
	data := make([]byte, PriceAccountSize)
	binary.LittleEndian.PutUint32(data[0:4], pythMagic)
	binary.LittleEndian.PutUint32(data[pythExpoOffset:], uint32(feed.Expo))
	binary.LittleEndian.PutUint64(data[pythPriceOffset:], uint64(feed.Price))
	binary.LittleEndian.PutUint64(data[pythConfOffset:], feed.Conf)
	return data
}

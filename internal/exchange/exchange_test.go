package exchange

import (
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K-Pomian/synthetify-protocol/internal/fixed"
)

var programID = solana.MustPublicKeyFromBase58("5Jx2koXFSH1CNB5NKtACUh1zhNb1h2G27HKUzeYkUvS3")

func TestDeriveAuthorityDeterministic(t *testing.T) {
	a1, n1, err := DeriveAuthority([]byte(DefaultAuthoritySeed), programID)
	require.NoError(t, err)
	a2, n2, err := DeriveAuthority([]byte(DefaultAuthoritySeed), programID)
	require.NoError(t, err)

	assert.True(t, a1.Equals(a2))
	assert.Equal(t, n1, n2)

	other, _, err := DeriveAuthority([]byte("other"), programID)
	require.NoError(t, err)
	assert.False(t, a1.Equals(other))
}

func TestStateAddress(t *testing.T) {
	s1, err := StateAddress(programID)
	require.NoError(t, err)
	s2, err := StateAddress(programID)
	require.NoError(t, err)
	assert.True(t, s1.Equals(s2))
	assert.False(t, s1.IsZero())
}

func TestAssetsListLookups(t *testing.T) {
	feed := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	list := AssetsList{
		Assets: []Asset{
			{Price: fixed.FromPrice(100_000_000), LastUpdate: NeverUpdated},
			{FeedAddress: feed, Price: fixed.FromPrice(5 * 100_000_000)},
		},
		Synthetics: []Synthetic{{AssetIndex: 1, AssetAddress: mint, MaxSupply: 10}},
	}

	idx, ok := list.AssetByFeed(feed)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = list.AssetByFeed(solana.NewWallet().PublicKey())
	assert.False(t, ok)

	syn, ok := list.SyntheticByMint(mint)
	require.True(t, ok)
	assert.Equal(t, "5.00000000", list.Price(syn.AssetIndex).String())
	assert.True(t, list.Price(9).IsZero())
}

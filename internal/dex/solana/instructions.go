package solana

import (
	solana "github.com/gagliardetto/solana-go"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

// Account sizes used when allocating program-owned accounts.
const (
	MintSize         = 82
	TokenAccountSize = 165

	// discriminator + initialized + three vec headers + fixed-capacity elements
	AssetsListSize = 8 + 1 + 3*4 +
		exchange.MaxAssets*(32+9+8+8) +
		exchange.MaxCollaterals*(1+32+32+32+1) +
		exchange.MaxSynthetics*(1+32+8+8+1)
)

type initArgs struct {
	Admin              solana.PublicKey
	Nonce              uint8
	StakingRoundLength uint32
	AmountPerRound     uint64
}

// InitInstruction builds the exchange state constructor.
func InitInstruction(programID, state solana.PublicKey, params exchange.InitParams) (solana.Instruction, error) {
	data, err := encodeInstruction(nsState, "new", initArgs{
		Admin:              params.Admin,
		Nonce:              params.Nonce,
		StakingRoundLength: params.StakingRoundLength,
		AmountPerRound:     params.AmountPerRound,
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(state).WRITE(),
		solana.Meta(params.Admin).WRITE().SIGNER(),
		solana.Meta(params.ExchangeAuthority),
		solana.Meta(params.StakingFundAccount),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(solana.SystemProgramID),
	}, data), nil
}

type createAssetsListArgs struct {
	CollateralToken     solana.PublicKey
	CollateralTokenFeed solana.PublicKey
	UsdToken            solana.PublicKey
	Reserve             solana.PublicKey
	LiquidationFund     solana.PublicKey
	CollateralDecimals  uint8
}

// CreateAssetsListInstruction fills a pre-allocated list account with the USD and collateral entries.
func CreateAssetsListInstruction(programID, state, admin, list, usdToken solana.PublicKey, params exchange.AssetsListParams) (solana.Instruction, error) {
	data, err := encodeInstruction(nsGlobal, "create_assets_list", createAssetsListArgs{
		CollateralToken:     params.CollateralToken,
		CollateralTokenFeed: params.CollateralTokenFeed,
		UsdToken:            usdToken,
		Reserve:             params.Reserve,
		LiquidationFund:     params.LiquidationFund,
		CollateralDecimals:  params.CollateralDecimals,
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(state),
		solana.Meta(admin).SIGNER(),
		solana.Meta(list).WRITE(),
		solana.Meta(solana.SysVarRentPubkey),
	}, data), nil
}

type setAssetsListArgs struct {
	AssetsList solana.PublicKey
}

// SetAssetsListInstruction attaches a list to the exchange state.
func SetAssetsListInstruction(programID, state, admin, list solana.PublicKey) (solana.Instruction, error) {
	data, err := encodeInstruction(nsState, "set_assets_list", setAssetsListArgs{AssetsList: list})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(state).WRITE(),
		solana.Meta(admin).SIGNER(),
		solana.Meta(list),
	}, data), nil
}

type addNewAssetArgs struct {
	FeedAddress solana.PublicKey
}

// AddNewAssetInstruction appends an unpriced asset for feed.
func AddNewAssetInstruction(programID, state, admin, list, feed solana.PublicKey) (solana.Instruction, error) {
	data, err := encodeInstruction(nsState, "add_new_asset", addNewAssetArgs{FeedAddress: feed})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(state),
		solana.Meta(admin).SIGNER(),
		solana.Meta(list).WRITE(),
	}, data), nil
}

type addSyntheticArgs struct {
	MaxSupply uint64
}

// AddSyntheticInstruction registers a mint as the synthetic for the asset priced by params.PriceFeed.
func AddSyntheticInstruction(programID, state, admin solana.PublicKey, params exchange.SyntheticParams) (solana.Instruction, error) {
	data, err := encodeInstruction(nsState, "add_synthetic", addSyntheticArgs{MaxSupply: params.MaxSupply})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(state),
		solana.Meta(admin).SIGNER(),
		solana.Meta(params.AssetsList).WRITE(),
		solana.Meta(params.AssetAddress),
		solana.Meta(params.PriceFeed),
	}, data), nil
}

// SetAssetsPricesInstruction refreshes every asset priced by feeds, passed as remaining accounts.
func SetAssetsPricesInstruction(programID, list solana.PublicKey, feeds []solana.PublicKey) (solana.Instruction, error) {
	data, err := encodeInstruction(nsGlobal, "set_assets_prices", nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.Meta(list).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
	}
	for _, feed := range feeds {
		accounts = append(accounts, solana.Meta(feed))
	}
	return solana.NewInstruction(programID, accounts, data), nil
}

type initializeFeedArgs struct {
	Price int64
	Expo  int32
	Conf  uint64
}

// InitializeFeedInstruction writes the initial price into a freshly allocated oracle account.
func InitializeFeedInstruction(oracleID, feedAccount solana.PublicKey, feed exchange.PriceFeed) (solana.Instruction, error) {
	data, err := encodeInstruction(nsGlobal, "initialize", initializeFeedArgs{
		Price: feed.Price,
		Expo:  feed.Expo,
		Conf:  feed.Conf,
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(oracleID, solana.AccountMetaSlice{
		solana.Meta(feedAccount).WRITE(),
	}, data), nil
}

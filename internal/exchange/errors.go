package exchange

import "errors"

var (
	ErrNotFound             = errors.New("account not found")
	ErrAlreadyInitialized   = errors.New("exchange already initialized")
	ErrNotInitialized       = errors.New("exchange not initialized")
	ErrAssetsListAlreadySet = errors.New("assets list already set")
	ErrAssetsListMismatch   = errors.New("assets list is not attached to the exchange")
	ErrUnauthorized         = errors.New("signer is not the exchange admin")
	ErrMintNotFound         = errors.New("synthetic mint does not exist")
	ErrAssetNotFound        = errors.New("no asset with such feed")
	ErrAssetExists          = errors.New("asset with this feed already registered")
	ErrSyntheticExists      = errors.New("synthetic already registered")
	ErrAssetsListFull       = errors.New("assets list is full")
	ErrFeedNotFound         = errors.New("price feed not found")
	ErrInvalidAccount       = errors.New("unexpected account data")
	ErrStateTimeout         = errors.New("exchange state not visible before timeout")
	ErrConfirmationTimeout  = errors.New("transaction not confirmed before timeout")
	ErrTransactionFailed    = errors.New("transaction failed on chain")
)

package bootstrap

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	solana "github.com/gagliardetto/solana-go"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
	"github.com/K-Pomian/synthetify-protocol/internal/fixed"
)

// Status values reported in Result.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusInProgress = "in-progress"
)

// SyntheticResult is one manifest asset as registered on the exchange.
type SyntheticResult struct {
	Ticker    string           `json:"ticker"`
	Mint      solana.PublicKey `json:"mint"`
	Feed      solana.PublicKey `json:"feed"`
	MaxSupply uint64           `json:"max_supply"`
}

// Result is every address a run produced, filled in as steps complete.
type Result struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`

	ExchangeAuthority solana.PublicKey  `json:"exchange_authority"`
	Nonce             uint8             `json:"nonce"`
	CollateralFeed    solana.PublicKey  `json:"collateral_feed"`
	CollateralToken   solana.PublicKey  `json:"collateral_token"`
	Reserve           solana.PublicKey  `json:"reserve"`
	LiquidationFund   solana.PublicKey  `json:"liquidation_fund"`
	StakingFund       solana.PublicKey  `json:"staking_fund"`
	AssetsList        solana.PublicKey  `json:"assets_list"`
	Synthetics        []SyntheticResult `json:"synthetics"`

	List *exchange.AssetsList `json:"-"`
}

// WriteJSON encodes r indented.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable prints the final synthetic and collateral tables from the assets list.
func (r *Result) WriteTable(w io.Writer) error {
	fmt.Fprintf(w, "exchange authority %s (nonce %d)\nassets list %s\n\n", r.ExchangeAuthority, r.Nonce, r.AssetsList)
	if r.List == nil {
		return nil
	}
	return WriteAssetsList(w, r.List, r.tickers())
}

func (r *Result) tickers() map[solana.PublicKey]string {
	out := make(map[solana.PublicKey]string, len(r.Synthetics))
	for _, s := range r.Synthetics {
		out[s.Mint] = s.Ticker
	}
	return out
}

// WriteAssetsList renders list as two tables. tickers labels synthetic mints; may be nil.
func WriteAssetsList(w io.Writer, list *exchange.AssetsList, tickers map[solana.PublicKey]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYNTHETIC\tTICKER\tPRICE\tMAX SUPPLY\tSUPPLY\tDECIMALS")
	for i, s := range list.Synthetics {
		ticker := tickers[s.AssetAddress]
		if ticker == "" && i == 0 {
			ticker = "xUSD"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", s.AssetAddress, ticker, price(list, s.AssetIndex), s.MaxSupply, s.Supply, s.Decimals)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "COLLATERAL\tPRICE\tRESERVE\tLIQUIDATION FUND\tDECIMALS")
	for _, c := range list.Collaterals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c.CollateralAddress, price(list, c.AssetIndex), c.ReserveAddress, c.LiquidationFund, c.Decimals)
	}
	return tw.Flush()
}

// price renders an asset price at PriceScale. Values that do not fit keep their stored scale.
func price(list *exchange.AssetsList, idx uint8) string {
	p := list.Price(idx)
	if scaled, err := p.ToScale(fixed.PriceScale); err == nil {
		return scaled.String()
	}
	return p.String()
}

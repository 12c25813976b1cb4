package main

import (
	"context"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/K-Pomian/synthetify-protocol/internal/bootstrap"
	dex "github.com/K-Pomian/synthetify-protocol/internal/dex/solana"
	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
)

var listAddr string

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Print the exchange authority and state addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, nonce, err := exchangeAuthority(cfg)
		if err != nil {
			return err
		}
		programID, _ := cfg.ExchangeProgram()
		state, err := exchange.StateAddress(programID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "authority %s\nnonce     %d\nstate     %s\n", authority, nonce, state)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read the exchange state account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ex, ctx, cancel, err := readOnlyExchange()
		if err != nil {
			return err
		}
		defer cancel()
		st, err := ex.State(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "admin                %s\n", st.Admin)
		fmt.Fprintf(w, "exchange authority   %s (nonce %d)\n", st.ExchangeAuthority, st.Nonce)
		fmt.Fprintf(w, "assets list          %s\n", st.AssetsList)
		fmt.Fprintf(w, "staking fund         %s\n", st.StakingFundAccount)
		fmt.Fprintf(w, "staking round length %d\n", st.StakingRoundLength)
		fmt.Fprintf(w, "amount per round     %d\n", st.AmountPerRound)
		return nil
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Print the assets list attached to the exchange",
	RunE: func(cmd *cobra.Command, args []string) error {
		ex, ctx, cancel, err := readOnlyExchange()
		if err != nil {
			return err
		}
		defer cancel()
		var list solana.PublicKey
		if listAddr != "" {
			if list, err = solana.PublicKeyFromBase58(listAddr); err != nil {
				return fmt.Errorf("--list: %w", err)
			}
		} else {
			st, err := ex.State(ctx)
			if err != nil {
				return err
			}
			list = st.AssetsList
		}
		assets, err := ex.AssetsList(ctx, list)
		if err != nil {
			return err
		}
		return bootstrap.WriteAssetsList(cmd.OutOrStdout(), assets, nil)
	},
}

func init() {
	assetsCmd.Flags().StringVar(&listAddr, "list", "", "assets list address (defaults to the one attached to the exchange)")
}

// readOnlyExchange dials the cluster. Reads need no signature, so a throwaway
// payer stands in when no wallet is configured.
func readOnlyExchange() (*dex.Exchange, context.Context, context.CancelFunc, error) {
	payer, err := loadWallet(cfg)
	if err != nil {
		payer = solana.NewWallet().PrivateKey
	}
	ex, err := dialExchange(cfg, payer)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	return ex, ctx, cancel, nil
}

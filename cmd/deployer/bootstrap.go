package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	solana "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/K-Pomian/synthetify-protocol/internal/bootstrap"
	"github.com/K-Pomian/synthetify-protocol/internal/checkpoint"
)

var (
	sandboxRun bool
	resumeRun  bool
	jsonOut    bool
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Deploy a fresh exchange and register the manifest's synthetics",
	Long: `Bootstrap runs every deployment step in order and prints the resulting
assets list. Progress is journaled to bootstrap.checkpoint; --resume skips
steps whose results are still on the ledger.

With --sandbox the steps run against an in-memory ledger instead of the cluster.
A sandbox starts empty on every invocation, so --sandbox cannot be combined
with --resume.`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().BoolVar(&sandboxRun, "sandbox", false, "run against an in-memory ledger")
	bootstrapCmd.Flags().BoolVar(&resumeRun, "resume", false, "continue from the checkpoint journal")
	bootstrapCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if sandboxRun && resumeRun {
		return errors.New("--resume has no journal to continue from in a --sandbox run")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		ledger  bootstrap.Ledger
		journal checkpoint.Store
		admin   solana.PublicKey
	)
	if sandboxRun {
		admin = solana.NewWallet().PublicKey()
		if key, err := loadWallet(cfg); err == nil {
			admin = key.PublicKey()
		}
		sb, err := newSandbox(cfg, admin)
		if err != nil {
			return err
		}
		ledger, journal = sb, checkpoint.NewMemory(32)
		logger.Warn().Str("admin", admin.String()).Msg("sandbox run, nothing is sent to the cluster")
	} else {
		payer, err := loadWallet(cfg)
		if err != nil {
			return err
		}
		admin = payer.PublicKey()
		ex, err := dialExchange(cfg, payer)
		if err != nil {
			return err
		}
		ledger = ex

		open := checkpoint.Create
		if resumeRun {
			open = checkpoint.Open
		}
		j, err := open(cfg.Bootstrap.Checkpoint)
		if err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
		defer j.Close()
		journal = j
		logger.Info().Str("rpc", cfg.Network.RpcURL).Str("admin", admin.String()).Bool("resume", resumeRun).Msg("starting bootstrap")
	}

	params, err := bootstrapParams(cfg, admin)
	if err != nil {
		return err
	}
	orch := bootstrap.New(ledger, params,
		bootstrap.WithLogger(logger),
		bootstrap.WithJournal(journal, resumeRun),
	)
	result, runErr := orch.Run(ctx)

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := result.WriteJSON(out); err != nil {
			return err
		}
	} else if err := result.WriteTable(out); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	logger.Info().Str("assets_list", result.AssetsList.String()).Int("synthetics", len(result.Synthetics)).Msg("bootstrap completed")
	return nil
}

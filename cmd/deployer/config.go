package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/K-Pomian/synthetify-protocol/internal/config"
	"github.com/K-Pomian/synthetify-protocol/internal/util"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage deployer configuration files",
	// Overrides the root hook, which needs an existing config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = util.NewLoggerTo(os.Stderr, logLevel)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default devnet configuration",
	Long: `init writes the built-in defaults as YAML to path, or to --config when no
path is given. Program ids and the manifest are left empty and must be filled
in before bootstrap will accept the file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := config.Save(path, config.Defaults()); err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("config written")
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/codehealth/core"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// watchCmd re-runs analyze whenever a source file changes.
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Analyze again whenever a source file under the path changes",
	Long: `Run analyze once, then watch the tree and analyze again after every burst of changes.

Only files with an analyzed extension count as changes. Hidden and excluded
directories are not watched. Changes are batched for --debounce before the next run.
Stop with Ctrl-C.

Examples:
  codehealth watch ./web
  codehealth watch --debounce 2s --output-file health.txt`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		debounce := viper.GetDuration("debounce")
		if err := core.ExecuteWatch(ctx, cfg, storeManager, debounce); err != nil {
			contract.LogFatal("Watch failed", err)
		}
	},
}

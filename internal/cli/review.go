package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scanline-ai/shieldrev/internal/config"
	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/logging"
	"github.com/scanline-ai/shieldrev/internal/resolver"
	"github.com/scanline-ai/shieldrev/internal/review"
	"github.com/scanline-ai/shieldrev/internal/session"
	"github.com/scanline-ai/shieldrev/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review <case-id>",
	Short: "Open an interactive shield review session",
	Long: `Open an interactive TUI for reviewing the shields on a case. The
resolved shield set is fetched from the resolver backend; any unsynced
edits snapshotted from a previous session are sent along and replayed.

Examples:
  shieldrev review case-8821
  shieldrev review case-8821 --vendor acme-corp
  shieldrev review case-8821 --template acme-invoice-v2 --vendor acme-corp`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("vendor", "", "vendor id for saving vendor rules")
	reviewCmd.Flags().String("template", "", "template id for saving template rules")
	reviewCmd.Flags().StringP("config", "c", "", "path to config file")
	reviewCmd.Flags().String("log-file", "", "write logs to this file instead of discarding them")
}

func runReview(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Logs go to a file or nowhere; stderr would tear the alt screen.
	log := zap.NewNop()
	if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
		log, err = logging.NewFile(cfg.Log.Level, logFile)
		if err != nil {
			return err
		}
		defer log.Sync()
	}

	store, err := session.Open(cfg.Session.Path, log)
	if err != nil {
		// Durability is best-effort; review without it.
		fmt.Fprintf(os.Stderr, "Warning: session store unavailable: %v\n", err)
		store = nil
	} else {
		defer store.Close()
	}

	vendorID, _ := cmd.Flags().GetString("vendor")
	templateID, _ := cmd.Flags().GetString("template")

	engine := review.NewEngine(review.Config{
		CaseID:     args[0],
		VendorID:   vendorID,
		TemplateID: templateID,
		Resolver:   resolver.New(cfg.Resolver.BaseURL, cfg.Resolver.Timeout, log),
		Store:      store,
		Logger:     log,
		Thresholds: geometry.Thresholds{Warn: cfg.Thresholds.Warn, Critical: cfg.Thresholds.Critical},
	})

	return tui.Run(engine)
}

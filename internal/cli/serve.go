package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scanline-ai/shieldrev/internal/api"
	"github.com/scanline-ai/shieldrev/internal/config"
	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/logging"
	"github.com/scanline-ai/shieldrev/internal/resolver"
	"github.com/scanline-ai/shieldrev/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the shield review engine to
browser-based UIs.

Endpoints:
  GET    /health                  — Health check
  POST   /api/conflicts           — Evaluate shield/zone conflicts
  GET    /api/sessions/{caseId}   — Read a session snapshot
  DELETE /api/sessions/{caseId}   — Clear a session snapshot
  GET    /api/ws                  — WebSocket for review sessions`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 8391, "port to listen on")
	serveCmd.Flags().StringP("config", "c", "", "path to config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := session.Open(cfg.Session.Path, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session store unavailable: %v\n", err)
		store = nil
	} else {
		defer store.Close()
	}

	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")
	listen := fmt.Sprintf("%s:%d", addr, port)

	srv := api.New(
		listen,
		resolver.New(cfg.Resolver.BaseURL, cfg.Resolver.Timeout, log),
		store,
		geometry.Thresholds{Warn: cfg.Thresholds.Warn, Critical: cfg.Thresholds.Critical},
		log,
	)
	return srv.ListenAndServe()
}

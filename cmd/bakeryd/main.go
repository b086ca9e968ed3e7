// bakeryd is the catalog server. It speaks newline-delimited JSON-RPC on
// stdin/stdout and keeps all logging on stderr, so it can be driven as a
// subprocess by the shop UI or by hand for debugging.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweetdelights/bakery-mcp/internal/catalog"
	"github.com/sweetdelights/bakery-mcp/internal/config"
	"github.com/sweetdelights/bakery-mcp/internal/llm"
	"github.com/sweetdelights/bakery-mcp/internal/logx"
	"github.com/sweetdelights/bakery-mcp/internal/server"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "bakeryd",
		Short:         "Sweet Delights catalog server (JSON-RPC over stdio)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := root.Execute(); err != nil {
		logx.Log.Fatal().Err(err).Msg("bakeryd exited")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logx.With("bakeryd")
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lm := llm.NewClient(cfg.Ollama, logx.With("ollama"))
	srv := server.NewServer(os.Stdin, os.Stdout, catalog.Default(), lm, log)

	log.Info().Msg("catalog server starting on stdio")
	err = srv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("catalog server stopped")
	return err
}

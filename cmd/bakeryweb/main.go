// bakeryweb serves the Sweet Delights shop UI. It launches the catalog
// server (bakeryd) as a subprocess, connects to it over stdio, and keeps
// serving pages with demo data whenever the subprocess is down.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweetdelights/bakery-mcp/internal/config"
	"github.com/sweetdelights/bakery-mcp/internal/logx"
	"github.com/sweetdelights/bakery-mcp/internal/proc"
	"github.com/sweetdelights/bakery-mcp/internal/web"
	"github.com/sweetdelights/bakery-mcp/pkg/client"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "bakeryweb",
		Short:         "Sweet Delights shop UI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := root.Execute(); err != nil {
		logx.Log.Fatal().Err(err).Msg("bakeryweb exited")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logx.With("bakeryweb")
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group := proc.NewGroup()
	rpc := client.NewClient(client.Config{
		Command:         cfg.Server.Command,
		Args:            cfg.Server.Args,
		ConnectTimeout:  cfg.Server.ConnectTimeout,
		CallTimeout:     cfg.Server.CallTimeout,
		SettleDelay:     cfg.Server.SettleDelay,
		GracefulTimeout: cfg.Server.GracefulTimeout,
	}, group, client.WithLogger(logx.With("rpc")))
	defer func() {
		if err := rpc.Close(); err != nil {
			log.Error().Err(err).Msg("closing server connection")
		}
	}()

	// A failed connect is not fatal. The UI serves demo data and offers a
	// reconnect button.
	if err := rpc.Connect(ctx); err != nil {
		log.Error().Err(err).Msg("catalog server connect failed, serving demo data")
	}

	ui := web.NewServer(cfg.Web, rpc, logx.With("web"))
	httpSrv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           ui.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Web.Addr).Msg("shop UI listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nhdewitt/httpdemo/internal/config"
	"github.com/nhdewitt/httpdemo/internal/logging"
	"github.com/nhdewitt/httpdemo/internal/request"
	"github.com/nhdewitt/httpdemo/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	rt := newRouter(cfg, log)
	for _, r := range rt.Routes() {
		log.Debug().Str("route", r.String()).Msg("registered")
	}

	limits := request.Limits{MaxHeaderBytes: cfg.MaxHeaderBytes, MaxBodyBytes: cfg.MaxBodyBytes}
	srv, err := server.Serve(cfg.Port, rt.Dispatch, log, server.WithLimits(limits))
	if err != nil {
		return err
	}
	log.Info().Str("addr", srv.Addr().String()).Msg("server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	err = srv.Close()
	served, failed := srv.Stats()
	log.Info().Str("signal", sig.String()).Int64("served", served).Int64("failed", failed).Msg("server gracefully stopped")
	return err
}

package main

import (
	"github.com/nhdewitt/httpdemo/internal/assets"
	"github.com/nhdewitt/httpdemo/internal/config"
	"github.com/nhdewitt/httpdemo/internal/handlers"
	"github.com/nhdewitt/httpdemo/internal/router"
	"github.com/nhdewitt/httpdemo/internal/words"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "httpserver",
	Short:         "Demo HTTP/1.1 endpoint server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./httpdemo.{yaml,json,toml} if present)")
	rootCmd.PersistentFlags().Int("port", config.DefaultConfig().Port, "port to listen on")
	rootCmd.PersistentFlags().String("asset-dir", "", "directory whose files override the bundled assets")
	rootCmd.PersistentFlags().Int("max-header-bytes", config.DefaultConfig().MaxHeaderBytes, "largest request line plus header section accepted")
	rootCmd.PersistentFlags().Int("max-body-bytes", config.DefaultConfig().MaxBodyBytes, "largest request body accepted")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
}

// newRouter builds the route table with a fresh word store.
func newRouter(cfg *config.Config, log zerolog.Logger) *router.Router {
	rt := router.New()
	handlers.New(words.NewStore(), assets.New(cfg.AssetDir), log).Register(rt)
	return rt
}

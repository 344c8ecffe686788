package main

import (
	"os"

	"github.com/nhdewitt/httpdemo/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logging.New(logging.Config{Level: "error", Format: logging.FormatConsole})
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

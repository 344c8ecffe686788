package main

import (
	"fmt"

	"github.com/nhdewitt/httpdemo/internal/config"
	"github.com/nhdewitt/httpdemo/internal/logging"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		for _, r := range newRouter(cfg, logging.Nop()).Routes() {
			fmt.Fprintln(cmd.OutOrStdout(), r)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

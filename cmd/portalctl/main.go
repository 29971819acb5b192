package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	companyArg string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Realty portal command line",
	Long:  "portalctl signs in to the realty portal backend and lists users, clients and agent performance within the scope of the signed-in account.",
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/portalctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&companyArg, "company", "", "company slug, overrides the profile")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print every setting after files and flags are merged",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := settings(); err != nil {
			return err
		}
		keys := viper.AllKeys()
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", key, viper.Get(key))
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), viper.ConfigFileUsed())
	},
}

func init() {
	configCmd.AddCommand(configPrintCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

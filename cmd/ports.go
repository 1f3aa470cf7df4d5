package cmd

import (
	"fmt"

	"github.com/ColonelBlimp/cwkeyer/internal/device"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI inputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, err := device.ListPorts()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "no MIDI inputs found")
			return nil
		}
		for i, name := range names {
			fmt.Fprintf(out, "%d: %s\n", i, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

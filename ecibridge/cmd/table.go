package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ecibridge/simulation"
)

var tableFormat string

var tableCmd = &cobra.Command{
	Use:   "table MODEL",
	Short: "Start a model and print its ECI lookup tables.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tableFormat != "yaml" && tableFormat != "json" {
			return fmt.Errorf("unknown format %q, want yaml or json",
				tableFormat)
		}

		s, err := loadModel(args[0], simulation.MakeBuilder())
		if err != nil {
			return err
		}
		defer s.Terminate()

		err = s.Configure()
		if err != nil {
			return err
		}

		err = s.Start()
		if err != nil {
			return err
		}

		t, err := s.ECITable()
		if err != nil {
			return err
		}

		if tableFormat == "json" {
			return t.WriteJSON(cmd.OutOrStdout())
		}

		return t.WriteYAML(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().StringVar(&tableFormat, "format", "yaml",
		"Output format, yaml or json.")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ecibridge/simulation"
)

var validateCmd = &cobra.Command{
	Use:   "validate MODEL",
	Short: "Check the parameters of every block in a model.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadModel(args[0], simulation.MakeBuilder())
		if err != nil {
			return err
		}
		defer s.Terminate()

		err = s.Configure()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d blocks OK\n",
			args[0], len(s.Blocks()))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

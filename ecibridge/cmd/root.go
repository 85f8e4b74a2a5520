// Package cmd provides the command-line interface of ecibridge.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ecibridge/config"
	"github.com/sarchlab/ecibridge/simulation"
)

var (
	logLevel string
	settings = config.DefaultSettings()
)

var rootCmd = &cobra.Command{
	Use:   "ecibridge",
	Short: "Run models of ECI bridge blocks.",
	Long: `ecibridge loads models of bridge blocks (FDC flags, events and ` +
		`conditional messages), prints the lookup tables the flight ` +
		`software side reads, and runs the models step by step.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		s, err := config.LoadSettings(".env")
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			s.LogLevel, err = logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
		}

		settings = s
		logrus.SetLevel(settings.LogLevel)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (trace, debug, info, warn, error). "+
			"Defaults to $"+config.EnvLogLevel+".")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadModel builds the simulation described by the model file. The builder
// receives the standard logger.
func loadModel(
	path string,
	builder simulation.Builder,
) (*simulation.Simulation, error) {
	m, err := config.LoadModel(path)
	if err != nil {
		return nil, err
	}

	return m.Build(builder.WithLogger(logrus.StandardLogger()))
}

// checkModel builds, configures and starts a throwaway simulation of the
// model so that bad models fail before anything is opened for the real run.
func checkModel(m *config.Model) error {
	s, err := m.Build(simulation.MakeBuilder().
		WithLogger(logrus.StandardLogger()))
	if err != nil {
		return err
	}
	defer s.Terminate()

	err = s.Configure()
	if err != nil {
		return err
	}

	return s.Start()
}

func interruptContext(parent context.Context) (context.Context, func()) {
	return signal.NotifyContext(parent, os.Interrupt)
}

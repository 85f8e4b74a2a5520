package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ecibridge/simulation"
)

var serveFlags struct {
	port int
	open bool
}

var serveCmd = &cobra.Command{
	Use:   "serve MODEL",
	Short: "Start a model and let the monitoring API drive its steps.",
	Long: `Start a model and serve the monitoring API until interrupted. ` +
		`Steps run on POST /api/step; slots can be read and written ` +
		`between steps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port := serveFlags.port
		if !cmd.Flags().Changed("port") {
			port = settings.MonitorPort
		}

		builder := simulation.MakeBuilder().
			WithMonitor().
			WithMonitorStepping()
		if port > 0 {
			builder = builder.WithMonitorPort(port)
		}

		s, err := loadModel(args[0], builder)
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

		url := s.GetMonitor().URL()
		if serveFlags.open {
			err = browser.OpenURL(url)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
			}
		}

		ctx, stop := interruptContext(cmd.Context())
		defer stop()

		<-ctx.Done()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0,
		"Port of the monitoring server.")
	serveCmd.Flags().BoolVar(&serveFlags.open, "open", false,
		"Open the monitor page in a browser.")
}

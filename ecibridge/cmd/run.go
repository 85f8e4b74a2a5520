package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ecibridge/config"
	"github.com/sarchlab/ecibridge/datarecording"
	"github.com/sarchlab/ecibridge/simulation"
	"github.com/sarchlab/ecibridge/tracing"
)

var runFlags struct {
	steps       uint64
	stimulus    string
	record      string
	sampleFlags bool
	monitor     bool
	monitorPort int
	trace       bool
}

var runCmd = &cobra.Command{
	Use:   "run MODEL",
	Short: "Run a model for a number of steps.",
	Long: `Run a model for a number of steps. Events are written to the log ` +
		`and, with --record, into a SQLite recording.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunDefaults(cmd)

		if runFlags.sampleFlags && runFlags.record == "" {
			return fmt.Errorf("--sample-flags needs --record")
		}

		var (
			stim simulation.Stimulus
			err  error
		)

		if runFlags.stimulus != "" {
			stim, err = config.LoadStimulus(runFlags.stimulus)
			if err != nil {
				return err
			}
		}

		m, err := config.LoadModel(args[0])
		if err != nil {
			return err
		}

		err = checkModel(m)
		if err != nil {
			return err
		}

		builder := simulation.MakeBuilder().
			WithLogger(logrus.StandardLogger())

		var recorder datarecording.DataRecorder
		if runFlags.record != "" {
			recorder = datarecording.New(runFlags.record)
			builder = builder.WithDataRecorder(recorder)
		}

		if runFlags.monitor {
			builder = builder.WithMonitor()
			if runFlags.monitorPort > 0 {
				builder = builder.WithMonitorPort(runFlags.monitorPort)
			}
		}

		s, err := m.Build(builder)
		if err != nil {
			if recorder != nil {
				_ = recorder.Close()
			}

			return err
		}
		defer s.Terminate()

		timer := tracing.NewStepTimeTracer()
		tracing.CollectTrace(s, timer)

		if runFlags.trace {
			tracing.CollectTrace(s, tracing.NewLogTracer(logrus.StandardLogger()))
		}

		err = s.Configure()
		if err != nil {
			return err
		}

		err = s.Start()
		if err != nil {
			return err
		}

		if runFlags.sampleFlags {
			tracing.CollectTrace(s, tracing.NewFlagSampler(s.Slots(), recorder))
		}

		ctx, stop := interruptContext(cmd.Context())
		defer stop()

		err = s.Run(ctx, runFlags.steps, stim)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"steps":        timer.NumSteps(),
			"average_step": timer.AverageTime(),
			"longest_step": timer.LongestTime(),
		}).Info("run complete")

		return nil
	},
}

// Flags left unset fall back to the ECIBRIDGE_* settings.
func applyRunDefaults(cmd *cobra.Command) {
	if !cmd.Flags().Changed("record") {
		runFlags.record = settings.RecordPath
	}

	if !cmd.Flags().Changed("monitor-port") {
		runFlags.monitorPort = settings.MonitorPort
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.Uint64Var(&runFlags.steps, "steps", 0, "Number of steps to run.")
	f.StringVar(&runFlags.stimulus, "stimulus", "",
		"YAML file listing the inputs of each step.")
	f.StringVar(&runFlags.record, "record", "",
		"Record events into this SQLite file. "+
			"Defaults to $"+config.EnvRecord+".")
	f.BoolVar(&runFlags.sampleFlags, "sample-flags", false,
		"Record every change of an exported flag.")
	f.BoolVar(&runFlags.monitor, "monitor", false,
		"Serve the monitoring API while running.")
	f.IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"Port of the monitoring server. "+
			"Defaults to $"+config.EnvMonitorPort+".")
	f.BoolVar(&runFlags.trace, "trace", false,
		"Log block transitions and steps.")

	_ = runCmd.MarkFlagRequired("steps")
}

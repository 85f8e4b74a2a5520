package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ecibridge/datarecording"
	"github.com/sarchlab/ecibridge/reporting"
)

var eventsFlags struct {
	sid   string
	limit int
}

var eventsCmd = &cobra.Command{
	Use:   "events RECORDING",
	Short: "List the events stored in a recording.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		r.MapTable(reporting.EventReportTable, reporting.Report{})

		params := datarecording.QueryParams{
			OrderBy: "Step",
			Limit:   eventsFlags.limit,
		}
		if eventsFlags.sid != "" {
			params.Where = "SID = ?"
			params.Args = []any{eventsFlags.sid}
		}

		rows, total, err := r.Query(cmd.Context(),
			reporting.EventReportTable, params)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tSID\tID\tTYPE\tMASK\tMESSAGE")

		for _, row := range rows {
			rep := row.(*reporting.Report)
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%#x\t%s\n",
				rep.Step, rep.SID, rep.EventID, rep.EventType,
				rep.EventMask, rep.Message)
		}

		err = w.Flush()
		if err != nil {
			return err
		}

		if len(rows) < total {
			fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d events)\n",
				len(rows), total)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVar(&eventsFlags.sid, "sid", "",
		"Only list events of this block.")
	eventsCmd.Flags().IntVar(&eventsFlags.limit, "limit", 0,
		"List at most this many events.")
}

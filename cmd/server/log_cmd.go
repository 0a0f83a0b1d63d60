package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/openmined/davbox/internal/server/accesslog"
	"github.com/spf13/cobra"
)

const defaultLogLimit = 50

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log <username>",
		Short: "Show the most recent WebDAV requests of a user",
		Long:  "Show the most recent WebDAV requests of a user. Unauthenticated requests are logged under \"anonymous\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			al, err := accesslog.New(cfg.AccessLogDir(), slog.Default())
			if err != nil {
				return err
			}
			defer al.Close()

			entries, err := al.ReadUserLogs(args[0], limit)
			if err != nil {
				return fmt.Errorf("read access log: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no requests logged for %s\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tMETHOD\tSTATUS\tSIZE\tDURATION\tPATH")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					e.Timestamp.Format(time.DateTime),
					e.Method,
					e.StatusCode,
					humanize.Bytes(uint64(e.Bytes)),
					e.Duration,
					e.Path,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLogLimit, "Number of entries to show, 0 for all")
	return cmd
}

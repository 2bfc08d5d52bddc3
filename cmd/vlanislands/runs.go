package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vlanislands/internal/domain"
	"vlanislands/internal/report"
	"vlanislands/internal/repository"
)

var (
	runsLimit     int
	runsSource    string
	runsUnhealthy bool
	runsJSON      bool
	showFormat    string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored analysis runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		runs, err := repo.ListRuns(cmd.Context(), repository.ListOptions{
			Limit:         runsLimit,
			Source:        runsSource,
			UnhealthyOnly: runsUnhealthy,
		})
		if err != nil {
			return err
		}

		if runsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs stored")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tPOLICY\tVLANS\tUNHEALTHY\tISLANDS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Source, r.Policy,
				r.VlanCount, r.UnhealthyCount, r.TotalIslands)
		}
		return tw.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print the report of a stored run (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		var run *domain.Run
		if len(args) == 1 {
			run, err = repo.GetRun(cmd.Context(), args[0])
		} else {
			run, err = repo.LatestRun(cmd.Context(), "")
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Run %s (%s, policy %s, input %s)\n",
			run.ID, run.Source, run.Policy, shortDigest(run.InputDigest))
		return report.Write(cmd.OutOrStdout(), run.Report, showFormat)
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>...",
	Short: "Delete stored runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		for _, id := range args {
			if err := repo.DeleteRun(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
		}
		return nil
	},
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs (0 for all)")
	runsListCmd.Flags().StringVar(&runsSource, "source", "", "only runs for this input source")
	runsListCmd.Flags().BoolVar(&runsUnhealthy, "unhealthy", false, "only runs with fragmented VLANs")
	runsListCmd.Flags().BoolVar(&runsJSON, "json", false, "print JSON instead of a table")
	runsShowCmd.Flags().StringVarP(&showFormat, "format", "f", report.FormatText, "report format: "+strings.Join(report.Formats(), ", "))

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

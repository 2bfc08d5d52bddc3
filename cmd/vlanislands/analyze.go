package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vlanislands/internal/detect"
	"vlanislands/internal/domain"
	"vlanislands/internal/report"
	"vlanislands/internal/repository/sqlite"
	"vlanislands/internal/service"
	"vlanislands/internal/watcher"
)

var (
	analyzeFormat        string
	analyzeOutput        string
	analyzeInputFormat   string
	analyzePolicy        string
	analyzeWorkers       int
	analyzeExclude       []string
	analyzeSave          bool
	analyzeFailOnIslands bool
	analyzeWatch         bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <topology-file|->",
	Short: "Detect VLAN islands in a topology file",
	Long: `Reads a topology document (json, yaml or ansible inventory), builds the
physical link graph, and reports the connected components of every VLAN.
Use "-" to read from stdin together with --input-format.

With --watch the file is re-analyzed every time it changes until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("policy") {
			preset := detect.Preset(strings.ToLower(analyzePolicy))
			if _, ok := detect.Presets[preset]; !ok {
				return fmt.Errorf("unknown policy: %s (supported: strict, balanced, lenient)", analyzePolicy)
			}
			cfg.Detection.Policy = preset
		}
		if cmd.Flags().Changed("workers") {
			cfg.Detection.Workers = analyzeWorkers
		}
		if cmd.Flags().Changed("exclude-status") {
			cfg.Graph.ExcludeLinkStatuses = analyzeExclude
		}
		if analyzeWatch && args[0] == "-" {
			return errors.New("--watch needs a file path, not stdin")
		}

		var repo *sqlite.Repository
		if analyzeSave {
			var err error
			repo, err = openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()
		}

		svc, err := newAnalysisService(repo, nil, nil)
		if err != nil {
			return err
		}

		if !analyzeWatch {
			run, err := analyzeOnce(cmd, svc, args[0])
			if err != nil {
				return err
			}
			if analyzeFailOnIslands && !run.Healthy() {
				return &exitError{code: 2}
			}
			return nil
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		if _, err := analyzeOnce(cmd, svc, args[0]); err != nil {
			logger.Error("analysis failed", "source", args[0], "error", err)
		}

		w := watcher.New(args[0], func(path string) {
			if _, err := analyzeOnce(cmd, svc, path); err != nil {
				logger.Error("analysis failed", "source", path, "error", err)
			}
		}).WithLogger(logger)

		if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// analyzeOnce reads, analyzes and writes one report for path
func analyzeOnce(cmd *cobra.Command, svc *service.AnalysisService, path string) (*domain.Run, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}

	source := path
	if source == "-" {
		source = "stdin"
	}

	run, err := svc.Analyze(cmd.Context(), service.AnalyzeRequest{
		Source: source,
		Format: analyzeInputFormat,
		Data:   data,
		Save:   analyzeSave,
	})
	if err != nil {
		return nil, err
	}

	w, closeOut, err := openOutput(cmd, analyzeOutput)
	if err != nil {
		return nil, err
	}
	if err := report.Write(w, run.Report, analyzeFormat); err != nil {
		closeOut()
		return nil, err
	}
	if err := closeOut(); err != nil {
		return nil, err
	}

	if run.ID != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", run.ID)
	}
	return run, nil
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", report.FormatText, "report format: "+strings.Join(report.Formats(), ", "))
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeInputFormat, "input-format", "", "input format: json, yaml or ansible (default: from file extension)")
	analyzeCmd.Flags().StringVar(&analyzePolicy, "policy", "", "classification policy: strict, balanced or lenient")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "concurrent VLAN workers")
	analyzeCmd.Flags().StringSliceVar(&analyzeExclude, "exclude-status", nil, "ignore links with these statuses (e.g. down)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "store the result in the run database")
	analyzeCmd.Flags().BoolVar(&analyzeFailOnIslands, "fail-on-islands", false, "exit with status 2 when any VLAN is fragmented")
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "re-analyze the file whenever it changes")
	rootCmd.AddCommand(analyzeCmd)
}

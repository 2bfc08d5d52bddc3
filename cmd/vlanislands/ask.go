package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vlanislands/internal/assistant"
	"vlanislands/internal/domain"
	"vlanislands/internal/service"
)

var (
	askRun         string
	askInput       string
	askInputFormat string
	askHistory     string
	askInteractive bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the network assistant about a report",
	Long: `Sends a question, together with a summary of a detection report, to an
OpenAI-compatible chat completion API. The report comes from --input (analysed
on the fly), --run, or the latest stored run. With --interactive, questions are
read from stdin one per line and the conversation history is kept in memory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" && !askInteractive {
			return fmt.Errorf("a question is required (or use --interactive)")
		}

		bridge, err := newBridge()
		if err != nil {
			return err
		}

		var (
			rep      *domain.Report
			analysis *service.AnalysisService
		)
		if askInput != "" {
			data, err := readInput(cmd, askInput)
			if err != nil {
				return err
			}
			analysis, err = newAnalysisService(nil, nil, nil)
			if err != nil {
				return err
			}
			run, err := analysis.Analyze(cmd.Context(), service.AnalyzeRequest{
				Source: askInput,
				Format: askInputFormat,
				Data:   data,
			})
			if err != nil {
				return err
			}
			rep = run.Report
		} else {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()
			analysis, err = newAnalysisService(repo, nil, nil)
			if err != nil {
				return err
			}
		}

		history, err := loadHistory(askHistory)
		if err != nil {
			return err
		}

		svc := service.NewAssistantService(bridge, analysis, nil, nil, logger)
		ask := func(q string) error {
			res, err := svc.Ask(cmd.Context(), service.AskRequest{
				Query:   q,
				History: history,
				RunID:   askRun,
				Report:  rep,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Answer)
			history = append(history, assistant.Turn{Query: q, Answer: res.Answer})
			return nil
		}

		if !askInteractive {
			return ask(query)
		}

		if query != "" {
			if err := ask(query); err != nil {
				return err
			}
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(cmd.ErrOrStderr(), "> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			if err := ask(line); err != nil {
				// keep the session alive on service errors
				fmt.Fprintf(cmd.ErrOrStderr(), "Error (%s): %v\n", assistant.Kind(err), err)
			}
		}
	},
}

// loadHistory reads prior turns from a JSON file of [{query, answer}]
func loadHistory(path string) ([]assistant.Turn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var turns []assistant.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", path, err)
	}
	return turns, nil
}

func init() {
	askCmd.Flags().StringVar(&askRun, "run", "", "stored run ID (default: latest run)")
	askCmd.Flags().StringVar(&askInput, "input", "", "analyse this topology file instead of using a stored run")
	askCmd.Flags().StringVar(&askInputFormat, "input-format", "", "format of --input (default: from file extension)")
	askCmd.Flags().StringVar(&askHistory, "history", "", "JSON file with prior turns")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "read questions from stdin until EOF or 'exit'")
	rootCmd.AddCommand(askCmd)
}

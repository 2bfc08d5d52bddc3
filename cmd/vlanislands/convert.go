package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vlanislands/internal/codec"
	"vlanislands/internal/loader"
)

var (
	convertFrom   string
	convertTo     string
	convertOutput string
)

var convertCmd = &cobra.Command{
	Use:   "convert <topology-file|->",
	Short: "Validate a topology and rewrite it in another format",
	Long: `Parses and validates a topology document, then writes its normalized form
(sorted devices and VLANs, deduplicated links and members) in the target format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		from := convertFrom
		if from == "" {
			from = codec.FormatFromPath(args[0])
		}
		if from == "" {
			return fmt.Errorf("cannot infer input format of %s, use --from: %w", args[0], codec.ErrUnknownFormat)
		}

		topo, err := loader.Read(bytes.NewReader(data), from)
		if err != nil {
			return err
		}

		out, err := codec.ForFormat(convertTo)
		if err != nil {
			return err
		}

		w, closeOut, err := openOutput(cmd, convertOutput)
		if err != nil {
			return err
		}
		if err := out.Export(topo.Document(), w); err != nil {
			closeOut()
			return err
		}
		return closeOut()
	},
}

func init() {
	formats := strings.Join(codec.Formats(), ", ")
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "input format: "+formats+" (default: from file extension)")
	convertCmd.Flags().StringVar(&convertTo, "to", "yaml", "output format: "+formats)
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "write to a file instead of stdout")
	rootCmd.AddCommand(convertCmd)
}

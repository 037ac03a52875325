package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"yamlet.dev/go"
)

func newEvalCmd() *cobra.Command {
	var rawPath string
	cmd := &cobra.Command{
		Use:   "eval <file> [dotted.path]",
		Short: "Evaluate a Yamlet document and print the result as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rawPath
			if len(args) == 2 {
				path = args[1]
			}
			return runEval(args[0], path)
		},
	}
	cmd.Flags().StringVar(&rawPath, "path", "", "dotted key path into the document, e.g. a.b.c")
	return cmd
}

func runEval(file, dottedPath string) error {
	start := time.Now()
	v, err := yamlet.LoadFile(file)
	if err != nil {
		return err
	}
	slog.Debug("loaded document", "file", file, "elapsed", time.Since(start))

	if dottedPath != "" {
		parts := strings.Split(dottedPath, ".")
		for _, p := range parts[:len(parts)-1] {
			v, err = v.GetTuple(p)
			if err != nil {
				return err
			}
		}
		raw, err := v.Get(parts[len(parts)-1])
		if err != nil {
			return err
		}
		return printJSON(jsonable(raw))
	}

	out, err := v.EvaluateFully()
	if err != nil {
		return err
	}
	return printJSON(jsonable(out))
}

// jsonable rewrites apd.Decimal leaves (which encoding/json would
// otherwise marshal as their internal struct fields) to plain decimal
// strings, recursing through the map/slice shapes EvaluateFully produces.
func jsonable(v any) any {
	switch x := v.(type) {
	case apd.Decimal:
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonable(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonable(e)
		}
		return out
	default:
		return v
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(cmdStdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

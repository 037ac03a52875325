package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"yamlet.dev/go"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl <file>",
		Short: "Interactively inspect a loaded Yamlet document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := yamlet.LoadFile(args[0])
			if err != nil {
				return err
			}
			return runRepl(v, cmd.InOrStdin())
		},
	}
}

// runRepl tokenizes each input line with shlex (the same argv-style
// tokenization a shell would do) and dispatches it against the already
// loaded document: `keys`, `get <dotted.path>`, `explain <key>`, `quit`.
func runRepl(v *yamlet.Value, stdin interface{ Read([]byte) (int, error) }) error {
	scanner := bufio.NewScanner(stdin)
	fmt.Fprintln(cmdStdout, "yamlet repl — keys | get <path> | explain <key> | quit")
	for {
		fmt.Fprint(cmdStdout, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		words, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintln(cmdStdout, "parse error:", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		if done := dispatchReplCommand(v, words); done {
			return nil
		}
	}
}

func dispatchReplCommand(v *yamlet.Value, words []string) (quit bool) {
	switch words[0] {
	case "quit", "exit":
		return true

	case "keys":
		for _, k := range v.Keys() {
			fmt.Fprintln(cmdStdout, k)
		}

	case "get":
		if len(words) != 2 {
			fmt.Fprintln(cmdStdout, "usage: get <dotted.path>")
			return false
		}
		cur := v
		parts := strings.Split(words[1], ".")
		var raw any
		var err error
		for i, p := range parts {
			if i == len(parts)-1 {
				raw, err = cur.Get(p)
				break
			}
			cur, err = cur.GetTuple(p)
			if err != nil {
				break
			}
		}
		if err != nil {
			fmt.Fprintln(cmdStdout, "error:", err)
			return false
		}
		fmt.Fprintf(cmdStdout, "%v\n", raw)

	case "explain":
		if len(words) != 2 {
			fmt.Fprintln(cmdStdout, "usage: explain <key>")
			return false
		}
		md, err := v.ExplainValue(words[1])
		if err != nil {
			fmt.Fprintln(cmdStdout, "error:", err)
			return false
		}
		rendered, err := renderMarkdownPlain([]byte(md))
		if err != nil {
			fmt.Fprintln(cmdStdout, "error:", err)
			return false
		}
		fmt.Fprint(cmdStdout, rendered)

	default:
		fmt.Fprintln(cmdStdout, "unknown command:", words[0])
	}
	return false
}

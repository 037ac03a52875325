package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"yamlet.dev/go"
)

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <file> <key>",
		Short: "Explain which source contributed a key's current value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runExplain(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmdStdout, out)
			return nil
		},
	}
}

func runExplain(file, key string) (string, error) {
	v, err := yamlet.LoadFile(file)
	if err != nil {
		return "", err
	}
	md, err := v.ExplainValue(key)
	if err != nil {
		return "", err
	}
	return renderMarkdownPlain([]byte(md))
}

// renderMarkdownPlain walks a goldmark-parsed Markdown document (the
// small heading-plus-paragraph narrative Value.ExplainValue produces) and
// renders it as plain terminal text: headings become an upper-cased,
// underlined title line, paragraphs are left as their own text block.
func renderMarkdownPlain(src []byte) (string, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			title := string(n.Text(src))
			b.WriteString(strings.ToUpper(title))
			b.WriteString("\n")
			b.WriteString(strings.Repeat("-", len(title)))
			b.WriteString("\n\n")
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph:
			b.WriteString(string(n.Text(src)))
			b.WriteString("\n\n")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

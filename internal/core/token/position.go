// Copyright 2019 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package token carries source positions through the Yamlet evaluator: every
// value produced by the YAML tag-constructor layer, the expression parser,
// and the composition engine is tagged with a (file, line, column) so that
// trace frames and error messages can point back into the original document.
package token

import (
	"fmt"
	"sort"
)

// Pos describes a location in a source file: a byte offset into a [File],
// plus how it relates, visually, to whatever came immediately before it.
// The latter (Rel) is carried the way cue/token.Pos threads
// relative-position information through its AST; the trace renderer does
// not read it.
type Pos struct {
	file *File
	offset int
	rel Rel
}

// Rel records whether a position starts on the same line as the previous
// one, a new line, or after a blank line.
type Rel int8

const (
	NoRelPos Rel = iota
	NoSpace
	Blank
	Newline
	NewSection
)

// NoPos is the zero Pos: "position unknown."
var NoPos = Pos{}

// WithRel returns a copy of p with its relative-position flag replaced.
func (p Pos) WithRel(r Rel) Pos {
	p.rel = r
	return p
}

// Offset reports the byte offset of p within its file, or 0 for NoPos.
func (p Pos) Offset() int {
	return p.offset
}

// IsValid reports whether p refers to an actual file.
func (p Pos) IsValid() bool {
	return p.file != nil
}

// Position expands p into a line/column pair relative to its file.
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	line, col := p.file.lineCol(p.offset)
	return Position{
		Filename: p.file.name,
		Offset:   p.offset,
		Line:     line,
		Column:   col,
	}
}

func (p Pos) String() string {
	return p.Position().String()
}

// Position is the fully expanded, human-readable form of a Pos.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// IsValid reports whether p carries real line/column information.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// File tracks line-start offsets for a single source document so that byte
// offsets can be converted to line/column pairs on demand, rather than
// storing a line/column on every node.
type File struct {
	name  string
	size  int
	lines []int // byte offset of the first byte of each line
}

// NewFile allocates a File for a document of the given size. base is kept
// for parity with cue/token.NewFile's signature but Yamlet never merges
// multiple documents into one offset space, so it is always 0.
func NewFile(name string, base, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// SetLinesForContent scans src for newlines and records each line's start
// offset, so later Pos values constructed from a byte offset can be
// expanded into line/column.
func (f *File) SetLinesForContent(src []byte) {
	lines := []int{0}
	for i, b := range src {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	f.lines = lines
}

// Lines returns the recorded line-start offsets.
func (f *File) Lines() []int {
	return f.lines
}

// Name returns the filename this File was created for.
func (f *File) Name() string {
	return f.name
}

// Pos constructs a Pos at the given byte offset within f.
func (f *File) Pos(offset int, rel Rel) Pos {
	return Pos{file: f, offset: offset, rel: rel}
}

func (f *File) lineCol(offset int) (line, col int) {
	i := sort.Search(len(f.lines), func(i int) bool {
		return f.lines[i] > offset
	})
	line = i // 1-indexed: f.lines[0]==0 is the start of line 1
	col = offset - f.lines[i-1] + 1
	return line, col
}

// Range is a half-open [Start,End) span used for the "source range" carried
// by every value and trace frame in spec.md §4.A.
type Range struct {
	Start, End Pos
}

func (r Range) String() string {
	if !r.Start.IsValid() {
		return ""
	}
	return r.Start.String()
}

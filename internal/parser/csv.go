package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

type delimitedParser struct{}

func (delimitedParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (delimitedParser) Parse(r io.Reader, opt Options) (*dataset.Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read delimited text: %w", err)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	return ParseDelimited(string(b), delim), nil
}

// ParseDelimited splits text into a Table. Lines end in "\n" with an optional "\r";
// blank lines before the header and after the last row are dropped, while an
// interior blank line is a row with a single empty cell. Quoting is not
// interpreted, so a delimiter inside a quoted field splits the field. Empty
// input yields an empty Table.
func ParseDelimited(text string, delim rune) *dataset.Table {
	t := &dataset.Table{}
	sep := string(delim)
	lines := strings.Split(strings.TrimPrefix(text, "\ufeff"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	for len(lines) > 0 && blank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && blank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return t
	}
	t.Headers = strings.Split(lines[0], sep)
	for i := range t.Headers {
		t.Headers[i] = strings.TrimSpace(t.Headers[i])
	}
	for _, line := range lines[1:] {
		t.Rows = append(t.Rows, strings.Split(line, sep))
	}
	return t
}

// ParseDelimiter maps a user-supplied delimiter name to a rune. Accepts a single
// character or one of "tab", "comma", "semicolon", "pipe". Empty means 0 (auto).
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q: use a single character or tab|comma|semicolon|pipe", s)
	}
	return r[0], nil
}

package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// Options tunes how raw bytes become a Table.
type Options struct {
	// Delimiter for delimited text. If 0, '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// SheetName selects an XLSX sheet (case-insensitive). Takes precedence over SheetIndex.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet index; 0 means the first sheet.
	SheetIndex int
	// MaxDecodedSize caps the size of a .gz/.zst payload after decoding. 0 means unlimited.
	MaxDecodedSize int64
}

// Parser turns one dataset format into a Table.
type Parser interface {
	CanParse(filename string) bool
	Parse(r io.Reader, opt Options) (*dataset.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// Lookup returns the registered parser for filename, falling back to comma-delimited text.
func Lookup(filename string) (Parser, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xls") {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), ErrUnsupported)
	}
	for _, p := range registry {
		if p.CanParse(filename) {
			return p, nil
		}
	}
	return delimitedParser{}, nil
}

// ParseFile reads path, decompresses .gz/.zst payloads and parses the result by extension.
func ParseFile(path string, opt Options) (*dataset.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseBytes(filepath.Base(path), data, opt)
}

// ParseBytes parses an in-memory payload; name supplies the extension used for dispatch.
func ParseBytes(name string, data []byte, opt Options) (*dataset.Table, error) {
	inner, enc := SplitEncoding(name)
	if enc != "" {
		plain, err := DecompressLimit(enc, data, opt.MaxDecodedSize)
		if err != nil {
			return nil, err
		}
		data = plain
	}
	p, err := Lookup(inner)
	if err != nil {
		return nil, err
	}
	if opt.Delimiter == 0 && strings.HasSuffix(strings.ToLower(inner), ".tsv") {
		opt.Delimiter = '\t'
	}
	return p.Parse(bytes.NewReader(data), opt)
}

func init() {
	Register(delimitedParser{})
	Register(xlsxParser{})
}

// ErrUnsupported indicates a format is not supported yet.
var ErrUnsupported = errors.New("unsupported dataset format")

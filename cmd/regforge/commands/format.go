package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// formatSource runs goimports over code. Imports the units do not use are
// dropped.
func formatSource(name, code string) ([]byte, error) {
	formatted, err := imports.Process(name, []byte(code), nil)
	if err != nil {
		return nil, fmt.Errorf("goimports %s: %w", filepath.Base(name), err)
	}
	return formatted, nil
}

// writeFormatted formats code and writes it to path. If formatting fails the
// raw code is kept next to it as path+".broken".
func writeFormatted(path string, code string) error {
	formatted, err := formatSource(path, code)
	if err != nil {
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return err
	}
	return os.WriteFile(path, formatted, 0o644)
}

// writeOutput writes code to path, or to w when path is empty or "-".
func writeOutput(path string, code string, w io.Writer) error {
	if path != "" && path != "-" {
		return writeFormatted(path, code)
	}
	formatted, err := formatSource("stdin.go", code)
	if err != nil {
		return err
	}
	_, err = w.Write(formatted)
	return err
}

package sim

import (
	"io"
	"os"

	"github.com/segmentio/encoding/json"
)

// WriteReport encodes r as indented JSON.
func WriteReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// SaveReport writes r to path, or to stdout when path is empty.
func SaveReport(path string, r Report) error {
	if path == "" {
		return WriteReport(os.Stdout, r)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteReport(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

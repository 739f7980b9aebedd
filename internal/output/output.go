package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/patchdiff/internal/redact"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, doc *Document) error
}

// Options tune the writers.
type Options struct {
	// Color enables ANSI colors in text output when the terminal allows it.
	Color bool
	// Redactor scrubs messages before they are written. Nil disables it.
	Redactor *redact.Redactor
}

// Formats lists the stream formats accepted by GetWriter.
var Formats = []string{"text", "json", "markdown", "sarif"}

// FormatSite names the directory output produced by Site.
const FormatSite = "site"

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	var wr Writer
	switch format {
	case "text":
		wr = &TextWriter{Color: opts.Color}
	case "json":
		wr = &JSONWriter{}
	case "markdown":
		wr = &MarkdownWriter{}
	case "sarif":
		wr = &SARIFWriter{}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	if opts.Redactor != nil {
		wr = redactingWriter{next: wr, r: opts.Redactor}
	}
	return wr, nil
}

// WriteReport writes the document to the specified output (file path or
// stdout).
func WriteReport(doc *Document, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}

	if outPath == "" {
		return writer.Write(os.Stdout, doc)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writer.Write(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

type redactingWriter struct {
	next Writer
	r    *redact.Redactor
}

func (rw redactingWriter) Write(w io.Writer, doc *Document) error {
	return rw.next.Write(w, doc.Redacted(rw.r))
}

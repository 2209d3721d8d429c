// Package loader reads invoice artifacts into plain text, dispatching by file
// extension. Callers must tolerate partial content: unknown or unreadable
// files degrade to empty text rather than failing the group.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
)

// ReadFile reads a file into a single string. Extensions outside txt/pdf yield
// empty text and no error.
func ReadFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".txt":
		return readTxt(path)
	}
	return "", nil
}

func readTxt(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readPDF concatenates per-page text. Blank or unextractable pages contribute
// nothing.
func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("loader.pdf.close_error", "path", path, "error", cerr)
		}
	}()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// CombineContent concatenates every readable file in the group with a
// separator naming each source file. This combined text, not per-file text, is
// what the extraction strategies consume.
func CombineContent(paths []string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	var b strings.Builder
	for _, p := range paths {
		text, err := ReadFile(p)
		if err != nil {
			logger.Warn("loader.read_failed", "path", p, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", filepath.Base(p), text)
	}
	return b.String()
}

// headerSeparator terminates the metadata block in a downloaded text artifact.
const headerSeparator = "----------"

// ParseEmailHeaders extracts email metadata from the header block of a text
// artifact. Unreadable files or missing headers leave fields empty.
func ParseEmailHeaders(txtPath string) entity.EmailMetadata {
	var md entity.EmailMetadata
	text, err := ReadFile(txtPath)
	if err != nil {
		return md
	}
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "Sender Email:"):
			md.SenderEmail = strings.TrimSpace(line[len("Sender Email:"):])
		case strings.HasPrefix(line, "Gmail Thread ID:"):
			md.ThreadID = strings.TrimSpace(line[len("Gmail Thread ID:"):])
		case strings.HasPrefix(line, "Date:"):
			md.ReceivedTime = strings.TrimSpace(line[len("Date:"):])
		case strings.HasPrefix(line, "Subject:"):
			md.Subject = strings.TrimSpace(line[len("Subject:"):])
		case strings.HasPrefix(line, headerSeparator):
			return md
		}
	}
	return md
}

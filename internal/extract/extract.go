// Package extract converts résumé and posting files into plain text.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// SupportedExtensions lists the file types Dir picks up.
var SupportedExtensions = []string{".pdf", ".txt", ".md", ".text"}

// Document is the text of one file.
type Document struct {
	Path string
	Text string
}

// FromFile returns the text of a PDF or plain-text file.
func FromFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return FromPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// FromPDF extracts the plain text of every page, pages separated by a newline.
func FromPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading page %d of %s: %w", i, path, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return strings.Join(pages, "\n"), nil
}

// Dir extracts every supported file directly inside dir using up to workers
// goroutines. Documents are returned sorted by path.
func Dir(ctx context.Context, dir string, workers int) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	if workers <= 0 {
		workers = defaultWorkers
	}

	docs := make([]Document, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			text, err := FromFile(path)
			if err != nil {
				return err
			}
			docs[i] = Document{Path: path, Text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Supported reports whether name has an extension Dir understands.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

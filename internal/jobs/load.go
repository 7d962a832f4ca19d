package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/resume-ranker/internal/extract"
)

// postingsFile accepts both a bare list and a {postings: [...]} document.
type postingsFile struct {
	Postings []*Posting `json:"postings" yaml:"postings"`
}

// LoadFile reads postings from a YAML (.yaml, .yml) or JSON (.json) file.
func LoadFile(path string) (*Postings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading postings file %s: %w", path, err)
	}

	var items []*Posting
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		items, err = decodeYAML(data)
	case ".json":
		items, err = decodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported postings file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing postings file %s: %w", path, err)
	}

	items = compact(items)
	for _, item := range items {
		if item.Source == "" {
			item.Source = path
		}
	}

	return &Postings{Items: items}, nil
}

func decodeYAML(data []byte) ([]*Posting, error) {
	var list []*Posting
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc postingsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Postings, nil
}

func decodeJSON(data []byte) ([]*Posting, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var list []*Posting
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var doc postingsFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Postings, nil
}

func compact(items []*Posting) []*Posting {
	out := items[:0]
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

// LoadDir turns every supported file of dir into a posting whose ID is the
// file name without extension.
func LoadDir(ctx context.Context, dir string, workers int) (*Postings, error) {
	docs, err := extract.Dir(ctx, dir, workers)
	if err != nil {
		return nil, err
	}

	items := make([]*Posting, 0, len(docs))
	for _, doc := range docs {
		name := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
		items = append(items, &Posting{
			ID:     name,
			Source: doc.Path,
			Text:   doc.Text,
		})
	}

	return &Postings{Items: items}, nil
}

// Merge appends the items of every source in order.
func Merge(sources ...*Postings) *Postings {
	merged := &Postings{}
	for _, s := range sources {
		if s == nil {
			continue
		}
		merged.Items = append(merged.Items, s.Items...)
	}
	return merged
}

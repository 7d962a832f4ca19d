// Package jobs holds the job postings that get ranked against a résumé.
package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
)

const (
	PostingIDField         = "ID"
	PostingEmployerIDField = "EmployerID"
)

type Postings struct {
	Items []*Posting `json:"items"`
}

type Posting struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title,omitempty" yaml:"title"`
	Employer   string `json:"employer,omitempty" yaml:"employer"`
	EmployerID string `json:"employer_id,omitempty" yaml:"employer_id"`
	URL        string `json:"url,omitempty" yaml:"url"`
	Source     string `json:"source,omitempty" yaml:"source"`
	HasTest    bool   `json:"has_test,omitempty" yaml:"has_test"`
	Text       string `json:"text" yaml:"text"`

	Match   *Match `json:"match,omitempty" yaml:"-"`
	Message string `json:"message,omitempty" yaml:"-"`
}

// Match is the ranking outcome attached to a posting.
type Match struct {
	Rank  int      `json:"rank"`
	Score float64  `json:"score"`
	Terms []string `json:"terms,omitempty"`
}

// Document returns the text used for ranking: the title followed by the body.
func (p *Posting) Document() string {
	if p.Title == "" {
		return p.Text
	}
	return p.Title + "\n" + p.Text
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ID
	case PostingEmployerIDField:
		return p.EmployerID
	default:
		return ""
	}
}

func (p *Postings) Len() int {
	return len(p.Items)
}

// Documents returns the ranking text of every posting in order.
func (p *Postings) Documents() []string {
	docs := make([]string, 0, len(p.Items))
	for _, posting := range p.Items {
		docs = append(docs, posting.Document())
	}
	return docs
}

func (p *Postings) FindByID(id string) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

// Exclude removes postings whose field matches one of targets, keeping the
// order of the rest. It returns the removed IDs.
func (p *Postings) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[target] = struct{}{}
	}

	return p.ExcludeFunc(func(posting *Posting) bool {
		_, ok := set[posting.GetStringField(field)]
		return ok
	})
}

// ExcludeWithTest removes postings that require a test before applying.
func (p *Postings) ExcludeWithTest() []string {
	return p.ExcludeFunc(func(posting *Posting) bool { return posting.HasTest })
}

// ExcludeFunc removes postings for which del reports true and returns their IDs.
func (p *Postings) ExcludeFunc(del func(*Posting) bool) []string {
	var removed []string
	p.Items = slices.DeleteFunc(p.Items, func(posting *Posting) bool {
		if del(posting) {
			removed = append(removed, posting.ID)
			return true
		}
		return false
	})
	return removed
}

// Reorder keeps the postings at indices, in that order.
func (p *Postings) Reorder(indices []int) error {
	items := make([]*Posting, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Items) {
			return fmt.Errorf("posting index %d out of range", idx)
		}
		items = append(items, p.Items[idx])
	}
	p.Items = items
	return nil
}

// AssignIDs gives postings without an ID their 1-based position, then makes
// every ID unique. The first holder of an ID keeps it; later ones get a
// "-N" suffix.
func (p *Postings) AssignIDs() {
	for i, posting := range p.Items {
		if posting.ID == "" {
			posting.ID = strconv.Itoa(i + 1)
		}
	}

	taken := make(map[string]bool, len(p.Items))
	for _, posting := range p.Items {
		taken[posting.ID] = false
	}

	for _, posting := range p.Items {
		if !taken[posting.ID] {
			taken[posting.ID] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := posting.ID + "-" + strconv.Itoa(n)
			if _, exists := taken[candidate]; !exists {
				posting.ID = candidate
				taken[candidate] = true
				break
			}
		}
	}
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := p.encode(file); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// DumpToFile writes the postings as indented JSON, truncating path.
func (p *Postings) DumpToFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return p.encode(file)
}

func (p *Postings) encode(file *os.File) error {
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// ReportByEmployer groups postings by employer for display.
func (p *Postings) ReportByEmployer() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		key := posting.Employer
		if posting.EmployerID != "" {
			key = fmt.Sprintf("%s (%s)", posting.Employer, posting.EmployerID)
		}

		entry := map[string]string{
			"title": posting.Title,
			"url":   posting.URL,
		}
		if posting.Match != nil {
			entry["rank"] = strconv.Itoa(posting.Match.Rank)
			entry["score"] = strconv.FormatFloat(posting.Match.Score, 'f', 4, 64)
		}
		report[key] = append(report[key], entry)
	}
	return report
}

package jobs

import (
	"encoding/json"
	"os"
	"time"
)

type ExcludedPostings struct {
	Items []*ExcludedPosting
}

type ExcludedPosting struct {
	ID           string
	URL          string
	EmployerName string
	ExcludedAt   time.Time
}

func (p *Postings) ToExcluded() *ExcludedPostings {
	excluded := &ExcludedPostings{}
	for _, posting := range p.Items {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			ID:           posting.ID,
			URL:          posting.URL,
			EmployerName: posting.Employer,
			ExcludedAt:   time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedFromFile reads an exclude file. A missing or empty file means nothing is excluded.
func GetExcludedFromFile(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return &ExcludedPostings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedPostings) Append(s *ExcludedPostings) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedPostings) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, posting := range e.Items {
		ids = append(ids, posting.ID)
	}
	return ids
}

func (e *ExcludedPostings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

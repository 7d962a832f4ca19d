package headhunter

import (
	"fmt"
	"strings"

	"github.com/spigell/resume-ranker/internal/extract"
	"github.com/spigell/resume-ranker/internal/jobs"
)

// Source marks postings that came from hh.ru.
const Source = "hh.ru"

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	HasTest bool `json:"has_test,omitempty"`
	Salary  struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Employer     Employer `json:"employer,omitempty"`
	AlternateURL string   `json:"alternate_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	KeySkills    []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Archived bool `json:"archived,omitempty"`
	Snippet  struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

type Employer struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// GetVacancy fetches the full vacancy, including the description search results omit.
func (c *Client) GetVacancy(id string) (*Vacancy, error) {
	if id == "" {
		return nil, fmt.Errorf("vacancy id is required")
	}

	var vacancy Vacancy
	if err := c.getJSON(fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, id), nil, &vacancy); err != nil {
		return nil, err
	}

	return &vacancy, nil
}

// Text flattens the vacancy into plain text: experience, key skills, snippet
// and the HTML description.
func (va *Vacancy) Text() string {
	parts := make([]string, 0, 5)

	if va.Experience.Name != "" {
		parts = append(parts, va.Experience.Name)
	}

	if len(va.KeySkills) > 0 {
		skills := make([]string, 0, len(va.KeySkills))
		for _, skill := range va.KeySkills {
			skills = append(skills, skill.Name)
		}
		parts = append(parts, strings.Join(skills, ", "))
	}

	for _, s := range []string{va.Snippet.Requirement, va.Snippet.Responsibility, va.Description} {
		if text := extract.HTMLToText(s); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n")
}

func (va *Vacancy) ToPosting() *jobs.Posting {
	return &jobs.Posting{
		ID:         va.ID,
		Title:      va.Name,
		Employer:   va.Employer.Name,
		EmployerID: va.Employer.ID,
		URL:        va.AlternateURL,
		Source:     Source,
		HasTest:    va.HasTest,
		Text:       va.Text(),
	}
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// ToPostings converts vacancies, skipping archived ones.
func (v *Vacancies) ToPostings() *jobs.Postings {
	postings := &jobs.Postings{Items: make([]*jobs.Posting, 0, len(v.Items))}
	for _, vacancy := range v.Items {
		if vacancy.Archived {
			continue
		}
		postings.Items = append(postings.Items, vacancy.ToPosting())
	}
	return postings
}

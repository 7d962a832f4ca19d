package headhunter

import (
	"fmt"
	"net/url"

	"github.com/mitchellh/mapstructure"
)

const (
	apiNegotiationPath        = "/negotiations"
	allStatusesExceptArchived = "non_archived"
)

type Negotiations []*Negotiation

type Negotiation struct {
	ID        string
	CreatedAt string `json:"created_at" mapstructure:"created_at"`
	URL       string
	Vacancy   *Vacancy
}

func (c *Client) GetNegotiations() (*Negotiations, error) {
	apiURLMineNegotiations := fmt.Sprintf("%s%s", c.APIURL, apiNegotiationPath)

	q := url.Values{}
	// We never need our archived negotiations
	q.Add("status", allStatusesExceptArchived)
	// Set per_page max as possible. It should be faster.
	q.Add("per_page", perPage)

	items, err := c.GetItems(apiURLMineNegotiations, q)
	if err != nil {
		return nil, err
	}

	var negotiations Negotiations
	cfg := &mapstructure.DecoderConfig{Result: &negotiations, TagName: "json"}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err = decoder.Decode(items); err != nil {
		return nil, err
	}

	return &negotiations, nil
}

// VacanciesIDs returns the IDs of vacancies already applied to.
func (n *Negotiations) VacanciesIDs() []string {
	ids := make([]string, 0, len(*n))

	for _, v := range *n {
		if v == nil || v.Vacancy == nil {
			continue
		}
		ids = append(ids, v.Vacancy.ID)
	}

	return ids
}

func (c *Client) postNegotiation(resume, vacancy, message string) error {
	apiURLMineNegotiations := fmt.Sprintf("%s%s", c.APIURL, apiNegotiationPath)

	data := map[string]string{
		"resume_id":  resume,
		"vacancy_id": vacancy,
		"message":    message,
	}

	return c.postFormData(apiURLMineNegotiations, data)
}

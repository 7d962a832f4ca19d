package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/jobs"
	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/recommender"
	"github.com/spigell/resume-ranker/internal/textproc"
)

const defaultExplainTerms = 5

type relevanceFilter struct {
	toggle
	config RankingConfig
}

// NewRelevance creates the step that ranks postings by similarity to the résumé.
func NewRelevance() Filter {
	return &relevanceFilter{}
}

func (f *relevanceFilter) Name() string { return "relevance" }

func (f *relevanceFilter) Validate(cfg *Config) error {
	f.config = RankingConfig{}
	if cfg != nil && cfg.Ranking != nil {
		f.config = *cfg.Ranking
	}

	if f.config.Recommendations < 0 {
		return fmt.Errorf("recommendations must not be negative, got %d", f.config.Recommendations)
	}
	if f.config.MinimumScore < 0 || f.config.MinimumScore > 1 {
		return fmt.Errorf("minimum score must be within [0, 1], got %v", f.config.MinimumScore)
	}
	if err := textproc.CheckNormalizer(f.config.Normalizer); err != nil {
		return err
	}
	if f.config.ExplainTerms == 0 {
		f.config.ExplainTerms = defaultExplainTerms
	}

	return nil
}

func (f *relevanceFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if initial == 0 {
		return p, Step{}, nil
	}

	if strings.TrimSpace(deps.Resume) == "" {
		return p, Step{}, errors.New("resume text is required for ranking")
	}

	analyzer, err := textproc.NewEnglishAnalyzer(f.config.Normalizer, f.config.Stopwords...)
	if err != nil {
		return p, Step{}, err
	}

	rec := recommender.New(
		recommender.NewTFIDF(analyzer, recommender.TFIDFOptions{SublinearTF: f.config.SublinearTF}),
		deps.Logger.Named("recommender"),
	)

	if err := rec.Fit(p.Documents()); err != nil {
		return p, Step{}, fmt.Errorf("fit postings: %w", err)
	}

	matches, err := rec.Rank(deps.Resume, f.config.Recommendations)
	if err != nil {
		return p, Step{}, fmt.Errorf("rank postings: %w", err)
	}

	kept := make([]int, 0, len(matches))
	for _, m := range matches {
		if m.Score < f.config.MinimumScore {
			// matches are sorted, the rest is lower
			break
		}

		terms, err := rec.Explain(deps.Resume, m.Index, f.config.ExplainTerms)
		if err != nil {
			return p, Step{}, fmt.Errorf("explain posting %d: %w", m.Index, err)
		}

		posting := p.Items[m.Index]
		posting.Match = &jobs.Match{
			Rank:  len(kept) + 1,
			Score: m.Score,
			Terms: termNames(terms),
		}
		kept = append(kept, m.Index)

		deps.Logger.Debug("posting ranked", append(
			logger.PostingFields(posting.ID, posting.Title, posting.Employer),
			logger.MatchFields(posting.Match.Rank, posting.Match.Score)...,
		)...)
	}

	if err := p.Reorder(kept); err != nil {
		return p, Step{}, err
	}

	deps.Logger.Info("postings ranked",
		zap.Int("vocabulary", rec.Vocabulary().Len()),
		zap.Int("ranked", initial),
		zap.Int("kept", p.Len()),
	)

	return p, Step{Initial: initial, Dropped: initial - p.Len(), Left: p.Len()}, nil
}

func (f *relevanceFilter) Status() Status {
	normalizer := strings.TrimSpace(f.config.Normalizer)
	if normalizer == "" {
		normalizer = textproc.NormalizerLemma
	}

	details := map[string]string{
		"recommendations": strconv.Itoa(f.config.Recommendations),
		"minimum_score":   strconv.FormatFloat(f.config.MinimumScore, 'f', 2, 64),
		"normalizer":      normalizer,
		"sublinear_tf":    strconv.FormatBool(f.config.SublinearTF),
	}
	if len(f.config.Stopwords) > 0 {
		details["extra_stopwords"] = strings.Join(f.config.Stopwords, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func termNames(weights []recommender.TermWeight) []string {
	names := make([]string, len(weights))
	for i, w := range weights {
		names[i] = w.Term
	}
	return names
}

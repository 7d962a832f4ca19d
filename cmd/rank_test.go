package cmd

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-ranker/internal/jobs"
)

type stubWriter struct {
	message string
	err     error
}

func (s stubWriter) Compose(context.Context, string, *jobs.Posting) (string, error) {
	return s.message, s.err
}

func TestFilterConfig(t *testing.T) {
	config := &Config{
		ExcludeFile: "excluded.json",
		Apply: &ApplyConfig{Exclude: &struct {
			Employers []string
		}{Employers: []string{"42"}}},
		Ranking: &RankingConfig{Recommendations: 10, MinimumScore: 0.1, Normalizer: "stem", Stopwords: []string{"team"}},
	}

	cfg := filterConfig(config, true)

	if cfg.ExcludeFile != "excluded.json" || !cfg.IgnoreApplied {
		t.Fatalf("unexpected filter config: %+v", cfg)
	}
	if len(cfg.Employers) != 1 || cfg.Employers[0] != "42" {
		t.Fatalf("unexpected employers: %v", cfg.Employers)
	}
	if cfg.Ranking == nil || cfg.Ranking.Recommendations != 10 || cfg.Ranking.Normalizer != "stem" || cfg.Ranking.Stopwords[0] != "team" {
		t.Fatalf("unexpected ranking config: %+v", cfg.Ranking)
	}

	if empty := filterConfig(&Config{}, false); empty.Ranking != nil || empty.Employers != nil {
		t.Fatalf("expected empty filter config, got %+v", empty)
	}
}

func TestNeedsHeadhunter(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		expect bool
	}{
		{name: "local files only", config: &Config{Resume: &ResumeConfig{File: "cv.pdf"}}, expect: false},
		{name: "hh resume", config: &Config{Resume: &ResumeConfig{Title: "Go developer"}}, expect: true},
		{name: "no resume section", config: &Config{}, expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsHeadhunter(tt.config); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestMessageFor(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	posting := &jobs.Posting{ID: "1"}

	s := &session{ctx: context.Background(), logger: zap.New(core), config: &Config{}, writer: stubWriter{message: "composed"}}
	if got := s.messageFor(posting); got != "composed" {
		t.Fatalf("expected composed message, got %q", got)
	}

	s.writer = stubWriter{err: errors.New("quota")}
	s.config.Apply = &ApplyConfig{Message: "configured"}
	if got := s.messageFor(posting); got != "configured" {
		t.Fatalf("expected configured message, got %q", got)
	}

	s.writer = nil
	s.config.Apply = nil
	if got := s.messageFor(posting); got != defaultFallbackMessage {
		t.Fatalf("expected fallback message, got %q", got)
	}

	if n := len(observed.All()); n != 2 {
		t.Fatalf("expected 2 warnings, got %d", n)
	}
}

func TestApplySkipsOtherSources(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	s := &session{ctx: context.Background(), logger: zap.New(core), config: &Config{}}

	postings := &jobs.Postings{Items: []*jobs.Posting{{ID: "1", Source: "jobs.yaml"}}}
	if err := s.apply(postings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := observed.FilterMessage("successfully applied to postings").All()
	if len(entries) != 1 || entries[0].ContextMap()["count"] != int64(0) {
		t.Fatalf("unexpected apply summary: %v", entries)
	}
}

func TestPostingLabel(t *testing.T) {
	p := &jobs.Posting{ID: "7", Title: "Go Developer", Employer: "Acme", URL: "https://hh.ru/vacancy/7"}
	if got := postingLabel(p); got != "7 Go Developer / Acme / https://hh.ru/vacancy/7" {
		t.Fatalf("unexpected label: %q", got)
	}

	p.Match = &jobs.Match{Rank: 2, Score: 0.5}
	if got := postingLabel(p); got != "7 Go Developer / Acme / https://hh.ru/vacancy/7 (#2, 0.500)" {
		t.Fatalf("unexpected label: %q", got)
	}
}

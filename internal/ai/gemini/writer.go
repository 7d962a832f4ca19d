package gemini

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/jobs"
	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/utils"
)

const (
	systemInstruction = "You help a job seeker write concise, honest cover messages."

	defaultTone          = "Friendly"
	defaultMaxInputRunes = 6000
	defaultMaxLogLength  = 200
)

//go:embed prompt.md
var promptTemplate string

type textGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

type WriterOptions struct {
	Tone          string
	MaxInputRunes int
	MaxLogLength  int
}

// Writer composes cover messages with Gemini.
type Writer struct {
	generator textGenerator
	logger    *zap.Logger
	tone      string
	maxInput  int
	maxLogLen int
}

func NewWriter(generator textGenerator, log *zap.Logger, opts WriterOptions) *Writer {
	if opts.MaxInputRunes <= 0 {
		opts.MaxInputRunes = defaultMaxInputRunes
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if strings.TrimSpace(opts.Tone) == "" {
		opts.Tone = defaultTone
	}

	return &Writer{
		generator: generator,
		logger:    logger.WithAIFields(log, providerName, generator.Model()),
		tone:      strings.TrimSpace(opts.Tone),
		maxInput:  opts.MaxInputRunes,
		maxLogLen: opts.MaxLogLength,
	}
}

func (w *Writer) Compose(ctx context.Context, resume string, posting *jobs.Posting) (string, error) {
	if strings.TrimSpace(resume) == "" {
		return "", errors.New("resume text is required")
	}
	if posting == nil {
		return "", errors.New("posting is required")
	}

	prompt := w.buildPrompt(resume, posting)
	fields := logger.PostingFields(posting.ID, posting.Title, posting.Employer)

	w.logger.Debug("gemini compose request", append(fields,
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, w.maxLogLen)),
	)...)

	raw, err := w.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return "", err
	}

	w.logger.Debug("gemini compose response", append(fields,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, w.maxLogLen)),
	)...)

	message := cleanMessage(raw)
	if message == "" {
		return "", errors.New("gemini returned an empty message")
	}

	return message, nil
}

func (w *Writer) buildPrompt(resume string, posting *jobs.Posting) string {
	terms := "none"
	if posting.Match != nil && len(posting.Match.Terms) > 0 {
		terms = strings.Join(posting.Match.Terms, ", ")
	}

	employer := posting.Employer
	if employer == "" {
		employer = "an unnamed employer"
	}

	r := strings.NewReplacer(
		"{{TONE}}", w.tone,
		"{{TERMS}}", terms,
		"{{RESUME}}", utils.TruncateForLog(resume, w.maxInput),
		"{{TITLE}}", posting.Title,
		"{{EMPLOYER}}", employer,
		"{{VACANCY}}", utils.TruncateForLog(posting.Text, w.maxInput),
	)

	return r.Replace(promptTemplate)
}

// cleanMessage strips code fences and wrapping quotes models sometimes add.
func cleanMessage(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return strings.TrimSpace(raw)
}

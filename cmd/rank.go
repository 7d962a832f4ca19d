package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-ranker/internal/ai"
	"github.com/spigell/resume-ranker/internal/ai/gemini"
	"github.com/spigell/resume-ranker/internal/extract"
	"github.com/spigell/resume-ranker/internal/filtering"
	"github.com/spigell/resume-ranker/internal/headhunter"
	"github.com/spigell/resume-ranker/internal/jobs"
	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/secrets"
	"github.com/spigell/resume-ranker/internal/utils"
)

const (
	PromptYes                 = "Yes"
	PromptNo                  = "No"
	PromptBack                = "back"
	PromptReportByEmployers   = "Report by employers"
	PromptManualApply         = "Apply postings in manual mode"
	PromptAppendToExcludeFile = "Append all postings to exclude file"
	PromptPostingsToFile      = "Dump postings to file"
	defaultFallbackMessage    = "Hello! I would like to apply for this vacancy."
	defaultDetailsWorkers     = 4
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank job postings against the résumé",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().IntP("recommendations", "n", 0, "number of postings to recommend. 0 means all of them")
	rankCmd.Flags().StringP("resume", "r", "", "résumé file (pdf or plain text)")
	rankCmd.Flags().StringSlice("jobs", nil, "job postings file (yaml or json). Can be repeated")
	rankCmd.Flags().String("jobs-dir", "", "directory with one job posting per file (pdf or plain text)")
	rankCmd.Flags().StringP("output", "o", "", "write ranked postings to this json file")
	rankCmd.Flags().BoolP("do-not-exclude-applied", "f", false, "do not exclude postings if already applied")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation if found suitable postings")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")

	viper.BindPFlag("ranking.recommendations", rankCmd.Flags().Lookup("recommendations"))
	viper.BindPFlag("resume.file", rankCmd.Flags().Lookup("resume"))
	viper.BindPFlag("jobs.files", rankCmd.Flags().Lookup("jobs"))
	viper.BindPFlag("jobs.dir", rankCmd.Flags().Lookup("jobs-dir"))
	viper.BindPFlag("exclude-file", rankCmd.Flags().Lookup("exclude-file"))
}

// session holds what the interactive actions work on.
type session struct {
	ctx      context.Context
	logger   *zap.Logger
	config   *Config
	hh       *headhunter.Client
	resume   *headhunter.Resume
	text     string
	writer   ai.Writer
	postings *jobs.Postings
}

// rank is the main command for the cli.
func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-ranker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	s := &session{ctx: ctx, logger: logger, config: config}

	if needsHeadhunter(config) {
		token, err := resolveToken(config)
		if err != nil {
			logger.Fatal(
				"loading headhunter token",
				zap.Error(err),
				zap.String("hint", "set HH_TOKEN_FILE environment variable or the 'token-file' key in the configuration file"),
			)
		}

		s.hh = headhunter.New(ctx, token, logger)
		if config.UserAgent != "" {
			s.hh.UserAgent = config.UserAgent
		}
	}

	if err := s.loadResume(); err != nil {
		logger.Fatal("loading the résumé", zap.Error(err))
	}

	postings, err := s.loadPostings()
	if err != nil {
		logger.Fatal("loading job postings", zap.Error(err))
	}

	if postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no job postings found"))
		return
	}

	steps := filtering.Default()
	filterCfg := filterConfig(config, cmd.Flag("do-not-exclude-applied").Value.String() == "true")
	deps := filtering.Deps{Logger: logger, Resume: s.text}
	if s.hh != nil {
		deps.HH = s.hh
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled))
	}

	s.postings, err = filtering.Run(ctx, filterCfg, deps, steps, postings)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if s.postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	s.report()

	if output := cmd.Flag("output").Value.String(); output != "" {
		if err := s.postings.DumpToFile(output); err != nil {
			logger.Fatal("writing ranked postings", zap.Error(err), zap.String("filename", output))
		}
		logger.Info("ranked postings written", zap.String("filename", output))
	}

	if s.resume == nil {
		// applying needs an hh.ru résumé
		return
	}

	if config.AI != nil && config.AI.Enabled {
		writer, err := newWriter(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("cover messages are disabled", zap.Error(err))
		} else {
			s.writer = writer
		}
	}

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"

	prompt := promptui.Select{
		Label: "Procced?",
		Items: s.actions(),
	}

	action := PromptYes
	for {
		if !autoApprove {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of postings", zap.Int("count", s.postings.Len()))

		if err := s.handleAction(action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if autoApprove || s.postings.Len() == 0 {
			return
		}
	}
}

func needsHeadhunter(config *Config) bool {
	return config.Search != nil || (config.Resume != nil && config.Resume.Title != "")
}

// filterConfig maps the cli configuration onto the filtering steps.
func filterConfig(config *Config, ignoreApplied bool) *filtering.Config {
	cfg := &filtering.Config{
		ExcludeFile:   config.ExcludeFile,
		IgnoreApplied: ignoreApplied,
	}

	if config.Apply != nil && config.Apply.Exclude != nil {
		cfg.Employers = config.Apply.Exclude.Employers
	}

	if r := config.Ranking; r != nil {
		cfg.Ranking = &filtering.RankingConfig{
			Recommendations: r.Recommendations,
			MinimumScore:    r.MinimumScore,
			Normalizer:      r.Normalizer,
			Stopwords:       r.Stopwords,
			SublinearTF:     r.SublinearTF,
			ExplainTerms:    r.ExplainTerms,
		}
	}

	return cfg
}

func (s *session) loadResume() error {
	rc := s.config.Resume
	if rc == nil || (rc.File == "" && rc.Title == "") {
		return errors.New("résumé is required: use --resume or the resume section of the config")
	}

	if rc.Title != "" {
		resumes, err := s.hh.GetMineResumes()
		if err != nil {
			return fmt.Errorf("getting mine resumes: %w", err)
		}

		s.logger.Info("getting mine resumes", zap.Int("count", resumes.Len()))

		s.resume = resumes.FindByTitle(rc.Title)
		if s.resume == nil {
			return fmt.Errorf("resume with title %q not found, existing titles: %s", rc.Title, strings.Join(resumes.Titles(), ", "))
		}
	}

	if rc.File != "" {
		text, err := extract.FromFile(rc.File)
		if err != nil {
			return err
		}
		s.text = text
	} else {
		details, err := s.hh.GetResumeDetails(s.resume.ID)
		if err != nil {
			return fmt.Errorf("get resume details: %w", err)
		}
		s.text = details.Text()
	}

	if strings.TrimSpace(s.text) == "" {
		return errors.New("résumé has no text")
	}

	s.logger.Info("résumé loaded", zap.String("preview", utils.TruncateForLog(s.text, 80)))
	return nil
}

func (s *session) loadPostings() (*jobs.Postings, error) {
	var sources []*jobs.Postings

	jc := s.config.Jobs
	if jc == nil {
		jc = &JobsConfig{}
	}

	for _, file := range utils.Unique(jc.Files) {
		postings, err := jobs.LoadFile(file)
		if err != nil {
			return nil, err
		}
		s.logger.Info("postings loaded", zap.String("file", file), zap.Int("count", postings.Len()))
		sources = append(sources, postings)
	}

	if jc.Dir != "" {
		postings, err := jobs.LoadDir(s.ctx, jc.Dir, jc.Workers)
		if err != nil {
			return nil, err
		}
		s.logger.Info("postings loaded", zap.String("dir", jc.Dir), zap.Int("count", postings.Len()))
		sources = append(sources, postings)
	}

	if s.config.Search != nil {
		s.logger.Info("starting the search", zap.String("search", s.config.Search.Text))

		vacancies, err := s.hh.Search(s.config.Search)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

		s.logger.Info("getting vacancies", zap.Int("count", vacancies.Len()))

		if jc.FetchDetails {
			s.fetchDetails(vacancies, jc.Workers)
		}

		sources = append(sources, vacancies.ToPostings())
	}

	if len(sources) == 0 {
		return nil, errors.New("no job postings configured: use --jobs, --jobs-dir or the search section of the config")
	}

	postings := jobs.Merge(sources...)
	postings.AssignIDs()

	return postings, nil
}

// fetchDetails replaces search results with full vacancies. Failures keep the search result.
func (s *session) fetchDetails(vacancies *headhunter.Vacancies, workers int) {
	if workers <= 0 {
		workers = defaultDetailsWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, vacancy := range vacancies.Items {
		g.Go(func() error {
			full, err := s.hh.GetVacancy(vacancy.ID)
			if err != nil {
				s.logger.Debug("fetching detailed vacancy failed",
					zap.String("vacancy_id", vacancy.ID),
					zap.Error(err),
				)
				return nil
			}
			vacancies.Items[i] = full
			return nil
		})
	}

	_ = g.Wait()
}

func (s *session) report() {
	for _, posting := range s.postings.Items {
		fields := logger.PostingFields(posting.ID, posting.Title, posting.Employer)
		if posting.Match != nil {
			fields = append(fields, logger.MatchFields(posting.Match.Rank, posting.Match.Score)...)
			fields = append(fields, zap.Strings("terms", posting.Match.Terms))
		}
		if posting.URL != "" {
			fields = append(fields, zap.String("url", posting.URL))
		}
		s.logger.Info("recommended posting", fields...)
	}
}

func (s *session) actions() []string {
	items := []string{PromptYes, PromptNo, PromptReportByEmployers, PromptManualApply, PromptPostingsToFile}
	if s.config.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	return items
}

func (s *session) handleAction(action string) error {
	switch action {
	case PromptYes:
		return s.apply(s.postings)
	case PromptNo:
		s.logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptManualApply:
		return s.manualApply()
	case PromptReportByEmployers:
		pretty, _ := json.MarshalIndent(s.postings.ReportByEmployer(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("postings count", s.postings.Len()))
		return nil
	case PromptPostingsToFile:
		filename, err := s.postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return s.appendToExcludeFile()
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) appendToExcludeFile() error {
	excludeFile := s.config.ExcludeFile

	excluded, err := jobs.GetExcludedFromFile(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(s.postings.ToExcluded())

	if err = excluded.ToFile(excludeFile); err != nil {
		return err
	}

	s.logger.Info("appended to exclude file", zap.String("filename", excludeFile))

	s.postings.Exclude(jobs.PostingIDField, excluded.IDs())
	return nil
}

func (s *session) manualApply() error {
	for {
		if s.postings.Len() == 0 {
			return nil
		}

		items := make([]string, 0, s.postings.Len()+2)
		for _, p := range s.postings.Items {
			items = append(items, postingLabel(p))
		}

		if s.config.ExcludeFile != "" {
			items = append(items, PromptAppendToExcludeFile)
		}

		postingPrompt := promptui.Select{
			Label: "Choose a posting and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := postingPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			if err := s.appendToExcludeFile(); err != nil {
				return err
			}
		default:
			postingID := strings.Split(selected, " ")[0]

			posting := s.postings.FindByID(postingID)
			if posting == nil {
				return fmt.Errorf("there is no such posting id %s", postingID)
			}

			if err := s.apply(&jobs.Postings{Items: []*jobs.Posting{posting}}); err != nil {
				return err
			}

			s.postings.Exclude(jobs.PostingIDField, []string{postingID})
		}
	}
}

func postingLabel(p *jobs.Posting) string {
	label := fmt.Sprintf("%s %s / %s / %s", p.ID, p.Title, p.Employer, p.URL)
	if p.Match != nil {
		label = fmt.Sprintf("%s (#%d, %.3f)", label, p.Match.Rank, p.Match.Score)
	}
	return label
}

// apply sends negotiations for hh.ru postings. Postings from other sources are skipped.
func (s *session) apply(postings *jobs.Postings) error {
	applied := 0
	for _, posting := range postings.Items {
		if posting.Source != headhunter.Source {
			s.logger.Debug("skipping posting from another source",
				zap.String("posting_id", posting.ID),
				zap.String("source", posting.Source),
			)
			continue
		}

		posting.Message = s.messageFor(posting)

		if err := s.hh.ApplyWithMessage(s.resume, posting.ID, posting.Message); err != nil {
			return err
		}

		applied++
		s.logger.Info("successfully applied to posting",
			zap.String("posting_id", posting.ID),
			zap.String("posting_title", posting.Title),
		)
	}

	s.logger.Info("successfully applied to postings", zap.Int("count", applied))
	return nil
}

func (s *session) messageFor(posting *jobs.Posting) string {
	if s.writer != nil {
		message, err := s.writer.Compose(s.ctx, s.text, posting)
		if err == nil {
			return message
		}
		s.logger.Warn("composing cover message failed", zap.String("posting_id", posting.ID), zap.Error(err))
	}

	var configured string
	if s.config.Apply != nil {
		configured = s.config.Apply.Message
	}

	return fallbackMessage(configured, s.logger, posting.ID)
}

func fallbackMessage(configured string, logger *zap.Logger, postingID string) string {
	if strings.TrimSpace(configured) != "" {
		return configured
	}

	logger.Warn("falling back to default built-in message",
		zap.String("posting_id", postingID),
		zap.String("hint", "specify message in apply section"),
	)
	return defaultFallbackMessage
}

func resolveToken(config *Config) (string, error) {
	if config == nil {
		return "", errors.New("config is required")
	}

	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	if tokenFile == "" {
		return "", errors.New("headhunter token file is not configured")
	}

	return secrets.Load(secrets.Source{
		Name: "headhunter token",
		File: tokenFile,
	})
}

func newWriter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Writer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gc := cfg.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gc.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gc.Model, gc.MaxRetries, logger)
	if err != nil {
		return nil, err
	}

	return gemini.NewWriter(generator, logger, gemini.WriterOptions{
		Tone:         cfg.Tone,
		MaxLogLength: gc.MaxLogLength,
	}), nil
}

package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-ranker/internal/headhunter"
)

const (
	app = "resume-ranker"
)

type Config struct {
	Resume      *ResumeConfig            `mapstructure:"resume"`
	Jobs        *JobsConfig              `mapstructure:"jobs"`
	Search      *headhunter.SearchParams `mapstructure:"search"`
	Ranking     *RankingConfig           `mapstructure:"ranking"`
	ExcludeFile string                   `mapstructure:"exclude-file"`
	UserAgent   string                   `mapstructure:"user-agent"`
	TokenFile   string                   `mapstructure:"token-file"`
	Apply       *ApplyConfig             `mapstructure:"apply"`
	AI          *AIConfig                `mapstructure:"ai"`
}

// ResumeConfig points at the résumé: a local file or the title of an hh.ru résumé.
type ResumeConfig struct {
	File  string `mapstructure:"file"`
	Title string `mapstructure:"title"`
}

type JobsConfig struct {
	Files   []string `mapstructure:"files"`
	Dir     string   `mapstructure:"dir"`
	Workers int      `mapstructure:"workers"`
	// FetchDetails loads full hh.ru vacancies; search results only carry a snippet.
	FetchDetails bool `mapstructure:"fetch-details"`
}

type RankingConfig struct {
	Recommendations int      `mapstructure:"recommendations"`
	MinimumScore    float64  `mapstructure:"minimum-score"`
	Normalizer      string   `mapstructure:"normalizer"`
	Stopwords       []string `mapstructure:"stopwords"`
	SublinearTF     bool     `mapstructure:"sublinear-tf"`
	ExplainTerms    int      `mapstructure:"explain-terms"`
}

type ApplyConfig struct {
	Message string
	Exclude *struct {
		Employers []string
	}
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Tone     string        `mapstructure:"tone"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-ranker ranks job postings by similarity to a résumé and helps to apply to the best ones",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-ranker.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	// Flags alone are enough to rank local files.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	if err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

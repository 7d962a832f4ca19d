package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/extract"
	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/textproc"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print the terms a document contributes to ranking",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tokens(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().String("normalizer", "", "word normalizer: lemma, stem or none")
	viper.BindPFlag("ranking.normalizer", tokensCmd.Flags().Lookup("normalizer"))
}

func tokens(cmd *cobra.Command, path string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	ranking := config.Ranking
	if ranking == nil {
		ranking = &RankingConfig{}
	}

	analyzer, err := textproc.NewEnglishAnalyzer(ranking.Normalizer, ranking.Stopwords...)
	if err != nil {
		logger.Fatal("building the analyzer", zap.Error(err))
	}

	text, err := extract.FromFile(path)
	if err != nil {
		logger.Fatal("reading the document", zap.Error(err), zap.String("file", path))
	}

	terms := analyzer.Terms(text)
	logger.Debug("document analyzed", zap.String("file", path), zap.Int("terms", len(terms)))

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(terms, " "))
}

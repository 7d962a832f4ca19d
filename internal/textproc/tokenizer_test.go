package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeSplitsOnWordBoundaries(t *testing.T) {
	t.Parallel()

	tokenizer := NewTokenizer(Identity{})

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "punctuation dropped",
			input:  "Go, Python; and SQL!",
			expect: []string{"Go", "Python", "and", "SQL"},
		},
		{
			name:   "numerals kept",
			input:  "5 years of Go 1.22",
			expect: []string{"5", "years", "of", "Go", "1.22"},
		},
		{
			name:   "contraction kept whole",
			input:  "don't panic",
			expect: []string{"don't", "panic"},
		},
		{
			name:   "empty",
			input:  "",
			expect: []string{},
		},
		{
			name:   "whitespace only",
			input:  " \n\t ",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, tokenizer.Tokenize(tt.input))
		})
	}
}

func TestTokenizeIsDeterministic(t *testing.T) {
	t.Parallel()

	lemmatizer, err := NewLemmatizer()
	require.NoError(t, err)
	tokenizer := NewTokenizer(lemmatizer)

	docs := []string{
		"Senior backend engineers building distributed systems.",
		"Nurses practicing clinical care in hospitals",
		"",
	}
	for _, doc := range docs {
		assert.Equal(t, tokenizer.Tokenize(doc), tokenizer.Tokenize(doc))
	}
}

func TestLemmatizerNormalize(t *testing.T) {
	t.Parallel()

	lemmatizer, err := NewLemmatizer()
	require.NoError(t, err)

	assert.Equal(t, "engineer", lemmatizer.Normalize("engineers"))
	assert.Equal(t, "system", lemmatizer.Normalize("systems"))
	assert.Equal(t, "kubernetesxyz", lemmatizer.Normalize("kubernetesxyz"), "unknown words pass through")
}

func TestNewNormalizer(t *testing.T) {
	t.Parallel()

	n, err := NewNormalizer("stem")
	require.NoError(t, err)
	assert.Equal(t, "run", n.Normalize("running"))

	n, err = NewNormalizer(" NONE ")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", n.Normalize("Engineering"))

	_, err = NewNormalizer("porter")
	require.Error(t, err)
}

func TestAnalyzerTerms(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(NewTokenizer(Identity{}), EnglishStopwords("team"))

	assert.Equal(t, []string{"python", "engineer"}, analyzer.Terms("The Python engineer on our TEAM"))
	assert.Empty(t, analyzer.Terms("the and of to"))
	assert.Empty(t, analyzer.Terms("   "))
}

func TestEnglishStopwords(t *testing.T) {
	t.Parallel()

	set := EnglishStopwords(" Extra ", "")
	assert.True(t, set.Contains("the"))
	assert.True(t, set.Contains("don't"))
	assert.True(t, set.Contains("extra"))
	assert.False(t, set.Contains("python"))
	assert.False(t, set.Contains(""))
	assert.Equal(t, len(englishStopwords)+1, set.Len())

	var empty Stopwords
	assert.False(t, empty.Contains("the"))
}

func TestNewEnglishAnalyzer(t *testing.T) {
	t.Parallel()

	analyzer, err := NewEnglishAnalyzer("none", "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{"engineers", "building", "services"}, analyzer.Terms("The engineers are building Golang services"))

	_, err = NewEnglishAnalyzer("porter")
	require.Error(t, err)
}

package splitter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func numberedWords(n int) string {
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, fmt.Sprintf("w%03d", i))
	}
	return strings.Join(words, " ")
}

func TestSplitShortText(t *testing.T) {
	s, err := New(150, 30)
	require.NoError(t, err)
	require.Equal(t, []string{"This Agreement is made between the parties."}, s.Split("  This Agreement is made between the parties.  "))
}

func TestSplitEmpty(t *testing.T) {
	s, err := New(150, 30)
	require.NoError(t, err)
	require.Empty(t, s.Split(""))
	require.Empty(t, s.Split(" \n\n \n"))
}

func TestSplitWordsWithOverlap(t *testing.T) {
	s, err := New(150, 30)
	require.NoError(t, err)
	chunks := s.Split(numberedWords(200))
	require.Greater(t, len(chunks), 1)

	words := strings.Fields(numberedWords(200))
	require.Equal(t, strings.Join(words[0:30], " "), chunks[0])
	require.Equal(t, strings.Join(words[24:54], " "), chunks[1])
	for _, c := range chunks {
		require.LessOrEqual(t, CharLength(c), 150)
	}
	require.True(t, strings.HasSuffix(chunks[len(chunks)-1], "w199"))
}

func TestSplitIsDeterministic(t *testing.T) {
	s, err := New(150, 30)
	require.NoError(t, err)
	text := "Section 1. Definitions.\n\n" + numberedWords(120) + "\nSection 2. Term.\n" + numberedWords(40)
	require.Equal(t, s.Split(text), s.Split(text))
}

func TestSplitPrefersParagraphs(t *testing.T) {
	s, err := New(150, 30)
	require.NoError(t, err)
	chunks := s.SplitPages([]string{"Page one text.", "Page two text."})
	require.Equal(t, []string{"Page one text.\n\nPage two text."}, chunks)
}

func TestSplitUnbrokenRun(t *testing.T) {
	s, err := New(150, 30)
	require.NoError(t, err)
	chunks := s.Split(strings.Repeat("a", 200))
	require.Equal(t, []string{strings.Repeat("a", 150), strings.Repeat("a", 80)}, chunks)
}

func TestSplitNeverExceedsChunkSize(t *testing.T) {
	s, err := New(150, 30)
	require.NoError(t, err)
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Clause %d: the lessee shall pay rent monthly in advance without deduction.\n", i)
		if i%7 == 0 {
			b.WriteString("\n")
		}
	}
	for _, c := range s.Split(b.String()) {
		require.LessOrEqual(t, CharLength(c), 150, c)
		require.NotEmpty(t, c)
	}
}

func TestNewRejectsBadSizes(t *testing.T) {
	_, err := New(0, 0)
	require.Error(t, err)
	_, err = New(100, 100)
	require.Error(t, err)
	_, err = New(100, -1)
	require.Error(t, err)
}

func TestCustomLength(t *testing.T) {
	wordCount := func(text string) int {
		return len(strings.Fields(text))
	}
	s, err := New(10, 2, WithLength(wordCount), WithSeparators([]string{" "}))
	require.NoError(t, err)
	chunks := s.Split(numberedWords(25))
	for _, c := range chunks {
		require.LessOrEqual(t, wordCount(c), 10)
	}
}

package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// LengthFunc measures a piece of text in the unit chunk sizes are expressed in.
type LengthFunc func(text string) int

func CharLength(text string) int {
	return utf8.RuneCountInString(text)
}

// NewTokenLength counts tokens with the given tiktoken encoding, e.g. cl100k_base.
func NewTokenLength(encoding string) (LengthFunc, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}
	return func(text string) int {
		return len(tke.Encode(text, nil, nil))
	}, nil
}

// RecursiveSplitter splits text on the coarsest separator that occurs in it,
// recursing into finer separators only for pieces that are still too long,
// then merges neighbouring pieces back up to ChunkSize with ChunkOverlap
// carried over between consecutive chunks.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	length       LengthFunc
}

type Option func(*RecursiveSplitter)

func WithSeparators(seps []string) Option {
	return func(s *RecursiveSplitter) {
		s.separators = seps
	}
}

func WithLength(fn LengthFunc) Option {
	return func(s *RecursiveSplitter) {
		s.length = fn
	}
}

func New(chunkSize, chunkOverlap int, opts ...Option) (*RecursiveSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	s := &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
		length:       CharLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RecursiveSplitter) Split(text string) []string {
	return s.split(text, s.separators)
}

// SplitPages joins pages with a blank line so page breaks are the preferred cut points.
func (s *RecursiveSplitter) SplitPages(pages []string) []string {
	return s.Split(strings.Join(pages, "\n\n"))
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := ""
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		pieces = splitRunes(text)
	} else {
		pieces = strings.Split(text, separator)
	}

	var final []string
	var good []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if s.length(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				final = append(final, trimmed)
			}
			continue
		}
		final = append(final, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	sepLen := s.length(separator)
	var docs []string
	var current []string
	total := 0
	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}
	for _, piece := range pieces {
		n := s.length(piece)
		if joinedLen(n) > s.chunkSize && len(current) > 0 {
			if doc := joinDoc(current, separator); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.chunkOverlap || (joinedLen(n) > s.chunkSize && total > 0) {
				drop := s.length(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}
	if doc := joinDoc(current, separator); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinDoc(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

func splitRunes(text string) []string {
	out := make([]string, 0, len(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

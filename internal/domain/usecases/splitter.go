package usecases

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Paragraph breaks first, then line breaks, then words, then single characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into overlapping chunks no longer than its chunk size.
// Lengths are counted in runes.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter validates the sizes and returns a Splitter.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, apperrors.New(apperrors.CodeConfiguration,
			fmt.Sprintf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, apperrors.New(apperrors.CodeConfiguration,
			fmt.Sprintf("chunk overlap must be in [0, %d), got %d", chunkSize, overlap))
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}, nil
}

// SplitText returns the chunks of text as a lazy sequence.
func SplitText(text string, chunkSize, overlap int) (iter.Seq[entities.TextChunk], error) {
	s, err := NewSplitter(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return s.Chunks(text), nil
}

// Chunks returns a sequence that splits text each time it is ranged over.
func (s *Splitter) Chunks(text string) iter.Seq[entities.TextChunk] {
	return func(yield func(entities.TextChunk) bool) {
		index := 0
		s.split(text, s.separators, func(chunk string) bool {
			ok := yield(entities.TextChunk{Index: index, Content: chunk})
			index++
			return ok
		})
	}
}

// Split collects every chunk of text.
func (s *Splitter) Split(text string) []entities.TextChunk {
	return slices.Collect(s.Chunks(text))
}

// split emits the chunks of text using the first separator present in it,
// recursing with finer separators into pieces that are still too long.
// It returns false once emit asks to stop.
func (s *Splitter) split(text string, separators []string, emit func(string) bool) bool {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var good []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			if !s.merge(good, emit) {
				return false
			}
			good = nil
		}
		if len(finer) == 0 {
			if !emit(piece) {
				return false
			}
			continue
		}
		if !s.split(piece, finer, emit) {
			return false
		}
	}
	if len(good) > 0 {
		return s.merge(good, emit)
	}
	return true
}

// merge greedily packs pieces into chunks, carrying up to overlap runes of
// the previous chunk into the next one.
func (s *Splitter) merge(pieces []string, emit func(string) bool) bool {
	var current []string
	total := 0
	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				if !emit(chunk) {
					return false
				}
			}
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		return emit(chunk)
	}
	return true
}

// splitKeepingSeparator splits text on sep, keeping sep at the start of every
// piece but the first. An empty sep splits into runes. Empty pieces are dropped.
func splitKeepingSeparator(text, sep string) []string {
	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	for i, part := range strings.Split(text, sep) {
		if i > 0 {
			part = sep + part
		}
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

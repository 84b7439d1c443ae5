package components

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// characterSplitter cuts fixed windows of chunkSize characters, advancing by
// chunkSize-chunkOverlap each step.
type characterSplitter struct {
	size    int
	overlap int
}

func newCharacterSplitter(cfg map[string]any) (Splitter, error) {
	size := intOption(cfg, "chunkSize", defaultChunkSize)
	overlap := intOption(cfg, "chunkOverlap", 0)
	if size <= 0 {
		return nil, fmt.Errorf("chunkSize must be positive, got %d", size)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunkOverlap %d must be smaller than chunkSize %d", overlap, size)
	}
	return &characterSplitter{size: size, overlap: overlap}, nil
}

func (s *characterSplitter) Split(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	step := s.size - s.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// recursiveSplitter wraps the langchaingo recursive character splitter.
type recursiveSplitter struct {
	inner textsplitter.RecursiveCharacter
}

func newRecursiveSplitter(cfg map[string]any) (Splitter, error) {
	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(intOption(cfg, "chunkSize", defaultChunkSize)),
		textsplitter.WithChunkOverlap(intOption(cfg, "chunkOverlap", defaultChunkOverlap)),
	}
	if seps := stringSlice(cfg["separators"]); len(seps) > 0 {
		opts = append(opts, textsplitter.WithSeparators(seps))
	}
	return &recursiveSplitter{inner: textsplitter.NewRecursiveCharacter(opts...)}, nil
}

func (s *recursiveSplitter) Split(text string) ([]string, error) {
	return s.inner.SplitText(text)
}

// markdownSplitter wraps the langchaingo markdown-aware splitter.
type markdownSplitter struct {
	inner *textsplitter.MarkdownTextSplitter
}

func newMarkdownSplitter(cfg map[string]any) (Splitter, error) {
	inner := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithChunkSize(intOption(cfg, "chunkSize", defaultChunkSize)),
		textsplitter.WithChunkOverlap(intOption(cfg, "chunkOverlap", defaultChunkOverlap)),
	)
	return &markdownSplitter{inner: inner}, nil
}

func (s *markdownSplitter) Split(text string) ([]string, error) {
	return s.inner.SplitText(text)
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

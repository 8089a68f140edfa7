package chunker

import (
	"fmt"
	"strings"

	"ai-qa-rag-be/pkg/apperror"
)

// Config controls how a document is split.
// Sizes are measured in characters (runes), not bytes.
type Config struct {
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	Overlap      int `json:"overlap" yaml:"overlap"`
	MinChunkSize int `json:"min_chunk_size" yaml:"min_chunk_size"`
}

// DefaultConfig returns the reference chunking parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		Overlap:      200,
		MinChunkSize: 100,
	}
}

// Validate rejects configurations that cannot make progress.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", apperror.ErrInvalidChunkConfig, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", apperror.ErrInvalidChunkConfig, c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap (%d) must be smaller than chunk size (%d)", apperror.ErrInvalidChunkConfig, c.Overlap, c.ChunkSize)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("%w: min chunk size must not be negative, got %d", apperror.ErrInvalidChunkConfig, c.MinChunkSize)
	}
	return nil
}

// Chunk is one window of a document. [StartIndex, EndIndex) are rune offsets into the source.
type Chunk struct {
	Content    string
	StartIndex int
	EndIndex   int
	Sequence   int
	Section    string
}

// Chunker splits text into overlapping windows and labels each with a section.
type Chunker struct {
	config   Config
	matchers []SectionMatcher
}

// New validates the config and builds a chunker. Matchers are tried in order; with none,
// every chunk is labelled DefaultSection.
func New(cfg Config, matchers ...SectionMatcher) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{
		config:   cfg,
		matchers: matchers,
	}, nil
}

// Split chunks content with the default section matchers.
func Split(content string, cfg Config) ([]Chunk, error) {
	c, err := New(cfg, DefaultSectionMatchers()...)
	if err != nil {
		return nil, err
	}
	return c.Split(content)
}

// Config returns the configuration the chunker was built with.
func (c *Chunker) Config() Config {
	return c.config
}

type span struct {
	start int
	end   int
}

// Split returns the ordered chunks of content. Identical input always yields identical output.
func (c *Chunker) Split(content string) ([]Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is empty", apperror.ErrValidation)
	}

	runes := []rune(content)
	spans := c.windows(runes)

	// The final window is always kept. A mostly blank window in the middle is folded into its
	// neighbour so every offset of the document stays inside some chunk.
	kept := make([]span, 0, len(spans))
	carry := -1
	last := len(spans) - 1
	for i, s := range spans {
		if i < last && c.belowFloor(runes, s) {
			if n := len(kept); n > 0 {
				kept[n-1].end = s.end
			} else if carry < 0 {
				carry = s.start
			}
			continue
		}
		if carry >= 0 {
			s.start = carry
			carry = -1
		}
		kept = append(kept, s)
	}

	chunks := make([]Chunk, len(kept))
	current := DefaultSection
	for i, s := range kept {
		text := string(runes[s.start:s.end])
		if label, ok := c.detectSection(text); ok {
			current = label
		}
		chunks[i] = Chunk{
			Content:    text,
			StartIndex: s.start,
			EndIndex:   s.end,
			Sequence:   i,
			Section:    current,
		}
	}
	return chunks, nil
}

func (c *Chunker) belowFloor(runes []rune, s span) bool {
	return len([]rune(strings.TrimSpace(string(runes[s.start:s.end])))) < c.config.MinChunkSize
}

func (c *Chunker) windows(runes []rune) []span {
	total := len(runes)
	var spans []span

	start := 0
	for {
		end := start + c.config.ChunkSize
		if end >= total {
			end = total
		} else {
			end = snapBoundary(runes, start, end, c.config.Overlap)
		}

		spans = append(spans, span{start: start, end: end})
		if end >= total {
			break
		}

		next := end - c.config.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}

// snapBoundary looks back through the last overlap characters of the window for a sentence
// end or paragraph break and returns the offset just past it, or end if none is found.
func snapBoundary(runes []rune, start, end, overlap int) int {
	floor := end - overlap
	if floor < start {
		floor = start
	}
	for i := end - 1; i >= floor; i-- {
		switch runes[i] {
		case '.', '?', '!':
			return i + 1
		case '\n':
			if i-1 >= start && runes[i-1] == '\n' {
				return i + 1
			}
		}
	}
	return end
}

func (c *Chunker) detectSection(text string) (string, bool) {
	if len(c.matchers) == 0 {
		return "", false
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, m := range c.matchers {
			if label, ok := m.Match(line); ok {
				return label, true
			}
		}
	}
	return "", false
}

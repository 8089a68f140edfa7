package chunker

import (
	"regexp"
	"strings"
)

// DefaultSection labels chunks that sit before any detected header.
const DefaultSection = "Main Content"

// SectionMatcher recognises a header line and returns its label.
type SectionMatcher interface {
	Match(line string) (string, bool)
}

// RegexMatcher matches a whole trimmed line. Group selects the capture used as label (0 = whole match).
type RegexMatcher struct {
	Name    string
	Pattern *regexp.Regexp
	Group   int
}

func (m RegexMatcher) Match(line string) (string, bool) {
	sub := m.Pattern.FindStringSubmatch(line)
	if sub == nil || m.Group >= len(sub) {
		return "", false
	}
	label := strings.TrimSpace(sub[m.Group])
	if label == "" {
		return "", false
	}
	return label, true
}

// DefaultSectionMatchers returns the header conventions recognised out of the box,
// in priority order: Markdown headers, numbered sections, all-caps lines.
func DefaultSectionMatchers() []SectionMatcher {
	return []SectionMatcher{
		RegexMatcher{
			Name:    "markdown",
			Pattern: regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*$`),
			Group:   1,
		},
		RegexMatcher{
			Name:    "numbered",
			Pattern: regexp.MustCompile(`^(\d+(?:\.\d+)*\.?\s+[A-Z][^.!?]{0,80})$`),
			Group:   1,
		},
		RegexMatcher{
			Name:    "all_caps",
			Pattern: regexp.MustCompile(`^([A-Z][A-Z0-9 ,&:'/\-]{3,80})$`),
			Group:   1,
		},
	}
}

package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	types "github.com/yungbote/techlearn-backend/internal/domain"
)

const maxHeadingChars = 100

var (
	enumeratedHeading = regexp.MustCompile(`^\d+\.`)
	introducerHeading = regexp.MustCompile(`(?i)^(chapter|section|module)`)
)

// IsHeading reports whether a trimmed line opens a new section.
func IsHeading(line string) bool {
	if utf8.RuneCountInString(line) >= maxHeadingChars {
		return false
	}
	return strings.ToUpper(line) == line ||
		enumeratedHeading.MatchString(line) ||
		introducerHeading.MatchString(line)
}

// ExtractSections splits text into titled sections. Lines before the first
// heading belong to no section and are dropped. Blank lines are skipped.
func ExtractSections(text string) []types.Section {
	sections := []types.Section{}
	var current *types.Section
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if IsHeading(line) {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &types.Section{Title: line, Content: []string{}}
			continue
		}
		if current != nil {
			current.Content = append(current.Content, line)
		}
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

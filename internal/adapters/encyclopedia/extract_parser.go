package encyclopedia

import (
	"regexp"
	"strings"

	"github.com/agrisense/backend/internal/domain/providers"
)

var headingPattern = regexp.MustCompile(`^(={2,6})\s*(.*?)\s*={2,6}$`)

// parseExtract splits a wiki-format plain-text extract into the lead text and
// a section tree. "== A ==" opens a level-2 section, "=== B ===" nests under
// the closest shallower heading.
func parseExtract(extract string) (string, []*providers.PageSection) {
	type frame struct {
		level   int
		section *providers.PageSection
	}

	var (
		lead   strings.Builder
		roots  []*providers.PageSection
		stack  []frame
		bodies = map[*providers.PageSection]*strings.Builder{}
	)

	for _, line := range strings.Split(extract, "\n") {
		m := headingPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			if len(stack) == 0 {
				lead.WriteString(line)
				lead.WriteByte('\n')
			} else {
				b := bodies[stack[len(stack)-1].section]
				b.WriteString(line)
				b.WriteByte('\n')
			}
			continue
		}

		level := len(m[1])
		section := &providers.PageSection{Title: m[2]}
		bodies[section] = &strings.Builder{}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, section)
		} else {
			parent := stack[len(stack)-1].section
			parent.Sections = append(parent.Sections, section)
		}
		stack = append(stack, frame{level: level, section: section})
	}

	for section, body := range bodies {
		section.Text = strings.TrimSpace(body.String())
	}

	return strings.TrimSpace(lead.String()), roots
}

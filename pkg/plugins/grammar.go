package plugins

import (
	"regexp"
	"strings"
)

// Matcher recognizes one goal line of help:describe output.
type Matcher struct {
	Name  string
	Match func(line string) (Goal, bool)
}

// Grammar parses the goal listing printed by `mvn help:describe`.
//
// Parsing skips lines until Header accepts one. Each following line is
// offered to Matchers in order; the first match wins. A line that no
// matcher accepts and that Terminator accepts ends the listing. When the
// listing yields no goals, Fallback scans the whole output instead.
type Grammar struct {
	Header     func(line string) bool
	Matchers   []Matcher
	Terminator func(line string) bool
	Fallback   func(lines []string) []Goal
}

var (
	dashLine      = regexp.MustCompile(`^([a-zA-Z0-9\-_.]+)\s*-\s*(.+)$`)
	qualifiedLine = regexp.MustCompile(`^[^:]+:[^:]+:[^:]+:([a-zA-Z0-9\-_.]+)(?:\s+(.*))?$`)
	bareLine      = regexp.MustCompile(`^([a-zA-Z0-9\-_.]+)$`)
	mojoLine      = regexp.MustCompile(`^([a-zA-Z0-9\-_.]+)\s*\(implementation:\s*[^)]+\)$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

func defaultDescription(goal string) string { return "Run " + goal + " goal" }

// DashMatcher accepts "goal - description".
func DashMatcher() Matcher {
	return Matcher{Name: "dash", Match: func(line string) (Goal, bool) {
		m := dashLine.FindStringSubmatch(line)
		if m == nil {
			return Goal{}, false
		}
		return Goal{Name: strings.TrimSpace(m[1]), Description: strings.TrimSpace(m[2])}, true
	}}
}

// QualifiedMatcher accepts "group:artifact:version:goal [description]".
func QualifiedMatcher() Matcher {
	return Matcher{Name: "qualified", Match: func(line string) (Goal, bool) {
		m := qualifiedLine.FindStringSubmatch(line)
		if m == nil {
			return Goal{}, false
		}
		name := strings.TrimSpace(m[1])
		desc := strings.TrimSpace(m[2])
		if desc == "" {
			desc = defaultDescription(name)
		}
		return Goal{Name: name, Description: desc}, true
	}}
}

// BareMatcher accepts a line holding only a goal name. Single characters
// and dotted names are rejected.
func BareMatcher() Matcher {
	return Matcher{Name: "bare", Match: func(line string) (Goal, bool) {
		m := bareLine.FindStringSubmatch(line)
		if m == nil || len(m[1]) <= 1 || strings.Contains(m[1], ".") {
			return Goal{}, false
		}
		return Goal{Name: m[1], Description: defaultDescription(m[1])}, true
	}}
}

// MojoMatcher accepts "goal (implementation: Class)".
func MojoMatcher() Matcher {
	return Matcher{Name: "mojo", Match: func(line string) (Goal, bool) {
		m := mojoLine.FindStringSubmatch(line)
		if m == nil {
			return Goal{}, false
		}
		name := strings.TrimSpace(m[1])
		return Goal{Name: name, Description: defaultDescription(name)}, true
	}}
}

// IsGoalsHeader reports whether line introduces the goal listing.
func IsGoalsHeader(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "goals are available"),
		strings.Contains(lower, "this plugin has"),
		strings.Contains(lower, "goals:"),
		strings.Contains(line, "Mojo:"):
		return true
	}
	return strings.Contains(line, ":") && (strings.Contains(line, "goal") || strings.Contains(line, "mojo"))
}

// IsTerminator reports whether line ends the goal listing.
func IsTerminator(line string) bool {
	return strings.Contains(line, "===") ||
		strings.Contains(strings.ToLower(line), "for more information") ||
		strings.HasPrefix(line, "[INFO]") ||
		strings.HasPrefix(line, "[ERROR]")
}

// ColonFallback picks the fourth colon-separated field of every line that
// mentions "goal".
func ColonFallback(lines []string) []Goal {
	var goals []Goal
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ":") || !strings.Contains(line, "goal") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 4 {
			continue
		}
		name := whitespace.Split(parts[3], -1)[0]
		if len(name) > 1 {
			goals = append(goals, Goal{Name: name, Description: defaultDescription(name)})
		}
	}
	return goals
}

// DefaultGrammar returns the grammar for Maven 3 help:describe output.
// Matchers are tried in this order: dash, qualified, bare, mojo.
func DefaultGrammar() *Grammar {
	return &Grammar{
		Header:     IsGoalsHeader,
		Matchers:   []Matcher{DashMatcher(), QualifiedMatcher(), BareMatcher(), MojoMatcher()},
		Terminator: IsTerminator,
		Fallback:   ColonFallback,
	}
}

// Parse extracts goals from output. It never fails; unrecognized output
// yields no goals.
func (g *Grammar) Parse(output string) []Goal {
	lines := strings.Split(output, "\n")
	var goals []Goal
	inListing := false

scan:
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !inListing {
			if g.Header != nil && g.Header(line) {
				inListing = true
			}
			continue
		}
		for _, m := range g.Matchers {
			if goal, ok := m.Match(line); ok {
				goals = append(goals, goal)
				continue scan
			}
		}
		if g.Terminator != nil && g.Terminator(line) {
			break
		}
	}

	if len(goals) == 0 && g.Fallback != nil {
		goals = g.Fallback(lines)
	}
	return goals
}

package plugins

import (
	"slices"
	"testing"
)

func goalNames(goals []Goal) []string {
	names := make([]string, len(goals))
	for i, g := range goals {
		names[i] = g.Name
	}
	return names
}

func TestGrammarParse(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
		desc   map[string]string
	}{
		{
			name: "prefixed dash lines are not goal lines",
			output: `Name: Exec Maven Plugin
This plugin has 3 goals:

exec:exec - A Plugin for executing external programs.
exec:help - Display help information on exec-maven-plugin.
exec:java - Executes the supplied java class in the current VM.

For more information, run 'mvn help:describe [...] -Ddetail'`,
			want: nil,
		},
		{
			name: "bare goals with dash descriptions",
			output: `This plugin has 2 goals:
generate - Generates sources
help - Display help`,
			want: []string{"generate", "help"},
			desc: map[string]string{"generate": "Generates sources"},
		},
		{
			name: "qualified lines",
			output: `Goals:
org.codehaus.mojo:exec-maven-plugin:3.1.0:exec Runs a program
org.codehaus.mojo:exec-maven-plugin:3.1.0:java`,
			want: []string{"exec", "java"},
			desc: map[string]string{"exec": "Runs a program", "java": "Run java goal"},
		},
		{
			name: "bare identifiers skip dotted and single chars",
			output: `The following goals are available
compile
x
some.thing
testCompile`,
			want: []string{"compile", "testCompile"},
		},
		{
			name: "mojo implementation lines",
			output: `Mojo: listing
generate (implementation: com.example.GenerateMojo)`,
			want: []string{"generate"},
		},
		{
			name: "terminator stops the listing",
			output: `This plugin has 2 goals:
first
[INFO] ------------------------------------------------
second`,
			want: []string{"first"},
		},
		{
			name:   "no header no goals",
			output: "nothing to see here\njust text",
			want:   nil,
		},
		{
			name:   "fallback after terminator",
			output: "goal:g:a:deploy-it now\n=== end ===",
			want:   []string{"deploy-it"},
		},
		{
			name:   "fallback on a lone qualified line",
			output: "org.example:demo-maven-plugin:1.0:generate goal",
			want:   []string{"generate"},
		},
		{
			name:   "fallback rejects short fields",
			output: "goal:a: b: c",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultGrammar().Parse(tt.output)
			if !slices.Equal(goalNames(got), tt.want) {
				t.Fatalf("goals = %v, want %v", goalNames(got), tt.want)
			}
			for _, g := range got {
				if want, ok := tt.desc[g.Name]; ok && g.Description != want {
					t.Errorf("%s description = %q, want %q", g.Name, g.Description, want)
				}
			}
		})
	}
}

func TestMatcherOrder(t *testing.T) {
	g := DefaultGrammar()
	want := []string{"dash", "qualified", "bare", "mojo"}
	var got []string
	for _, m := range g.Matchers {
		got = append(got, m.Name)
	}
	if !slices.Equal(got, want) {
		t.Errorf("matcher order = %v, want %v", got, want)
	}
}

func TestCustomMatcher(t *testing.T) {
	g := DefaultGrammar()
	g.Matchers = append([]Matcher{{
		Name: "star",
		Match: func(line string) (Goal, bool) {
			if len(line) > 2 && line[:2] == "* " {
				return Goal{Name: line[2:]}, true
			}
			return Goal{}, false
		},
	}}, g.Matchers...)

	got := g.Parse("goals:\n* custom\nplain")
	if !slices.Equal(goalNames(got), []string{"custom", "plain"}) {
		t.Errorf("goals = %v", goalNames(got))
	}
}

func TestHeaderAndTerminator(t *testing.T) {
	headers := []string{
		"The following 4 goals are available",
		"This plugin has 3 goals:",
		"Goals:",
		"Mojo: generate",
		"prefix:goal",
	}
	for _, h := range headers {
		if !IsGoalsHeader(h) {
			t.Errorf("IsGoalsHeader(%q) = false", h)
		}
	}
	if IsGoalsHeader("Name: Exec Maven Plugin") {
		t.Error("plain metadata line treated as header")
	}

	for _, line := range []string{"=====", "For more information run", "[INFO] done", "[ERROR] boom"} {
		if !IsTerminator(line) {
			t.Errorf("IsTerminator(%q) = false", line)
		}
	}
	if IsTerminator("compile") {
		t.Error("goal line treated as terminator")
	}
}

package resolve

import (
	"regexp"
	"strings"
)

// MaxPasses caps the fixed-point substitution loop.
const MaxPasses = 10

// Built-in property defaults seeded before any declared property.
var builtinDefaults = map[string]string{
	"maven.compiler.source":       "17",
	"maven.compiler.target":       "17",
	"project.build.sourceEncoding": "UTF-8",
}

var placeholder = regexp.MustCompile(`\$\{([^${}]+)\}`)

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Interpolator substitutes ${name} placeholders.
//
// Names are looked up in the property map first. The env.X namespace reads
// environment variable X. The user.X namespace stands in for JVM system
// properties and also reads the environment, trying X verbatim and then
// in upper snake case (user.home reads HOME). Unknown names are left as the
// original token.
type Interpolator struct {
	Lookup LookupFunc
}

// Result is the outcome of a fixed-point interpolation.
type Result struct {
	Properties map[string]string
	Passes     int
	// Converged is false when MaxPasses was reached while values still held
	// references to known properties, which means a circular reference.
	Converged bool
}

// Properties resolves every value of props against props itself.
// The input map is not modified.
//
// Each pass substitutes against a snapshot of the previous pass, so the
// outcome does not depend on map iteration order. The loop stops once no
// value contains a resolvable reference, or after MaxPasses.
func (in Interpolator) Properties(props map[string]string) Result {
	cur := make(map[string]string, len(props))
	for k, v := range props {
		cur[k] = v
	}

	for pass := 1; pass <= MaxPasses; pass++ {
		next := make(map[string]string, len(cur))
		for k, v := range cur {
			next[k] = in.substitute(v, cur)
		}
		cur = next
		if !in.hasResolvable(cur) {
			return Result{Properties: cur, Passes: pass, Converged: true}
		}
	}
	return Result{Properties: cur, Passes: MaxPasses, Converged: false}
}

// Expand resolves placeholders in s against already interpolated props.
func (in Interpolator) Expand(s string, props map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	for range MaxPasses {
		next := in.substitute(s, props)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func (in Interpolator) substitute(s string, props map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(tok string) string {
		if v, ok := in.value(tok[2:len(tok)-1], props); ok {
			return v
		}
		return tok
	})
}

func (in Interpolator) value(name string, props map[string]string) (string, bool) {
	if v, ok := props[name]; ok {
		return v, true
	}
	lookup := in.Lookup
	if lookup == nil {
		return "", false
	}
	if key, ok := strings.CutPrefix(name, "env."); ok {
		return lookup(key)
	}
	if key, ok := strings.CutPrefix(name, "user."); ok {
		if v, ok := lookup(key); ok {
			return v, true
		}
		return lookup(strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
	return "", false
}

func (in Interpolator) hasResolvable(props map[string]string) bool {
	for _, v := range props {
		if !strings.Contains(v, "${") {
			continue
		}
		for _, m := range placeholder.FindAllStringSubmatch(v, -1) {
			if _, ok := in.value(m[1], props); ok {
				return true
			}
		}
	}
	return false
}

// Unresolved returns the placeholder names still present in s.
func Unresolved(s string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		names = append(names, m[1])
	}
	return names
}

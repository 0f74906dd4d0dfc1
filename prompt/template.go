package prompt

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is an opaque format string with a declared set of named
// placeholders of the form {name}. The declared set is validated against the
// template at construction time, so a mismatch can never surface at query
// time.
type Template struct {
	template  string
	variables []string
	partial   map[string]string
}

// New creates a template and validates that the placeholders found in the
// template match the declared variables exactly.
func New(template string, variables ...string) (*Template, error) {
	found := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		found[m[1]] = true
	}

	declared := make(map[string]bool, len(variables))
	for _, v := range variables {
		declared[v] = true
	}

	for v := range found {
		if !declared[v] {
			return nil, fmt.Errorf("template placeholder {%s} is not a declared variable", v)
		}
	}
	for v := range declared {
		if !found[v] {
			return nil, fmt.Errorf("declared variable %q has no {%s} placeholder in template", v, v)
		}
	}

	return &Template{
		template:  template,
		variables: variables,
		partial:   make(map[string]string),
	}, nil
}

// MustNew is like New but panics on an invalid template. Intended for
// package-level default templates.
func MustNew(template string, variables ...string) *Template {
	t, err := New(template, variables...)
	if err != nil {
		panic(err)
	}
	return t
}

// Variables returns the declared placeholder names.
func (t *Template) Variables() []string {
	out := make([]string, len(t.variables))
	copy(out, t.variables)
	return out
}

// Partial returns a copy of the template with some variables pre-bound.
func (t *Template) Partial(vars map[string]string) *Template {
	partial := make(map[string]string, len(t.partial)+len(vars))
	maps.Copy(partial, t.partial)
	maps.Copy(partial, vars)
	return &Template{
		template:  t.template,
		variables: t.variables,
		partial:   partial,
	}
}

// Format substitutes all placeholders. Partially bound values are merged with
// vars; vars win. Missing variables are an error.
func (t *Template) Format(vars map[string]string) (string, error) {
	merged := make(map[string]string, len(t.partial)+len(vars))
	maps.Copy(merged, t.partial)
	maps.Copy(merged, vars)

	for k := range vars {
		if !t.declares(k) {
			return "", fmt.Errorf("unknown template variable %q", k)
		}
	}

	out := t.template
	for _, v := range t.variables {
		val, ok := merged[v]
		if !ok {
			return "", fmt.Errorf("missing value for template variable %q", v)
		}
		out = strings.ReplaceAll(out, "{"+v+"}", val)
	}
	return out, nil
}

// EmptyFormat fills every placeholder with the empty string. It is used for
// token-budget math, where only the fixed template text matters.
func (t *Template) EmptyFormat() string {
	out := t.template
	for _, v := range t.variables {
		val := t.partial[v]
		out = strings.ReplaceAll(out, "{"+v+"}", val)
	}
	return out
}

func (t *Template) declares(name string) bool {
	for _, v := range t.variables {
		if v == name {
			return true
		}
	}
	return false
}

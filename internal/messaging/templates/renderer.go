// Package templates renders outreach copy with strict missing-key semantics.
package templates

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/template"
)

// Renderer renders small text templates for outbound messaging. Parsed
// templates are cached by name; the zero value is ready to use.
type Renderer struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

var funcs = template.FuncMap{
	"clp":       FormatCLP,
	"firstName": FirstName,
}

// Render compiles the provided template text with strict missing-key semantics.
func (r *Renderer) Render(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("templates: template text required")
	}
	t, err := r.lookup(name, tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("templates: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) lookup(name, tmpl string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := name + "\x00" + tmpl
	if t, ok := r.cache[key]; ok {
		return t, nil
	}
	t, err := template.New(name).Option("missingkey=error").Funcs(funcs).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("templates: parse %s: %w", name, err)
	}
	if r.cache == nil {
		r.cache = make(map[string]*template.Template)
	}
	r.cache[key] = t
	return t, nil
}

// FormatCLP formats an amount in Chilean pesos, e.g. 45000 -> "$45.000".
func FormatCLP(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FirstName returns the first word of a full name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

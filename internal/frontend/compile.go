// Package frontend turns JS source into template descriptions.
//
// It locates tagged template call sites with tree-sitter, assigns each one a
// slot in source order, and records its raw parts. Cooked parts come from a
// Cooker supplied by the embedder; this package does not de-escape.
package frontend

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"bennypowers.dev/tplcache/internal/codeunit"
	"bennypowers.dev/tplcache/internal/template"
)

// Cooker computes the cooked value of a raw part
type Cooker func(raw string) template.Cooked

// VerbatimCooker cooks parts without escape sequences to themselves and
// leaves every part containing a backslash undefined
func VerbatimCooker(raw string) template.Cooked {
	if strings.ContainsRune(raw, '\\') {
		return template.Undefined
	}
	return template.CookedString(raw)
}

type options struct {
	cooker Cooker
	tags   []string
}

// Option configures Compile
type Option func(*options)

// WithCooker replaces VerbatimCooker
func WithCooker(c Cooker) Option {
	return func(o *options) {
		if c != nil {
			o.cooker = c
		}
	}
}

// WithTags keeps only call sites whose tag expression is one of tags.
// Other call sites get no slot.
func WithTags(tags ...string) Option {
	return func(o *options) {
		o.tags = append(o.tags, tags...)
	}
}

// Compiled is the front end's output for one source file
type Compiled struct {
	Name  string
	Sites []codeunit.Site
	Store *template.Store
}

// Compile parses source and builds a description per tagged template call site
func Compile(name, source string, opts ...Option) (*Compiled, error) {
	o := options{cooker: VerbatimCooker}
	for _, opt := range opts {
		opt(&o)
	}

	p := AcquireParser()
	defer ReleaseParser(p)

	callSites, err := p.ParseCallSites(source)
	if err != nil {
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) {
			syntaxErr.File = name
		}
		return nil, err
	}

	compiled := &Compiled{Name: name}
	var descs []*template.Description
	for _, cs := range callSites {
		if len(o.tags) > 0 && !slices.Contains(o.tags, cs.Tag) {
			continue
		}
		slot := template.SlotID(len(descs))

		cooked := make([]template.Cooked, len(cs.Raw))
		for i, raw := range cs.Raw {
			cooked[i] = o.cooker(raw)
		}
		desc, err := template.NewDescription(slot, cs.Raw, cooked)
		if err != nil {
			return nil, fmt.Errorf("%s:%d:%d: %w", name, cs.Line+1, cs.Column+1, err)
		}
		descs = append(descs, desc)
		compiled.Sites = append(compiled.Sites, codeunit.Site{
			Slot:   slot,
			Tag:    cs.Tag,
			Line:   cs.Line + 1,
			Column: cs.Column + 1,
		})
	}

	compiled.Store, err = template.NewStore(descs...)
	if err != nil {
		return nil, err
	}
	return compiled, nil
}

// Unit returns a fresh code unit for the compiled source. Each call yields a
// new unit with its own empty cache, as recompiling a script would.
func (c *Compiled) Unit() *codeunit.Unit {
	return codeunit.New(c.Name, c.Store, codeunit.WithSites(c.Sites))
}

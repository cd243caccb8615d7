package ruledef

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/ir"
)

// ruleReader extracts one rule. decls indexes every declaration visible in
// the rule, explicit or implied by a pattern binding or binding target.
type ruleReader struct {
	rule     string
	types    map[ir.Type]compiler.TypeInfo
	decls    map[string]ir.Declaration
	declared []ir.Declaration
}

func (r *ruleReader) errorf(code string, v cue.Value, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Rule: r.rule, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

func (r *ruleReader) wrap(code string, v cue.Value, err error) *LoadError {
	return &LoadError{Code: code, Rule: r.rule, Message: err.Error(), Pos: v.Pos(), Err: err}
}

// parseRule extracts a rule. Declarations are collected before any
// constraint is read so derived "uses" lists can tell declarations from
// other names.
func parseRule(name string, v cue.Value, types map[ir.Type]compiler.TypeInfo) (*Rule, error) {
	r := &ruleReader{rule: name, types: types, decls: map[string]ir.Declaration{}}
	rule := &Rule{Name: name, Pos: v.Pos()}

	if name == "" {
		return nil, r.errorf(ErrCodeInvalidRule, v, "rule has no name")
	}

	declVals, err := optList(v, "declarations")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidDeclaration, v, err)
	}
	for _, dv := range declVals {
		d, err := r.parseDeclaration(dv)
		if err != nil {
			return nil, err
		}
		if _, dup := r.decls[d.Name]; dup {
			return nil, r.errorf(ErrCodeInvalidDeclaration, dv, "duplicate declaration %s", d.Name)
		}
		r.imply(d)
	}

	patVals, err := optList(v, "patterns")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidRule, v, err)
	}
	if len(patVals) == 0 {
		return nil, r.errorf(ErrCodeInvalidRule, v, "rule has no patterns")
	}

	// Pass 1: pattern types and implied declarations.
	heads := make([]patternHead, len(patVals))
	for i, pv := range patVals {
		h, err := r.parsePatternHead(i, pv)
		if err != nil {
			return nil, err
		}
		heads[i] = h
		if h.binding != "" {
			r.imply(ir.Declaration{Name: h.binding, Type: h.typ, Pattern: i})
		}
		for _, t := range h.targets {
			r.imply(t)
		}
	}

	// Pass 2: constraints and bindings.
	for i, pv := range patVals {
		p, err := r.parsePattern(heads[i], pv)
		if err != nil {
			return nil, err
		}
		rule.Patterns = append(rule.Patterns, *p)
	}
	rule.Declarations = r.declared
	return rule, nil
}

// imply declares d unless a declaration of that name already exists.
func (r *ruleReader) imply(d ir.Declaration) {
	if _, ok := r.decls[d.Name]; ok {
		return
	}
	r.decls[d.Name] = d
	r.declared = append(r.declared, d)
}

func (r *ruleReader) parseDeclaration(v cue.Value) (ir.Declaration, error) {
	var raw struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Pattern int    `json:"pattern"`
	}
	if err := v.Decode(&raw); err != nil {
		return ir.Declaration{}, r.wrap(ErrCodeInvalidDeclaration, v, err)
	}
	if raw.Name == "" {
		return ir.Declaration{}, r.errorf(ErrCodeInvalidDeclaration, v, "declaration has no name")
	}
	if raw.Type == "" {
		return ir.Declaration{}, r.errorf(ErrCodeInvalidDeclaration, v, "declaration %s has no type", raw.Name)
	}
	return ir.Declaration{Name: raw.Name, Type: ir.Type(raw.Type), Pattern: raw.Pattern}, nil
}

type patternHead struct {
	index   int
	typ     ir.Type
	binding string
	targets []ir.Declaration
}

func (r *ruleReader) parsePatternHead(i int, v cue.Value) (patternHead, error) {
	h := patternHead{index: i}
	typ, err := optString(v, "type")
	if err != nil {
		return h, r.wrap(ErrCodeInvalidRule, v, err)
	}
	if typ == "" {
		return h, r.errorf(ErrCodeInvalidRule, v, "pattern %d has no type", i)
	}
	h.typ = ir.Type(typ)
	if h.binding, err = optString(v, "binding"); err != nil {
		return h, r.wrap(ErrCodeInvalidRule, v, err)
	}

	bindVals, err := optList(v, "bindings")
	if err != nil {
		return h, r.wrap(ErrCodeInvalidRule, v, err)
	}
	for _, bv := range bindVals {
		name, err := optString(bv, "name")
		if err != nil {
			return h, r.wrap(ErrCodeInvalidRule, bv, err)
		}
		t, err := optString(bv, "type")
		if err != nil {
			return h, r.wrap(ErrCodeInvalidRule, bv, err)
		}
		if name != "" && t != "" {
			h.targets = append(h.targets, ir.Declaration{Name: name, Type: ir.Type(t), Pattern: i})
		}
	}
	return h, nil
}

func (r *ruleReader) parsePattern(h patternHead, v cue.Value) (*Pattern, error) {
	p := &Pattern{Type: h.typ, Binding: h.binding}

	condVals, err := optList(v, "constraints")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidConstraint, v, err)
	}
	for _, cv := range condVals {
		c, err := r.parseCondition(h, cv)
		if err != nil {
			return nil, err
		}
		p.Constraints = append(p.Constraints, c)
	}

	bindVals, err := optList(v, "bindings")
	if err != nil {
		return nil, r.wrap(ErrCodeInvalidRule, v, err)
	}
	for _, bv := range bindVals {
		b, err := r.parseBinding(h, bv)
		if err != nil {
			return nil, err
		}
		p.Bindings = append(p.Bindings, b)
	}
	return p, nil
}

// lookup returns the regular field f of v. Field names such as "and" and
// "or" are predeclared identifiers in CUE, so they are matched as strings.
func lookup(v cue.Value, f string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(f)))
}

// optString returns the string at path, or "" when the field is absent.
func optString(v cue.Value, path string) (string, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return "", nil
	}
	return f.String()
}

// optBool returns the bool at path, or false when the field is absent.
func optBool(v cue.Value, path string) (bool, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return false, nil
	}
	return f.Bool()
}

// optList returns the elements of the list at path, or nil when absent.
func optList(v cue.Value, path string) ([]cue.Value, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, err
	}
	var out []cue.Value
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out, nil
}

// optStrings returns the string list at path. The second result reports
// whether the field was present, so an explicit empty list can be told apart
// from an omitted one.
func optStrings(v cue.Value, path string) ([]string, bool, error) {
	f := lookup(v, path)
	if !f.Exists() {
		return nil, false, nil
	}
	var out []string
	if err := f.Decode(&out); err != nil {
		return nil, true, err
	}
	return out, true, nil
}

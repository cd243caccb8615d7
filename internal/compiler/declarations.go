package compiler

import (
	"fmt"

	"github.com/roach88/rulecc/internal/ir"
)

// DeclarationTable holds the declarations a rule established before its
// constraints are compiled. It is built once and only read afterwards, so a
// single table can back several builders.
type DeclarationTable struct {
	decls  []ir.Declaration
	byName map[string]int
}

// NewDeclarationTable builds a table from decls in order.
// Names must be non-empty and unique.
func NewDeclarationTable(decls ...ir.Declaration) (*DeclarationTable, error) {
	t := &DeclarationTable{
		decls:  make([]ir.Declaration, 0, len(decls)),
		byName: make(map[string]int, len(decls)),
	}
	for i, d := range decls {
		if d.Name == "" {
			return nil, fmt.Errorf("declaration %d: empty name", i)
		}
		if d.Type == "" {
			return nil, fmt.Errorf("declaration %s: empty type", d.Name)
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("declaration %s: declared twice", d.Name)
		}
		t.byName[d.Name] = len(t.decls)
		t.decls = append(t.decls, d)
	}
	return t, nil
}

// Resolve looks up name. A nil table resolves nothing.
func (t *DeclarationTable) Resolve(name string) (ir.Declaration, bool) {
	if t == nil {
		return ir.Declaration{}, false
	}
	i, ok := t.byName[name]
	if !ok {
		return ir.Declaration{}, false
	}
	return t.decls[i], true
}

// Declarations returns a copy of the declarations in table order.
func (t *DeclarationTable) Declarations() []ir.Declaration {
	if t == nil {
		return nil
	}
	out := make([]ir.Declaration, len(t.decls))
	copy(out, t.decls)
	return out
}

// Len returns the number of declarations.
func (t *DeclarationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.decls)
}

// resolveVar turns a declaration name into a VarArg.
func (c *RuleContext) resolveVar(pos, name string) (ir.VarArg, error) {
	d, ok := c.Declarations.Resolve(name)
	if !ok {
		return ir.VarArg{}, c.unresolved(pos, name)
	}
	return ir.VarArg{Name: d.Name, Type: d.Type}, nil
}

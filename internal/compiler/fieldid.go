package compiler

import (
	"slices"
	"sync"

	"github.com/roach88/rulecc/internal/ir"
)

type fieldKey struct {
	patternType ir.Type
	field       string
}

// FieldRegistry assigns dense numeric ids to (pattern type, field) pairs.
//
// One registry belongs to one rule-base build session and is shared by every
// rule compiled in it. It is safe for concurrent use: the first caller for a
// key inserts it, every later caller (on any goroutine) sees the same id, and
// distinct keys never share an id.
type FieldRegistry struct {
	mu   sync.Mutex
	ids  map[fieldKey]int
	next int
}

// NewFieldRegistry returns an empty registry. Ids start at 0.
func NewFieldRegistry() *FieldRegistry {
	return &FieldRegistry{ids: make(map[fieldKey]int)}
}

// FieldID returns the id for field on patternType, assigning the next free id
// on first use.
func (r *FieldRegistry) FieldID(patternType ir.Type, field string) int {
	k := fieldKey{patternType: patternType, field: field}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[k]; ok {
		return id
	}
	id := r.next
	r.ids[k] = id
	r.next++
	return id
}

// Lookup returns the id for field on patternType without assigning one.
func (r *FieldRegistry) Lookup(patternType ir.Type, field string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[fieldKey{patternType: patternType, field: field}]
	return id, ok
}

// Len returns the number of registered fields.
func (r *FieldRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// FieldEntry is one registered field.
type FieldEntry struct {
	PatternType ir.Type `json:"pattern_type"`
	Field       string  `json:"field"`
	ID          int     `json:"id"`
}

// Snapshot returns every registered field ordered by id.
func (r *FieldRegistry) Snapshot() []FieldEntry {
	r.mu.Lock()
	out := make([]FieldEntry, 0, len(r.ids))
	for k, id := range r.ids {
		out = append(out, FieldEntry{PatternType: k.patternType, Field: k.field, ID: id})
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b FieldEntry) int { return a.ID - b.ID })
	return out
}

// Reserve registers, depth-first, every field r would index. A build session
// reserves all rules in a fixed order before compiling them concurrently so
// field ids do not depend on goroutine scheduling.
func (r *FieldRegistry) Reserve(result ir.ParseResult) {
	switch n := result.(type) {
	case *ir.Atomic:
		if n == nil || n.Unification || !hasIndex(n) {
			return
		}
		if n.IsBeta() || ir.IsLiteral(n.Right.Expr) {
			r.FieldID(n.PatternType, n.Left.FieldName)
		}
	case *ir.Composite:
		if n == nil {
			return
		}
		for _, child := range n.Children() {
			r.Reserve(child)
		}
	}
}

package store

import (
	"fmt"

	"github.com/roach88/rulecc/internal/ir"
)

// Descriptor kinds.
const (
	KindConstraint = "constraint"
	KindBinding    = "binding"
)

// descriptorRow is the stored form of one descriptor.
type descriptorRow struct {
	canonical string
	hash      string
	indexKey  string
	rendered  string
}

// marshalDescriptor converts a descriptor to canonical JSON TEXT for storage,
// with its content hash, DSL text and, for indexed constraints, the index key.
func marshalDescriptor(c ir.Constraint) (descriptorRow, error) {
	canonical, err := ir.CanonicalConstraint(c)
	if err != nil {
		return descriptorRow{}, fmt.Errorf("marshal descriptor: %w", err)
	}
	hash, err := ir.DescriptorHash(c)
	if err != nil {
		return descriptorRow{}, fmt.Errorf("marshal descriptor: %w", err)
	}

	row := descriptorRow{
		canonical: string(canonical),
		hash:      hash,
		rendered:  ir.Render(c),
	}
	if e, ok := c.(*ir.ExprConstraint); ok && e.Index != nil {
		if row.indexKey, err = ir.IndexKey(e.Index); err != nil {
			return descriptorRow{}, fmt.Errorf("marshal descriptor: %w", err)
		}
	}
	return row, nil
}

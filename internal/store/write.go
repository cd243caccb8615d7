package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rulecc/internal/ir"
	"github.com/roach88/rulecc/internal/rulebase"
)

// WriteSession stores a build result in one transaction.
//
// A session id is written at most once: writing an id that already exists
// returns ErrSessionExists and leaves the stored session unchanged.
func (s *Store) WriteSession(ctx context.Context, res *rulebase.Result) error {
	if res == nil {
		return fmt.Errorf("write session: nil result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO sessions
		(id, builder, reactivity, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		res.SessionID,
		string(res.Builder),
		string(res.Reactivity),
		ir.CompilerVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write session: insert: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write session: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("write session %s: %w", res.SessionID, ErrSessionExists)
	}

	for _, cr := range res.Rules {
		if err := writeRule(ctx, tx, res.SessionID, cr); err != nil {
			return fmt.Errorf("write session: rule %q: %w", cr.Name, err)
		}
	}

	for _, f := range res.Failures {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rule_failures (session_id, rule, error)
			VALUES (?, ?, ?)
		`, res.SessionID, f.Rule, f.Err.Error()); err != nil {
			return fmt.Errorf("write session: failure %q: %w", f.Rule, err)
		}
	}

	for _, fe := range res.Fields {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO field_ids (session_id, pattern_type, field, id)
			VALUES (?, ?, ?, ?)
		`, res.SessionID, string(fe.PatternType), fe.Field, fe.ID); err != nil {
			return fmt.Errorf("write session: field %s.%s: %w", fe.PatternType, fe.Field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write session: commit: %w", err)
	}
	return nil
}

func writeRule(ctx context.Context, tx *sql.Tx, sessionID string, cr rulebase.CompiledRule) error {
	for i, p := range cr.Patterns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rule_patterns (session_id, rule, pattern, pattern_type, binding)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, cr.Name, i, string(p.Type), p.Binding); err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}

		for j, c := range p.Constraints {
			if err := writeDescriptor(ctx, tx, sessionID, cr.Name, i, KindConstraint, j, c); err != nil {
				return fmt.Errorf("pattern %d constraint %d: %w", i, j, err)
			}
		}
		for j, c := range p.Bindings {
			if err := writeDescriptor(ctx, tx, sessionID, cr.Name, i, KindBinding, j, c); err != nil {
				return fmt.Errorf("pattern %d binding %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func writeDescriptor(ctx context.Context, tx *sql.Tx, sessionID, rule string, pattern int, kind string, position int, c ir.Constraint) error {
	row, err := marshalDescriptor(c)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO descriptors
		(session_id, rule, pattern, kind, position, descriptor, descriptor_hash, index_key, rendered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sessionID,
		rule,
		pattern,
		kind,
		position,
		row.canonical,
		row.hash,
		row.indexKey,
		row.rendered,
	)
	return err
}

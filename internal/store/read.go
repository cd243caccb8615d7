package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/ir"
)

var (
	// ErrSessionNotFound is returned when no session has the requested id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when a session id is written twice.
	ErrSessionExists = errors.New("session already exists")
)

// SessionRecord is the stored header of a build session.
type SessionRecord struct {
	Seq             int64  `json:"seq"`
	ID              string `json:"id"`
	Builder         string `json:"builder"`
	Reactivity      string `json:"reactivity"`
	CompilerVersion string `json:"compiler_version"`
	IRVersion       string `json:"ir_version"`
}

// PatternRecord is one stored pattern of a compiled rule.
type PatternRecord struct {
	Rule        string  `json:"rule"`
	Pattern     int     `json:"pattern"`
	PatternType ir.Type `json:"pattern_type"`
	Binding     string  `json:"binding,omitempty"`
}

// DescriptorRecord is one stored descriptor. Descriptor holds its canonical
// JSON; IndexKey is empty for descriptors without an index.
type DescriptorRecord struct {
	Rule       string `json:"rule"`
	Pattern    int    `json:"pattern"`
	Kind       string `json:"kind"`
	Position   int    `json:"position"`
	Descriptor string `json:"descriptor"`
	Hash       string `json:"hash"`
	IndexKey   string `json:"index_key,omitempty"`
	Rendered   string `json:"rendered"`
}

// FailureRecord is the stored error of a rule that did not compile.
type FailureRecord struct {
	Rule  string `json:"rule"`
	Error string `json:"error"`
}

// Session is everything stored for one build session.
type Session struct {
	SessionRecord
	Patterns    []PatternRecord       `json:"patterns"`
	Descriptors []DescriptorRecord    `json:"descriptors"`
	Failures    []FailureRecord       `json:"failures"`
	Fields      []compiler.FieldEntry `json:"fields"`
}

// ListSessions returns all session headers, oldest first.
// Returns an empty slice (not nil) if the store holds no sessions.
func (s *Store) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, builder, reactivity, compiler_version, ir_version
		FROM sessions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionRecord{}
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.Seq, &r.ID, &r.Builder, &r.Reactivity, &r.CompilerVersion, &r.IRVersion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LatestSessionID returns the id of the most recently written session.
// Returns ErrSessionNotFound if the store is empty.
func (s *Store) LatestSessionID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sessions ORDER BY seq DESC LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest session: %w", err)
	}
	return id, nil
}

// ReadSession returns everything stored for session id.
// Returns ErrSessionNotFound if no such session exists.
func (s *Store) ReadSession(ctx context.Context, id string) (*Session, error) {
	sess := &Session{}
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, id, builder, reactivity, compiler_version, ir_version
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.Seq, &sess.ID, &sess.Builder, &sess.Reactivity, &sess.CompilerVersion, &sess.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	if sess.Patterns, err = s.readPatterns(ctx, id); err != nil {
		return nil, err
	}
	if sess.Descriptors, err = s.ReadDescriptors(ctx, id); err != nil {
		return nil, err
	}
	if sess.Failures, err = s.readFailures(ctx, id); err != nil {
		return nil, err
	}
	if sess.Fields, err = s.readFields(ctx, id); err != nil {
		return nil, err
	}
	return sess, nil
}

// ReadDescriptors returns the descriptors of a session ordered by rule name,
// pattern, kind (constraints first) and position.
func (s *Store) ReadDescriptors(ctx context.Context, sessionID string) ([]DescriptorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, pattern, kind, position, descriptor, descriptor_hash, index_key, rendered
		FROM descriptors
		WHERE session_id = ?
		ORDER BY rule COLLATE BINARY ASC, pattern ASC,
		         CASE kind WHEN 'constraint' THEN 0 ELSE 1 END ASC, position ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	descriptors := []DescriptorRecord{}
	for rows.Next() {
		var d DescriptorRecord
		if err := rows.Scan(&d.Rule, &d.Pattern, &d.Kind, &d.Position, &d.Descriptor, &d.Hash, &d.IndexKey, &d.Rendered); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return descriptors, nil
}

// FindByIndexKey returns every stored descriptor, across sessions, whose
// index has the given key. The matching network shares one index node per
// key, so this lists the constraints that would share it.
func (s *Store) FindByIndexKey(ctx context.Context, key string) ([]DescriptorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.rule, d.pattern, d.kind, d.position, d.descriptor, d.descriptor_hash, d.index_key, d.rendered
		FROM descriptors d
		JOIN sessions s ON s.id = d.session_id
		WHERE d.index_key = ?
		ORDER BY s.seq ASC, d.rule COLLATE BINARY ASC, d.pattern ASC, d.position ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query index key: %w", err)
	}
	defer rows.Close()

	descriptors := []DescriptorRecord{}
	for rows.Next() {
		var d DescriptorRecord
		if err := rows.Scan(&d.Rule, &d.Pattern, &d.Kind, &d.Position, &d.Descriptor, &d.Hash, &d.IndexKey, &d.Rendered); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return descriptors, nil
}

func (s *Store) readPatterns(ctx context.Context, sessionID string) ([]PatternRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, pattern, pattern_type, binding
		FROM rule_patterns
		WHERE session_id = ?
		ORDER BY rule COLLATE BINARY ASC, pattern ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	patterns := []PatternRecord{}
	for rows.Next() {
		var p PatternRecord
		var typ string
		if err := rows.Scan(&p.Rule, &p.Pattern, &typ, &p.Binding); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		p.PatternType = ir.Type(typ)
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}
	return patterns, nil
}

func (s *Store) readFailures(ctx context.Context, sessionID string) ([]FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, error
		FROM rule_failures
		WHERE session_id = ?
		ORDER BY rule COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	failures := []FailureRecord{}
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.Rule, &f.Error); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return failures, nil
}

func (s *Store) readFields(ctx context.Context, sessionID string) ([]compiler.FieldEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern_type, field, id
		FROM field_ids
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query field ids: %w", err)
	}
	defer rows.Close()

	fields := []compiler.FieldEntry{}
	for rows.Next() {
		var f compiler.FieldEntry
		var typ string
		if err := rows.Scan(&typ, &f.Field, &f.ID); err != nil {
			return nil, fmt.Errorf("scan field id: %w", err)
		}
		f.PatternType = ir.Type(typ)
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field ids: %w", err)
	}
	return fields, nil
}

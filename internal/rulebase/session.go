package rulebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/ir"
	"github.com/roach88/rulecc/internal/ruledef"
)

// DefaultWorkers is the default number of rules compiled at once.
const DefaultWorkers = 4

// Session is one rule-base build. All rules built by a session share its
// field-id registry.
type Session struct {
	id         string
	builder    compiler.BuilderKind
	reactivity compiler.ReactivityPolicy
	workers    int
	idGen      IDGenerator
	fields     *compiler.FieldRegistry
}

// Option configures a Session.
type Option func(*Session)

// WithBuilder selects the builder strategy. Default: flow.
func WithBuilder(k compiler.BuilderKind) Option {
	return func(s *Session) {
		s.builder = k
	}
}

// WithReactivity sets the property reactivity policy. Default: allowed.
func WithReactivity(p compiler.ReactivityPolicy) Option {
	return func(s *Session) {
		s.reactivity = p
	}
}

// WithWorkers bounds the number of rules compiled concurrently.
// Values below 1 select DefaultWorkers.
func WithWorkers(n int) Option {
	return func(s *Session) {
		s.workers = n
	}
}

// WithIDGenerator sets the session id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) {
		s.idGen = g
	}
}

// WithFieldRegistry shares an existing registry, for incremental builds that
// must keep field ids stable across sessions.
func WithFieldRegistry(r *compiler.FieldRegistry) Option {
	return func(s *Session) {
		s.fields = r
	}
}

// New creates a session. Its id is drawn from the id generator immediately.
func New(opts ...Option) *Session {
	s := &Session{
		builder:    compiler.BuilderFlow,
		reactivity: compiler.ReactivityAllowed,
		workers:    DefaultWorkers,
		idGen:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = DefaultWorkers
	}
	if s.fields == nil {
		s.fields = compiler.NewFieldRegistry()
	}
	s.id = s.idGen.Generate()
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Fields returns the session's field-id registry.
func (s *Session) Fields() *compiler.FieldRegistry {
	return s.fields
}

// Build compiles every rule in rb. Per-rule compile errors are collected in
// Result.Failures; the returned error is non-nil only when rb is nil, the
// session is misconfigured or ctx is cancelled.
func (s *Session) Build(ctx context.Context, rb *ruledef.RuleBase) (*Result, error) {
	if rb == nil {
		return nil, errors.New("rulebase: nil rule base")
	}
	if _, err := compiler.ParseBuilderKind(string(s.builder)); err != nil {
		return nil, fmt.Errorf("rulebase: %w", err)
	}
	if _, err := compiler.ParseReactivityPolicy(string(s.reactivity)); err != nil {
		return nil, fmt.Errorf("rulebase: %w", err)
	}

	slog.Info("rulebase build starting",
		"session_id", s.id,
		"rules", len(rb.Rules),
		"builder", s.builder,
		"workers", s.workers,
	)

	rules := sortedRules(rb.Rules)
	s.reserve(rules)

	compiled := make([]*CompiledRule, len(rules))
	failed := make([]error, len(rules))

	// Workers never return an error, so the group context is cancelled only
	// through ctx.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rule := range rules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				failed[i] = err
				return nil
			}
			cr, err := s.compileRule(rule, rb.Types)
			if err != nil {
				slog.Warn("rule compilation failed",
					"session_id", s.id,
					"rule", rule.Name,
					"error", err,
				)
				failed[i] = err
				return nil
			}
			slog.Debug("rule compiled",
				"session_id", s.id,
				"rule", rule.Name,
				"patterns", len(cr.Patterns),
			)
			compiled[i] = cr
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rulebase: build cancelled: %w", err)
	}

	res := &Result{
		SessionID:  s.id,
		Builder:    s.builder,
		Reactivity: s.reactivity,
		Fields:     s.fields.Snapshot(),
	}
	for i, rule := range rules {
		if failed[i] != nil {
			res.Failures = append(res.Failures, RuleFailure{Rule: rule.Name, Err: failed[i]})
			continue
		}
		res.Rules = append(res.Rules, *compiled[i])
	}

	slog.Info("rulebase build finished",
		"session_id", s.id,
		"compiled", len(res.Rules),
		"failed", len(res.Failures),
		"fields", len(res.Fields),
	)
	return res, nil
}

// reserve assigns field ids for every indexed field, walking rules in order.
func (s *Session) reserve(rules []ruledef.Rule) {
	for _, rule := range rules {
		for _, p := range rule.Patterns {
			for _, c := range p.Constraints {
				s.fields.Reserve(c)
			}
		}
	}
}

// compileRule compiles one rule. Compilation stops at the first failing
// constraint; no partial rule is returned.
func (s *Session) compileRule(rule ruledef.Rule, types map[ir.Type]compiler.TypeInfo) (*CompiledRule, error) {
	decls, err := compiler.NewDeclarationTable(rule.Declarations...)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
	}

	b, err := compiler.NewExpressionBuilder(s.builder, &compiler.RuleContext{
		Rule:         rule.Name,
		Declarations: decls,
		Fields:       s.fields,
		Reactivity:   s.reactivity,
		Types:        types,
	})
	if err != nil {
		return nil, err
	}

	cr := &CompiledRule{Name: rule.Name}
	for i, p := range rule.Patterns {
		cp := CompiledPattern{Type: p.Type, Binding: p.Binding}
		for j, cond := range p.Constraints {
			c, err := b.BuildExpressionWithIndexing(cond)
			if err != nil {
				return nil, fmt.Errorf("pattern %d constraint %d: %w", i, j, err)
			}
			cp.Constraints = append(cp.Constraints, c)
		}
		for j, a := range p.Bindings {
			c, err := b.BuildBinding(a)
			if err != nil {
				return nil, fmt.Errorf("pattern %d binding %d: %w", i, j, err)
			}
			cp.Bindings = append(cp.Bindings, c)
		}
		cr.Patterns = append(cr.Patterns, cp)
	}
	return cr, nil
}

// sortedRules returns rules ordered by name. Loaders already sort, but rule
// bases built in code may not.
func sortedRules(rules []ruledef.Rule) []ruledef.Rule {
	out := make([]ruledef.Rule, len(rules))
	copy(out, rules)
	slices.SortStableFunc(out, func(a, b ruledef.Rule) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Package compiler turns typed rule conditions into constraint descriptors
// for the matching network.
//
// One RuleContext is built per rule. It carries the rule's declaration table,
// the session-wide FieldRegistry and the property reactivity policy. An
// ExpressionBuilder (flow or pattern) compiles each condition tree over it:
//
//	ctx := &compiler.RuleContext{Rule: "adults", Declarations: decls, Fields: fields}
//	b, err := compiler.NewExpressionBuilder(compiler.BuilderFlow, ctx)
//	c, err := b.BuildExpressionWithIndexing(result)
//
// Compilation is synchronous and either yields a complete descriptor or a
// *CompileError; no partial descriptor is ever returned.
package compiler

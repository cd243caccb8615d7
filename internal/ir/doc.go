// Package ir provides the typed intermediate representation consumed and
// produced by the rulecc constraint compiler.
//
// This package contains type definitions, canonical serialization and
// rendering only. All other internal packages import ir; ir imports nothing
// internal.
//
// Two sealed families live here:
//
//   - ParseResult (Atomic | Composite): the typed condition tree handed over
//     by the parser/type-checker collaborator.
//   - Constraint (ExprConstraint | CompositeConstraint | BindConstraint): the
//     declarative descriptors handed to the matching-network builder.
//
// Both use the marker method pattern so consumers can switch exhaustively and
// no foreign package can add variants.
//
// Key design constraints:
//   - NO float types anywhere - floating literals travel as IRDecimal text
//   - Descriptor identity is computed from RFC 8785 canonical JSON only
//   - Argument order is semantic and never re-sorted
package ir

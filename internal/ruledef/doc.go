// Package ruledef reads rule bases written in CUE.
//
// A rule-base file carries conditions that have already been parsed and type
// checked: every operand states its type and every expression is a tree of
// nodes, so loading never parses rule source text.
//
//	types: Person: {
//		reactive: true
//		fields: { age: "int", name: "string" }
//	}
//
//	rule: "adults": {
//		declarations: [{ name: "$p", type: "Person", pattern: 0 }]
//		patterns: [{
//			type:    "Person"
//			binding: "$p"
//			constraints: [{
//				id:    "GT_AGE"
//				left:  { field: "age" }
//				op:    "GREATER"
//				right: { expr: { lit: 30 } }
//			}]
//		}]
//	}
//
// Expression nodes are {name}, {lit, kind?}, {field, of?}, {call, on?, args?},
// {op, left, right}, {not} and {neg}. Composite conditions are {and: [...]} and
// {or: [...]}. Fields a condition omits (test, uses, react_on) are derived
// from its operands.
package ruledef

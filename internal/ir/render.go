package ir

import (
	"strconv"
	"strings"
)

// Render prints a descriptor as DSL text, e.g.
//
//	D.expr("GT_AGE", var_$p, (_this) -> _this.age > 30).indexedBy(int, ConstraintType.GREATER_THAN, 0, (_this) -> _this.age, 30)
//
// Output is deterministic and used for golden comparisons.
func Render(c Constraint) string {
	var b strings.Builder
	renderConstraint(&b, c)
	return b.String()
}

func renderConstraint(b *strings.Builder, c Constraint) {
	switch con := c.(type) {
	case *ExprConstraint:
		b.WriteString(con.Call)
		b.WriteByte('(')
		first := true
		if con.ID != "" {
			b.WriteString(strconv.Quote(con.ID))
			first = false
		}
		for _, a := range con.Args {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(RenderArgument(a))
		}
		b.WriteByte(')')
		if con.Index != nil {
			renderIndex(b, con.Index)
		}
		renderNames(b, "reactOn", con.ReactOn)
		renderNames(b, "watch", con.Watch)
	case *CompositeConstraint:
		b.WriteString(con.Call)
		b.WriteByte('(')
		for i, child := range con.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			renderConstraint(b, child)
		}
		b.WriteByte(')')
	case *BindConstraint:
		b.WriteString(con.Call)
		b.WriteByte('(')
		b.WriteString(RenderArgument(con.Target))
		b.WriteString(").as(")
		for i, a := range con.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(RenderArgument(a))
		}
		b.WriteByte(')')
		renderNames(b, "reactOn", con.ReactOn)
		renderNames(b, "watch", con.Watch)
	default:
		b.WriteString("<invalid>")
	}
}

// RenderArgument prints a single argument.
func RenderArgument(a Argument) string {
	switch arg := a.(type) {
	case VarArg:
		return "var_" + arg.Name
	case LiteralArg:
		return arg.Text
	case DeferredArg:
		return "() -> " + arg.Body.String()
	case PredicateArg:
		return arg.Lambda.String()
	}
	return "<invalid>"
}

func renderIndex(b *strings.Builder, idx *IndexDescriptor) {
	b.WriteString(".indexedBy(")
	b.WriteString(string(idx.KeyType))
	b.WriteString(", ConstraintType.")
	b.WriteString(string(idx.ConstraintType))
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(idx.FieldID))
	b.WriteString(", ")
	b.WriteString(idx.Extractor.String())
	b.WriteString(", ")
	switch n := idx.Narrow.(type) {
	case LiteralNarrowing:
		b.WriteString(ValueText(n.Value))
	case DeclarationNarrowing:
		l := n.Extractor
		if n.CoerceTo != "" {
			l = Lambda{
				Params: l.Params,
				Body:   MethodCall{Method: string(n.CoerceTo), Args: []Expression{l.Body}},
			}
		}
		b.WriteString(l.String())
	default:
		b.WriteString("null")
	}
	b.WriteByte(')')
}

func renderNames(b *strings.Builder, call string, names []string) {
	if len(names) == 0 {
		return
	}
	b.WriteByte('.')
	b.WriteString(call)
	b.WriteByte('(')
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(n))
	}
	b.WriteByte(')')
}

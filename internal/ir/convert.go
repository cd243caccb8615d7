package ir

import "fmt"

// ConstraintToIR converts a descriptor into its canonical object form.
// The result feeds MarshalCanonical for hashing and storage, and the CLI's
// JSON output. Argument and child order are preserved as arrays.
func ConstraintToIR(c Constraint) (IRObject, error) {
	switch con := c.(type) {
	case *ExprConstraint:
		return exprToIR(con)
	case *CompositeConstraint:
		return compositeToIR(con)
	case *BindConstraint:
		return bindToIR(con)
	case nil:
		return nil, fmt.Errorf("nil constraint")
	default:
		return nil, fmt.Errorf("unknown constraint type: %T", c)
	}
}

func exprToIR(c *ExprConstraint) (IRObject, error) {
	args, err := argsToIR(c.Args)
	if err != nil {
		return nil, err
	}
	obj := IRObject{
		"kind": IRString("expr"),
		"call": IRString(c.Call),
		"args": args,
	}
	if c.ID != "" {
		obj["id"] = IRString(c.ID)
	}
	if c.Index != nil {
		idx, err := IndexToIR(c.Index)
		if err != nil {
			return nil, err
		}
		obj["index"] = idx
	}
	addNames(obj, "react_on", c.ReactOn)
	addNames(obj, "watch", c.Watch)
	return obj, nil
}

func compositeToIR(c *CompositeConstraint) (IRObject, error) {
	children := make(IRArray, len(c.Children))
	for i, child := range c.Children {
		obj, err := ConstraintToIR(child)
		if err != nil {
			return nil, fmt.Errorf("children[%d]: %w", i, err)
		}
		children[i] = obj
	}
	return IRObject{
		"kind":     IRString("composite"),
		"call":     IRString(c.Call),
		"operator": IRString(c.Operator),
		"children": children,
	}, nil
}

func bindToIR(c *BindConstraint) (IRObject, error) {
	args, err := argsToIR(c.Args)
	if err != nil {
		return nil, err
	}
	obj := IRObject{
		"kind":   IRString("bind"),
		"call":   IRString(c.Call),
		"target": varToIR(c.Target),
		"args":   args,
	}
	addNames(obj, "react_on", c.ReactOn)
	addNames(obj, "watch", c.Watch)
	return obj, nil
}

func argsToIR(args []Argument) (IRArray, error) {
	out := make(IRArray, len(args))
	for i, a := range args {
		switch arg := a.(type) {
		case VarArg:
			out[i] = varToIR(arg)
		case LiteralArg:
			out[i] = IRObject{"literal": IRString(arg.Text)}
		case DeferredArg:
			out[i] = IRObject{
				"deferred": IRString(arg.Body.String()),
				"captures": stringsToIR(arg.Captures),
			}
		case PredicateArg:
			out[i] = IRObject{"predicate": lambdaToIR(arg.Lambda)}
		default:
			return nil, fmt.Errorf("args[%d]: unknown argument type %T", i, a)
		}
	}
	return out, nil
}

// IndexToIR converts an index descriptor into its canonical object form.
func IndexToIR(idx *IndexDescriptor) (IRObject, error) {
	obj := IRObject{
		"key_type":        IRString(idx.KeyType),
		"constraint_type": IRString(idx.ConstraintType),
		"field_id":        IRInt(idx.FieldID),
		"extractor":       lambdaToIR(idx.Extractor),
	}
	if idx.PatternType != "" {
		obj["pattern_type"] = IRString(idx.PatternType)
	}
	if idx.FieldName != "" {
		obj["field"] = IRString(idx.FieldName)
	}
	switch n := idx.Narrow.(type) {
	case nil:
	case LiteralNarrowing:
		if n.Value == nil {
			return nil, fmt.Errorf("literal narrowing without value")
		}
		obj["narrow"] = IRObject{
			"literal": n.Value,
			"type":    IRString(n.Type),
		}
	case DeclarationNarrowing:
		narrow := IRObject{
			"declaration": IRString(n.Declaration),
			"type":        IRString(n.Type),
			"extractor":   lambdaToIR(n.Extractor),
		}
		if n.CoerceTo != "" {
			narrow["coerce_to"] = IRString(n.CoerceTo)
		}
		obj["narrow"] = narrow
	default:
		return nil, fmt.Errorf("unknown narrowing type: %T", idx.Narrow)
	}
	return obj, nil
}

func varToIR(v VarArg) IRObject {
	return IRObject{
		"var":  IRString(v.Name),
		"type": IRString(v.Type),
	}
}

func lambdaToIR(l Lambda) IRObject {
	body := ""
	if l.Body != nil {
		body = l.Body.String()
	}
	return IRObject{
		"params": stringsToIR(l.Params),
		"body":   IRString(body),
	}
}

func stringsToIR(ss []string) IRArray {
	out := make(IRArray, len(ss))
	for i, s := range ss {
		out[i] = IRString(s)
	}
	return out
}

func addNames(obj IRObject, key string, names []string) {
	if len(names) > 0 {
		obj[key] = stringsToIR(names)
	}
}

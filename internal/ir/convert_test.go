package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintToIRCanonicalBytes(t *testing.T) {
	b, err := CanonicalConstraint(sampleConstraint(30))
	require.NoError(t, err)
	assert.Equal(t,
		`{"args":[{"type":"Person","var":"$p"},{"predicate":{"body":"_this.age > 30","params":["_this"]}}],`+
			`"call":"D.expr","index":{"constraint_type":"GREATER_THAN","extractor":{"body":"_this.age","params":["_this"]},`+
			`"field_id":0,"key_type":"int","narrow":{"literal":30,"type":"int"}},"kind":"expr"}`,
		string(b))
}

func TestConstraintToIROptionalFields(t *testing.T) {
	c := sampleConstraint(30)
	c.Index = nil

	obj, err := ConstraintToIR(c)
	require.NoError(t, err)
	assert.NotContains(t, obj, "id")
	assert.NotContains(t, obj, "index")
	assert.NotContains(t, obj, "react_on")
	assert.NotContains(t, obj, "watch")

	c.ID = "X"
	c.ReactOn = []string{"age"}
	c.Watch = []string{"*"}
	obj, err = ConstraintToIR(c)
	require.NoError(t, err)
	assert.Equal(t, IRString("X"), obj["id"])
	assert.Equal(t, IRArray{IRString("age")}, obj["react_on"])
	assert.Equal(t, IRArray{IRString("*")}, obj["watch"])
}

func TestConstraintToIRArguments(t *testing.T) {
	deferred := NewDeferredArg(FieldAccess{Scope: Name{Name: "$q"}, Field: "end"})
	c := &ExprConstraint{
		Call: "expr",
		Args: []Argument{
			deferred,
			LiteralArg{Text: "[1s]"},
			PredicateArg{Lambda: Lambda{Params: []string{ThisName}, Body: Name{Name: "ok"}}},
		},
	}

	obj, err := ConstraintToIR(c)
	require.NoError(t, err)
	assert.Equal(t, IRArray{
		IRObject{"deferred": IRString("$q.end"), "captures": IRArray{IRString("$q")}},
		IRObject{"literal": IRString("[1s]")},
		IRObject{"predicate": IRObject{"params": IRArray{IRString("_this")}, "body": IRString("ok")}},
	}, obj["args"])
}

func TestCompositeAndBindToIR(t *testing.T) {
	bind := &BindConstraint{
		Call:   "D.bind",
		Target: VarArg{Name: "$a", Type: TypeInt},
		Args:   []Argument{VarArg{Name: "$p", Type: "Person"}},
		Watch:  []string{"age"},
	}
	comp := &CompositeConstraint{Call: "D.and", Operator: OpAnd, Children: []Constraint{sampleConstraint(1), bind}}

	b, err := CanonicalConstraint(comp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"kind":"composite","operator":"AND"`)
	assert.Contains(t, string(b), `{"args":[{"type":"Person","var":"$p"}],"call":"D.bind","kind":"bind","target":{"type":"int","var":"$a"},"watch":["age"]}`)
}

func TestIndexToIRNarrowings(t *testing.T) {
	idx := &IndexDescriptor{
		KeyType:        TypeLong,
		ConstraintType: ConstraintEqual,
		FieldID:        3,
		Extractor:      Lambda{Params: []string{ThisName}, Body: Field("id")},
		Narrow: DeclarationNarrowing{
			Declaration: "$q",
			Type:        TypeInt,
			Extractor:   Lambda{Params: []string{"$q"}, Body: FieldAccess{Scope: Name{Name: "$q"}, Field: "id"}},
			CoerceTo:    TypeLong,
		},
	}
	obj, err := IndexToIR(idx)
	require.NoError(t, err)
	narrow := obj["narrow"].(IRObject)
	assert.Equal(t, IRString("$q"), narrow["declaration"])
	assert.Equal(t, IRString("long"), narrow["coerce_to"])

	idx.Narrow = nil
	obj, err = IndexToIR(idx)
	require.NoError(t, err)
	assert.NotContains(t, obj, "narrow")
	assert.Equal(t, IRInt(3), obj["field_id"])
}

func TestConstraintToIRErrors(t *testing.T) {
	_, err := ConstraintToIR(nil)
	assert.Error(t, err)

	_, err = ConstraintToIR(&CompositeConstraint{Call: "D.and", Operator: OpAnd, Children: []Constraint{nil}})
	assert.Error(t, err)
}

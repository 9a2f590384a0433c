package hcl

import (
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/appmodel/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// RefType is the capsule type carrying a *config.Ref through HCL evaluation.
var RefType = cty.Capsule("ref", reflect.TypeOf(config.Ref{}))

// RefFunc implements `ref(class, id)`.
var RefFunc = function.New(&function.Spec{
	Description: "Returns a reference to the object of the given class and id.",
	Params: []function.Parameter{
		{Name: "class", Type: cty.String},
		{Name: "id", Type: cty.String},
	},
	Type: function.StaticReturnType(RefType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		ref := &config.Ref{Class: args[0].AsString(), ID: args[1].AsString()}
		return cty.CapsuleVal(RefType, ref), nil
	},
})

// evalContext returns the context object bodies are evaluated in.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"ref": RefFunc,
		},
	}
}

// asRefs reports whether v is a reference or a non-empty tuple/list of
// references and returns them in order.
func asRefs(v cty.Value) ([]config.Ref, bool) {
	if v.IsNull() || !v.IsKnown() {
		return nil, false
	}
	ty := v.Type()
	if ty.Equals(RefType) {
		return []config.Ref{*v.EncapsulatedValue().(*config.Ref)}, true
	}
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, false
	}
	if v.LengthInt() == 0 {
		return nil, false
	}
	refs := make([]config.Ref, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() || !elem.Type().Equals(RefType) {
			return nil, false
		}
		refs = append(refs, *elem.EncapsulatedValue().(*config.Ref))
	}
	return refs, true
}

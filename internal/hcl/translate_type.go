package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// typeKeywords maps the attribute type keywords of a class block to cty
// types. Besides the HCL primitives, the sized numeric and textual keywords
// of configuration database schemas are accepted; the database only checks
// their cty kind.
var typeKeywords = map[string]cty.Type{
	"string": cty.String,
	"enum":   cty.String,
	"class":  cty.String,
	"date":   cty.String,
	"time":   cty.String,
	"bool":   cty.Bool,
	"number": cty.Number,
	"u8":     cty.Number,
	"u16":    cty.Number,
	"u32":    cty.Number,
	"u64":    cty.Number,
	"s8":     cty.Number,
	"s16":    cty.Number,
	"s32":    cty.Number,
	"s64":    cty.Number,
	"float":  cty.Number,
	"double": cty.Number,
}

// typeExprToCtyType converts an attribute's type expression, a keyword such
// as `u32` or a collection call such as `list(string)`, into a cty.Type.
// Attributes always have a concrete type, so there is no `any`.
func typeExprToCtyType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	if expr == nil {
		return cty.NilType, fmt.Errorf("attribute type is missing")
	}

	if call, diags := hcl.ExprCall(expr); !diags.HasErrors() {
		if len(call.Arguments) != 1 {
			return cty.NilType, fmt.Errorf("%s() takes exactly one element type, got %d", call.Name, len(call.Arguments))
		}
		elem, err := typeExprToCtyType(ctx, call.Arguments[0])
		if err != nil {
			return cty.NilType, err
		}
		if elem.IsCollectionType() {
			return cty.NilType, fmt.Errorf("%s(%s): nested collections are not supported", call.Name, elem.FriendlyName())
		}
		ctxlog.FromContext(ctx).Debug("Parsed collection type.", "call", call.Name, "element", elem.FriendlyName())

		switch call.Name {
		case "list":
			return cty.List(elem), nil
		case "set":
			return cty.Set(elem), nil
		case "map":
			return cty.Map(elem), nil
		}
		return cty.NilType, fmt.Errorf("unknown collection type %q", call.Name)
	}

	keyword := hcl.ExprAsKeyword(expr)
	if keyword == "" {
		return cty.NilType, fmt.Errorf("type must be a keyword or a collection call, got %T", expr)
	}
	ty, ok := typeKeywords[keyword]
	if !ok {
		return cty.NilType, fmt.Errorf("unknown type keyword %q", keyword)
	}
	return ty, nil
}

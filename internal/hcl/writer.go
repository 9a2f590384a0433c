package hcl

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/appmodel/internal/config"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Writer is the HCL-specific implementation of the config.Writer interface.
// The output can be read back by Loader.
type Writer struct {
	// Include is emitted as the file's `include` attribute when non-empty.
	Include []string
}

// NewWriter creates a new HCL configuration writer.
func NewWriter(include ...string) *Writer {
	return &Writer{Include: include}
}

// Write renders one `object` block per object, members sorted by name.
func (wr *Writer) Write(ctx context.Context, w io.Writer, objects []*config.ObjectDefinition) error {
	logger := ctxlog.FromContext(ctx)

	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if len(wr.Include) > 0 {
		vals := make([]cty.Value, len(wr.Include))
		for i, inc := range wr.Include {
			vals[i] = cty.StringVal(inc)
		}
		body.SetAttributeValue("include", cty.TupleVal(vals))
		body.AppendNewline()
	}

	for i, o := range objects {
		if i > 0 {
			body.AppendNewline()
		}
		block := body.AppendNewBlock("object", []string{o.Class, o.ID})
		if err := writeMembers(block.Body(), o); err != nil {
			return fmt.Errorf("object '%s@%s': %w", o.ID, o.Class, err)
		}
	}

	n, err := f.WriteTo(w)
	if err != nil {
		return fmt.Errorf("failed to write HCL output: %w", err)
	}
	logger.Debug("HCL objects written.", "objects", len(objects), "bytes", n)
	return nil
}

func writeMembers(body *hclwrite.Body, o *config.ObjectDefinition) error {
	names := make([]string, 0, len(o.Attributes)+len(o.Relationships))
	for name := range o.Attributes {
		names = append(names, name)
	}
	for name := range o.Relationships {
		if _, clash := o.Attributes[name]; clash {
			return fmt.Errorf("member '%s' is both an attribute and a relationship", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if val, ok := o.Attributes[name]; ok {
			body.SetAttributeValue(name, val)
			continue
		}
		body.SetAttributeRaw(name, refTokens(o.Relationships[name]))
	}
	return nil
}

// refTokens renders a relationship as a single ref() call when it holds one
// reference and as a tuple of calls otherwise. An empty tuple is written for
// cleared relationships.
func refTokens(refs []config.Ref) hclwrite.Tokens {
	if len(refs) == 1 {
		return refCall(refs[0])
	}
	elems := make([]hclwrite.Tokens, len(refs))
	for i, r := range refs {
		elems[i] = refCall(r)
	}
	return hclwrite.TokensForTuple(elems)
}

func refCall(r config.Ref) hclwrite.Tokens {
	return hclwrite.TokensForFunctionCall("ref",
		hclwrite.TokensForValue(cty.StringVal(r.Class)),
		hclwrite.TokensForValue(cty.StringVal(r.ID)),
	)
}

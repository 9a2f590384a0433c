// This file contains the logic for translating decoded `class` and `object`
// blocks into the format-agnostic configuration model.

package hcl

import (
	"context"
	"fmt"

	"github.com/vk/appmodel/internal/config"
	"github.com/vk/appmodel/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateClass converts a decoded `class` block into the agnostic model.
func translateClass(ctx context.Context, c *schema.Class) (*config.ClassDefinition, error) {
	def := &config.ClassDefinition{
		Name:          c.Name,
		Description:   c.Description,
		Abstract:      c.Abstract,
		Superclasses:  c.Superclasses,
		Attributes:    make(map[string]*config.AttributeDefinition),
		Relationships: make(map[string]*config.RelationshipDefinition),
	}
	for _, a := range c.Attributes {
		if _, dup := def.Attributes[a.Name]; dup {
			return nil, fmt.Errorf("class '%s': attribute '%s' declared twice", c.Name, a.Name)
		}
		attr, err := translateAttribute(ctx, a, c.Name)
		if err != nil {
			return nil, err
		}
		def.Attributes[a.Name] = attr
	}
	for _, r := range c.Relationships {
		if _, dup := def.Attributes[r.Name]; dup {
			return nil, fmt.Errorf("class '%s': relationship '%s' clashes with an attribute", c.Name, r.Name)
		}
		if _, dup := def.Relationships[r.Name]; dup {
			return nil, fmt.Errorf("class '%s': relationship '%s' declared twice", c.Name, r.Name)
		}
		def.Relationships[r.Name] = &config.RelationshipDefinition{
			Name:        r.Name,
			Class:       r.Class,
			Many:        r.Many,
			Required:    r.Required,
			Description: r.Description,
		}
	}
	return def, nil
}

// translateAttribute processes a single attribute block, handling its type
// and default value. The default is converted to the declared type up front.
func translateAttribute(ctx context.Context, a *schema.Attribute, className string) (*config.AttributeDefinition, error) {
	parsedType, err := typeExprToCtyType(ctx, a.Type)
	if err != nil {
		return nil, fmt.Errorf("class '%s', attribute '%s': %w", className, a.Name, err)
	}

	var defaultVal *cty.Value
	var isOptional bool
	if a.Default != nil {
		val, diags := a.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for attribute '%s' in class '%s': %w", a.Name, className, diags)
		}
		if !val.IsNull() {
			converted, err := convert.Convert(val, parsedType)
			if err != nil {
				return nil, fmt.Errorf("default value for attribute '%s' in class '%s' is not a %s: %w", a.Name, className, parsedType.FriendlyName(), err)
			}
			defaultVal = &converted
			isOptional = true
		}
	}

	return &config.AttributeDefinition{
		Name:        a.Name,
		Type:        parsedType,
		Description: a.Description,
		Default:     defaultVal,
		Optional:    isOptional,
	}, nil
}

// translateObject evaluates the body of an `object` block. References become
// relationships; everything else is kept as a raw attribute value and is
// type-checked against the class when the database is built.
func translateObject(o *schema.Object, file string) (*config.ObjectDefinition, error) {
	def := &config.ObjectDefinition{
		Class:         o.Class,
		ID:            o.ID,
		File:          file,
		Attributes:    make(map[string]cty.Value),
		Relationships: make(map[string][]config.Ref),
	}
	attrs, diags := o.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("object '%s@%s': %w", o.ID, o.Class, diags)
	}
	evalCtx := evalContext()
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("object '%s@%s', attribute '%s': %w", o.ID, o.Class, name, diags)
		}
		if refs, ok := asRefs(val); ok {
			def.Relationships[name] = refs
			continue
		}
		def.Attributes[name] = val
	}
	return def, nil
}

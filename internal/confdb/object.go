package confdb

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/appmodel/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Object is a single configuration object.
type Object struct {
	db    *Configuration
	class *Class
	id    string
	file  string

	// attrs holds explicitly set attributes only; defaults are applied on read.
	attrs map[string]cty.Value
	rels  map[string][]config.Ref
}

// ID returns the object's id.
func (o *Object) ID() string { return o.id }

// ClassName returns the name of the object's own class.
func (o *Object) ClassName() string { return o.class.Name }

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// File returns the database file the object belongs to.
func (o *Object) File() string { return o.file }

// Ref returns a reference to the object.
func (o *Object) Ref() config.Ref { return config.Ref{Class: o.class.Name, ID: o.id} }

// String renders the object as id@Class.
func (o *Object) String() string { return o.Ref().String() }

// Castable reports whether the object can be used as an instance of class.
func (o *Object) Castable(class string) bool { return o.class.Is(class) }

// Value returns an attribute, falling back to the schema default and then to
// the zero value of the attribute's type.
func (o *Object) Value(name string) (cty.Value, error) {
	o.db.mu.RLock()
	defer o.db.mu.RUnlock()
	return o.value(name)
}

func (o *Object) value(name string) (cty.Value, error) {
	def, ok := o.class.Attributes[name]
	if !ok {
		return cty.NilVal, o.unknown(name)
	}
	if v, ok := o.attrs[name]; ok {
		return v, nil
	}
	if def.Default != nil {
		return *def.Default, nil
	}
	return zeroValue(def.Type), nil
}

// Decode reads an attribute into the Go value target points to.
func (o *Object) Decode(name string, target any) error {
	val, err := o.Value(name)
	if err != nil {
		return err
	}
	if err := decode(val, target); err != nil {
		return fmt.Errorf("%s.%s: %w: %v", o, name, ErrTypeMismatch, err)
	}
	return nil
}

// StringAttr returns a string attribute.
func (o *Object) StringAttr(name string) (string, error) {
	var s string
	err := o.Decode(name, &s)
	return s, err
}

// Uint32 returns a numeric attribute as uint32.
func (o *Object) Uint32(name string) (uint32, error) {
	var n uint32
	err := o.Decode(name, &n)
	return n, err
}

// Bool returns a boolean attribute.
func (o *Object) Bool(name string) (bool, error) {
	var b bool
	err := o.Decode(name, &b)
	return b, err
}

// Strings returns a list-of-strings attribute.
func (o *Object) Strings(name string) ([]string, error) {
	var s []string
	err := o.Decode(name, &s)
	return s, err
}

// SetByVal sets an attribute from a Go value.
func (o *Object) SetByVal(name string, v any) error {
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w: %v", o, name, ErrTypeMismatch, err)
	}
	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return fmt.Errorf("%s.%s: %w: %v", o, name, ErrTypeMismatch, err)
	}
	return o.SetValue(name, val)
}

// SetValue sets an attribute from a cty value.
func (o *Object) SetValue(name string, val cty.Value) error {
	o.db.mu.Lock()
	defer o.db.mu.Unlock()
	return o.setValue(name, val)
}

func (o *Object) setValue(name string, val cty.Value) error {
	def, ok := o.class.Attributes[name]
	if !ok {
		return o.unknown(name)
	}
	converted, err := convert.Convert(val, def.Type)
	if err != nil {
		return fmt.Errorf("%s.%s expects %s: %w: %v", o, name, def.Type.FriendlyName(), ErrTypeMismatch, err)
	}
	o.attrs[name] = converted
	return nil
}

// SetObj sets a single-valued relationship. A nil target clears it.
func (o *Object) SetObj(name string, target *Object) error {
	o.db.mu.Lock()
	defer o.db.mu.Unlock()

	rel, err := o.relationship(name)
	if err != nil {
		return err
	}
	if rel.Many {
		return fmt.Errorf("%s.%s holds many objects, use SetObjs: %w", o, name, ErrTypeMismatch)
	}
	if target == nil {
		delete(o.rels, name)
		return nil
	}
	if err := o.checkTarget(rel, target); err != nil {
		return err
	}
	o.rels[name] = []config.Ref{target.Ref()}
	return nil
}

// SetObjs replaces a multi-valued relationship.
func (o *Object) SetObjs(name string, targets []*Object) error {
	o.db.mu.Lock()
	defer o.db.mu.Unlock()

	rel, err := o.relationship(name)
	if err != nil {
		return err
	}
	if !rel.Many {
		return fmt.Errorf("%s.%s holds a single object, use SetObj: %w", o, name, ErrTypeMismatch)
	}
	refs := make([]config.Ref, 0, len(targets))
	for _, t := range targets {
		if err := o.checkTarget(rel, t); err != nil {
			return err
		}
		refs = append(refs, t.Ref())
	}
	o.rels[name] = refs
	return nil
}

// Object returns the object a single-valued relationship points to, or nil
// when the relationship is empty.
func (o *Object) Object(name string) (*Object, error) {
	objs, err := o.Objects(name)
	if err != nil || len(objs) == 0 {
		return nil, err
	}
	return objs[0], nil
}

// Objects returns the objects a relationship points to, in order.
func (o *Object) Objects(name string) ([]*Object, error) {
	o.db.mu.RLock()
	defer o.db.mu.RUnlock()

	if _, err := o.relationship(name); err != nil {
		return nil, err
	}
	refs := o.rels[name]
	out := make([]*Object, 0, len(refs))
	for _, ref := range refs {
		target, err := o.db.get(ref.Class, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", o, name, err)
		}
		out = append(out, target)
	}
	return out, nil
}

// Definition converts the object back into the format-agnostic model. Only
// explicitly set attributes are included.
func (o *Object) Definition() *config.ObjectDefinition {
	o.db.mu.RLock()
	defer o.db.mu.RUnlock()

	def := &config.ObjectDefinition{
		Class:         o.class.Name,
		ID:            o.id,
		File:          o.file,
		Attributes:    make(map[string]cty.Value, len(o.attrs)),
		Relationships: make(map[string][]config.Ref, len(o.rels)),
	}
	for k, v := range o.attrs {
		def.Attributes[k] = v
	}
	for k, v := range o.rels {
		def.Relationships[k] = append([]config.Ref{}, v...)
	}
	return def
}

// Print writes a readable dump of the object: every attribute (defaults
// applied) and every relationship, in schema order.
func (o *Object) Print(w io.Writer, indent string) error {
	o.db.mu.RLock()
	defer o.db.mu.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%sObject %s (%s)\n", indent, o, o.file)
	for _, name := range o.class.AttributeNames() {
		val, err := o.value(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(&sb, "%s  %s: %s\n", indent, name, hclwrite.TokensForValue(val).Bytes())
	}
	for _, name := range o.class.RelationshipNames() {
		refs := o.rels[name]
		strs := make([]string, len(refs))
		for i, r := range refs {
			strs[i] = r.String()
		}
		fmt.Fprintf(&sb, "%s  %s: [%s]\n", indent, name, strings.Join(strs, ", "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (o *Object) load(def *config.ObjectDefinition) error {
	for name, val := range def.Attributes {
		if _, isRel := o.class.Relationships[name]; isRel {
			if val.IsNull() || (val.CanIterateElements() && val.LengthInt() == 0) {
				continue
			}
			return fmt.Errorf("relationship '%s' must be set with ref(): %w", name, ErrTypeMismatch)
		}
		if err := o.setValue(name, val); err != nil {
			return err
		}
	}
	for name, refs := range def.Relationships {
		rel, err := o.relationship(name)
		if err != nil {
			return err
		}
		if !rel.Many && len(refs) > 1 {
			return fmt.Errorf("relationship '%s' holds a single object, got %d: %w", name, len(refs), ErrTypeMismatch)
		}
		o.rels[name] = append([]config.Ref(nil), refs...)
	}
	return nil
}

func (o *Object) relationship(name string) (*config.RelationshipDefinition, error) {
	rel, ok := o.class.Relationships[name]
	if !ok {
		return nil, o.unknown(name)
	}
	return rel, nil
}

func (o *Object) checkTarget(rel *config.RelationshipDefinition, target *Object) error {
	if target == nil {
		return fmt.Errorf("%s.%s: nil object: %w", o, rel.Name, ErrTypeMismatch)
	}
	if target.db != o.db {
		return fmt.Errorf("%s.%s: %s belongs to another database: %w", o, rel.Name, target, ErrNotFound)
	}
	if !target.class.Is(rel.Class) {
		return fmt.Errorf("%s.%s expects %s, got %s: %w", o, rel.Name, rel.Class, target, ErrTypeMismatch)
	}
	return nil
}

func (o *Object) unknown(name string) error {
	return fmt.Errorf("class '%s' has no member '%s': %w", o.class.Name, name, ErrUnknownMember)
}

func (o *Object) copyTo(db *Configuration) *Object {
	n := &Object{
		db:    db,
		class: o.class,
		id:    o.id,
		file:  o.file,
		attrs: make(map[string]cty.Value, len(o.attrs)),
		rels:  make(map[string][]config.Ref, len(o.rels)),
	}
	for k, v := range o.attrs {
		n.attrs[k] = v
	}
	for k, v := range o.rels {
		n.rels[k] = append([]config.Ref(nil), v...)
	}
	return n
}

// decode converts val to the type implied by target before decoding into it.
func decode(val cty.Value, target any) error {
	valPtr := reflect.ValueOf(target)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", target)
	}
	if val.IsNull() {
		valPtr.Elem().Set(reflect.Zero(valPtr.Elem().Type()))
		return nil
	}
	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}
	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}

func zeroValue(ty cty.Type) cty.Value {
	switch {
	case ty.Equals(cty.String):
		return cty.StringVal("")
	case ty.Equals(cty.Number):
		return cty.Zero
	case ty.Equals(cty.Bool):
		return cty.False
	case ty.IsListType():
		return cty.ListValEmpty(ty.ElementType())
	case ty.IsSetType():
		return cty.SetValEmpty(ty.ElementType())
	case ty.IsMapType():
		return cty.MapValEmpty(ty.ElementType())
	}
	return cty.NullVal(ty)
}

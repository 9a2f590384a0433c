package confdb

import (
	"fmt"
	"sort"

	"github.com/vk/appmodel/internal/config"
)

// Class is a schema class with its inherited members flattened in.
type Class struct {
	Name         string
	Description  string
	Abstract     bool
	Superclasses []string
	// Lineage lists the class itself followed by every ancestor, nearest
	// first.
	Lineage       []string
	Attributes    map[string]*config.AttributeDefinition
	Relationships map[string]*config.RelationshipDefinition

	ancestors map[string]struct{}
}

// Is reports whether c is the named class or derives from it.
func (c *Class) Is(name string) bool {
	_, ok := c.ancestors[name]
	return ok
}

// AttributeNames returns the sorted names of all attributes, inherited included.
func (c *Class) AttributeNames() []string {
	return sortedKeys(c.Attributes)
}

// RelationshipNames returns the sorted names of all relationships, inherited included.
func (c *Class) RelationshipNames() []string {
	return sortedKeys(c.Relationships)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// classBuilder resolves inheritance for a set of class definitions.
type classBuilder struct {
	defs     map[string]*config.ClassDefinition
	built    map[string]*Class
	visiting map[string]bool
}

func buildClasses(defs map[string]*config.ClassDefinition) (map[string]*Class, error) {
	b := &classBuilder{
		defs:     defs,
		built:    make(map[string]*Class, len(defs)),
		visiting: make(map[string]bool),
	}
	for _, name := range sortedKeys(defs) {
		if _, err := b.build(name); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(b.built) {
		c := b.built[name]
		for _, relName := range c.RelationshipNames() {
			rel := c.Relationships[relName]
			if _, ok := b.built[rel.Class]; !ok {
				return nil, fmt.Errorf("class '%s', relationship '%s' targets class '%s': %w", name, relName, rel.Class, ErrUnknownClass)
			}
		}
	}
	return b.built, nil
}

func (b *classBuilder) build(name string) (*Class, error) {
	if c, ok := b.built[name]; ok {
		return c, nil
	}
	def, ok := b.defs[name]
	if !ok {
		return nil, fmt.Errorf("class '%s': %w", name, ErrUnknownClass)
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("class '%s' inherits from itself", name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	c := &Class{
		Name:          def.Name,
		Description:   def.Description,
		Abstract:      def.Abstract,
		Superclasses:  def.Superclasses,
		Lineage:       []string{def.Name},
		Attributes:    make(map[string]*config.AttributeDefinition),
		Relationships: make(map[string]*config.RelationshipDefinition),
		ancestors:     map[string]struct{}{def.Name: {}},
	}
	for _, superName := range def.Superclasses {
		super, err := b.build(superName)
		if err != nil {
			return nil, fmt.Errorf("superclass of '%s': %w", name, err)
		}
		for k, v := range super.Attributes {
			c.Attributes[k] = v
		}
		for k, v := range super.Relationships {
			c.Relationships[k] = v
		}
	}
	// Breadth-first, so nearer ancestors come first.
	queue := append([]string(nil), def.Superclasses...)
	for len(queue) > 0 {
		anc := queue[0]
		queue = queue[1:]
		if _, seen := c.ancestors[anc]; seen {
			continue
		}
		c.ancestors[anc] = struct{}{}
		c.Lineage = append(c.Lineage, anc)
		queue = append(queue, b.built[anc].Superclasses...)
	}
	for k, v := range def.Attributes {
		c.Attributes[k] = v
	}
	for k, v := range def.Relationships {
		c.Relationships[k] = v
	}
	for k := range c.Attributes {
		if _, clash := c.Relationships[k]; clash {
			return nil, fmt.Errorf("class '%s': member '%s' is both an attribute and a relationship", name, k)
		}
	}

	b.built[name] = c
	return c, nil
}

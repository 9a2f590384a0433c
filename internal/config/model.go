package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a configuration
// database: the schema classes and the objects instantiating them.
type Model struct {
	Classes map[string]*ClassDefinition
	Objects []*ObjectDefinition
	// Files lists every file that contributed to the model, in load order.
	Files []string
}

// NewModel returns an empty model ready to be populated by a loader.
func NewModel() *Model {
	return &Model{
		Classes: make(map[string]*ClassDefinition),
	}
}

// Ref identifies an object by class and id.
type Ref struct {
	Class string
	ID    string
}

// String renders the reference the way the configuration tools print it.
func (r Ref) String() string {
	return fmt.Sprintf("%s@%s", r.ID, r.Class)
}

// --- Schema Models ---

// ClassDefinition is the format-agnostic representation of a `class` block.
type ClassDefinition struct {
	Name          string
	Description   string
	Abstract      bool
	Superclasses  []string
	Attributes    map[string]*AttributeDefinition
	Relationships map[string]*RelationshipDefinition
}

// AttributeDefinition defines a single typed value carried by objects of a class.
type AttributeDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

// RelationshipDefinition defines a link from objects of a class to objects of
// another class.
type RelationshipDefinition struct {
	Name        string
	Class       string
	Many        bool
	Required    bool
	Description string
}

// --- Data Models ---

// ObjectDefinition is the format-agnostic representation of an `object` block.
type ObjectDefinition struct {
	Class         string
	ID            string
	File          string
	Attributes    map[string]cty.Value
	Relationships map[string][]Ref
}

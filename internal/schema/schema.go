// Package schema holds the HCL decoding targets for database files and the
// builtin class definitions every database is loaded on top of.
package schema

import (
	"embed"

	"github.com/hashicorp/hcl/v2"
)

// Builtin contains the core and application class definitions. The HCL
// loader reads it before any user file.
//
//go:embed classes/*.hcl
var Builtin embed.FS

// --- Database File Structure ---

// File represents the top-level structure of any database file. A file may
// declare classes, objects, or both, and may include other files by path
// relative to itself.
type File struct {
	Include []string  `hcl:"include,optional"`
	Classes []*Class  `hcl:"class,block"`
	Objects []*Object `hcl:"object,block"`
}

// --- Schema Blocks ---

// Attribute defines a typed value carried by objects of a class.
type Attribute struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

// Relationship defines a link to objects of another class.
type Relationship struct {
	Name        string `hcl:"name,label"`
	Class       string `hcl:"class"`
	Many        bool   `hcl:"many,optional"`
	Required    bool   `hcl:"required,optional"`
	Description string `hcl:"description,optional"`
}

// Class represents a `class` block.
type Class struct {
	Name          string          `hcl:"name,label"`
	Description   string          `hcl:"description,optional"`
	Abstract      bool            `hcl:"abstract,optional"`
	Superclasses  []string        `hcl:"superclasses,optional"`
	Attributes    []*Attribute    `hcl:"attribute,block"`
	Relationships []*Relationship `hcl:"relationship,block"`
}

// --- Data Blocks ---

// Object represents an `object` block. Its body holds plain attributes only;
// values built with the ref() function become relationships.
type Object struct {
	Class string   `hcl:"class,label"`
	ID    string   `hcl:"id,label"`
	Body  hcl.Body `hcl:",remain"`
}

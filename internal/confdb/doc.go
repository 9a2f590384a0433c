// Package confdb implements an in-memory, schema-driven configuration
// database. A Configuration is built from a config.Model: classes with
// single or multiple inheritance, and objects whose attributes are typed cty
// values and whose relationships point at other objects.
//
// Object ids are unique among related classes: two objects may share an id
// only when neither class is castable to the other. This lets a module and the
// configuration it was generated from carry the same name.
//
// All methods are safe for concurrent use.
package confdb

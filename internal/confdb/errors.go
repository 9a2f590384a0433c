package confdb

import "errors"

var (
	// ErrNotFound is returned when no object of the requested class (or a
	// subclass) carries the requested id.
	ErrNotFound = errors.New("object not found")
	// ErrObjectExists is returned when creating an object whose id is already
	// used by an object of a related class.
	ErrObjectExists = errors.New("object already exists")
	// ErrUnknownClass is returned for class names absent from the schema.
	ErrUnknownClass = errors.New("unknown class")
	// ErrAbstractClass is returned when instantiating an abstract class.
	ErrAbstractClass = errors.New("abstract class")
	// ErrUnknownMember is returned for attribute or relationship names the
	// object's class does not declare.
	ErrUnknownMember = errors.New("unknown attribute or relationship")
	// ErrTypeMismatch is returned when a value or a related object does not
	// fit the declared type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrRequired is returned when a required relationship is left empty.
	ErrRequired = errors.New("required relationship is empty")
)

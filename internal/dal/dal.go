package dal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vk/appmodel/internal/confdb"
)

// ErrWrongType is returned when an object cannot be viewed as the requested Go type.
var ErrWrongType = errors.New("object has the wrong type")

// Object is implemented by every typed view.
type Object interface {
	ID() string
	ClassName() string
	ConfigObject() *confdb.Object
}

// Constructor builds a typed view of a raw object.
type Constructor func(*confdb.Object) Object

var (
	mu           sync.RWMutex
	constructors = make(map[string]Constructor)
)

// Register binds a constructor to a class. It panics if the class already
// has one, as that is a programming error.
func Register(class string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := constructors[class]; exists {
		panic(fmt.Sprintf("dal: constructor for class %q is already registered", class))
	}
	constructors[class] = ctor
}

// Wrap returns the typed view of obj, or nil for a nil obj.
func Wrap(obj *confdb.Object) Object {
	if obj == nil {
		return nil
	}
	mu.RLock()
	defer mu.RUnlock()
	for _, class := range obj.Class().Lineage {
		if ctor, ok := constructors[class]; ok {
			return ctor(obj)
		}
	}
	return &Base{obj: obj}
}

// Get looks an object up by class and id and returns its most specific typed
// view.
func Get(db *confdb.Configuration, class, id string) (Object, error) {
	obj, err := db.Get(class, id)
	if err != nil {
		return nil, err
	}
	return Wrap(obj), nil
}

// Base is the view shared by all types.
type Base struct {
	obj *confdb.Object
}

// ID returns the object's id.
func (b *Base) ID() string { return b.obj.ID() }

// ClassName returns the name of the object's class.
func (b *Base) ClassName() string { return b.obj.ClassName() }

// ConfigObject returns the underlying raw object.
func (b *Base) ConfigObject() *confdb.Object { return b.obj }

// String renders the object as id@Class.
func (b *Base) String() string { return b.obj.String() }

// register binds a checked constructor to its class.
func register[T Object](class string, ctor func(*confdb.Object) (T, error)) {
	Register(class, func(o *confdb.Object) Object {
		t, err := ctor(o)
		if err != nil {
			return &Base{obj: o}
		}
		return t
	})
}

// view checks that obj can be seen as class before building the view.
func view[T any](obj *confdb.Object, class string, mk func(Base) T) (T, error) {
	var zero T
	if obj == nil {
		return zero, fmt.Errorf("nil object viewed as %s: %w", class, ErrWrongType)
	}
	if !obj.Castable(class) {
		return zero, fmt.Errorf("%s is not a %s: %w", obj, class, ErrWrongType)
	}
	return mk(Base{obj: obj}), nil
}

// related returns the typed views of a relationship's targets.
func related[T any](o *confdb.Object, rel string, ctor func(*confdb.Object) (T, error)) ([]T, error) {
	raw, err := o.Objects(rel)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		t, err := ctor(r)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", o, rel, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// relatedOne returns the typed view of a single-valued relationship, or the
// zero value when it is empty.
func relatedOne[T any](o *confdb.Object, rel string, ctor func(*confdb.Object) (T, error)) (T, error) {
	var zero T
	raw, err := o.Object(rel)
	if err != nil || raw == nil {
		return zero, err
	}
	t, err := ctor(raw)
	if err != nil {
		return zero, fmt.Errorf("%s.%s: %w", o, rel, err)
	}
	return t, nil
}

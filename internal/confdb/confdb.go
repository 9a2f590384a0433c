package confdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/appmodel/internal/config"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Configuration is a loaded configuration database.
type Configuration struct {
	mu      sync.RWMutex
	active  string
	classes map[string]*Class
	byID    map[string][]*Object
	objects []*Object
	created []*Object
}

// New builds a database from a model. Every attribute value is converted to
// its declared type and every relationship must point at an existing object
// of a compatible class. activeDatabase names the file newly created objects
// are attributed to when none is given.
func New(ctx context.Context, model *config.Model, activeDatabase string) (*Configuration, error) {
	logger := ctxlog.FromContext(ctx)

	classes, err := buildClasses(model.Classes)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	db := &Configuration{
		active:  activeDatabase,
		classes: classes,
		byID:    make(map[string][]*Object),
	}

	for _, def := range model.Objects {
		obj, err := db.newObject(def.File, def.Class, def.ID)
		if err != nil {
			return nil, err
		}
		if err := obj.load(def); err != nil {
			return nil, fmt.Errorf("object '%s@%s' in %s: %w", def.ID, def.Class, def.File, err)
		}
		db.add(obj)
	}

	for _, obj := range db.objects {
		if err := db.validateRelationships(obj); err != nil {
			return nil, fmt.Errorf("object '%s@%s' in %s: %w", obj.id, obj.class.Name, obj.file, err)
		}
	}

	logger.Debug("Configuration database built.", "active", activeDatabase, "classes", len(classes), "objects", len(db.objects))
	return db, nil
}

// ActiveDatabase returns the name of the database file new objects go to.
func (db *Configuration) ActiveDatabase() string {
	return db.active
}

// Classes returns the sorted names of all schema classes.
func (db *Configuration) Classes() []string {
	return sortedKeys(db.classes)
}

// ClassInfo describes a class, with inherited members included.
func (db *Configuration) ClassInfo(name string) (*Class, error) {
	c, ok := db.classes[name]
	if !ok {
		return nil, fmt.Errorf("class '%s': %w", name, ErrUnknownClass)
	}
	return c, nil
}

// Castable reports whether objects of class sub can be used where class super
// is expected.
func (db *Configuration) Castable(sub, super string) bool {
	c, ok := db.classes[sub]
	return ok && c.Is(super)
}

// Create adds a new, empty object. An empty file attributes it to the active
// database.
func (db *Configuration) Create(file, class, id string) (*Object, error) {
	if file == "" {
		file = db.active
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	obj, err := db.newObject(file, class, id)
	if err != nil {
		return nil, err
	}
	db.add(obj)
	db.created = append(db.created, obj)
	return obj, nil
}

// Get returns the object with the given id whose class is class or one of
// its subclasses.
func (db *Configuration) Get(class, id string) (*Object, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.get(class, id)
}

// Objects returns every object castable to class, in load and creation order.
func (db *Configuration) Objects(class string) ([]*Object, error) {
	if _, ok := db.classes[class]; !ok {
		return nil, fmt.Errorf("class '%s': %w", class, ErrUnknownClass)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []*Object
	for _, o := range db.objects {
		if o.class.Is(class) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Created returns the objects added with Create, in creation order.
func (db *Configuration) Created() []*Object {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]*Object(nil), db.created...)
}

// Clone returns an independent copy of the database. The schema is shared;
// objects are copied, so changes to either database never show in the other.
func (db *Configuration) Clone() *Configuration {
	db.mu.RLock()
	defer db.mu.RUnlock()

	cp := &Configuration{
		active:  db.active,
		classes: db.classes,
		byID:    make(map[string][]*Object, len(db.byID)),
		objects: make([]*Object, 0, len(db.objects)),
	}
	mapping := make(map[*Object]*Object, len(db.objects))
	for _, o := range db.objects {
		n := o.copyTo(cp)
		mapping[o] = n
		cp.add(n)
	}
	for _, o := range db.created {
		cp.created = append(cp.created, mapping[o])
	}
	return cp
}

func (db *Configuration) newObject(file, class, id string) (*Object, error) {
	c, ok := db.classes[class]
	if !ok {
		return nil, fmt.Errorf("cannot create '%s@%s': %w", id, class, ErrUnknownClass)
	}
	if c.Abstract {
		return nil, fmt.Errorf("cannot create '%s@%s': %w", id, class, ErrAbstractClass)
	}
	if id == "" {
		return nil, fmt.Errorf("cannot create object of class '%s' with an empty id", class)
	}
	for _, other := range db.byID[id] {
		if other.class.Is(class) || c.Is(other.class.Name) {
			return nil, fmt.Errorf("cannot create '%s@%s', '%s@%s' exists in %s: %w", id, class, id, other.class.Name, other.file, ErrObjectExists)
		}
	}
	return &Object{
		db:    db,
		class: c,
		id:    id,
		file:  file,
		attrs: make(map[string]cty.Value),
		rels:  make(map[string][]config.Ref),
	}, nil
}

func (db *Configuration) add(obj *Object) {
	db.byID[obj.id] = append(db.byID[obj.id], obj)
	db.objects = append(db.objects, obj)
}

func (db *Configuration) get(class, id string) (*Object, error) {
	if _, ok := db.classes[class]; !ok {
		return nil, fmt.Errorf("class '%s': %w", class, ErrUnknownClass)
	}
	for _, o := range db.byID[id] {
		if o.class.Is(class) {
			return o, nil
		}
	}
	return nil, fmt.Errorf("'%s@%s': %w", id, class, ErrNotFound)
}

func (db *Configuration) validateRelationships(obj *Object) error {
	for _, name := range obj.class.RelationshipNames() {
		rel := obj.class.Relationships[name]
		refs := obj.rels[name]
		if rel.Required && len(refs) == 0 {
			return fmt.Errorf("relationship '%s': %w", name, ErrRequired)
		}
		for _, ref := range refs {
			target, err := db.get(ref.Class, ref.ID)
			if err != nil {
				return fmt.Errorf("relationship '%s': %w", name, err)
			}
			if !target.class.Is(rel.Class) {
				return fmt.Errorf("relationship '%s' expects %s, '%s' is a %s: %w", name, rel.Class, ref.ID, target.class.Name, ErrTypeMismatch)
			}
		}
	}
	return nil
}

// Definitions converts objects back into the format-agnostic model, e.g. for
// writing them out.
func Definitions(objects []*Object) []*config.ObjectDefinition {
	defs := make([]*config.ObjectDefinition, 0, len(objects))
	for _, o := range objects {
		defs = append(defs, o.Definition())
	}
	return defs
}

// SortObjects orders objects by class name, then id.
func SortObjects(objects []*Object) {
	sort.SliceStable(objects, func(i, j int) bool {
		if objects[i].class.Name != objects[j].class.Name {
			return objects[i].class.Name < objects[j].class.Name
		}
		return objects[i].id < objects[j].id
	})
}

package appmodel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/vk/appmodel/internal/dal"
)

// ObjectLocator identifies an object created by a generator.
type ObjectLocator struct {
	ID        string
	ClassName string
}

func (l ObjectLocator) String() string {
	return l.ID + "@" + l.ClassName
}

// Generator derives the modules of one application. It receives the
// database, the name of the database file new objects belong to, and the ids
// of the application and of the session it runs in.
type Generator func(ctx context.Context, db *confdb.Configuration, dbfile, appID, sessionID string) ([]ObjectLocator, error)

// Factory maps application class names to generators. It is safe for
// concurrent use.
type Factory struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewFactory returns a factory with no generators.
func NewFactory() *Factory {
	return &Factory{generators: make(map[string]Generator)}
}

// DefaultFactory returns a factory holding the generators of every smart
// application class.
func DefaultFactory() *Factory {
	f := NewFactory()
	for _, r := range coreGenerators {
		if err := f.Register(r.class, r.generator); err != nil {
			panic(fmt.Sprintf("appmodel: %v", err))
		}
	}
	return f
}

var defaultFactory = sync.OnceValue(DefaultFactory)

// Register binds a generator to a class name.
func (f *Factory) Register(class string, gen Generator) error {
	if gen == nil {
		return fmt.Errorf("generator for '%s' is nil", class)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.generators[class]; exists {
		return fmt.Errorf("class '%s': %w", class, ErrGeneratorExists)
	}
	f.generators[class] = gen
	return nil
}

// Unregister removes the generator of a class.
func (f *Factory) Unregister(class string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.generators[class]; !exists {
		return fmt.Errorf("class '%s': %w", class, ErrNoGenerator)
	}
	delete(f.generators, class)
	return nil
}

// Lookup returns the generator registered for class.
func (f *Factory) Lookup(class string) (Generator, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	gen, ok := f.generators[class]
	return gen, ok
}

// Classes returns the sorted class names that have a generator.
func (f *Factory) Classes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.generators))
	for class := range f.generators {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}

// GenerateModules runs the generator registered for the application's class
// and returns the typed modules it created, in the order it reported them.
func (f *Factory) GenerateModules(ctx context.Context, db *confdb.Configuration, app, session dal.Object) ([]dal.Object, error) {
	gen, ok := f.Lookup(app.ClassName())
	if !ok {
		return nil, &UnknownGeneratorError{ClassName: app.ClassName()}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Dispatching to generator.", "class", app.ClassName(), "app", app.ID(), "session", session.ID())

	locators, err := gen(ctx, db, db.ActiveDatabase(), app.ID(), session.ID())
	if err != nil {
		return nil, err
	}

	modules := make([]dal.Object, 0, len(locators))
	for _, loc := range locators {
		obj, err := dal.Get(db, loc.ClassName, loc.ID)
		if err != nil {
			return nil, fmt.Errorf("resolving module %s: %w", loc, err)
		}
		modules = append(modules, obj)
	}
	return modules, nil
}

// GenerateModules dispatches through the default factory.
func GenerateModules(ctx context.Context, db *confdb.Configuration, app, session dal.Object) ([]dal.Object, error) {
	return defaultFactory().GenerateModules(ctx, db, app, session)
}

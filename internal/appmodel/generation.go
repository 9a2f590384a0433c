package appmodel

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/vk/appmodel/internal/dal"
)

// generation is the state of a single generator run.
type generation struct {
	ctx     context.Context
	logger  *slog.Logger
	db      *confdb.Configuration
	dbfile  string
	appID   string
	session *dal.Session
	modules []*confdb.Object
	off     dal.DisabledSet
}

// locate adapts a generator working on a typed application view into a
// Generator. The application is looked up as class.
func locate[T any](class string, view func(*confdb.Object) (T, error), gen func(g *generation, app T) error) Generator {
	return func(ctx context.Context, db *confdb.Configuration, dbfile, appID, sessionID string) ([]ObjectLocator, error) {
		appObj, err := db.Get(class, appID)
		if err != nil {
			return nil, fmt.Errorf("application: %w", err)
		}
		app, err := view(appObj)
		if err != nil {
			return nil, err
		}
		sessObj, err := db.Get("Session", sessionID)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		session, err := dal.NewSession(sessObj)
		if err != nil {
			return nil, err
		}

		ctx = ctxlog.With(ctx, "app", appID)
		g := &generation{
			ctx:     ctx,
			logger:  ctxlog.FromContext(ctx),
			db:      db,
			dbfile:  dbfile,
			appID:   appID,
			session: session,
		}
		g.logger.Info("Generating modules for application.", "class", appObj.ClassName())
		if err := gen(g, app); err != nil {
			return nil, fmt.Errorf("generating modules for %s: %w", appObj, err)
		}

		locators := make([]ObjectLocator, 0, len(g.modules))
		for _, m := range g.modules {
			locators = append(locators, ObjectLocator{ID: m.ID(), ClassName: m.ClassName()})
		}
		g.logger.Debug("Modules generated.", "count", len(locators))
		return locators, nil
	}
}

func (g *generation) create(class, id string) (*confdb.Object, error) {
	g.logger.Debug("Creating object.", "class", class, "id", id)
	return g.db.Create(g.dbfile, class, id)
}

// setAttrs sets several attributes on obj.
func setAttrs(obj *confdb.Object, attrs map[string]any) error {
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		if err := obj.SetByVal(name, attrs[name]); err != nil {
			return err
		}
	}
	return nil
}

// newQueue creates a Queue from a descriptor, named by the descriptor's uid
// base followed by suffix.
func (g *generation) newQueue(d *dal.QueueDescriptor, suffix string) (*confdb.Object, error) {
	return g.queueFrom(d, "Queue", suffix, nil)
}

// newQueueWithSourceID creates a QueueWithSourceId for a single source, named
// by the descriptor's uid base followed by the source id.
func (g *generation) newQueueWithSourceID(d *dal.QueueDescriptor, sid uint32) (*confdb.Object, error) {
	return g.queueFrom(d, "QueueWithSourceId", itoa(sid), map[string]any{"source_id": sid})
}

func (g *generation) queueFrom(d *dal.QueueDescriptor, class, suffix string, extra map[string]any) (*confdb.Object, error) {
	if d == nil {
		return nil, badConf("no queue descriptor for a %s", class)
	}
	base, err := d.UIDBase()
	if err != nil {
		return nil, err
	}
	dataType, err := d.DataType()
	if err != nil {
		return nil, err
	}
	queueType, err := d.QueueType()
	if err != nil {
		return nil, err
	}
	capacity, err := d.Capacity()
	if err != nil {
		return nil, err
	}

	obj, err := g.create(class, base+suffix)
	if err != nil {
		return nil, err
	}
	attrs := map[string]any{
		"data_type":  dataType,
		"queue_type": queueType,
		"capacity":   capacity,
	}
	maps.Copy(attrs, extra)
	if err := setAttrs(obj, attrs); err != nil {
		return nil, err
	}
	return obj, nil
}

// newNetwork creates a NetworkConnection from a descriptor, named by the
// descriptor's uid base followed by suffix.
func (g *generation) newNetwork(d *dal.NetworkConnectionDescriptor, suffix string) (*confdb.Object, error) {
	if d == nil {
		return nil, badConf("no network connection descriptor")
	}
	base, err := d.UIDBase()
	if err != nil {
		return nil, err
	}
	dataType, err := d.DataType()
	if err != nil {
		return nil, err
	}
	connType, err := d.ConnectionType()
	if err != nil {
		return nil, err
	}
	svc, err := d.AssociatedService()
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, badConf("network connection descriptor %s has no associated service", d)
	}

	obj, err := g.create("NetworkConnection", base+suffix)
	if err != nil {
		return nil, err
	}
	if err := setAttrs(obj, map[string]any{"data_type": dataType, "connection_type": connType}); err != nil {
		return nil, err
	}
	if err := obj.SetObj("associated_service", svc.ConfigObject()); err != nil {
		return nil, err
	}
	return obj, nil
}

// module describes a module object to create.
type module struct {
	class      string
	id         string
	conf       dal.Object // set as "configuration"
	moduleConf dal.Object // set as "module_configuration"
	inputs     []*confdb.Object
	outputs    []*confdb.Object
	attrs      map[string]any
	rels       map[string][]*confdb.Object
	rel        map[string]*confdb.Object
}

// newModule creates a module and adds it to the generated modules.
func (g *generation) newModule(m module) (*confdb.Object, error) {
	obj, err := g.newObject(m)
	if err != nil {
		return nil, err
	}
	g.modules = append(g.modules, obj)
	return obj, nil
}

// newObject creates and wires a module that the generator does not report,
// such as a helper other modules talk to.
func (g *generation) newObject(m module) (*confdb.Object, error) {
	if m.class == "" {
		return nil, badConf("no module class for %s", m.id)
	}
	obj, err := g.create(m.class, m.id)
	if err != nil {
		return nil, err
	}
	if m.conf != nil {
		if err := obj.SetObj("configuration", m.conf.ConfigObject()); err != nil {
			return nil, err
		}
	}
	if m.moduleConf != nil {
		if err := obj.SetObj("module_configuration", m.moduleConf.ConfigObject()); err != nil {
			return nil, err
		}
	}
	if err := setAttrs(obj, m.attrs); err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(m.rel)) {
		if err := obj.SetObj(name, m.rel[name]); err != nil {
			return nil, err
		}
	}
	rels := map[string][]*confdb.Object{"inputs": m.inputs, "outputs": m.outputs}
	maps.Copy(rels, m.rels)
	for _, name := range slices.Sorted(maps.Keys(rels)) {
		if len(rels[name]) == 0 {
			continue
		}
		if err := obj.SetObjs(name, rels[name]); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// disabled reports whether a resource is disabled in the session.
func (g *generation) disabled(obj *confdb.Object) (bool, error) {
	if g.off == nil {
		set, err := g.session.DisabledSet()
		if err != nil {
			return false, err
		}
		g.off = set
	}
	return g.off.Contains(obj), nil
}

// templateFor returns the module class a configuration is meant for, or an
// ErrBadConf naming what when conf is nil.
func templateFor(conf *dal.ModuleConf, what string) (string, error) {
	if conf == nil {
		return "", badConf("no %s configuration given", what)
	}
	class, err := conf.TemplateFor()
	if err != nil {
		return "", err
	}
	if class == "" {
		return "", badConf("%s configuration %s does not name a module class", what, conf)
	}
	return class, nil
}

// sourceID reads the application's source id. It fails with ErrBadConf when
// the application has none.
func sourceID(app *dal.SmartDaqApplication) (*dal.SourceIDConf, uint32, error) {
	conf, err := app.SourceID()
	if err != nil {
		return nil, 0, err
	}
	if conf == nil {
		return nil, 0, badConf("no source_id associated with %s", app)
	}
	sid, err := conf.SID()
	if err != nil {
		return nil, 0, err
	}
	return conf, sid, nil
}

func itoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}

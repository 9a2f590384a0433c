package dal

import (
	"fmt"

	"github.com/vk/appmodel/internal/confdb"
)

// Session is the root of a run configuration: a segment tree and the set of
// resources disabled for the run.
type Session struct{ Base }

func NewSession(o *confdb.Object) (*Session, error) {
	return view(o, "Session", func(b Base) *Session { return &Session{b} })
}

// Segment returns the root segment.
func (s *Session) Segment() (*Segment, error) {
	return relatedOne(s.obj, "segment", NewSegment)
}

// AllApplications returns the applications of the root segment and of every
// nested segment, depth first. Controllers are not included.
func (s *Session) AllApplications() ([]*Application, error) {
	root, err := s.Segment()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("session %s has no segment", s)
	}
	var apps []*Application
	seen := make(map[*confdb.Object]struct{})
	var walk func(seg *Segment) error
	walk = func(seg *Segment) error {
		if _, ok := seen[seg.obj]; ok {
			return nil
		}
		seen[seg.obj] = struct{}{}
		segApps, err := seg.Applications()
		if err != nil {
			return err
		}
		apps = append(apps, segApps...)
		children, err := seg.Segments()
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return apps, nil
}

// EnabledApplications is AllApplications without the disabled ones.
func (s *Session) EnabledApplications() ([]*Application, error) {
	all, err := s.AllApplications()
	if err != nil {
		return nil, err
	}
	disabled, err := s.DisabledSet()
	if err != nil {
		return nil, err
	}
	enabled := all[:0:0]
	for _, app := range all {
		if !disabled.Contains(app.obj) {
			enabled = append(enabled, app)
		}
	}
	return enabled, nil
}

// IsDisabled reports whether a resource is disabled in this session.
func (s *Session) IsDisabled(obj *confdb.Object) (bool, error) {
	disabled, err := s.DisabledSet()
	if err != nil {
		return false, err
	}
	return disabled.Contains(obj), nil
}

// DisabledSet is the closure of a session's disabled list.
type DisabledSet map[*confdb.Object]struct{}

// Contains reports whether obj is disabled.
func (d DisabledSet) Contains(obj *confdb.Object) bool {
	_, ok := d[obj]
	return ok
}

// DisabledSet computes the disabled resources: every resource listed by the
// session, everything contained (recursively) in a disabled resource set,
// and every resource set all of whose contained resources are disabled.
func (s *Session) DisabledSet() (DisabledSet, error) {
	listed, err := s.obj.Objects("disabled")
	if err != nil {
		return nil, err
	}
	set := make(DisabledSet)
	var disable func(o *confdb.Object) error
	disable = func(o *confdb.Object) error {
		if set.Contains(o) {
			return nil
		}
		set[o] = struct{}{}
		if !o.Castable("ResourceSet") {
			return nil
		}
		children, err := o.Objects("contains")
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := disable(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, o := range listed {
		if err := disable(o); err != nil {
			return nil, err
		}
	}

	sets, err := s.resourceSets()
	if err != nil {
		return nil, err
	}
	for changed := true; changed; {
		changed = false
		for _, rs := range sets {
			if set.Contains(rs) {
				continue
			}
			children, err := rs.Objects("contains")
			if err != nil {
				return nil, err
			}
			if len(children) == 0 {
				continue
			}
			all := true
			for _, c := range children {
				if !set.Contains(c) {
					all = false
					break
				}
			}
			if all {
				set[rs] = struct{}{}
				changed = true
			}
		}
	}
	return set, nil
}

// resourceSets collects every resource set reachable from the session's
// applications.
func (s *Session) resourceSets() ([]*confdb.Object, error) {
	apps, err := s.AllApplications()
	if err != nil {
		return nil, err
	}
	var out []*confdb.Object
	seen := make(map[*confdb.Object]struct{})
	var visit func(o *confdb.Object) error
	visit = func(o *confdb.Object) error {
		if _, ok := seen[o]; ok || !o.Castable("ResourceSet") {
			return nil
		}
		seen[o] = struct{}{}
		children, err := o.Objects("contains")
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := visit(c); err != nil {
				return err
			}
		}
		// Children first, so nested sets settle before their parents.
		out = append(out, o)
		return nil
	}
	for _, app := range apps {
		if err := visit(app.obj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

package dal

import (
	"github.com/vk/appmodel/internal/confdb"
)

func init() {
	register("Session", NewSession)
	register("Segment", NewSegment)
	register("Application", NewApplication)
	register("ResourceSet", NewResourceSet)
	register("DaqModule", NewDaqModule)
	register("Connection", NewConnection)
	register("Queue", NewQueue)
	register("QueueWithSourceId", NewQueueWithSourceID)
	register("NetworkConnection", NewNetworkConnection)
	register("Service", NewService)
	register("NetworkInterface", NewNetworkInterface)
	register("DetectorToDaqConnection", NewDetectorToDaqConnection)
	register("DetectorStream", NewDetectorStream)
	register("GeoId", NewGeoID)
	register("SourceIDConf", NewSourceIDConf)
	register("ModuleConf", NewModuleConf)
}

// Segment groups applications and nested segments.
type Segment struct{ Base }

func NewSegment(o *confdb.Object) (*Segment, error) {
	return view(o, "Segment", func(b Base) *Segment { return &Segment{b} })
}

func (s *Segment) Applications() ([]*Application, error) {
	return related(s.obj, "applications", NewApplication)
}

func (s *Segment) Segments() ([]*Segment, error) {
	return related(s.obj, "segments", NewSegment)
}

func (s *Segment) Controller() (*Application, error) {
	return relatedOne(s.obj, "controller", NewApplication)
}

// Application is any process started in a session.
type Application struct{ Base }

func NewApplication(o *confdb.Object) (*Application, error) {
	return view(o, "Application", func(b Base) *Application { return &Application{b} })
}

func (a *Application) ApplicationName() (string, error) {
	return a.obj.StringAttr("application_name")
}

func (a *Application) CommandlineParameters() ([]string, error) {
	return a.obj.Strings("commandline_parameters")
}

// ResourceSet is a resource that contains other resources. Disabling a set
// disables everything it contains.
type ResourceSet struct{ Base }

func NewResourceSet(o *confdb.Object) (*ResourceSet, error) {
	return view(o, "ResourceSet", func(b Base) *ResourceSet { return &ResourceSet{b} })
}

// Contains returns the raw contained resources.
func (r *ResourceSet) Contains() ([]*confdb.Object, error) {
	return r.obj.Objects("contains")
}

// DaqModule is a module inside a DAQ application.
type DaqModule struct{ Base }

func NewDaqModule(o *confdb.Object) (*DaqModule, error) {
	return view(o, "DaqModule", func(b Base) *DaqModule { return &DaqModule{b} })
}

func (m *DaqModule) Inputs() ([]*Connection, error) {
	return related(m.obj, "inputs", NewConnection)
}

func (m *DaqModule) Outputs() ([]*Connection, error) {
	return related(m.obj, "outputs", NewConnection)
}

// Configuration returns the module's configuration object, or nil.
func (m *DaqModule) Configuration() (*ModuleConf, error) {
	return relatedOne(m.obj, "configuration", NewModuleConf)
}

// ModuleConfiguration returns the data handler style configuration, or nil.
func (m *DaqModule) ModuleConfiguration() (*ModuleConf, error) {
	return relatedOne(m.obj, "module_configuration", NewModuleConf)
}

// Connection is the common view of queues and network connections.
type Connection struct{ Base }

func NewConnection(o *confdb.Object) (*Connection, error) {
	return view(o, "Connection", func(b Base) *Connection { return &Connection{b} })
}

func (c *Connection) DataType() (string, error) {
	return c.obj.StringAttr("data_type")
}

// Queue is an in-process connection.
type Queue struct{ Connection }

func NewQueue(o *confdb.Object) (*Queue, error) {
	return view(o, "Queue", func(b Base) *Queue { return &Queue{Connection{b}} })
}

func (q *Queue) QueueType() (string, error) {
	return q.obj.StringAttr("queue_type")
}

func (q *Queue) Capacity() (uint32, error) {
	return q.obj.Uint32("capacity")
}

// QueueWithSourceID is a queue dedicated to a single source.
type QueueWithSourceID struct{ Queue }

func NewQueueWithSourceID(o *confdb.Object) (*QueueWithSourceID, error) {
	return view(o, "QueueWithSourceId", func(b Base) *QueueWithSourceID {
		return &QueueWithSourceID{Queue{Connection{b}}}
	})
}

func (q *QueueWithSourceID) SourceID() (uint32, error) {
	return q.obj.Uint32("source_id")
}

// NetworkConnection is a connection between processes.
type NetworkConnection struct{ Connection }

func NewNetworkConnection(o *confdb.Object) (*NetworkConnection, error) {
	return view(o, "NetworkConnection", func(b Base) *NetworkConnection {
		return &NetworkConnection{Connection{b}}
	})
}

func (n *NetworkConnection) ConnectionType() (string, error) {
	return n.obj.StringAttr("connection_type")
}

func (n *NetworkConnection) AssociatedService() (*Service, error) {
	return relatedOne(n.obj, "associated_service", NewService)
}

type Service struct{ Base }

func NewService(o *confdb.Object) (*Service, error) {
	return view(o, "Service", func(b Base) *Service { return &Service{b} })
}

func (s *Service) Protocol() (string, error) { return s.obj.StringAttr("protocol") }

func (s *Service) Port() (uint32, error) { return s.obj.Uint32("port") }

type NetworkInterface struct{ Base }

func NewNetworkInterface(o *confdb.Object) (*NetworkInterface, error) {
	return view(o, "NetworkInterface", func(b Base) *NetworkInterface { return &NetworkInterface{b} })
}

func (n *NetworkInterface) IPAddress() (string, error) { return n.obj.StringAttr("ip_address") }

// DetectorToDaqConnection pairs the senders of a detector with the DAQ side
// receiver.
type DetectorToDaqConnection struct{ Base }

func NewDetectorToDaqConnection(o *confdb.Object) (*DetectorToDaqConnection, error) {
	return view(o, "DetectorToDaqConnection", func(b Base) *DetectorToDaqConnection {
		return &DetectorToDaqConnection{b}
	})
}

// Contains returns the raw contained resources.
func (d *DetectorToDaqConnection) Contains() ([]*confdb.Object, error) {
	return d.obj.Objects("contains")
}

// Senders returns the contained DetDataSender objects.
func (d *DetectorToDaqConnection) Senders() ([]*confdb.Object, error) {
	return d.filter("DetDataSender")
}

// Receiver returns the first contained DetDataReceiver, or nil.
func (d *DetectorToDaqConnection) Receiver() (*confdb.Object, error) {
	recv, err := d.filter("DetDataReceiver")
	if err != nil || len(recv) == 0 {
		return nil, err
	}
	return recv[0], nil
}

// Streams returns the DetectorStreams held by all senders, in order.
func (d *DetectorToDaqConnection) Streams() ([]*DetectorStream, error) {
	senders, err := d.Senders()
	if err != nil {
		return nil, err
	}
	var streams []*DetectorStream
	for _, s := range senders {
		contained, err := s.Objects("contains")
		if err != nil {
			return nil, err
		}
		for _, c := range contained {
			if !c.Castable("DetectorStream") {
				continue
			}
			ds, err := NewDetectorStream(c)
			if err != nil {
				return nil, err
			}
			streams = append(streams, ds)
		}
	}
	return streams, nil
}

func (d *DetectorToDaqConnection) filter(class string) ([]*confdb.Object, error) {
	contained, err := d.Contains()
	if err != nil {
		return nil, err
	}
	var out []*confdb.Object
	for _, c := range contained {
		if c.Castable(class) {
			out = append(out, c)
		}
	}
	return out, nil
}

// DetectorStream is a single readout link.
type DetectorStream struct{ Base }

func NewDetectorStream(o *confdb.Object) (*DetectorStream, error) {
	return view(o, "DetectorStream", func(b Base) *DetectorStream { return &DetectorStream{b} })
}

func (d *DetectorStream) SourceID() (uint32, error) { return d.obj.Uint32("source_id") }

func (d *DetectorStream) GeoID() (*GeoID, error) {
	return relatedOne(d.obj, "geo_id", NewGeoID)
}

// GeoID locates a stream in the detector.
type GeoID struct{ Base }

func NewGeoID(o *confdb.Object) (*GeoID, error) {
	return view(o, "GeoId", func(b Base) *GeoID { return &GeoID{b} })
}

func (g *GeoID) DetectorID() (uint32, error) { return g.obj.Uint32("detector_id") }

type SourceIDConf struct{ Base }

func NewSourceIDConf(o *confdb.Object) (*SourceIDConf, error) {
	return view(o, "SourceIDConf", func(b Base) *SourceIDConf { return &SourceIDConf{b} })
}

func (s *SourceIDConf) SID() (uint32, error) { return s.obj.Uint32("sid") }

func (s *SourceIDConf) Subsystem() (string, error) { return s.obj.StringAttr("subsystem") }

// ModuleConf is the base of all module configurations.
type ModuleConf struct{ Base }

func NewModuleConf(o *confdb.Object) (*ModuleConf, error) {
	return view(o, "ModuleConf", func(b Base) *ModuleConf { return &ModuleConf{b} })
}

// TemplateFor names the module class the configuration is meant for.
func (m *ModuleConf) TemplateFor() (string, error) {
	return m.obj.StringAttr("template_for")
}

package dal

import (
	"github.com/vk/appmodel/internal/confdb"
)

func init() {
	register("SmartDaqApplication", NewSmartDaqApplication)
	register("ReadoutApplication", NewReadoutApplication)
	register("QueueConnectionRule", NewQueueConnectionRule)
	register("NetworkConnectionRule", NewNetworkConnectionRule)
	register("QueueDescriptor", NewQueueDescriptor)
	register("NetworkConnectionDescriptor", NewNetworkConnectionDescriptor)
	register("DataReaderConf", NewDataReaderConf)
	register("DataHandlerConf", NewDataHandlerConf)
	register("StandaloneTCMakerConf", NewStandaloneTCMakerConf)
	register("HermesDataSender", NewHermesDataSender)
	register("NWDetDataReceiver", NewNWDetDataReceiver)
	register("WIBModuleConf", NewWIBModuleConf)
	register("HermesModuleConf", NewHermesModuleConf)
}

// SmartDaqApplication is an application whose modules are generated from
// connection rules rather than listed.
type SmartDaqApplication struct{ Application }

func NewSmartDaqApplication(o *confdb.Object) (*SmartDaqApplication, error) {
	return view(o, "SmartDaqApplication", func(b Base) *SmartDaqApplication {
		return &SmartDaqApplication{Application{b}}
	})
}

func (a *SmartDaqApplication) QueueRules() ([]*QueueConnectionRule, error) {
	return related(a.obj, "queue_rules", NewQueueConnectionRule)
}

func (a *SmartDaqApplication) NetworkRules() ([]*NetworkConnectionRule, error) {
	return related(a.obj, "network_rules", NewNetworkConnectionRule)
}

// SourceID returns the application's source id configuration, or nil.
func (a *SmartDaqApplication) SourceID() (*SourceIDConf, error) {
	return relatedOne(a.obj, "source_id", NewSourceIDConf)
}

// Conf returns the module configuration held by the named relationship, or nil.
func (a *SmartDaqApplication) Conf(rel string) (*ModuleConf, error) {
	return relatedOne(a.obj, rel, NewModuleConf)
}

// ReadoutApplication reads out the detector streams of the connections it
// contains.
type ReadoutApplication struct{ SmartDaqApplication }

func NewReadoutApplication(o *confdb.Object) (*ReadoutApplication, error) {
	return view(o, "ReadoutApplication", func(b Base) *ReadoutApplication {
		return &ReadoutApplication{SmartDaqApplication{Application{b}}}
	})
}

// Contains returns the raw contained resources.
func (r *ReadoutApplication) Contains() ([]*confdb.Object, error) {
	return r.obj.Objects("contains")
}

func (r *ReadoutApplication) TPSourceID() (uint32, error) {
	return r.obj.Uint32("tp_source_id")
}

func (r *ReadoutApplication) DataReader() (*DataReaderConf, error) {
	return relatedOne(r.obj, "data_reader", NewDataReaderConf)
}

func (r *ReadoutApplication) LinkHandler() (*DataHandlerConf, error) {
	return relatedOne(r.obj, "link_handler", NewDataHandlerConf)
}

func (r *ReadoutApplication) TPHandler() (*DataHandlerConf, error) {
	return relatedOne(r.obj, "tp_handler", NewDataHandlerConf)
}

// QueueConnectionRule selects the queue descriptor for a destination class.
type QueueConnectionRule struct{ Base }

func NewQueueConnectionRule(o *confdb.Object) (*QueueConnectionRule, error) {
	return view(o, "QueueConnectionRule", func(b Base) *QueueConnectionRule { return &QueueConnectionRule{b} })
}

func (r *QueueConnectionRule) DestinationClass() (string, error) {
	return r.obj.StringAttr("destination_class")
}

func (r *QueueConnectionRule) Descriptor() (*QueueDescriptor, error) {
	return relatedOne(r.obj, "descriptor", NewQueueDescriptor)
}

// NetworkConnectionRule selects the network descriptor for an endpoint class.
type NetworkConnectionRule struct{ Base }

func NewNetworkConnectionRule(o *confdb.Object) (*NetworkConnectionRule, error) {
	return view(o, "NetworkConnectionRule", func(b Base) *NetworkConnectionRule { return &NetworkConnectionRule{b} })
}

func (r *NetworkConnectionRule) EndpointClass() (string, error) {
	return r.obj.StringAttr("endpoint_class")
}

func (r *NetworkConnectionRule) Descriptor() (*NetworkConnectionDescriptor, error) {
	return relatedOne(r.obj, "descriptor", NewNetworkConnectionDescriptor)
}

// QueueDescriptor is the template a Queue is created from.
type QueueDescriptor struct{ Base }

func NewQueueDescriptor(o *confdb.Object) (*QueueDescriptor, error) {
	return view(o, "QueueDescriptor", func(b Base) *QueueDescriptor { return &QueueDescriptor{b} })
}

func (d *QueueDescriptor) UIDBase() (string, error)   { return d.obj.StringAttr("uid_base") }
func (d *QueueDescriptor) DataType() (string, error)  { return d.obj.StringAttr("data_type") }
func (d *QueueDescriptor) QueueType() (string, error) { return d.obj.StringAttr("queue_type") }
func (d *QueueDescriptor) Capacity() (uint32, error)  { return d.obj.Uint32("capacity") }

// NetworkConnectionDescriptor is the template a NetworkConnection is created from.
type NetworkConnectionDescriptor struct{ Base }

func NewNetworkConnectionDescriptor(o *confdb.Object) (*NetworkConnectionDescriptor, error) {
	return view(o, "NetworkConnectionDescriptor", func(b Base) *NetworkConnectionDescriptor {
		return &NetworkConnectionDescriptor{b}
	})
}

func (d *NetworkConnectionDescriptor) UIDBase() (string, error) {
	return d.obj.StringAttr("uid_base")
}

func (d *NetworkConnectionDescriptor) DataType() (string, error) {
	return d.obj.StringAttr("data_type")
}

func (d *NetworkConnectionDescriptor) ConnectionType() (string, error) {
	return d.obj.StringAttr("connection_type")
}

func (d *NetworkConnectionDescriptor) AssociatedService() (*Service, error) {
	return relatedOne(d.obj, "associated_service", NewService)
}

type DataReaderConf struct{ ModuleConf }

func NewDataReaderConf(o *confdb.Object) (*DataReaderConf, error) {
	return view(o, "DataReaderConf", func(b Base) *DataReaderConf { return &DataReaderConf{ModuleConf{b}} })
}

func (d *DataReaderConf) EmulationMode() (bool, error) { return d.obj.Bool("emulation_mode") }

type DataHandlerConf struct{ ModuleConf }

func NewDataHandlerConf(o *confdb.Object) (*DataHandlerConf, error) {
	return view(o, "DataHandlerConf", func(b Base) *DataHandlerConf { return &DataHandlerConf{ModuleConf{b}} })
}

func (d *DataHandlerConf) GenerateTimesync() (bool, error) { return d.obj.Bool("generate_timesync") }

// DataProcessor returns the raw data processor configuration, or nil.
func (d *DataHandlerConf) DataProcessor() (*confdb.Object, error) {
	return d.obj.Object("data_processor")
}

type StandaloneTCMakerConf struct{ ModuleConf }

func NewStandaloneTCMakerConf(o *confdb.Object) (*StandaloneTCMakerConf, error) {
	return view(o, "StandaloneTCMakerConf", func(b Base) *StandaloneTCMakerConf {
		return &StandaloneTCMakerConf{ModuleConf{b}}
	})
}

func (s *StandaloneTCMakerConf) TimestampMethod() (string, error) {
	return s.obj.StringAttr("timestamp_method")
}

// HermesDataSender is a network sender controlled through a WIB host.
type HermesDataSender struct{ Base }

func NewHermesDataSender(o *confdb.Object) (*HermesDataSender, error) {
	return view(o, "HermesDataSender", func(b Base) *HermesDataSender { return &HermesDataSender{b} })
}

func (h *HermesDataSender) ControlHost() (string, error) { return h.obj.StringAttr("control_host") }

type NWDetDataReceiver struct{ Base }

func NewNWDetDataReceiver(o *confdb.Object) (*NWDetDataReceiver, error) {
	return view(o, "NWDetDataReceiver", func(b Base) *NWDetDataReceiver { return &NWDetDataReceiver{b} })
}

// Uses returns the receiving network interface, or nil.
func (n *NWDetDataReceiver) Uses() (*NetworkInterface, error) {
	return relatedOne(n.obj, "uses", NewNetworkInterface)
}

// WIBModuleConf configures the WIB control modules of a WIEC application.
type WIBModuleConf struct{ Base }

func NewWIBModuleConf(o *confdb.Object) (*WIBModuleConf, error) {
	return view(o, "WIBModuleConf", func(b Base) *WIBModuleConf { return &WIBModuleConf{b} })
}

func (w *WIBModuleConf) CommunicationType() (string, error) {
	return w.obj.StringAttr("communication_type")
}

func (w *WIBModuleConf) CommunicationPort() (uint32, error) {
	return w.obj.Uint32("communication_port")
}

func (w *WIBModuleConf) Settings() (*confdb.Object, error) {
	return w.obj.Object("settings")
}

// HermesModuleConf configures the Hermes control modules of a WIEC
// application.
type HermesModuleConf struct{ Base }

func NewHermesModuleConf(o *confdb.Object) (*HermesModuleConf, error) {
	return view(o, "HermesModuleConf", func(b Base) *HermesModuleConf { return &HermesModuleConf{b} })
}

func (h *HermesModuleConf) IpbusType() (string, error) {
	return h.obj.StringAttr("ipbus_type")
}

func (h *HermesModuleConf) IpbusPort() (uint32, error) {
	return h.obj.Uint32("ipbus_port")
}

func (h *HermesModuleConf) IpbusTimeoutMS() (uint32, error) {
	return h.obj.Uint32("ipbus_timeout_ms")
}

func (h *HermesModuleConf) AddressTable() (*confdb.Object, error) {
	return h.obj.Object("address_table")
}

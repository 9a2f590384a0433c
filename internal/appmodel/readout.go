package appmodel

import (
	"fmt"

	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// readoutStream is an enabled detector stream with its parameters read.
type readoutStream struct {
	stream *dal.DetectorStream
	sid    uint32
	geo    *dal.GeoID
}

// generateReadout creates one data reader for all enabled detector to DAQ
// connections, a data link handler per enabled stream and an optional TP
// handler. The fragment aggregator serving data requests is created too, but
// only the reader and the handlers are returned.
func generateReadout(g *generation, app *dal.ReadoutApplication) error {
	readerConf, err := app.DataReader()
	if err != nil {
		return err
	}
	if readerConf == nil {
		return badConf("no DataReaderModule configuration given")
	}
	readerClass, err := templateFor(&readerConf.ModuleConf, "data reader")
	if err != nil {
		return err
	}

	dlhConf, err := app.LinkHandler()
	if err != nil {
		return err
	}
	if dlhConf == nil {
		return badConf("no data link handler configuration given")
	}
	dlhClass, err := templateFor(&dlhConf.ModuleConf, "data link handler")
	if err != nil {
		return err
	}

	tphConf, err := app.TPHandler()
	if err != nil {
		return err
	}
	tphClass := ""
	if tphConf != nil {
		if tphClass, err = templateFor(&tphConf.ModuleConf, "TP handler"); err != nil {
			return err
		}
	}

	qrules, err := queueRules(&app.SmartDaqApplication)
	if err != nil {
		return err
	}
	var dlhInput, dlhReqInput, tpInput, faOutput *dal.QueueDescriptor
	for _, r := range qrules {
		switch {
		case r.destination == "DataHandlerModule" || r.destination == dlhClass || (tphClass != "" && r.destination == tphClass):
			switch r.dataType {
			case "DataRequest":
				dlhReqInput = r.desc
			case "TriggerPrimitive":
				tpInput = r.desc
			default:
				dlhInput = r.desc
			}
		case r.destination == "FragmentAggregatorModule":
			faOutput = r.desc
		}
	}

	nrules, err := networkRules(&app.SmartDaqApplication)
	if err != nil {
		return err
	}
	var faNet, tpNet, taNet, tsNet *dal.NetworkConnectionDescriptor
	for _, r := range nrules {
		switch {
		case r.endpoint == "FragmentAggregatorModule":
			faNet = r.desc
		case r.dataType == "TPSet":
			tpNet = r.desc
		case r.dataType == "TriggerActivity":
			taNet = r.desc
		case r.dataType == "TimeSync":
			tsNet = r.desc
		}
	}

	if faOutput == nil {
		return badConf("no fragment output queue descriptor given")
	}
	if faNet == nil {
		return badConf("no fragment aggregator network descriptor given")
	}
	fragQueue, err := g.newQueue(faOutput, "")
	if err != nil {
		return err
	}

	connections, streams, err := readoutConnections(g, app, readerClass)
	if err != nil {
		return err
	}
	if len(streams) > 0 && dlhInput == nil {
		return badConf("no data link handler input queue descriptor given")
	}
	if (len(streams) > 0 || tphConf != nil) && dlhReqInput == nil {
		return badConf("no data request queue descriptor given")
	}

	// Data reader, writing to one raw data queue per stream.
	dataQueues := make(map[uint32]*confdb.Object, len(streams))
	var readerOutputs []*confdb.Object
	for _, s := range streams {
		q, err := g.newQueueWithSourceID(dlhInput, s.sid)
		if err != nil {
			return err
		}
		dataQueues[s.sid] = q
		readerOutputs = append(readerOutputs, q)
	}
	if _, err := g.newModule(module{
		class:   readerClass,
		id:      fmt.Sprintf("datareader-%s-%d", g.appID, 0),
		conf:    readerConf,
		outputs: readerOutputs,
		rels:    map[string][]*confdb.Object{"connections": connections},
	}); err != nil {
		return err
	}

	var reqQueues []*confdb.Object

	// TP handler.
	var tpQueue *confdb.Object
	if tphConf != nil {
		if tpInput == nil {
			return badConf("no TP handler input queue descriptor given")
		}
		if tpNet == nil || taNet == nil {
			return badConf("TP handler requires TPSet and TriggerActivity network descriptors")
		}
		tpsrc, err := app.TPSourceID()
		if err != nil {
			return err
		}
		if tpQueue, err = g.newQueue(tpInput, ""); err != nil {
			return err
		}
		if err := setAttrs(tpQueue, map[string]any{"recv_timeout_ms": uint32(1), "send_timeout_ms": uint32(1)}); err != nil {
			return err
		}
		tpReqQueue, err := g.newQueueWithSourceID(dlhReqInput, tpsrc)
		if err != nil {
			return err
		}
		reqQueues = append(reqQueues, tpReqQueue)
		tpNetObj, err := g.newNetwork(tpNet, g.appID)
		if err != nil {
			return err
		}
		taNetObj, err := g.newNetwork(taNet, g.appID)
		if err != nil {
			return err
		}
		if _, err := g.newModule(module{
			class:      tphClass,
			id:         "tphandler-" + itoa(tpsrc),
			moduleConf: tphConf,
			attrs:      map[string]any{"source_id": tpsrc},
			inputs:     []*confdb.Object{tpQueue, tpReqQueue},
			outputs:    []*confdb.Object{tpNetObj, taNetObj, fragQueue},
		}); err != nil {
			return err
		}
	}

	// Data link handlers.
	emulation, err := readerConf.EmulationMode()
	if err != nil {
		return err
	}
	timesync, err := dlhConf.GenerateTimesync()
	if err != nil {
		return err
	}
	if timesync && len(streams) > 0 && tsNet == nil {
		return badConf("time sync requested but no TimeSync network descriptor given")
	}
	for _, s := range streams {
		g.logger.Info("Processing stream.", "stream", s.stream.ID(), "source_id", s.sid)
		reqQueue, err := g.newQueueWithSourceID(dlhReqInput, s.sid)
		if err != nil {
			return err
		}
		reqQueues = append(reqQueues, reqQueue)

		outputs := []*confdb.Object{fragQueue}
		if timesync {
			tsNetObj, err := g.newNetwork(tsNet, itoa(s.sid))
			if err != nil {
				return err
			}
			outputs = append(outputs, tsNetObj)
		}
		if tpQueue != nil {
			outputs = append(outputs, tpQueue)
		}

		if _, err := g.newModule(module{
			class:      dlhClass,
			id:         "DLH-" + itoa(s.sid),
			moduleConf: dlhConf,
			attrs:      map[string]any{"source_id": s.sid, "emulation_mode": emulation},
			rel:        map[string]*confdb.Object{"geo_id": s.geo.ConfigObject()},
			inputs:     []*confdb.Object{dataQueues[s.sid], reqQueue},
			outputs:    outputs,
		}); err != nil {
			return err
		}
	}

	// The fragment aggregator is wired but not reported as a module.
	faNetObj, err := g.newNetwork(faNet, g.appID)
	if err != nil {
		return err
	}
	_, err = g.newObject(module{
		class:   "FragmentAggregatorModule",
		id:      "fragmentaggregator-" + g.appID,
		inputs:  []*confdb.Object{faNetObj, fragQueue},
		outputs: reqQueues,
	})
	return err
}

// readoutConnections returns the enabled detector to DAQ connections of a
// readout application and the enabled streams they carry. DPDK readers need
// a DPDK receiver fed by network senders only.
func readoutConnections(g *generation, app *dal.ReadoutApplication, readerClass string) ([]*confdb.Object, []readoutStream, error) {
	contained, err := app.Contains()
	if err != nil {
		return nil, nil, err
	}
	var connections []*confdb.Object
	var streams []readoutStream
	for _, res := range contained {
		off, err := g.disabled(res)
		if err != nil {
			return nil, nil, err
		}
		if off {
			g.logger.Debug("Ignoring disabled DetectorToDaqConnection.", "connection", res.ID())
			continue
		}
		d2d, err := detectorToDaq(res, app)
		if err != nil {
			return nil, nil, err
		}
		g.logger.Info("Processing DetectorToDaqConnection.", "connection", res.ID())
		connections = append(connections, res)

		connStreams, err := enabledStreams(g, d2d)
		if err != nil {
			return nil, nil, err
		}
		streams = append(streams, connStreams...)

		if readerClass == "DPDKReaderModule" {
			if err := checkDPDK(d2d); err != nil {
				return nil, nil, err
			}
		}
	}
	return connections, streams, nil
}

// detectorToDaq views a resource contained in app as a non-empty
// DetectorToDaqConnection.
func detectorToDaq(res *confdb.Object, app dal.Object) (*dal.DetectorToDaqConnection, error) {
	if !res.Castable("DetectorToDaqConnection") {
		return nil, badConf("%s contains %s, which is not a DetectorToDaqConnection", app.ID(), res)
	}
	d2d, err := dal.NewDetectorToDaqConnection(res)
	if err != nil {
		return nil, err
	}
	contents, err := d2d.Contains()
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, badConf("DetectorToDaqConnection %s does not contain senders or receivers", res.ID())
	}
	return d2d, nil
}

// enabledStreams returns the enabled streams of a connection with their
// source and geo ids.
func enabledStreams(g *generation, d2d *dal.DetectorToDaqConnection) ([]readoutStream, error) {
	var out []readoutStream
	err := eachEnabledStream(g, d2d, func(s *dal.DetectorStream, sid uint32) error {
		geo, err := s.GeoID()
		if err != nil {
			return fmt.Errorf("stream %s geo_id: %w: %v", s.ID(), ErrBadStreamConf, err)
		}
		if geo == nil {
			return fmt.Errorf("stream %s has no geo_id: %w", s.ID(), ErrBadStreamConf)
		}
		out = append(out, readoutStream{stream: s, sid: sid, geo: geo})
		return nil
	})
	return out, err
}

// eachEnabledStream calls fn with every enabled stream of a connection and
// its source id.
func eachEnabledStream(g *generation, d2d *dal.DetectorToDaqConnection, fn func(*dal.DetectorStream, uint32) error) error {
	all, err := d2d.Streams()
	if err != nil {
		return err
	}
	for _, s := range all {
		off, err := g.disabled(s.ConfigObject())
		if err != nil {
			return err
		}
		if off {
			g.logger.Debug("Ignoring disabled DetectorStream.", "stream", s.ID())
			continue
		}
		sid, err := s.SourceID()
		if err != nil {
			return fmt.Errorf("stream %s source_id: %w: %v", s.ID(), ErrBadStreamConf, err)
		}
		if err := fn(s, sid); err != nil {
			return err
		}
	}
	return nil
}

func checkDPDK(d2d *dal.DetectorToDaqConnection) error {
	recv, err := d2d.Receiver()
	if err != nil {
		return err
	}
	if recv == nil || !recv.Castable("DPDKReceiver") {
		return badConf("DPDKReaderModule requires a DPDKReceiver in %s, found %v", d2d.ID(), recv)
	}
	senders, err := d2d.Senders()
	if err != nil {
		return err
	}
	for _, s := range senders {
		if !s.Castable("NWDetDataSender") {
			return badConf("non-network sender %s found with a network receiver", s)
		}
	}
	return nil
}

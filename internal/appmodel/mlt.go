package appmodel

import (
	"fmt"

	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// generateMLT creates the module level trigger of an MLT application: the
// standalone TC makers, the TC subscriber, the TC handler and the MLT module
// itself. The TC handler is told about every source id of the session.
func generateMLT(g *generation, app *dal.SmartDaqApplication) error {
	tchConf, err := app.Conf("trigger_inputs_handler")
	if err != nil {
		return err
	}
	tchClass, err := templateFor(tchConf, "TC handler")
	if err != nil {
		return err
	}
	mltConf, err := app.Conf("mlt_conf")
	if err != nil {
		return err
	}
	if mltConf == nil {
		return badConf("no MLT configuration given")
	}
	mltClass, err := templateFor(mltConf, "MLT")
	if err != nil {
		return err
	}

	qrules, err := queueRules(app)
	if err != nil {
		return err
	}
	var tcInputDesc, tdOutputDesc *dal.QueueDescriptor
	for _, r := range qrules {
		switch r.destination {
		case tchClass:
			tcInputDesc = r.desc
		case mltClass:
			tdOutputDesc = r.desc
		}
	}
	if tcInputDesc == nil {
		return badConf("no TC input queue descriptor given")
	}
	if tdOutputDesc == nil {
		return badConf("no TD queue descriptor given")
	}
	tcQueue, err := g.newQueue(tcInputDesc, "")
	if err != nil {
		return err
	}
	tdQueue, err := g.newQueue(tdOutputDesc, "")
	if err != nil {
		return err
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	tiDesc := networkByDataType(nrules, "TriggerInhibit")
	tdDesc := networkByDataType(nrules, "TriggerDecision")
	tcDesc := networkByDataType(nrules, "TriggerCandidate")
	tsDesc := networkByDataType(nrules, "TimeSync")
	reqDesc := networkByDataType(nrules, "DataRequest")
	switch {
	case tdDesc == nil:
		return badConf("no network descriptor for the output TriggerDecisions given")
	case tiDesc == nil:
		return badConf("no network descriptor for the input TriggerInhibits given")
	case tcDesc == nil:
		return badConf("no network descriptor for the input TriggerCandidates given")
	case reqDesc == nil:
		return badConf("no network descriptor for the input DataRequests given")
	}

	tiNet, err := g.newNetwork(tiDesc, "")
	if err != nil {
		return err
	}
	tcNet, err := g.newNetwork(tcDesc, ".*")
	if err != nil {
		return err
	}
	tdNet, err := g.newNetwork(tdDesc, "")
	if err != nil {
		return err
	}
	reqNet, err := g.newNetwork(reqDesc, g.appID)
	if err != nil {
		return err
	}
	var tsNet *confdb.Object
	if tsDesc != nil {
		if tsNet, err = g.newNetwork(tsDesc, ".*"); err != nil {
			return err
		}
	}

	// Standalone TC makers.
	makers, err := app.ConfigObject().Objects("standalone_candidate_maker_confs")
	if err != nil {
		return err
	}
	for _, obj := range makers {
		conf, err := dal.NewStandaloneTCMakerConf(obj)
		if err != nil {
			return err
		}
		class, err := templateFor(&conf.ModuleConf, "standalone TC maker")
		if err != nil {
			return err
		}
		method, err := conf.TimestampMethod()
		if err != nil {
			return err
		}
		var inputs []*confdb.Object
		if method == "kTimeSync" && tsNet != nil {
			inputs = append(inputs, tsNet)
		}
		if _, err := g.newModule(module{
			class:   class,
			id:      conf.ID(),
			conf:    conf,
			inputs:  inputs,
			outputs: []*confdb.Object{tcQueue},
		}); err != nil {
			return err
		}
	}

	// TC subscriber.
	subConf, err := app.Conf("data_subscriber")
	if err != nil {
		return err
	}
	subClass, err := templateFor(subConf, "data subscriber")
	if err != nil {
		return err
	}
	if _, err := g.newModule(module{
		class:   subClass,
		id:      "data-reader-" + g.appID,
		conf:    subConf,
		inputs:  []*confdb.Object{tcNet},
		outputs: []*confdb.Object{tcQueue},
	}); err != nil {
		return err
	}

	// TC handler.
	enabled, err := sessionSourceIDs(g)
	if err != nil {
		return err
	}
	mandatory, err := mandatoryLinks(tchConf)
	if err != nil {
		return err
	}
	_, sid, err := sourceID(app)
	if err != nil {
		return err
	}
	if _, err := g.newModule(module{
		class:      tchClass,
		id:         tchConf.ID() + "-" + itoa(sid),
		moduleConf: tchConf,
		attrs:      map[string]any{"source_id": sid},
		rels: map[string][]*confdb.Object{
			"enabled_source_ids":   enabled,
			"mandatory_source_ids": mandatory,
		},
		inputs:  []*confdb.Object{tcQueue, reqNet},
		outputs: []*confdb.Object{tdQueue},
	}); err != nil {
		return err
	}

	_, err = g.newModule(module{
		class:   mltClass,
		id:      mltConf.ID(),
		conf:    mltConf,
		inputs:  []*confdb.Object{tdQueue, tiNet},
		outputs: []*confdb.Object{tdNet},
	})
	return err
}

// sessionSourceIDs creates a SourceIDConf for every data source of the
// session: each enabled readout stream, each readout TP source, and each
// trigger or HSI application with a source id.
func sessionSourceIDs(g *generation) ([]*confdb.Object, error) {
	apps, err := g.session.AllApplications()
	if err != nil {
		return nil, err
	}
	var out []*confdb.Object
	add := func(id string, sid uint32, subsystem string) error {
		obj, err := g.create("SourceIDConf", id)
		if err != nil {
			return err
		}
		if err := setAttrs(obj, map[string]any{"sid": sid, "subsystem": subsystem}); err != nil {
			return err
		}
		out = append(out, obj)
		return nil
	}

	for _, a := range apps {
		obj := a.ConfigObject()
		switch {
		case obj.Castable("ReadoutApplication"):
			off, err := g.disabled(obj)
			if err != nil {
				return nil, err
			}
			if off {
				continue
			}
			ro, err := dal.NewReadoutApplication(obj)
			if err != nil {
				return nil, err
			}
			if err := readoutSourceIDs(g, ro, add); err != nil {
				return nil, err
			}
		case obj.Castable("TriggerApplication"), obj.Castable("FakeHSIApplication"), obj.Castable("DTSHSIApplication"):
			sa, err := dal.NewSmartDaqApplication(obj)
			if err != nil {
				return nil, err
			}
			conf, err := sa.SourceID()
			if err != nil {
				return nil, err
			}
			if conf == nil {
				continue
			}
			sid, err := conf.SID()
			if err != nil {
				return nil, err
			}
			subsystem, err := conf.Subsystem()
			if err != nil {
				return nil, err
			}
			if err := add(fmt.Sprintf("%s-%d", sa.ID(), sid), sid, subsystem); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func readoutSourceIDs(g *generation, ro *dal.ReadoutApplication, add func(string, uint32, string) error) error {
	contained, err := ro.Contains()
	if err != nil {
		return err
	}
	for _, res := range contained {
		off, err := g.disabled(res)
		if err != nil {
			return err
		}
		if off {
			g.logger.Debug("Ignoring disabled DetectorToDaqConnection.", "connection", res.ID())
			continue
		}
		d2d, err := detectorToDaq(res, ro)
		if err != nil {
			return err
		}
		err = eachEnabledStream(g, d2d, func(_ *dal.DetectorStream, sid uint32) error {
			return add("dro-mlt-stream-config-"+itoa(sid), sid, "Detector_Readout")
		})
		if err != nil {
			return err
		}
	}
	tpsrc, err := ro.TPSourceID()
	if err != nil {
		return err
	}
	if tpsrc != 0 {
		return add(fmt.Sprintf("%s-%d", ro.ID(), tpsrc), tpsrc, "Trigger")
	}
	return nil
}

// mandatoryLinks returns the mandatory source ids of a TC handler whose data
// processor is a TCDataProcessor.
func mandatoryLinks(tchConf *dal.ModuleConf) ([]*confdb.Object, error) {
	if !tchConf.ConfigObject().Castable("DataHandlerConf") {
		return nil, nil
	}
	handler, err := dal.NewDataHandlerConf(tchConf.ConfigObject())
	if err != nil {
		return nil, err
	}
	dp, err := handler.DataProcessor()
	if err != nil {
		return nil, err
	}
	if dp == nil || !dp.Castable("TCDataProcessor") {
		return nil, nil
	}
	return dp.Objects("mandatory_links")
}

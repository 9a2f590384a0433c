package appmodel

import (
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// hsiVariant distinguishes the hardware signal interface applications. They
// share their data link handler and differ in the event source module.
type hsiVariant struct {
	genClass      string
	genPrefix     string
	postProcessed bool
}

var (
	fakeHSI = hsiVariant{genClass: "FakeHSIEventGeneratorModule", genPrefix: "FakeHSI-", postProcessed: true}
	dtsHSI  = hsiVariant{genClass: "HSIReadoutModule", genPrefix: "HSI-", postProcessed: false}
)

func generateFakeHSI(g *generation, app *dal.SmartDaqApplication) error {
	return generateHSI(g, app, fakeHSI)
}

func generateDTSHSI(g *generation, app *dal.SmartDaqApplication) error {
	return generateHSI(g, app, dtsHSI)
}

// generateHSI creates the data link handler buffering HSI events and the
// module producing them.
func generateHSI(g *generation, app *dal.SmartDaqApplication, v hsiVariant) error {
	dlhModuleConf, err := app.Conf("link_handler")
	if err != nil {
		return err
	}
	dlhClass, err := templateFor(dlhModuleConf, "data link handler")
	if err != nil {
		return err
	}
	dlhConf, err := dal.NewDataHandlerConf(dlhModuleConf.ConfigObject())
	if err != nil {
		return err
	}

	qrules, err := queueRules(app)
	if err != nil {
		return err
	}
	var inputDesc *dal.QueueDescriptor
	for _, r := range qrules {
		if r.destination == "DataHandlerModule" || r.destination == dlhClass {
			inputDesc = r.desc
		}
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	var reqDesc, tsDesc, hsiDesc *dal.NetworkConnectionDescriptor
	for _, r := range nrules {
		if r.endpoint == "DataHandlerModule" || r.endpoint == dlhClass {
			switch r.dataType {
			case "TimeSync":
				tsDesc = r.desc
			case "DataRequest":
				reqDesc = r.desc
			}
		}
		if r.dataType == "HSIEvent" {
			hsiDesc = r.desc
		}
	}

	genConf, err := app.Conf("generator")
	if err != nil {
		return err
	}
	if genConf == nil {
		return badConf("no %s configuration given", v.genClass)
	}
	if inputDesc == nil {
		return badConf("no DLH data input queue descriptor given")
	}
	if reqDesc == nil {
		return badConf("no DLH request input network descriptor given")
	}
	if hsiDesc == nil {
		return badConf("no HSIEvent output network descriptor given")
	}
	_, sid, err := sourceID(app)
	if err != nil {
		return err
	}
	timesync, err := dlhConf.GenerateTimesync()
	if err != nil {
		return err
	}
	if timesync && tsDesc == nil {
		return badConf("time sync requested but no TimeSync network descriptor given")
	}

	var outputs []*confdb.Object
	if timesync {
		tsNet, err := g.newNetwork(tsDesc, itoa(sid))
		if err != nil {
			return err
		}
		outputs = append(outputs, tsNet)
	}
	dataQueue, err := g.newQueueWithSourceID(inputDesc, sid)
	if err != nil {
		return err
	}
	reqNet, err := g.newNetwork(reqDesc, g.appID)
	if err != nil {
		return err
	}
	attrs := map[string]any{"source_id": sid, "detector_id": uint32(1)}
	if !v.postProcessed {
		attrs["post_processing_enabled"] = false
	}
	if _, err := g.newModule(module{
		class:      dlhClass,
		id:         "DLH-" + itoa(sid),
		moduleConf: dlhModuleConf,
		attrs:      attrs,
		inputs:     []*confdb.Object{dataQueue, reqNet},
		outputs:    outputs,
	}); err != nil {
		return err
	}

	hsiNet, err := g.newNetwork(hsiDesc, "")
	if err != nil {
		return err
	}
	_, err = g.newModule(module{
		class:   v.genClass,
		id:      v.genPrefix + itoa(sid),
		conf:    genConf,
		outputs: []*confdb.Object{dataQueue, hsiNet},
	})
	return err
}

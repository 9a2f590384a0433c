package appmodel

import (
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// generateDataflow creates the trigger record builder and the data writer of
// a dataflow application. The builder sends data requests to every readout
// application of the session.
func generateDataflow(g *generation, app *dal.SmartDaqApplication) error {
	trbConf, err := app.Conf("trb")
	if err != nil {
		return err
	}
	if trbConf == nil {
		return badConf("no TRB configuration given")
	}
	dwConf, err := app.Conf("data_writer")
	if err != nil {
		return err
	}
	if dwConf == nil {
		return badConf("no DataWriter configuration given")
	}

	qrules, err := queueRules(app)
	if err != nil {
		return err
	}
	var trDesc *dal.QueueDescriptor
	for _, r := range qrules {
		if r.destination == "DataWriterModule" {
			trDesc = r.desc
		}
	}
	if trDesc == nil {
		return badConf("could not find queue descriptor rule for TriggerRecords")
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	fragDesc := networkByDataType(nrules, "Fragment")
	if fragDesc == nil {
		return badConf("could not find network descriptor rule for input Fragments")
	}
	tdDesc := networkByDataType(nrules, "TriggerDecision")
	if tdDesc == nil {
		return badConf("could not find network descriptor rule for input TriggerDecisions")
	}
	tokenDesc := networkByDataType(nrules, "TriggerDecisionToken")
	if tokenDesc == nil {
		return badConf("could not find network descriptor rule for output TriggerDecisionTokens")
	}

	trQueue, err := g.newQueue(trDesc, g.appID)
	if err != nil {
		return err
	}
	fragNet, err := g.newNetwork(fragDesc, g.appID)
	if err != nil {
		return err
	}
	tdNet, err := g.newNetwork(tdDesc, g.appID)
	if err != nil {
		return err
	}
	tokenNet, err := g.newNetwork(tokenDesc, "")
	if err != nil {
		return err
	}

	trbOutputs := []*confdb.Object{trQueue}
	apps, err := g.session.AllApplications()
	if err != nil {
		return err
	}
	for _, a := range apps {
		if !a.ConfigObject().Castable("ReadoutApplication") {
			continue
		}
		ro, err := dal.NewSmartDaqApplication(a.ConfigObject())
		if err != nil {
			return err
		}
		g.logger.Debug("Readout application in session.", "readout", ro.ID())
		roRules, err := networkRules(ro)
		if err != nil {
			return err
		}
		for _, r := range roRules {
			if r.dataType != "DataRequest" {
				continue
			}
			reqNet, err := g.newNetwork(r.desc, ro.ID())
			if err != nil {
				return err
			}
			trbOutputs = append(trbOutputs, reqNet)
		}
	}

	if _, err := g.newModule(module{
		class:   "TRBModule",
		id:      "trb-" + g.appID,
		conf:    trbConf,
		inputs:  []*confdb.Object{tdNet, fragNet},
		outputs: trbOutputs,
	}); err != nil {
		return err
	}

	if err := setWriterIdentifier(dwConf, g.appID+"_datawriter-"+g.appID); err != nil {
		return err
	}
	_, err = g.newModule(module{
		class:   "DataWriterModule",
		id:      "dw-" + g.appID,
		conf:    dwConf,
		inputs:  []*confdb.Object{trQueue},
		outputs: []*confdb.Object{tokenNet},
	})
	return err
}

// setWriterIdentifier stamps the filename parameters of a data writer
// configuration with the writer's identity.
func setWriterIdentifier(dwConf *dal.ModuleConf, identifier string) error {
	store, err := dwConf.ConfigObject().Object("data_store_params")
	if err != nil {
		return err
	}
	if store == nil {
		return badConf("data writer configuration %s has no data store parameters", dwConf)
	}
	params, err := store.Object("filename_params")
	if err != nil {
		return err
	}
	if params == nil {
		return badConf("data store %s has no filename parameters", store)
	}
	return params.SetByVal("writer_identifier", identifier)
}

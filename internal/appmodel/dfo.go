package appmodel

import (
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// generateDFO creates the dataflow orchestrator. It sends trigger decisions
// to every enabled dataflow application of the session.
func generateDFO(g *generation, app *dal.SmartDaqApplication) error {
	dfoConf, err := app.Conf("dfo")
	if err != nil {
		return err
	}
	if dfoConf == nil {
		return badConf("no DFOConf configuration given")
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	var inputs, outputs []*confdb.Object
	var tdIn, tokenIn, busyOut *confdb.Object
	for _, r := range nrules {
		conn, err := g.newNetwork(r.desc, "")
		if err != nil {
			return err
		}
		switch r.dataType {
		case "TriggerDecision":
			if r.endpoint == "DFOModule" {
				tdIn = conn
				inputs = append(inputs, conn)
			}
		case "TriggerDecisionToken":
			tokenIn = conn
			inputs = append(inputs, conn)
		case "TriggerInhibit":
			busyOut = conn
			outputs = append(outputs, conn)
		}
	}
	if tdIn == nil {
		return badConf("no TriggerDecision input connection descriptor given")
	}
	if busyOut == nil {
		return badConf("no TriggerInhibit output connection descriptor given")
	}
	if tokenIn == nil {
		return badConf("no TriggerDecisionToken input connection descriptor given")
	}

	apps, err := g.session.EnabledApplications()
	if err != nil {
		return err
	}
	for _, a := range apps {
		if !a.ConfigObject().Castable("DFApplication") {
			continue
		}
		df, err := dal.NewSmartDaqApplication(a.ConfigObject())
		if err != nil {
			return err
		}
		dfRules, err := networkRules(df)
		if err != nil {
			return err
		}
		for _, r := range dfRules {
			if r.dataType != "TriggerDecision" {
				continue
			}
			tdOut, err := g.newNetwork(r.desc, df.ID())
			if err != nil {
				return err
			}
			outputs = append(outputs, tdOut)
		}
	}

	_, err = g.newModule(module{
		class:   "DFOModule",
		id:      "DFO-" + g.appID,
		conf:    dfoConf,
		inputs:  inputs,
		outputs: outputs,
	})
	return err
}

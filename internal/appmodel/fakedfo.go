package appmodel

import (
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// generateFakeDFO creates a DFO broker and a fake DFO client answering its
// trigger decisions with tokens.
func generateFakeDFO(g *generation, app *dal.SmartDaqApplication) error {
	qrules, err := queueRules(app)
	if err != nil {
		return err
	}
	var tokenDesc, tdDesc *dal.QueueDescriptor
	for _, r := range qrules {
		switch r.destination {
		case "DFOBrokerModule":
			tokenDesc = r.desc
		case "FakeDFOClientModule":
			tdDesc = r.desc
		}
	}
	if tokenDesc == nil {
		return badConf("could not find queue descriptor rule for dataflow tokens")
	}
	if tdDesc == nil {
		return badConf("could not find queue descriptor rule for TriggerDecisions")
	}
	tokenQueue, err := g.newQueue(tokenDesc, g.appID)
	if err != nil {
		return err
	}
	tdQueue, err := g.newQueue(tdDesc, g.appID)
	if err != nil {
		return err
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	decDesc := networkByDataType(nrules, "DFODecision")
	if decDesc == nil {
		return badConf("could not find network descriptor rule for input DFODecisions")
	}
	hbDesc := networkByDataType(nrules, "DataflowHeartbeat")
	if hbDesc == nil {
		return badConf("could not find network descriptor rule for output DataflowHeartbeats")
	}
	decNet, err := g.newNetwork(decDesc, g.appID)
	if err != nil {
		return err
	}
	hbNet, err := g.newNetwork(hbDesc, "")
	if err != nil {
		return err
	}

	brokerConf, err := app.Conf("broker")
	if err != nil {
		return err
	}
	if brokerConf == nil {
		return badConf("no DFOBroker configuration given")
	}
	if _, err := g.newModule(module{
		class:   "DFOBrokerModule",
		id:      g.appID + "-dfobroker",
		conf:    brokerConf,
		inputs:  []*confdb.Object{decNet, tokenQueue},
		outputs: []*confdb.Object{hbNet, tdQueue},
	}); err != nil {
		return err
	}

	clientConf, err := app.Conf("dfoclient")
	if err != nil {
		return err
	}
	if clientConf == nil {
		return badConf("no FakeDFOClient configuration given")
	}
	_, err = g.newModule(module{
		class:   "FakeDFOClientModule",
		id:      g.appID + "-fakedfoclient",
		conf:    clientConf,
		inputs:  []*confdb.Object{tdQueue},
		outputs: []*confdb.Object{tokenQueue},
	})
	return err
}

package appmodel

import (
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// generateHSIEventToTC creates the subscriber translating HSI events into
// trigger candidates.
func generateHSIEventToTC(g *generation, app *dal.SmartDaqApplication) error {
	conf, err := app.Conf("hsevent_to_tc_conf")
	if err != nil {
		return err
	}
	if conf == nil {
		return badConf("no HSI2TCTranslatorConf configuration given")
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	var in, out *confdb.Object
	for _, r := range nrules {
		switch r.dataType {
		case "HSIEvent":
			if in, err = g.newNetwork(r.desc, ""); err != nil {
				return err
			}
		case "TriggerCandidate":
			if out, err = g.newNetwork(r.desc, g.appID); err != nil {
				return err
			}
		}
	}
	if in == nil {
		return badConf("no HSIEvent input connection descriptor given")
	}
	if out == nil {
		return badConf("no TriggerCandidate output connection descriptor given")
	}

	_, err = g.newModule(module{
		class:   "DataSubscriberModule",
		id:      "module-" + g.appID,
		conf:    conf,
		inputs:  []*confdb.Object{in},
		outputs: []*confdb.Object{out},
	})
	return err
}

package appmodel

import (
	"fmt"

	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// generateTPWriter creates a TP stream writer subscribed to every TPSet
// publisher.
func generateTPWriter(g *generation, app *dal.SmartDaqApplication) error {
	conf, err := app.Conf("tp_writer")
	if err != nil {
		return err
	}
	if conf == nil {
		return badConf("no TPStreamWriterModule configuration given")
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	tpsetDesc := networkByDataType(nrules, "TPSet")
	if tpsetDesc == nil {
		return badConf("no network descriptor given to receive TPSets")
	}
	_, sid, err := sourceID(app)
	if err != nil {
		return err
	}

	tpsetNet, err := g.newNetwork(tpsetDesc, ".*")
	if err != nil {
		return err
	}
	_, err = g.newModule(module{
		class: "TPStreamWriterModule",
		id:    "tpwriter-" + itoa(sid),
		conf:  conf,
		attrs: map[string]any{
			"source_id":         sid,
			"writer_identifier": fmt.Sprintf("%s_tpw_%d", g.appID, sid),
		},
		inputs: []*confdb.Object{tpsetNet},
	})
	return err
}

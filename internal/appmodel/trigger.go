package appmodel

import (
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// triggerNets are the network descriptors of a trigger application.
type triggerNets struct {
	req, tin, tout, tsetOut *dal.NetworkConnectionDescriptor
	handler                 string
}

// classifyTriggerNets sorts the network rules of a trigger application into
// the request input, the trigger object input and output, and the optional
// TASet/TCSet output. The handler name follows from the trigger object
// types.
func classifyTriggerNets(rules []networkRule) (triggerNets, error) {
	var n triggerNets
	for _, r := range rules {
		switch {
		case r.dataType == "DataRequest":
			n.req = r.desc
		case r.dataType == "TASet" || r.dataType == "TCSet":
			n.tsetOut = r.desc
		case r.endpoint == "DataSubscriberModule":
			if n.tin == nil {
				n.tin = r.desc
				continue
			}
			tinType, err := n.tin.DataType()
			if err != nil {
				return n, err
			}
			switch {
			case r.dataType == tinType:
				return n, badConf("two network connections of data type %s with the same endpoint class", tinType)
			case tinType == "TriggerActivity" && r.dataType == "TriggerCandidate":
				n.tout = r.desc
				n.handler = "tahandler"
			case tinType == "TriggerCandidate" && r.dataType == "TriggerActivity":
				n.tout, n.tin = n.tin, r.desc
				n.handler = "tahandler"
			default:
				return n, badConf("unexpected input and output network connection descriptors")
			}
		case r.dataType == "TriggerActivity":
			n.tout = r.desc
			n.handler = "tphandler"
		case r.dataType == "TriggerCandidate":
			n.tout = r.desc
			n.handler = "tahandler"
		}
	}
	return n, nil
}

// generateTrigger creates the trigger input handler of a trigger application
// and the data subscriber feeding it.
func generateTrigger(g *generation, app *dal.SmartDaqApplication) error {
	tiConf, err := app.Conf("trigger_inputs_handler")
	if err != nil {
		return err
	}
	tiClass, err := templateFor(tiConf, "trigger inputs handler")
	if err != nil {
		return err
	}

	qrules, err := queueRules(app)
	if err != nil {
		return err
	}
	var inputDesc *dal.QueueDescriptor
	for _, r := range qrules {
		if r.destination == "DataHandlerModule" || r.destination == tiClass {
			inputDesc = r.desc
		}
	}

	nrules, err := networkRules(app)
	if err != nil {
		return err
	}
	nets, err := classifyTriggerNets(nrules)
	if err != nil {
		return err
	}
	if nets.req == nil {
		return badConf("no network descriptor given to receive requests and send data")
	}
	if nets.tin == nil {
		return badConf("no network descriptor given to receive trigger objects")
	}
	if nets.tout == nil {
		return badConf("no network descriptor given to publish trigger objects")
	}
	if inputDesc == nil {
		return badConf("no data input queue descriptor given")
	}

	inputQueue, err := g.newQueue(inputDesc, "")
	if err != nil {
		return err
	}
	reqNet, err := g.newNetwork(nets.req, g.appID)
	if err != nil {
		return err
	}
	tinNet, err := g.newNetwork(nets.tin, ".*")
	if err != nil {
		return err
	}
	toutNet, err := g.newNetwork(nets.tout, g.appID)
	if err != nil {
		return err
	}
	outputs := []*confdb.Object{toutNet}
	if nets.tsetOut != nil {
		tsetNet, err := g.newNetwork(nets.tsetOut, g.appID)
		if err != nil {
			return err
		}
		outputs = append(outputs, tsetNet)
	}

	_, sid, err := sourceID(app)
	if err != nil {
		return err
	}
	if _, err := g.newModule(module{
		class:      tiClass,
		id:         nets.handler + "-" + itoa(sid),
		moduleConf: tiConf,
		attrs:      map[string]any{"source_id": sid},
		inputs:     []*confdb.Object{inputQueue, reqNet},
		outputs:    outputs,
	}); err != nil {
		return err
	}

	subConf, err := app.Conf("data_subscriber")
	if err != nil {
		return err
	}
	subClass, err := templateFor(subConf, "data subscriber")
	if err != nil {
		return err
	}
	_, err = g.newModule(module{
		class:   subClass,
		id:      "data-reader-" + g.appID,
		conf:    subConf,
		inputs:  []*confdb.Object{tinNet},
		outputs: []*confdb.Object{inputQueue},
	})
	return err
}

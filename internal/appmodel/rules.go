package appmodel

import (
	"github.com/vk/appmodel/internal/dal"
)

// queueRule is a resolved QueueConnectionRule.
type queueRule struct {
	destination string
	dataType    string
	desc        *dal.QueueDescriptor
}

// networkRule is a resolved NetworkConnectionRule.
type networkRule struct {
	endpoint string
	dataType string
	desc     *dal.NetworkConnectionDescriptor
}

func queueRules(app *dal.SmartDaqApplication) ([]queueRule, error) {
	rules, err := app.QueueRules()
	if err != nil {
		return nil, err
	}
	out := make([]queueRule, 0, len(rules))
	for _, r := range rules {
		dest, err := r.DestinationClass()
		if err != nil {
			return nil, err
		}
		desc, err := r.Descriptor()
		if err != nil {
			return nil, err
		}
		if desc == nil {
			return nil, badConf("queue rule %s has no descriptor", r)
		}
		dataType, err := desc.DataType()
		if err != nil {
			return nil, err
		}
		out = append(out, queueRule{destination: dest, dataType: dataType, desc: desc})
	}
	return out, nil
}

func networkRules(app *dal.SmartDaqApplication) ([]networkRule, error) {
	rules, err := app.NetworkRules()
	if err != nil {
		return nil, err
	}
	out := make([]networkRule, 0, len(rules))
	for _, r := range rules {
		endpoint, err := r.EndpointClass()
		if err != nil {
			return nil, err
		}
		desc, err := r.Descriptor()
		if err != nil {
			return nil, err
		}
		if desc == nil {
			return nil, badConf("network rule %s has no descriptor", r)
		}
		dataType, err := desc.DataType()
		if err != nil {
			return nil, err
		}
		out = append(out, networkRule{endpoint: endpoint, dataType: dataType, desc: desc})
	}
	return out, nil
}

// networkByDataType returns the descriptor of the last rule carrying
// dataType, or nil.
func networkByDataType(rules []networkRule, dataType string) *dal.NetworkConnectionDescriptor {
	var found *dal.NetworkConnectionDescriptor
	for _, r := range rules {
		if r.dataType == dataType {
			found = r.desc
		}
	}
	return found
}

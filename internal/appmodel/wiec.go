package appmodel

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
)

// wibHost collects the Hermes senders controlled through one WIB host.
type wibHost struct {
	senders     []*confdb.Object
	destination *dal.NetworkInterface
}

// generateWIEC creates a WIB module and a Hermes module per control host of
// the Hermes senders in the enabled connections, in host order.
func generateWIEC(g *generation, app *dal.SmartDaqApplication) error {
	hosts, err := wiecHosts(g, app)
	if err != nil {
		return err
	}

	wibObj, err := app.ConfigObject().Object("wib_module_conf")
	if err != nil {
		return err
	}
	hermesObj, err := app.ConfigObject().Object("hermes_module_conf")
	if err != nil {
		return err
	}

	for _, host := range slices.Sorted(maps.Keys(hosts)) {
		g.logger.Debug("Processing control host.", "host", host, "senders", len(hosts[host].senders))
		if wibObj != nil {
			if err := newWIBModule(g, wibObj, host); err != nil {
				return err
			}
		}
		if hermesObj != nil {
			if err := newHermesModule(g, hermesObj, host, hosts[host]); err != nil {
				return err
			}
		}
	}
	return nil
}

func wiecHosts(g *generation, app *dal.SmartDaqApplication) (map[string]*wibHost, error) {
	contained, err := app.ConfigObject().Objects("contains")
	if err != nil {
		return nil, err
	}
	hosts := make(map[string]*wibHost)
	for _, res := range contained {
		off, err := g.disabled(res)
		if err != nil {
			return nil, err
		}
		if off {
			g.logger.Debug("Ignoring disabled DetectorToDaqConnection.", "connection", res.ID())
			continue
		}
		d2d, err := detectorToDaq(res, app)
		if err != nil {
			return nil, err
		}

		recv, err := d2d.Receiver()
		if err != nil {
			return nil, err
		}
		if recv == nil || !recv.Castable("NWDetDataReceiver") {
			return nil, badConf("WIEC application requires a NWDetDataReceiver in %s, found %v", d2d.ID(), recv)
		}
		nwRecv, err := dal.NewNWDetDataReceiver(recv)
		if err != nil {
			return nil, err
		}
		iface, err := nwRecv.Uses()
		if err != nil {
			return nil, err
		}

		senders, err := d2d.Senders()
		if err != nil {
			return nil, err
		}
		for _, s := range senders {
			if !s.Castable("HermesDataSender") {
				return nil, badConf("data sender %s is not a HermesDataSender", s)
			}
			hs, err := dal.NewHermesDataSender(s)
			if err != nil {
				return nil, err
			}
			host, err := hs.ControlHost()
			if err != nil {
				return nil, err
			}
			h, ok := hosts[host]
			if !ok {
				h = &wibHost{destination: iface}
				hosts[host] = h
			}
			h.senders = append(h.senders, s)
		}
	}
	return hosts, nil
}

func newWIBModule(g *generation, confObj *confdb.Object, host string) error {
	conf, err := dal.NewWIBModuleConf(confObj)
	if err != nil {
		return err
	}
	commType, err := conf.CommunicationType()
	if err != nil {
		return err
	}
	port, err := conf.CommunicationPort()
	if err != nil {
		return err
	}
	settings, err := conf.Settings()
	if err != nil {
		return err
	}
	_, err = g.newModule(module{
		class: "WIBModule",
		id:    fmt.Sprintf("wib-ctrl-%s-%s", g.appID, host),
		attrs: map[string]any{"wib_addr": fmt.Sprintf("%s://%s:%d", commType, host, port)},
		rel:   map[string]*confdb.Object{"conf": settings},
	})
	return err
}

func newHermesModule(g *generation, confObj *confdb.Object, host string, h *wibHost) error {
	conf, err := dal.NewHermesModuleConf(confObj)
	if err != nil {
		return err
	}
	ipbusType, err := conf.IpbusType()
	if err != nil {
		return err
	}
	port, err := conf.IpbusPort()
	if err != nil {
		return err
	}
	timeout, err := conf.IpbusTimeoutMS()
	if err != nil {
		return err
	}
	table, err := conf.AddressTable()
	if err != nil {
		return err
	}
	if h.destination == nil {
		return badConf("the receiver of the senders on %s uses no network interface", host)
	}
	_, err = g.newModule(module{
		class: "HermesModule",
		id:    fmt.Sprintf("hermes-ctrl-%s-%s", g.appID, host),
		attrs: map[string]any{
			"uri":        fmt.Sprintf("%s://%s:%d", ipbusType, host, port),
			"timeout_ms": timeout,
		},
		rel: map[string]*confdb.Object{
			"address_table": table,
			"destination":   h.destination.ConfigObject(),
		},
		rels: map[string][]*confdb.Object{"links": h.senders},
	})
	return err
}

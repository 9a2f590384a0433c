package appmodel_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/appmodel/internal/appmodel"
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/dal"
	"github.com/vk/appmodel/internal/testutil"
)

// generate runs the default factory for one application of the fixture
// session.
func generate(t *testing.T, db *confdb.Configuration, class, id string) ([]dal.Object, error) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	app, err := dal.Get(db, class, id)
	require.NoError(t, err)
	session, err := dal.Get(db, "Session", testutil.SessionID)
	require.NoError(t, err)
	return appmodel.GenerateModules(ctx, db, app, session)
}

func mustGenerate(t *testing.T, db *confdb.Configuration, class, id string) []dal.Object {
	t.Helper()
	modules, err := generate(t, db, class, id)
	require.NoError(t, err)
	return modules
}

// refs renders objects as id@Class.
func refs(objs []dal.Object) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.ID()+"@"+o.ClassName())
	}
	return out
}

func diff(t *testing.T, want, got any, what string) {
	t.Helper()
	if d := cmp.Diff(want, got, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", what, d)
	}
}

// wiring holds the connections and configurations of a generated module.
type wiring struct {
	Inputs, Outputs  []string
	Conf, ModuleConf string
}

func wiringOf(t *testing.T, db *confdb.Configuration, class, id string) wiring {
	t.Helper()
	obj := testutil.MustGet(t, db, class, id)
	w := wiring{
		Inputs:  testutil.RelatedIDs(t, obj, "inputs"),
		Outputs: testutil.RelatedIDs(t, obj, "outputs"),
	}
	if ids := testutil.RelatedIDs(t, obj, "configuration"); len(ids) > 0 {
		w.Conf = ids[0]
	}
	if ids := testutil.RelatedIDs(t, obj, "module_configuration"); len(ids) > 0 {
		w.ModuleConf = ids[0]
	}
	return w
}

func TestGenerate_Readout(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "ReadoutApplication", "ru-01")

	diff(t, []string{
		"datareader-ru-01-0@FakeCardReaderModule",
		"tphandler-1000@TriggerDataHandlerModule",
		"DLH-100@DataHandlerModule",
		"DLH-102@DataHandlerModule",
	}, refs(modules), "modules")
	assert.IsType(t, &dal.DaqModule{}, modules[0])
	assert.NotContains(t, refs(modules), "fragmentaggregator-ru-01@FragmentAggregatorModule",
		"the fragment aggregator is created but not returned")

	diff(t, wiring{
		Outputs: []string{"raw-input-100", "raw-input-102"},
		Conf:    "reader-conf",
	}, wiringOf(t, db, "DaqModule", "datareader-ru-01-0"), "reader")
	reader := testutil.MustGet(t, db, "DaqModule", "datareader-ru-01-0")
	assert.Equal(t, []string{"d2d-01"}, testutil.RelatedIDs(t, reader, "connections"))

	diff(t, wiring{
		Inputs:     []string{"tp-input", "data-requests-1000"},
		Outputs:    []string{"tpsets-from-ru-01", "tas-from-ru-01", "fragment-queue"},
		ModuleConf: "tph-conf",
	}, wiringOf(t, db, "DaqModule", "tphandler-1000"), "TP handler")

	diff(t, wiring{
		Inputs:     []string{"raw-input-100", "data-requests-100"},
		Outputs:    []string{"fragment-queue", "timesync-100", "tp-input"},
		ModuleConf: "dlh-conf",
	}, wiringOf(t, db, "DaqModule", "DLH-100"), "DLH-100")
	dlh := testutil.MustGet(t, db, "DataHandlerModule", "DLH-100")
	assert.Equal(t, uint32(100), testutil.AttrUint32(t, dlh, "source_id"))
	assert.True(t, testutil.AttrBool(t, dlh, "emulation_mode"))
	assert.Equal(t, []string{"geo-100"}, testutil.RelatedIDs(t, dlh, "geo_id"))

	diff(t, wiring{
		Inputs:  []string{"data-requests-for-ru-01", "fragment-queue"},
		Outputs: []string{"data-requests-1000", "data-requests-100", "data-requests-102"},
	}, wiringOf(t, db, "DaqModule", "fragmentaggregator-ru-01"), "fragment aggregator")

	raw := testutil.MustGet(t, db, "QueueWithSourceId", "raw-input-102")
	assert.Equal(t, uint32(102), testutil.AttrUint32(t, raw, "source_id"))
	assert.Equal(t, uint32(1000), testutil.AttrUint32(t, raw, "capacity"))
	assert.Equal(t, "WIBEthFrame", testutil.AttrString(t, raw, "data_type"))

	tpQueue := testutil.MustGet(t, db, "Queue", "tp-input")
	assert.Equal(t, "kFollyMPMCQueue", testutil.AttrString(t, tpQueue, "queue_type"))
	assert.Equal(t, uint32(1), testutil.AttrUint32(t, tpQueue, "recv_timeout_ms"))

	tpset := testutil.MustGet(t, db, "NetworkConnection", "tpsets-from-ru-01")
	assert.Equal(t, "kPubSub", testutil.AttrString(t, tpset, "connection_type"))
	assert.Equal(t, []string{"svc-trigger"}, testutil.RelatedIDs(t, tpset, "associated_service"))

	_, err := db.Get("Queue", "raw-input-101")
	assert.ErrorIs(t, err, confdb.ErrNotFound, "disabled stream gets no queue")
	_, err = db.Get("Queue", "raw-input-200")
	assert.ErrorIs(t, err, confdb.ErrNotFound, "disabled connection gets no queue")

	for _, obj := range db.Created() {
		assert.Equal(t, db.ActiveDatabase(), obj.File(), "%s", obj)
	}
}

func TestGenerate_Readout_AllConnectionsDisabled(t *testing.T) {
	db := testutil.LoadSession(t)
	session := testutil.MustGet(t, db, "Session", testutil.SessionID)
	require.NoError(t, session.SetObjs("disabled", []*confdb.Object{
		testutil.MustGet(t, db, "DetectorToDaqConnection", "d2d-01"),
		testutil.MustGet(t, db, "DetectorToDaqConnection", "d2d-02"),
	}))

	modules := mustGenerate(t, db, "ReadoutApplication", "ru-01")
	diff(t, []string{
		"datareader-ru-01-0@FakeCardReaderModule",
		"tphandler-1000@TriggerDataHandlerModule",
	}, refs(modules), "modules")
	diff(t, wiring{
		Inputs:  []string{"data-requests-for-ru-01", "fragment-queue"},
		Outputs: []string{"data-requests-1000"},
	}, wiringOf(t, db, "DaqModule", "fragmentaggregator-ru-01"), "fragment aggregator")
}

func TestGenerate_Readout_WithoutTPHandler(t *testing.T) {
	db := testutil.LoadSession(t)
	require.NoError(t, testutil.MustGet(t, db, "ReadoutApplication", "ru-01").SetObj("tp_handler", nil))

	modules := mustGenerate(t, db, "ReadoutApplication", "ru-01")
	diff(t, []string{
		"datareader-ru-01-0@FakeCardReaderModule",
		"DLH-100@DataHandlerModule",
		"DLH-102@DataHandlerModule",
	}, refs(modules), "modules")
	diff(t, []string{"fragment-queue", "timesync-100"},
		wiringOf(t, db, "DaqModule", "DLH-100").Outputs, "DLH-100 outputs")
}

func TestGenerate_Dataflow(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "DFApplication", "df-01")

	diff(t, []string{"trb-df-01@TRBModule", "dw-df-01@DataWriterModule"}, refs(modules), "modules")
	diff(t, wiring{
		Inputs:  []string{"td-to-df-01", "fragments-to-df-01"},
		Outputs: []string{"trigger-records-df-01", "data-requests-for-ru-01"},
		Conf:    "trb-conf",
	}, wiringOf(t, db, "DaqModule", "trb-df-01"), "TRB")
	diff(t, wiring{
		Inputs:  []string{"trigger-records-df-01"},
		Outputs: []string{"dataflow-tokens"},
		Conf:    "dw-conf",
	}, wiringOf(t, db, "DaqModule", "dw-df-01"), "data writer")

	params := testutil.MustGet(t, db, "FilenameParams", "fn-params")
	assert.Equal(t, "df-01_datawriter-df-01", testutil.AttrString(t, params, "writer_identifier"))
}

func TestGenerate_DFO(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "DFOApplication", "dfo-01")

	diff(t, []string{"DFO-dfo-01@DFOModule"}, refs(modules), "modules")
	diff(t, wiring{
		Inputs:  []string{"td-dfo", "dataflow-tokens"},
		Outputs: []string{"trigger-inhibit", "td-to-df-01"},
		Conf:    "dfo-conf",
	}, wiringOf(t, db, "DaqModule", "DFO-dfo-01"), "DFO")
}

func TestGenerate_DFO_SkipsDisabledDataflow(t *testing.T) {
	db := testutil.LoadSession(t)
	session := testutil.MustGet(t, db, "Session", testutil.SessionID)
	require.NoError(t, session.SetObjs("disabled", []*confdb.Object{
		testutil.MustGet(t, db, "DFApplication", "df-01"),
	}))

	mustGenerate(t, db, "DFOApplication", "dfo-01")
	diff(t, []string{"trigger-inhibit"}, wiringOf(t, db, "DaqModule", "DFO-dfo-01").Outputs, "DFO outputs")
}

func TestGenerate_TPWriter(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "TPStreamWriterApplication", "tpw-01")

	diff(t, []string{"tpwriter-500@TPStreamWriterModule"}, refs(modules), "modules")
	diff(t, wiring{Inputs: []string{"tpsets-from-.*"}, Conf: "tpw-conf"},
		wiringOf(t, db, "DaqModule", "tpwriter-500"), "TP writer")
	w := testutil.MustGet(t, db, "TPStreamWriterModule", "tpwriter-500")
	assert.Equal(t, uint32(500), testutil.AttrUint32(t, w, "source_id"))
	assert.Equal(t, "tpw-01_tpw_500", testutil.AttrString(t, w, "writer_identifier"))
}

func TestGenerate_Trigger(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "TriggerApplication", "trg-01")

	diff(t, []string{
		"tahandler-600@TriggerDataHandlerModule",
		"data-reader-trg-01@DataSubscriberModule",
	}, refs(modules), "modules")
	diff(t, wiring{
		Inputs:     []string{"ta-input", "trg-requests-trg-01"},
		Outputs:    []string{"tcs-from-trg-01"},
		ModuleConf: "tah-conf",
	}, wiringOf(t, db, "DaqModule", "tahandler-600"), "TA handler")
	diff(t, wiring{
		Inputs:  []string{"tas-from-.*"},
		Outputs: []string{"ta-input"},
		Conf:    "sub-conf",
	}, wiringOf(t, db, "DaqModule", "data-reader-trg-01"), "subscriber")
}

func TestGenerate_Trigger_NetworkRuleCombinations(t *testing.T) {
	testCases := []struct {
		name    string
		rules   []string
		handler string
		wantErr bool
	}{
		{name: "TC rule first", rules: []string{"nr-trg-req", "nr-tc-net", "nr-ta-net"}, handler: "tahandler-600"},
		{name: "same data type twice", rules: []string{"nr-trg-req", "nr-ta-net", "nr-ta-net"}, wantErr: true},
		{name: "unexpected pair", rules: []string{"nr-trg-req", "nr-ta-net", "nr-hsievent"}, wantErr: true},
		{name: "no request rule", rules: []string{"nr-ta-net", "nr-tc-net"}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.LoadSession(t)
			var rules []*confdb.Object
			for _, id := range tc.rules {
				rules = append(rules, testutil.MustGet(t, db, "NetworkConnectionRule", id))
			}
			require.NoError(t, testutil.MustGet(t, db, "TriggerApplication", "trg-01").SetObjs("network_rules", rules))

			modules, err := generate(t, db, "TriggerApplication", "trg-01")
			if tc.wantErr {
				assert.ErrorIs(t, err, appmodel.ErrBadConf)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.handler, modules[0].ID())
			diff(t, []string{"tas-from-.*"}, wiringOf(t, db, "DaqModule", "data-reader-trg-01").Inputs, "subscriber inputs")
		})
	}
}

func TestGenerate_MLT(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "MLTApplication", "mlt-01")

	diff(t, []string{
		"rtcm-conf@RandomTCMakerModule",
		"data-reader-mlt-01@DataSubscriberModule",
		"tch-conf-700@TriggerDataHandlerModule",
		"mlt-conf@MLTModule",
	}, refs(modules), "modules")

	diff(t, wiring{
		Inputs:  []string{"timesync-.*"},
		Outputs: []string{"tc-input"},
		Conf:    "rtcm-conf",
	}, wiringOf(t, db, "DaqModule", "rtcm-conf"), "TC maker")
	diff(t, wiring{
		Inputs:  []string{"tcs-from-.*"},
		Outputs: []string{"tc-input"},
		Conf:    "sub-conf",
	}, wiringOf(t, db, "DaqModule", "data-reader-mlt-01"), "subscriber")
	diff(t, wiring{
		Inputs:     []string{"tc-input", "mlt-requests-mlt-01"},
		Outputs:    []string{"td-input"},
		ModuleConf: "tch-conf",
	}, wiringOf(t, db, "DaqModule", "tch-conf-700"), "TC handler")
	diff(t, wiring{
		Inputs:  []string{"td-input", "trigger-inhibit"},
		Outputs: []string{"td-dfo"},
		Conf:    "mlt-conf",
	}, wiringOf(t, db, "DaqModule", "mlt-conf"), "MLT")

	tch := testutil.MustGet(t, db, "TriggerDataHandlerModule", "tch-conf-700")
	diff(t, []string{
		"trg-01-600",
		"mlt-01-700",
		"hsi-01-800",
		"dtshsi-01-900",
		"dro-mlt-stream-config-100",
		"dro-mlt-stream-config-102",
		"ru-01-1000",
	}, testutil.RelatedIDs(t, tch, "enabled_source_ids"), "enabled source ids")
	assert.Equal(t, []string{"sid-trg"}, testutil.RelatedIDs(t, tch, "mandatory_source_ids"))
	assert.Equal(t, uint32(700), testutil.AttrUint32(t, tch, "source_id"))

	stream := testutil.MustGet(t, db, "SourceIDConf", "dro-mlt-stream-config-102")
	assert.Equal(t, uint32(102), testutil.AttrUint32(t, stream, "sid"))
	assert.Equal(t, "Detector_Readout", testutil.AttrString(t, stream, "subsystem"))
	hsi := testutil.MustGet(t, db, "SourceIDConf", "hsi-01-800")
	assert.Equal(t, "HW_Signals_Interface", testutil.AttrString(t, hsi, "subsystem"))
}

func TestGenerate_MLT_StreamWithoutGeoID(t *testing.T) {
	db := testutil.LoadSession(t)
	require.NoError(t, testutil.MustGet(t, db, "DetectorStream", "stream-102").SetObj("geo_id", nil))

	mustGenerate(t, db, "MLTApplication", "mlt-01")
	tch := testutil.MustGet(t, db, "TriggerDataHandlerModule", "tch-conf-700")
	assert.Contains(t, testutil.RelatedIDs(t, tch, "enabled_source_ids"), "dro-mlt-stream-config-102")
}

func TestGenerate_MLT_WithoutTimeSync(t *testing.T) {
	db := testutil.LoadSession(t)
	var rules []*confdb.Object
	for _, id := range []string{"nr-inhibit", "nr-td-dfo", "nr-tc-net", "nr-mlt-req"} {
		rules = append(rules, testutil.MustGet(t, db, "NetworkConnectionRule", id))
	}
	require.NoError(t, testutil.MustGet(t, db, "MLTApplication", "mlt-01").SetObjs("network_rules", rules))

	mustGenerate(t, db, "MLTApplication", "mlt-01")
	assert.Empty(t, wiringOf(t, db, "DaqModule", "rtcm-conf").Inputs)
}

func TestGenerate_HSI(t *testing.T) {
	testCases := []struct {
		class, id     string
		modules       []string
		dlh           string
		input         string
		generator     string
		postProcessed bool
	}{
		{
			class:         "FakeHSIApplication",
			id:            "hsi-01",
			modules:       []string{"DLH-800@DataHandlerModule", "FakeHSI-800@FakeHSIEventGeneratorModule"},
			dlh:           "DLH-800",
			input:         "hsi-input-800",
			generator:     "FakeHSI-800",
			postProcessed: true,
		},
		{
			class:     "DTSHSIApplication",
			id:        "dtshsi-01",
			modules:   []string{"DLH-900@DataHandlerModule", "HSI-900@HSIReadoutModule"},
			dlh:       "DLH-900",
			input:     "hsi-input-900",
			generator: "HSI-900",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.class, func(t *testing.T) {
			db := testutil.LoadSession(t)
			modules := mustGenerate(t, db, tc.class, tc.id)
			diff(t, tc.modules, refs(modules), "modules")

			w := wiringOf(t, db, "DaqModule", tc.dlh)
			diff(t, []string{tc.input, "hsi-requests-" + tc.id}, w.Inputs, "DLH inputs")
			assert.Len(t, w.Outputs, 1)
			assert.Equal(t, "hsi-dlh-conf", w.ModuleConf)

			dlh := testutil.MustGet(t, db, "DataHandlerModule", tc.dlh)
			assert.Equal(t, uint32(1), testutil.AttrUint32(t, dlh, "detector_id"))
			assert.Equal(t, tc.postProcessed, testutil.AttrBool(t, dlh, "post_processing_enabled"))

			diff(t, []string{tc.input, "hsi-events"},
				wiringOf(t, db, "DaqModule", tc.generator).Outputs, "generator outputs")
		})
	}
}

func TestGenerate_HSIEventToTC(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "HSIEventToTCApplication", "hsi2tc-01")

	diff(t, []string{"module-hsi2tc-01@DataSubscriberModule"}, refs(modules), "modules")
	diff(t, wiring{
		Inputs:  []string{"hsi-events"},
		Outputs: []string{"tcs-from-hsi2tc-01"},
		Conf:    "hsi2tc-conf",
	}, wiringOf(t, db, "DaqModule", "module-hsi2tc-01"), "translator")
}

func TestGenerate_WIEC(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "WIECApplication", "wiec-01")

	diff(t, []string{
		"wib-ctrl-wiec-01-wib-0@WIBModule",
		"hermes-ctrl-wiec-01-wib-0@HermesModule",
		"wib-ctrl-wiec-01-wib-1@WIBModule",
		"hermes-ctrl-wiec-01-wib-1@HermesModule",
	}, refs(modules), "modules")

	wib := testutil.MustGet(t, db, "WIBModule", "wib-ctrl-wiec-01-wib-0")
	assert.Equal(t, "tcp://wib-0:1234", testutil.AttrString(t, wib, "wib_addr"))
	assert.Equal(t, []string{"wib-settings"}, testutil.RelatedIDs(t, wib, "conf"))

	hermes := testutil.MustGet(t, db, "HermesModule", "hermes-ctrl-wiec-01-wib-1")
	assert.Equal(t, "ipbusudp-2.0://wib-1:50001", testutil.AttrString(t, hermes, "uri"))
	assert.Equal(t, uint32(1000), testutil.AttrUint32(t, hermes, "timeout_ms"))
	assert.Equal(t, []string{"addr-table"}, testutil.RelatedIDs(t, hermes, "address_table"))
	assert.Equal(t, []string{"nic-01"}, testutil.RelatedIDs(t, hermes, "destination"))
	assert.Equal(t, []string{"hermes-a", "hermes-b"}, testutil.RelatedIDs(t, hermes, "links"))

	hermes0 := testutil.MustGet(t, db, "HermesModule", "hermes-ctrl-wiec-01-wib-0")
	assert.Equal(t, []string{"hermes-c"}, testutil.RelatedIDs(t, hermes0, "links"))
}

func TestGenerate_WIEC_DisabledConnection(t *testing.T) {
	db := testutil.LoadSession(t)
	session := testutil.MustGet(t, db, "Session", testutil.SessionID)
	require.NoError(t, session.SetObjs("disabled", []*confdb.Object{
		testutil.MustGet(t, db, "DetectorToDaqConnection", "d2d-wiec"),
	}))

	modules := mustGenerate(t, db, "WIECApplication", "wiec-01")
	assert.Empty(t, modules)
}

func TestGenerate_FakeDFO(t *testing.T) {
	db := testutil.LoadSession(t)
	modules := mustGenerate(t, db, "FakeDFOTestApplication", "fakedfo-01")

	diff(t, []string{
		"fakedfo-01-dfobroker@DFOBrokerModule",
		"fakedfo-01-fakedfoclient@FakeDFOClientModule",
	}, refs(modules), "modules")
	diff(t, wiring{
		Inputs:  []string{"dfo-decisions-fakedfo-01", "tokens-fakedfo-01"},
		Outputs: []string{"dataflow-heartbeats", "decisions-fakedfo-01"},
		Conf:    "broker-conf",
	}, wiringOf(t, db, "DaqModule", "fakedfo-01-dfobroker"), "broker")
	diff(t, wiring{
		Inputs:  []string{"decisions-fakedfo-01"},
		Outputs: []string{"tokens-fakedfo-01"},
		Conf:    "client-conf",
	}, wiringOf(t, db, "DaqModule", "fakedfo-01-fakedfoclient"), "client")
}

func TestGenerate_BadConf(t *testing.T) {
	testCases := []struct {
		name      string
		class, id string
		mutate    func(t *testing.T, db *confdb.Configuration)
	}{
		{
			name: "readout without data reader", class: "ReadoutApplication", id: "ru-01",
			mutate: clearRel("ReadoutApplication", "ru-01", "data_reader"),
		},
		{
			name: "readout without link handler", class: "ReadoutApplication", id: "ru-01",
			mutate: clearRel("ReadoutApplication", "ru-01", "link_handler"),
		},
		{
			name: "DPDK reader without DPDK receiver", class: "ReadoutApplication", id: "ru-01",
			mutate: func(t *testing.T, db *confdb.Configuration) {
				require.NoError(t, testutil.MustGet(t, db, "DataReaderConf", "reader-conf").SetByVal("template_for", "DPDKReaderModule"))
			},
		},
		{
			name: "readout without fragment queue rule", class: "ReadoutApplication", id: "ru-01",
			mutate: setRules("ReadoutApplication", "ru-01", "queue_rules", "QueueConnectionRule", "qr-raw", "qr-req", "qr-tp"),
		},
		{
			name: "dataflow without TRB", class: "DFApplication", id: "df-01",
			mutate: clearRel("DFApplication", "df-01", "trb"),
		},
		{
			name: "dataflow without trigger record queue", class: "DFApplication", id: "df-01",
			mutate: setRules("DFApplication", "df-01", "queue_rules", "QueueConnectionRule"),
		},
		{
			name: "DFO without inhibit rule", class: "DFOApplication", id: "dfo-01",
			mutate: setRules("DFOApplication", "dfo-01", "network_rules", "NetworkConnectionRule", "nr-td-dfo", "nr-token"),
		},
		{
			name: "TP writer without source id", class: "TPStreamWriterApplication", id: "tpw-01",
			mutate: clearRel("TPStreamWriterApplication", "tpw-01", "source_id"),
		},
		{
			name: "trigger without subscriber", class: "TriggerApplication", id: "trg-01",
			mutate: clearRel("TriggerApplication", "trg-01", "data_subscriber"),
		},
		{
			name: "MLT without MLT conf", class: "MLTApplication", id: "mlt-01",
			mutate: clearRel("MLTApplication", "mlt-01", "mlt_conf"),
		},
		{
			name: "MLT without TD queue rule", class: "MLTApplication", id: "mlt-01",
			mutate: setRules("MLTApplication", "mlt-01", "queue_rules", "QueueConnectionRule", "qr-tc"),
		},
		{
			name: "HSI without generator", class: "FakeHSIApplication", id: "hsi-01",
			mutate: clearRel("FakeHSIApplication", "hsi-01", "generator"),
		},
		{
			name: "HSI with time sync but no TimeSync rule", class: "DTSHSIApplication", id: "dtshsi-01",
			mutate: setRules("DTSHSIApplication", "dtshsi-01", "network_rules", "NetworkConnectionRule", "nr-hsi-req", "nr-hsievent"),
		},
		{
			name: "HSI to TC without output", class: "HSIEventToTCApplication", id: "hsi2tc-01",
			mutate: setRules("HSIEventToTCApplication", "hsi2tc-01", "network_rules", "NetworkConnectionRule", "nr-hsievent"),
		},
		{
			name: "WIEC with a non network receiver", class: "WIECApplication", id: "wiec-01",
			mutate: setRules("WIECApplication", "wiec-01", "contains", "DetectorToDaqConnection", "d2d-wiec", "d2d-01"),
		},
		{
			name: "fake DFO without client", class: "FakeDFOTestApplication", id: "fakedfo-01",
			mutate: clearRel("FakeDFOTestApplication", "fakedfo-01", "dfoclient"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.LoadSession(t)
			tc.mutate(t, db)
			_, err := generate(t, db, tc.class, tc.id)
			assert.ErrorIs(t, err, appmodel.ErrBadConf)
			assert.ErrorContains(t, err, "generating modules for "+tc.id+"@"+tc.class)
		})
	}
}

func TestGenerate_BadStreamConf(t *testing.T) {
	db := testutil.LoadSession(t)
	require.NoError(t, testutil.MustGet(t, db, "DetectorStream", "stream-102").SetObj("geo_id", nil))

	_, err := generate(t, db, "ReadoutApplication", "ru-01")
	assert.ErrorIs(t, err, appmodel.ErrBadStreamConf)
}

func TestGenerate_EveryApplicationOnItsOwnClone(t *testing.T) {
	db := testutil.LoadSession(t)
	ctx, _ := testutil.Context(t)
	session, err := dal.Get(db, "Session", testutil.SessionID)
	require.NoError(t, err)
	s := session.(*dal.Session)
	apps, err := s.EnabledApplications()
	require.NoError(t, err)

	for _, app := range apps {
		clone := db.Clone()
		modules, err := appmodel.GenerateModules(ctx, clone, app, session)
		require.NoError(t, err, "generating %s", app)
		assert.NotEmpty(t, modules, "%s", app)
	}
	assert.Empty(t, db.Created(), "clones leave the source database untouched")
}

func TestGenerate_SharedDatabaseCollides(t *testing.T) {
	db := testutil.LoadSession(t)
	mustGenerate(t, db, "FakeHSIApplication", "hsi-01")

	_, err := generate(t, db, "DTSHSIApplication", "dtshsi-01")
	assert.ErrorIs(t, err, confdb.ErrObjectExists, "both publish on hsi-events")
}

func TestGenerator_MissingApplicationOrSession(t *testing.T) {
	db := testutil.LoadSession(t)
	ctx, _ := testutil.Context(t)
	gen, ok := appmodel.DefaultFactory().Lookup("DFApplication")
	require.True(t, ok)

	_, err := gen(ctx, db, "", "nope", testutil.SessionID)
	assert.ErrorIs(t, err, confdb.ErrNotFound)

	_, err = gen(ctx, db, "", "df-01", "nope")
	assert.ErrorIs(t, err, confdb.ErrNotFound)
}

func clearRel(class, id, rel string) func(*testing.T, *confdb.Configuration) {
	return func(t *testing.T, db *confdb.Configuration) {
		require.NoError(t, testutil.MustGet(t, db, class, id).SetObj(rel, nil))
	}
}

func setRules(class, id, rel, targetClass string, targets ...string) func(*testing.T, *confdb.Configuration) {
	return func(t *testing.T, db *confdb.Configuration) {
		objs := []*confdb.Object{}
		for _, target := range targets {
			objs = append(objs, testutil.MustGet(t, db, targetClass, target))
		}
		require.NoError(t, testutil.MustGet(t, db, class, id).SetObjs(rel, objs))
	}
}

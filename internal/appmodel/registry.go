package appmodel

import "github.com/vk/appmodel/internal/dal"

type registration struct {
	class     string
	generator Generator
}

// coreGenerators is the dispatch table of DefaultFactory. A class appearing
// twice makes DefaultFactory panic.
var coreGenerators = []registration{
	{"ReadoutApplication", locate("ReadoutApplication", dal.NewReadoutApplication, generateReadout)},
	{"DFApplication", locate("DFApplication", dal.NewSmartDaqApplication, generateDataflow)},
	{"DFOApplication", locate("DFOApplication", dal.NewSmartDaqApplication, generateDFO)},
	{"TPStreamWriterApplication", locate("TPStreamWriterApplication", dal.NewSmartDaqApplication, generateTPWriter)},
	{"TriggerApplication", locate("TriggerApplication", dal.NewSmartDaqApplication, generateTrigger)},
	{"FakeHSIApplication", locate("FakeHSIApplication", dal.NewSmartDaqApplication, generateFakeHSI)},
	{"DTSHSIApplication", locate("DTSHSIApplication", dal.NewSmartDaqApplication, generateDTSHSI)},
	{"HSIEventToTCApplication", locate("HSIEventToTCApplication", dal.NewSmartDaqApplication, generateHSIEventToTC)},
	{"MLTApplication", locate("MLTApplication", dal.NewSmartDaqApplication, generateMLT)},
	{"WIECApplication", locate("WIECApplication", dal.NewSmartDaqApplication, generateWIEC)},
	{"FakeDFOTestApplication", locate("FakeDFOTestApplication", dal.NewSmartDaqApplication, generateFakeDFO)},
}

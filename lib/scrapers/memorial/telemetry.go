package memorial

import (
	"memorialcrawl/lib/restyutil"
	"memorialcrawl/lib/telemetry"
)

var tracer = telemetry.Tracer("memorialcrawl.lib.scrapers.memorial")
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

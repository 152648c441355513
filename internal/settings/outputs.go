package settings

// Output names a per-summary consumer stage.
type Output string

const (
	Eltcalc     Output = "eltcalc"
	Pltcalc     Output = "pltcalc"
	Summarycalc Output = "summarycalc"
	Aalcalc     Output = "aalcalc"
)

// Consumers lists every consumer in emission order. All fifo, tee, consumer
// and kat traversals use this order.
var Consumers = []Output{Eltcalc, Pltcalc, Summarycalc, Aalcalc}

// Merged reports whether per-process results of o are concatenated by kat.
// aalcalc writes binaries that aalsummary aggregates instead.
func (o Output) Merged() bool {
	return o != Aalcalc
}

// Tool returns the executable that reads the summary stream for o.
func (o Output) Tool() string {
	if o == Summarycalc {
		return "summarycalctocsv"
	}
	return string(o)
}

// LECOption maps a leccalc output key to its command-line switch.
type LECOption struct {
	Name   string
	Switch string
}

// LECOptions is the fixed, ordered leccalc output table.
var LECOptions = []LECOption{
	{Name: "full_uncertainty_aep", Switch: "-F"},
	{Name: "wheatsheaf_aep", Switch: "-W"},
	{Name: "sample_mean_aep", Switch: "-S"},
	{Name: "full_uncertainty_oep", Switch: "-f"},
	{Name: "wheatsheaf_oep", Switch: "-w"},
	{Name: "sample_mean_oep", Switch: "-s"},
	{Name: "wheatsheaf_mean_aep", Switch: "-M"},
	{Name: "wheatsheaf_mean_oep", Switch: "-m"},
}

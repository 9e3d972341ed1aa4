package models

// Metric is the performance axis a spec is ranked on.
type Metric string

// Known metrics. An unrecognized value from the addon defaults to MetricDPS.
const (
	MetricDPS Metric = "dps"
	MetricHPS Metric = "hps"
)

// ParseMetric converts a raw addon string to a Metric, defaulting to dps for
// anything unrecognized per spec §3.
func ParseMetric(raw string) Metric {
	if Metric(raw) == MetricHPS {
		return MetricHPS
	}
	return MetricDPS
}

// ClassSpec is one of up to five sub-disciplines of a class.
type ClassSpec struct {
	ID     int
	Name   string
	Slug   string
	Metric Metric
}

// Class is a reference entry from BaseData, keyed by class id.
type Class struct {
	ID    int
	Name  string
	Slug  string
	Specs map[int]ClassSpec // spec index (1..5) -> spec
}

// BaseData is the reference table loaded wholesale from the addon's
// LogTracker_BaseData dump. It is replaced in its entirety on every reload.
type BaseData struct {
	Classes        map[int]Class
	RegionByServer map[string]string // realm name -> LogService region code
}

// NewBaseData returns an empty, ready-to-populate BaseData.
func NewBaseData() BaseData {
	return BaseData{
		Classes:        make(map[int]Class),
		RegionByServer: make(map[string]string),
	}
}

// ClassByID looks up a class, reporting whether it is known.
func (b BaseData) ClassByID(id int) (Class, bool) {
	c, ok := b.Classes[id]
	return c, ok
}

// RegionFor returns the LogService region code for a realm name, or "" if
// unknown.
func (b BaseData) RegionFor(realm string) string {
	return b.RegionByServer[realm]
}

package domain

import (
	"math"
	"time"
)

// Provenance indicates where a metric value came from
type Provenance string

const (
	ProvenanceAPI       Provenance = "api"       // measured via an external API
	ProvenanceEstimated Provenance = "estimated" // derived from a heuristic
	ProvenanceMock      Provenance = "mock"      // fixed fallback default
)

// MetricStatus represents the lifecycle status of a metric record
type MetricStatus string

const (
	MetricStatusAvailable   MetricStatus = "available"
	MetricStatusUnavailable MetricStatus = "unavailable"
	MetricStatusPending     MetricStatus = "pending"
	MetricStatusError       MetricStatus = "error"
	MetricStatusOutdated    MetricStatus = "outdated"
)

// MetricRecord is a single named measurement. The value may be absent when no
// data point exists yet or the source failed; an absent value is never zero.
type MetricRecord struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Value     *float64     `json:"value,omitempty"`
	Unit      string       `json:"unit"`
	Timestamp time.Time    `json:"timestamp"`
	Source    Provenance   `json:"source"`
	Status    MetricStatus `json:"status"`
}

// NewMetric creates an available record carrying a value. Non-finite values
// are demoted to an error record, so an available record always holds a
// finite number.
func NewMetric(name string, value float64, unit string, source Provenance) MetricRecord {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MetricRecord{
			ID:        metricID(source, name),
			Name:      name,
			Unit:      unit,
			Timestamp: time.Now(),
			Source:    source,
			Status:    MetricStatusError,
		}
	}
	v := value
	return MetricRecord{
		ID:        metricID(source, name),
		Name:      name,
		Value:     &v,
		Unit:      unit,
		Timestamp: time.Now(),
		Source:    source,
		Status:    MetricStatusAvailable,
	}
}

// UnavailableMetric creates a record with no data point.
func UnavailableMetric(name, unit string) MetricRecord {
	return MetricRecord{
		ID:        metricID(ProvenanceMock, name),
		Name:      name,
		Unit:      unit,
		Timestamp: time.Now(),
		Source:    ProvenanceMock,
		Status:    MetricStatusUnavailable,
	}
}

// HasValue reports whether the record carries a usable measurement.
func (m MetricRecord) HasValue() bool {
	return m.Status == MetricStatusAvailable && m.Value != nil
}

// Float returns the value and whether it is present. Absent values read as
// "no data", never as zero.
func (m MetricRecord) Float() (float64, bool) {
	if !m.HasValue() {
		return 0, false
	}
	return *m.Value, true
}

func metricID(source Provenance, name string) string {
	return string(source) + "_" + name
}

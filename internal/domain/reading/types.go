package reading

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// SimulatedID marks a reading that was synthesized locally and never stored.
	SimulatedID = "simulated"
	// FallbackDeviceID tags readings synthesized because the store had none.
	FallbackDeviceID = "SIM-001"
	// DefaultDeviceID identifies the composter the simulator reports for.
	DefaultDeviceID = "ADUBA-001"
)

// CapacityStatus is the categorical fill level of the composter.
type CapacityStatus string

// Capacity levels.
const (
	CapacityLow    CapacityStatus = "Low"
	CapacityMedium CapacityStatus = "Medium"
	CapacityHigh   CapacityStatus = "High"
)

// Localized returns the label shown on the dashboard.
func (c CapacityStatus) Localized() string {
	switch c {
	case CapacityLow:
		return "Baixo"
	case CapacityHigh:
		return "Alto"
	default:
		return "Médio"
	}
}

// Valid reports whether c belongs to the closed set of levels.
func (c CapacityStatus) Valid() bool {
	return c == CapacityLow || c == CapacityMedium || c == CapacityHigh
}

// LookupCapacity accepts English or Portuguese labels in any case.
func LookupCapacity(raw string) (CapacityStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "baixo":
		return CapacityLow, true
	case "medium", "médio", "medio":
		return CapacityMedium, true
	case "high", "alto":
		return CapacityHigh, true
	default:
		return "", false
	}
}

// ParseCapacity is LookupCapacity for stored rows: unknown and empty values
// fall back to Medium so a row always renders.
func ParseCapacity(raw string) CapacityStatus {
	if c, ok := LookupCapacity(raw); ok {
		return c
	}
	return CapacityMedium
}

// Payload is the sensor part of a reading, without identity or timestamp.
type Payload struct {
	Humidity          int            `json:"humidity"`
	Temperature       int            `json:"temperature"`
	SoilHumidity      int            `json:"soil_humidity"`
	PHLevel           float64        `json:"ph_level"`
	ComposterRotation int            `json:"composter_rotation"`
	ReservoirRotation int            `json:"reservoir_rotation"`
	CapacityStatus    CapacityStatus `json:"capacity_status"`
}

// Reading is a single snapshot of composter sensor values.
type Reading struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	Payload
	RecordedAt time.Time `json:"recorded_at"`
}

// New stamps a payload with identity and recording time.
func New(id, deviceID string, p Payload, at time.Time) Reading {
	return Reading{ID: id, DeviceID: deviceID, Payload: p, RecordedAt: at.UTC()}
}

// Simulated reports whether r was synthesized and never persisted.
func (r Reading) Simulated() bool {
	return r.ID == SimulatedID
}

// Validate checks the domain constraints enforced before a reading is stored.
func (r Reading) Validate() error {
	var errs []error
	if strings.TrimSpace(r.DeviceID) == "" {
		errs = append(errs, errors.New("device_id cannot be empty"))
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		errs = append(errs, fmt.Errorf("humidity %d out of range 0-100", r.Humidity))
	}
	if r.SoilHumidity < 0 || r.SoilHumidity > 100 {
		errs = append(errs, fmt.Errorf("soil_humidity %d out of range 0-100", r.SoilHumidity))
	}
	if r.PHLevel < 0 || r.PHLevel > 14 {
		errs = append(errs, fmt.Errorf("ph_level %.1f out of range 0-14", r.PHLevel))
	}
	if r.ComposterRotation < 0 || r.ReservoirRotation < 0 {
		errs = append(errs, errors.New("rotation counters cannot be negative"))
	}
	if !r.CapacityStatus.Valid() {
		errs = append(errs, fmt.Errorf("capacity_status %q is not one of Low, Medium, High", r.CapacityStatus))
	}
	if r.RecordedAt.IsZero() {
		errs = append(errs, errors.New("recorded_at cannot be empty"))
	}
	return errors.Join(errs...)
}

// StatPoint is one entry of the statistics chart.
type StatPoint struct {
	Date        string  `json:"date"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
	PH          float64 `json:"ph"`
}

// Stats is the chart payload for the statistics screen.
type Stats struct {
	Days   int         `json:"days"`
	Sample bool        `json:"sample"`
	Points []StatPoint `json:"points"`
}

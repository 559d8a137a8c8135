// Package publish turns cluster snapshots into timestamped measurements and
// pushes them to a metrics sink on a fixed schedule.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Unit is the unit of a measurement value, using the sink's vocabulary.
type Unit string

const (
	UnitCount   Unit = "Count"
	UnitPercent Unit = "Percent"
	UnitSeconds Unit = "Seconds"
)

// Dimension is one key/value tag attached to a measurement for filtering
// and grouping in the backend.
type Dimension struct {
	Name  string
	Value string
}

// Measurement is one named, timestamped, dimensioned scalar observation.
type Measurement struct {
	Name       string
	Timestamp  time.Time
	Value      float64
	Unit       Unit
	Dimensions []Dimension
}

// Sink delivers measurement batches to the metrics backend. Implementations
// must reject batches larger than SinkBatchLimit.
type Sink interface {
	Submit(ctx context.Context, namespace string, measurements []Measurement) error
}

// ParseDimensions parses "Name=Value" entries as configured into ordered
// dimensions.
func ParseDimensions(entries []string) ([]Dimension, error) {
	dims := make([]Dimension, 0, len(entries))
	for _, e := range entries {
		name, value, ok := strings.Cut(e, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("dimension %q must have the form Name=Value", e)
		}
		dims = append(dims, Dimension{Name: name, Value: value})
	}
	return dims, nil
}

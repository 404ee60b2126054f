package reading

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Generator produces plausible composter readings from bounded uniform draws.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator wraps src; a nil src seeds from the clock.
func NewGenerator(src *rand.Rand) *Generator {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Generator{rnd: src}
}

// Generate draws every field independently. It cannot fail.
func (g *Generator) Generate() Payload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Payload{
		Humidity:          g.spread(55, 10),
		Temperature:       g.spread(60, 8),
		SoilHumidity:      g.spread(40, 20),
		PHLevel:           round1(7 + (g.rnd.Float64() - 0.5)),
		ComposterRotation: g.spread(15, 10),
		ReservoirRotation: g.spread(1, 4),
		CapacityStatus:    capacityFor(g.rnd.Float64()),
	}
}

// Float draws uniformly from [lo, lo+span).
func (g *Generator) Float(lo, span float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rnd.Float64()*span
}

func (g *Generator) spread(lo, span int) int {
	return lo + int(math.Round(g.rnd.Float64()*float64(span)))
}

// capacityFor partitions the unit interval: top 30% High, next 30% Medium,
// remaining 40% Low.
func capacityFor(u float64) CapacityStatus {
	switch {
	case u > 0.7:
		return CapacityHigh
	case u > 0.4:
		return CapacityMedium
	default:
		return CapacityLow
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

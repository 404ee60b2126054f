package reading

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerator_FieldsStayInBounds(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewPCG(1, 2)))

	for i := 0; i < 5000; i++ {
		p := gen.Generate()
		require.GreaterOrEqual(t, p.Humidity, 55)
		require.LessOrEqual(t, p.Humidity, 65)
		require.GreaterOrEqual(t, p.Temperature, 60)
		require.LessOrEqual(t, p.Temperature, 68)
		require.GreaterOrEqual(t, p.SoilHumidity, 40)
		require.LessOrEqual(t, p.SoilHumidity, 60)
		require.GreaterOrEqual(t, p.PHLevel, 6.5)
		require.LessOrEqual(t, p.PHLevel, 7.5)
		require.InDelta(t, p.PHLevel, math.Round(p.PHLevel*10)/10, 1e-9, "ph must carry one decimal")
		require.GreaterOrEqual(t, p.ComposterRotation, 15)
		require.LessOrEqual(t, p.ComposterRotation, 25)
		require.GreaterOrEqual(t, p.ReservoirRotation, 1)
		require.LessOrEqual(t, p.ReservoirRotation, 5)
		require.True(t, p.CapacityStatus.Valid(), "unexpected capacity %q", p.CapacityStatus)
	}
}

func TestGenerator_CapacityPartition(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewPCG(7, 11)))
	counts := map[CapacityStatus]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[gen.Generate().CapacityStatus]++
	}

	require.InDelta(t, 0.3, float64(counts[CapacityHigh])/n, 0.03)
	require.InDelta(t, 0.3, float64(counts[CapacityMedium])/n, 0.03)
	require.InDelta(t, 0.4, float64(counts[CapacityLow])/n, 0.03)
}

func TestCapacityFor_Boundaries(t *testing.T) {
	cases := []struct {
		u    float64
		want CapacityStatus
	}{
		{0, CapacityLow},
		{0.4, CapacityLow},
		{0.41, CapacityMedium},
		{0.7, CapacityMedium},
		{0.71, CapacityHigh},
		{0.999, CapacityHigh},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, capacityFor(tc.u), "u=%v", tc.u)
	}
}

func TestParseCapacity(t *testing.T) {
	require.Equal(t, CapacityHigh, ParseCapacity("Alto"))
	require.Equal(t, CapacityMedium, ParseCapacity("médio"))
	require.Equal(t, CapacityLow, ParseCapacity(" LOW "))
	require.Equal(t, CapacityMedium, ParseCapacity(""))
	require.Equal(t, CapacityMedium, ParseCapacity("Normal"))

	_, ok := LookupCapacity("Normal")
	require.False(t, ok)
	require.Equal(t, "Alto", CapacityHigh.Localized())
}

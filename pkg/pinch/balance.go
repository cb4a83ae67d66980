package pinch

import "gonum.org/v1/gonum/mat"

// Interval is the range between two consecutive boundaries of the shifted
// axis, with its net heat balance. A positive NetHeatLoad means the interval
// is dominated by cold streams and needs heat.
type Interval struct {
	Upper               float64 `json:"upper"`
	Lower               float64 `json:"lower"`
	NetHeatCapacityFlow float64 `json:"net_heat_capacity_flow"`
	NetHeatLoad         float64 `json:"net_heat_load"`
}

// Balance computes the net heat-capacity flow and heat load of every
// interval of the partitioning, hottest interval first.
//
// The net flows are the product of an interval x stream membership matrix
// and the vector of signed stream WCp values (cold positive, hot negative).
func Balance(p *Partitioning) []Interval {
	n := len(p.Temperatures) - 1
	m := len(p.Streams)
	if n < 1 || m < 1 {
		return nil
	}

	membership := mat.NewDense(n, m, nil)
	signed := mat.NewVecDense(m, nil)

	for j, s := range p.Streams {
		signed.SetVec(j, s.Stream.kind.sign()*s.Stream.wcp)
		for i := 0; i < n; i++ {
			if s.Overlaps(p.Temperatures[i], p.Temperatures[i+1]) {
				membership.Set(i, j, 1)
			}
		}
	}

	var net mat.VecDense
	net.MulVec(membership, signed)

	intervals := make([]Interval, n)
	for i := range intervals {
		upper, lower := p.Temperatures[i], p.Temperatures[i+1]
		wcp := net.AtVec(i)
		intervals[i] = Interval{
			Upper:               upper,
			Lower:               lower,
			NetHeatCapacityFlow: wcp,
			NetHeatLoad:         wcp * (upper - lower),
		}
	}

	return intervals
}

package enhance

// P2Quantile estimates a running quantile of a stream in O(1) space using
// the P-square algorithm (Jain & Chlamtac 1985). Five markers track the
// minimum, the target quantile, two intermediate quantiles, and the
// maximum; marker heights are adjusted with a piecewise-parabolic fit as
// observations arrive.
type P2Quantile struct {
	p       float64
	heights [5]float64
	pos     [5]float64 // actual marker positions
	desired [5]float64
	incr    [5]float64
	count   int
	initial [5]float64
}

// NewP2Quantile creates an estimator for quantile p in (0, 1).
func NewP2Quantile(p float64) *P2Quantile {
	q := &P2Quantile{p: p}
	q.Reset()
	return q
}

// Reset discards all observations.
func (q *P2Quantile) Reset() {
	q.count = 0
	p := q.p
	q.incr = [5]float64{0, p / 2, p, (1 + p) / 2, 1}
}

// Count returns the number of observations so far.
func (q *P2Quantile) Count() int { return q.count }

// Add feeds one observation.
func (q *P2Quantile) Add(x float64) {
	if q.count < 5 {
		q.initial[q.count] = x
		q.count++
		if q.count == 5 {
			// Sort the first five observations and seed the markers.
			ini := &q.initial
			for i := 1; i < 5; i++ {
				for j := i; j > 0 && ini[j] < ini[j-1]; j-- {
					ini[j], ini[j-1] = ini[j-1], ini[j]
				}
			}
			p := q.p
			q.heights = *ini
			q.pos = [5]float64{1, 2, 3, 4, 5}
			q.desired = [5]float64{1, 1 + 2*p, 1 + 4*p, 3 + 2*p, 5}
		}
		return
	}
	q.count++

	// Find the cell containing x, extending the extremes if needed.
	var cell int
	switch {
	case x < q.heights[0]:
		q.heights[0] = x
		cell = 0
	case x >= q.heights[4]:
		q.heights[4] = x
		cell = 3
	default:
		cell = 3
		for i := 1; i < 4; i++ {
			if x < q.heights[i] {
				cell = i - 1
				break
			}
		}
	}

	for i := cell + 1; i < 5; i++ {
		q.pos[i]++
	}
	for i := 0; i < 5; i++ {
		q.desired[i] += q.incr[i]
	}

	// Adjust the three interior markers toward their desired positions.
	for i := 1; i < 4; i++ {
		d := q.desired[i] - q.pos[i]
		if (d >= 1 && q.pos[i+1]-q.pos[i] > 1) || (d <= -1 && q.pos[i-1]-q.pos[i] < -1) {
			sign := 1.0
			if d < 0 {
				sign = -1.0
			}
			h := q.parabolic(i, sign)
			if h <= q.heights[i-1] || h >= q.heights[i+1] {
				h = q.linear(i, sign)
			}
			q.heights[i] = h
			q.pos[i] += sign
		}
	}
}

// Value returns the current quantile estimate. Before five observations
// have arrived it interpolates over the values seen so far; with no
// observations it returns 0.
func (q *P2Quantile) Value() float64 {
	if q.count >= 5 {
		return q.heights[2]
	}
	if q.count == 0 {
		return 0
	}
	// Sort a copy of the partial buffer and pick the quantile rank.
	var buf [5]float64
	copy(buf[:], q.initial[:q.count])
	for i := 1; i < q.count; i++ {
		for j := i; j > 0 && buf[j] < buf[j-1]; j-- {
			buf[j], buf[j-1] = buf[j-1], buf[j]
		}
	}
	idx := int(q.p * float64(q.count-1))
	return buf[idx]
}

func (q *P2Quantile) parabolic(i int, d float64) float64 {
	num1 := q.pos[i] - q.pos[i-1] + d
	num2 := q.pos[i+1] - q.pos[i] - d
	den1 := q.pos[i+1] - q.pos[i]
	den2 := q.pos[i] - q.pos[i-1]
	return q.heights[i] + d/(q.pos[i+1]-q.pos[i-1])*
		(num1*(q.heights[i+1]-q.heights[i])/den1+num2*(q.heights[i]-q.heights[i-1])/den2)
}

func (q *P2Quantile) linear(i int, d float64) float64 {
	j := i + int(d)
	return q.heights[i] + d*(q.heights[j]-q.heights[i])/(q.pos[j]-q.pos[i])
}

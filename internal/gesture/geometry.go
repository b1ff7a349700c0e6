package gesture

import "math"

// minExtent floors the normalization denominator so a degenerate
// (single-point or zero-area) landmark set does not blow up.
const minExtent = 0.001

// Point is a 2-D landmark position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Normalize shifts points so the bounding box starts at the origin and scales
// them by the longer side of the box, giving coordinates in [0, 1] on that axis.
// Returns an empty slice for empty input.
func Normalize(points []Point) []Point {
	if len(points) == 0 {
		return []Point{}
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	size := math.Max(math.Max(maxX-minX, maxY-minY), minExtent)

	normalized := make([]Point, len(points))
	for i, p := range points {
		normalized[i] = Point{
			X: (p.X - minX) / size,
			Y: (p.Y - minY) / size,
		}
	}
	return normalized
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance of values.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return sq / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package analysis

import (
	"math"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// ClusterResult is the outcome of k-means over the numeric columns.
// Points[i] came from table row Rows[i] and belongs to centroid Assignments[i].
type ClusterResult struct {
	K           int         `json:"k" yaml:"k"`
	Iterations  int         `json:"iterations" yaml:"iterations"`
	Columns     []string    `json:"columns" yaml:"columns"`
	Rows        []int       `json:"rows" yaml:"rows"`
	Points      [][]float64 `json:"points" yaml:"points"`
	Assignments []int       `json:"assignments" yaml:"assignments"`
	Centroids   [][]float64 `json:"centroids" yaml:"centroids"`
}

// Sizes returns the number of points assigned to each centroid.
func (c *ClusterResult) Sizes() []int {
	out := make([]int, len(c.Centroids))
	for _, a := range c.Assignments {
		out[a]++
	}
	return out
}

// KMeans runs Lloyd's algorithm for a fixed number of iterations. The first
// min(k, len(points)) points seed the centroids. Each round assigns every point
// to its nearest centroid, lowest index on ties, then moves each centroid to the
// mean of its points; a centroid with no points stays where it is. A final
// assignment pass keeps Assignments consistent with the returned centroids.
func KMeans(points [][]float64, k, iterations int) (assignments []int, centroids [][]float64) {
	if len(points) == 0 || k <= 0 {
		return nil, nil
	}
	if k > len(points) {
		k = len(points)
	}
	dim := len(points[0])
	centroids = make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[i]...)
	}
	assignments = make([]int, len(points))
	for it := 0; it < iterations; it++ {
		assign(points, centroids, assignments)
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}
	assign(points, centroids, assignments)
	return assignments, centroids
}

func assign(points, centroids [][]float64, out []int) {
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, ctr := range centroids {
			if d := sqDist(p, ctr); d < bestDist {
				best, bestDist = c, d
			}
		}
		out[i] = best
	}
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// cluster selects the rows where every numeric column parses and runs KMeans.
// It returns nil when fewer than two numeric columns exist or no row qualifies.
func cluster(t *dataset.Table, numeric []int, opt Options) *ClusterResult {
	if len(numeric) < 2 {
		return nil
	}
	res := &ClusterResult{Iterations: opt.KMeansIterations}
	for _, c := range numeric {
		res.Columns = append(res.Columns, t.Headers[c])
	}
	for r := range t.Rows {
		p := make([]float64, len(numeric))
		ok := true
		for j, c := range numeric {
			v, good := dataset.ParseNumber(t.Cell(r, c))
			if !good {
				ok = false
				break
			}
			p[j] = v
		}
		if ok {
			res.Points = append(res.Points, p)
			res.Rows = append(res.Rows, r)
		}
	}
	if len(res.Points) == 0 {
		return nil
	}
	res.Assignments, res.Centroids = KMeans(res.Points, opt.Clusters, opt.KMeansIterations)
	res.K = len(res.Centroids)
	return res
}

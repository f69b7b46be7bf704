package mdvrp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GetArcIndex maps the arc (i,j) of an n-node graph onto the variable block
// starting at start. The diagonal is part of the block.
func GetArcIndex(i, j, N, start int) int {
	return start + i*N + j
}

func GetNodeIndex(i, start int) int {
	return start + i
}

// CalcCostMatrix builds the n x n cost matrix over points (depots first). With
// CostIntegerScaled the Euclidean distance is multiplied by COST_SCALE and
// truncated toward zero.
func CalcCostMatrix(points [][2]float64, mode CostMode) [][]float64 {
	n := len(points)
	result := make([][]float64, n)
	for node := 0; node < n; node++ {
		result[node] = make([]float64, n)
	}
	for node := 0; node < n; node++ {
		for node2 := 0; node2 < node; node2++ {
			xDist := points[node][0] - points[node2][0]
			yDist := points[node][1] - points[node2][1]
			distance := math.Sqrt(math.Pow(xDist, 2) + math.Pow(yDist, 2))
			if mode == CostIntegerScaled {
				distance = float64(int(distance * COST_SCALE))
			}
			result[node][node2] = distance
			result[node2][node] = distance
		}
	}
	return result
}

func Print2DArray(a [][]float64) string {
	var sb strings.Builder
	for _, x := range a {
		for _, y := range x {
			sb.WriteString(formatNumber(y))
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatNumber prints integral values without a fractional part.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package dsp

import (
	"errors"
	"math"
)

var errSingular = errors.New("singular matrix")

// solve solves m x = rhs by Gaussian elimination with partial pivoting.
// m and rhs are overwritten.
func solve(m [][]float64, rhs []float64) ([]float64, error) {
	n := len(rhs)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if m[pivot][col] == 0 {
			return nil, errSingular
		}
		m[col], m[pivot] = m[pivot], m[col]
		rhs[col], rhs[pivot] = rhs[pivot], rhs[col]

		for r := col + 1; r < n; r++ {
			k := m[r][col] / m[col][col]
			if k == 0 {
				continue
			}
			for c := col; c < n; c++ {
				m[r][c] -= k * m[col][c]
			}
			rhs[r] -= k * rhs[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		s := rhs[r]
		for c := r + 1; c < n; c++ {
			s -= m[r][c] * x[c]
		}
		x[r] = s / m[r][r]
	}
	return x, nil
}

// Package align is the scoring and alignment engine behind pronunciation
// feedback. It builds Levenshtein distance grids over token sequences, turns
// a character-level distance into a 0-100 similarity score, and backtracks a
// word-level grid into a per-word classification of what the learner said.
//
// Every function is pure: each call allocates and owns its grid and result,
// so the package is safe for concurrent use without locking. Memory grows
// with the product of the two input lengths; callers bound input size.
package align

// Grid is a fixed-size two-dimensional table of edit distances addressed by
// (row, col). Rows index the reference sequence and columns the candidate.
// A Grid is sized once when built and never resized.
type Grid struct {
	rows  int
	cols  int
	cells []int
}

func newGrid(rows, cols int) *Grid {
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]int, rows*cols),
	}
}

// Rows returns the number of rows, len(reference)+1.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns, len(candidate)+1.
func (g *Grid) Cols() int { return g.cols }

// At returns the value stored at (row, col). It panics on out-of-range
// coordinates like a slice index would.
func (g *Grid) At(row, col int) int {
	return g.cells[g.index(row, col)]
}

func (g *Grid) set(row, col, v int) {
	g.cells[g.index(row, col)] = v
}

func (g *Grid) index(row, col int) int {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		panic("align: grid index out of range")
	}
	return row*g.cols + col
}

// Distance returns the bottom-right cell: the edit distance between the two
// full sequences the grid was built from.
func (g *Grid) Distance() int {
	return g.At(g.rows-1, g.cols-1)
}

// Row returns a copy of one row, mostly useful for debugging and tests.
func (g *Grid) Row(row int) []int {
	out := make([]int, g.cols)
	copy(out, g.cells[g.index(row, 0):g.index(row, 0)+g.cols])
	return out
}

// BuildMatrix computes the Levenshtein dynamic-programming grid between a
// reference sequence seq1 and a candidate sequence seq2. Matching tokens cost
// 0; substitution, insertion and deletion each cost 1. Token equality is the
// == operator, so callers must normalize both sequences the same way first.
func BuildMatrix[T comparable](seq1, seq2 []T) *Grid {
	g := newGrid(len(seq1)+1, len(seq2)+1)

	for i := 0; i < g.rows; i++ {
		g.set(i, 0, i)
	}
	for j := 0; j < g.cols; j++ {
		g.set(0, j, j)
	}

	for i := 1; i < g.rows; i++ {
		for j := 1; j < g.cols; j++ {
			cost := 1
			if seq1[i-1] == seq2[j-1] {
				cost = 0
			}
			g.set(i, j, min(
				g.At(i-1, j)+1,      // deletion
				g.At(i, j-1)+1,      // insertion
				g.At(i-1, j-1)+cost, // substitution or match
			))
		}
	}
	return g
}

// Distance returns the edit distance between two token sequences.
func Distance[T comparable](a, b []T) int {
	return BuildMatrix(a, b).Distance()
}

package align

import (
	"fmt"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/textnorm"
)

// Status classifies one candidate word against the reference.
type Status int

const (
	Correct Status = iota
	Substitution
	Insertion
)

func (s Status) String() string {
	switch s {
	case Correct:
		return "correct"
	case Substitution:
		return "substitution"
	case Insertion:
		return "insertion"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name so JSON payloads stay readable.
func (s Status) MarshalText() ([]byte, error) {
	if s < Correct || s > Insertion {
		return nil, fmt.Errorf("align: unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "correct":
		*s = Correct
	case "substitution":
		*s = Substitution
	case "insertion":
		*s = Insertion
	default:
		return fmt.Errorf("align: unknown status %q", b)
	}
	return nil
}

// Entry is one candidate word and how it lines up with the reference. Word
// keeps the learner's original casing. Reference is the case-folded
// reference word the entry was paired with; it is empty for insertions.
type Entry struct {
	Status    Status `json:"status"`
	Word      string `json:"word"`
	Reference string `json:"reference,omitempty"`
}

// Trace describes the backtracking walk that produced an alignment.
type Trace struct {
	Steps     int `json:"steps"`
	Deletions int `json:"deletions"`
	// Fallbacks counts steps where none of the primary rules applied. A
	// correctly built grid never needs one.
	Fallbacks int `json:"fallbacks"`
	// Skipped holds the reference words the walk stepped over without
	// pairing, in reference order.
	Skipped []string `json:"skipped,omitempty"`
}

// Align classifies every word of candidate against target. Both texts are
// split on whitespace; comparison is case-insensitive but returned words keep
// the candidate's casing. The result has exactly one entry per candidate
// word, in candidate order. Reference words the candidate skipped produce no
// entry; use Summarize to count them.
func Align(target, candidate string) []Entry {
	entries, _ := AlignTrace(target, candidate)
	return entries
}

// AlignTrace is Align that also reports the shape of the backtracking walk.
func AlignTrace(target, candidate string) ([]Entry, Trace) {
	ref := textnorm.Words(textnorm.Normalize(target))
	cand := textnorm.Words(candidate)
	folded := textnorm.Fold(cand)

	grid := BuildMatrix(ref, folded)
	return backtrack(grid, ref, cand, folded)
}

// AlignValues is Align for loosely typed inputs. nil is treated as the empty
// string; non-textual values return an *InvalidInputError.
func AlignValues(target, candidate any) ([]Entry, error) {
	t, err := Text("target", target)
	if err != nil {
		return nil, err
	}
	c, err := Text("candidate", candidate)
	if err != nil {
		return nil, err
	}
	return Align(t, c), nil
}

// walker is the cursor state of one backtracking pass from (n, m) to (0, 0).
type walker struct {
	grid   *Grid
	ref    []string
	cand   []string
	folded []string
	i, j   int
	out    []Entry
	trace  Trace
}

func (w *walker) cell() int { return w.grid.At(w.i, w.j) }

func (w *walker) emit(s Status, ref string) {
	w.out = append(w.out, Entry{Status: s, Word: w.cand[w.j-1], Reference: ref})
}

func (w *walker) skip() {
	w.trace.Deletions++
	w.trace.Skipped = append(w.trace.Skipped, w.ref[w.i-1])
	w.i--
}

// rule is one guarded transition of the backtracking walk.
type rule struct {
	name  string
	guard func(w *walker) bool
	step  func(w *walker)
}

// backtrackRules are tried top to bottom at every cell and the first guard
// that holds decides the move. The order is the tie-break policy: a match
// beats a substitution, which beats an insertion, which beats a deletion.
// Reordering changes which words are reported as substituted or inserted.
var backtrackRules = []rule{
	{
		name: "match",
		guard: func(w *walker) bool {
			return w.i > 0 && w.j > 0 && w.ref[w.i-1] == w.folded[w.j-1]
		},
		step: func(w *walker) {
			w.emit(Correct, w.ref[w.i-1])
			w.i--
			w.j--
		},
	},
	{
		name: "substitution",
		guard: func(w *walker) bool {
			return w.i > 0 && w.j > 0 && w.cell() == w.grid.At(w.i-1, w.j-1)+1
		},
		step: func(w *walker) {
			w.emit(Substitution, w.ref[w.i-1])
			w.i--
			w.j--
		},
	},
	{
		name: "insertion",
		guard: func(w *walker) bool {
			return w.j > 0 && w.cell() == w.grid.At(w.i, w.j-1)+1
		},
		step: func(w *walker) {
			w.emit(Insertion, "")
			w.j--
		},
	},
	{
		name: "deletion",
		guard: func(w *walker) bool {
			return w.i > 0 && w.cell() == w.grid.At(w.i-1, w.j)+1
		},
		step: func(w *walker) {
			w.trace.Deletions++
			w.i--
		},
	},
	{
		name:  "fallback",
		guard: func(*walker) bool { return true },
		step: func(w *walker) {
			w.trace.Fallbacks++
			if w.j > 0 {
				w.emit(Insertion, "")
				w.j--
				return
			}
			w.skip()
		},
	},
}

// backtrack walks grid from its bottom-right cell to the origin. Every rule
// lowers i+j by at least one, so the walk ends within n+m steps.
func backtrack(grid *Grid, ref, cand, folded []string) ([]Entry, Trace) {
	w := &walker{
		grid:   grid,
		ref:    ref,
		cand:   cand,
		folded: folded,
		i:      len(ref),
		j:      len(cand),
		out:    make([]Entry, 0, len(cand)),
	}
	for w.i > 0 || w.j > 0 {
		for _, r := range backtrackRules {
			if r.guard(w) {
				r.step(w)
				break
			}
		}
		w.trace.Steps++
	}
	slices.Reverse(w.out)
	slices.Reverse(w.trace.Skipped)
	return w.out, w.trace
}

// Summary counts the outcome of an alignment per category.
type Summary struct {
	Correct     int `json:"correct"`
	Substituted int `json:"substituted"`
	Inserted    int `json:"inserted"`
	Missing     int `json:"missing"`
}

// Summarize tallies entries produced by Align for reference. Missing is the
// number of reference words that were not paired with any candidate word.
func Summarize(reference string, entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Status {
		case Correct:
			s.Correct++
		case Substitution:
			s.Substituted++
		case Insertion:
			s.Inserted++
		}
	}
	s.Missing = max(0, len(textnorm.Words(reference))-s.Correct-s.Substituted)
	return s
}

// MissingWords returns the case-folded reference words the alignment of
// candidate against target left unpaired, in reference order. When a word
// repeats, the occurrence the walk skipped is the one reported.
func MissingWords(target, candidate string) []string {
	_, trace := AlignTrace(target, candidate)
	return trace.Skipped
}

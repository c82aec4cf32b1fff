package mva

// Selection names a set of components to operate on: every component, the
// first n, or an explicit id list.
type Selection struct {
	mode selectionMode
	n    int
	ids  []int
}

type selectionMode int

const (
	selectAll selectionMode = iota
	selectUpTo
	selectExplicit
)

// AllComponents selects every component of a decomposition.
func AllComponents() Selection {
	return Selection{mode: selectAll}
}

// UpTo selects components 0 through n-1.
func UpTo(n int) Selection {
	return Selection{mode: selectUpTo, n: n}
}

// Explicit selects exactly the given component ids, in the given order.
func Explicit(ids ...int) Selection {
	out := make([]int, len(ids))
	copy(out, ids)
	return Selection{mode: selectExplicit, ids: out}
}

// Components resolves the selection against a decomposition to concrete
// component ids. Explicit ids are validated against the factor matrix and
// fail with ErrComponentIndex when out of range; UpTo is capped at the
// component count.
func (s Selection) Components(d *Decomposition) ([]int, error) {
	total := d.Components()
	switch s.mode {
	case selectUpTo:
		n := s.n
		if n > total {
			n = total
		}
		if n < 0 {
			n = 0
		}
		return ascending(n), nil
	case selectExplicit:
		for _, id := range s.ids {
			if err := d.checkComponent(id); err != nil {
				return nil, err
			}
		}
		out := make([]int, len(s.ids))
		copy(out, s.ids)
		return out, nil
	default:
		return ascending(total), nil
	}
}

func ascending(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

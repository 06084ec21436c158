package schema

// Satisfaction is the three-valued answer to containment questions.
// Not < May < Must.
type Satisfaction uint8

const (
	Not Satisfaction = iota
	May
	Must
)

func (s Satisfaction) String() string {
	switch s {
	case Not:
		return "Not"
	case May:
		return "May"
	case Must:
		return "Must"
	default:
		return "Unknown"
	}
}

// Meet combines evidence from two branches: agreeing verdicts stand,
// disagreeing ones become May.
func Meet(a, b Satisfaction) Satisfaction {
	if a == b {
		return a
	}
	return May
}

// meetAll folds Meet over verdict(item) for every item. An empty input is
// vacuously Must.
func meetAll[T any](items []T, verdict func(T) Satisfaction) Satisfaction {
	if len(items) == 0 {
		return Must
	}
	out := verdict(items[0])
	for _, item := range items[1:] {
		out = Meet(out, verdict(item))
		if out == May {
			return May
		}
	}
	return out
}

// bestOf returns the strongest verdict(item), short-circuiting on Must. An
// empty input is Not.
func bestOf[T any](items []T, verdict func(T) Satisfaction) Satisfaction {
	out := Not
	for _, item := range items {
		v := verdict(item)
		if v == Must {
			return Must
		}
		if v > out {
			out = v
		}
	}
	return out
}

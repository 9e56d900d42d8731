package injury

// Modifiers are additive stat shifts. They never change base stats; callers
// add them on top.
type Modifiers struct {
	Attack   int
	Defense  int
	Speed    int
	Accuracy int
	Evasion  int
}

// Add returns the field-wise sum of m and o.
func (m Modifiers) Add(o Modifiers) Modifiers {
	return Modifiers{
		Attack:   m.Attack + o.Attack,
		Defense:  m.Defense + o.Defense,
		Speed:    m.Speed + o.Speed,
		Accuracy: m.Accuracy + o.Accuracy,
		Evasion:  m.Evasion + o.Evasion,
	}
}

// ModifiersOf returns the stat shift of a single injury type. Broken limbs and
// emotional trauma carry no stat shift.
func ModifiersOf(t Type) Modifiers {
	switch t {
	case DeepScar:
		return Modifiers{Attack: 5, Speed: -3}
	case BurnScar:
		return Modifiers{Attack: 3, Defense: -5}
	case LostEye:
		return Modifiers{Evasion: 5, Accuracy: -8}
	case LostLimb:
		return Modifiers{Speed: -15, Defense: -10}
	default:
		return Modifiers{}
	}
}

// Aggregate sums the modifiers of every injury, uncapped.
func Aggregate(injuries []Injury) Modifiers {
	var total Modifiers
	for _, in := range injuries {
		total = total.Add(ModifiersOf(in.Type))
	}
	return total
}

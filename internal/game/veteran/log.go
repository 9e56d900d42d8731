package veteran

// Capacity is the maximum number of entries a Log retains.
const Capacity = 200

// Log is a bounded FIFO of battle entries, oldest first. When full, appending
// evicts the oldest entry. It is not safe for concurrent use.
type Log struct {
	buf  []Entry
	head int
	size int
}

// NewLog returns an empty Log with room for Capacity entries.
func NewLog() *Log {
	return &Log{buf: make([]Entry, Capacity)}
}

// Append stores a normalized copy of e.
//
// Postcondition: Len() <= Capacity; the newest entry is e; reports whether
// the oldest entry was evicted.
func (l *Log) Append(e Entry) bool {
	e = e.normalize()
	if l.size < Capacity {
		l.buf[(l.head+l.size)%Capacity] = e
		l.size++
		return false
	}
	l.buf[l.head] = e
	l.head = (l.head + 1) % Capacity
	return true
}

// Len returns the number of retained entries.
func (l *Log) Len() int { return l.size }

// At returns a copy of the i-th entry, oldest first.
//
// Precondition: 0 <= i < Len().
func (l *Log) At(i int) Entry {
	if i < 0 || i >= l.size {
		panic("veteran.Log.At: precondition violated: index out of range")
	}
	return l.buf[(l.head+i)%Capacity].clone()
}

// Entries returns copies of every retained entry, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, l.size)
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

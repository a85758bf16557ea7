package source

import "slices"

// StringID names an interned string.
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates strings (identifiers, FQNs) behind small integer ids.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{byID: []string{""}, index: map[string]StringID{"": 0}}
}

// Intern returns s's id, assigning a new one if s has not been seen before.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	cpy := string([]byte(s)) // detach from caller's buffer
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

func (i *Interner) InternBytes(b []byte) StringID { return i.Intern(string(b)) }

func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string id")
	}
	return s
}

func (i *Interner) Has(id StringID) bool { return int(id) >= 0 && int(id) < len(i.byID) }

func (i *Interner) Len() int { return len(i.byID) }

func (i *Interner) Snapshot() []string { return slices.Clone(i.byID) }

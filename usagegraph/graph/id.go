package graph

import "strconv"

// maxNumericIDLength is the length from which a numeric looking id is
// treated as a string id.
const maxNumericIDLength = 11

// ID is an entity identifier. Ids may be numeric or arbitrary strings.
type ID string

// IntID returns the ID for a numeric identifier.
func IntID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// Numeric returns the integer value of the id and true if the id qualifies
// as numeric: its decimal round-trip is exact and it is shorter than 11
// characters. Every other id is stored and queried as a string.
func (id ID) Numeric() (int64, bool) {
	s := string(id)
	if len(s) == 0 || len(s) >= maxNumericIDLength {
		return 0, false
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != s {
		return 0, false
	}

	return n, true
}

// Less reports whether id sorts before other. String ids sort before
// numeric ids, numeric ids compare by value and string ids bytewise.
func (id ID) Less(other ID) bool {
	a, aNum := id.Numeric()
	b, bNum := other.Numeric()

	switch {
	case aNum && bNum:
		return a < b
	case aNum != bNum:
		return !aNum
	default:
		return id < other
	}
}

package store

// Bound is one end of a Range over encoded index values.
type Bound struct {
	Value     string
	Exclusive bool
}

// Range selects index values between Lower and Upper. A nil bound is open.
type Range struct {
	Lower *Bound
	Upper *Bound
}

// Lookup selects the records with at least one entry in Index that falls in
// any of Ranges. Each record is returned once, in the order its first
// matching entry is found.
type Lookup struct {
	Index  string
	Ranges []Range
}

// Equal matches entries equal to v.
func Equal(v string) Range {
	return Range{Lower: &Bound{Value: v}, Upper: &Bound{Value: v}}
}

// Prefix matches entries starting with p.
// Valid UTF-8 and the hex encodings never contain 0xff, so p+"\xff" bounds them.
func Prefix(p string) Range {
	if p == "" {
		return Range{}
	}
	return Range{Lower: &Bound{Value: p}, Upper: &Bound{Value: p + "\xff", Exclusive: true}}
}

// Above matches entries greater than v, or equal to v when inclusive.
func Above(v string, inclusive bool) Range {
	return Range{Lower: &Bound{Value: v, Exclusive: !inclusive}}
}

// Below matches entries less than v, or equal to v when inclusive.
func Below(v string, inclusive bool) Range {
	return Range{Upper: &Bound{Value: v, Exclusive: !inclusive}}
}

// Between matches entries in [lo, hi).
func Between(lo, hi string) Range {
	return Range{Lower: &Bound{Value: lo}, Upper: &Bound{Value: hi, Exclusive: true}}
}

// In returns a lookup matching any of the given values exactly.
func In(index string, values ...string) Lookup {
	l := Lookup{Index: index, Ranges: make([]Range, 0, len(values))}
	for _, v := range values {
		l.Ranges = append(l.Ranges, Equal(v))
	}
	return l
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v string) bool {
	return !r.belowLower(v) && !r.aboveUpper(v)
}

func (r Range) belowLower(v string) bool {
	if r.Lower == nil {
		return false
	}
	if r.Lower.Exclusive {
		return v <= r.Lower.Value
	}
	return v < r.Lower.Value
}

func (r Range) aboveUpper(v string) bool {
	if r.Upper == nil {
		return false
	}
	if r.Upper.Exclusive {
		return v >= r.Upper.Value
	}
	return v > r.Upper.Value
}

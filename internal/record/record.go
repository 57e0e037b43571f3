// Package record defines the on-disk record format for tapesort tapes and
// the order relation used to compare them.
package record

import (
	"errors"
	"fmt"
)

const (
	// MaxItems is the largest number of items a record may hold.
	MaxItems = 15
	// FrameSize is the fixed width of a record's on-disk frame: one length
	// byte followed by MaxItems payload/pad bytes.
	FrameSize = MaxItems + 1
)

// ErrMalformedTape is returned when a tape's contents cannot be a valid
// sequence of record frames.
var ErrMalformedTape = errors.New("record: malformed tape")

// ErrInvalidRecord is returned when external input cannot construct a
// valid Record.
var ErrInvalidRecord = errors.New("record: invalid record")

// Record is an unordered multiset of up to MaxItems bytes. Records are
// immutable once constructed.
type Record struct {
	items []byte
}

// New constructs a Record from external input, rejecting anything that
// could not have come from a valid frame. Item count must be 1..MaxItems;
// every item is already a byte, so the only out-of-range input rejected
// here is an empty or oversized set.
func New(items []byte) (Record, error) {
	if len(items) < 1 || len(items) > MaxItems {
		return Record{}, fmt.Errorf("%w: item count %d outside 1..%d", ErrInvalidRecord, len(items), MaxItems)
	}
	cp := make([]byte, len(items))
	copy(cp, items)
	return Record{items: cp}, nil
}

// Items returns a copy of the record's contents. Callers must not rely on
// any particular ordering; the record is an unordered multiset.
func (r Record) Items() []byte {
	cp := make([]byte, len(r.items))
	copy(cp, r.items)
	return cp
}

// Len returns the number of items in the record.
func (r Record) Len() int { return len(r.items) }

// Decode reads one FrameSize-byte frame into a Record. Fails if the
// length byte exceeds MaxItems.
func Decode(frame [FrameSize]byte) (Record, error) {
	length := int(frame[0])
	if length > MaxItems {
		return Record{}, fmt.Errorf("%w: length byte %d exceeds %d", ErrMalformedTape, length, MaxItems)
	}
	items := make([]byte, length)
	copy(items, frame[1:1+length])
	return Record{items: items}, nil
}

// Encode writes the record to a FrameSize-byte frame: length byte, items,
// zero-pad. The zero-pad is not semantic; Decode never inspects it.
func (r Record) Encode() [FrameSize]byte {
	var frame [FrameSize]byte
	frame[0] = byte(len(r.items))
	copy(frame[1:1+len(r.items)], r.items)
	return frame
}

// Less implements the multiset-difference order relation from the
// specification. Remove from copies of x.items and y.items each value
// present in both (one-for-one); call the residuals X', Y'.
//
//   - If Y' is empty: x < y is false.
//   - Else if X' is empty: x < y is true.
//   - Else: x < y iff max(Y') > max(X').
//
// A nil right-hand side (represented by ok=false) compares as "top": any
// record is less than nil.
func (x Record) Less(y Record, yOK bool) bool {
	if !yOK {
		return true
	}
	xp, yp := residuals(x.items, y.items)
	if len(yp) == 0 {
		return false
	}
	if len(xp) == 0 {
		return true
	}
	return maxByte(yp) > maxByte(xp)
}

// residuals computes the one-for-one multiset difference of a against b,
// returning what remains of each side after removing shared values.
func residuals(a, b []byte) (ra, rb []byte) {
	ra = append([]byte(nil), a...)
	rb = append([]byte(nil), b...)
	for i := 0; i < len(ra); i++ {
		v := ra[i]
		for j := 0; j < len(rb); j++ {
			if rb[j] == v {
				ra = append(ra[:i], ra[i+1:]...)
				rb = append(rb[:j], rb[j+1:]...)
				i--
				break
			}
		}
	}
	return ra, rb
}

func maxByte(bs []byte) byte {
	m := bs[0]
	for _, b := range bs[1:] {
		if b > m {
			m = b
		}
	}
	return m
}

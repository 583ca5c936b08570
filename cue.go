package pinochle

import (
	"slices"
)

type cueOpen struct {
	offset int
	head   Noun
}

// Cue is the inverse of Jam. Any stream Jam could not have produced is
// rejected with a *CodecError, including set bits after the root noun.
func Cue(b []byte) (Noun, error) {
	r := newBitReader(b)
	table := make(map[int]Noun)
	var open []cueOpen
	for {
		start := r.pos
		n, err := cueItem(r, table, open, start)
		if err != nil {
			return nil, err
		}
		if n == nil { // a cell began
			open = append(open, cueOpen{offset: start})
			continue
		}
		for n != nil {
			if len(open) == 0 {
				if r.rest() {
					return nil, &CodecError{Reason: "trailing data", Offset: r.pos}
				}
				return n, nil
			}
			top := &open[len(open)-1]
			if top.head == nil {
				top.head = n
				break
			}
			cell := Cons(top.head, n)
			table[top.offset] = cell
			open = open[:len(open)-1]
			n = cell
		}
	}
}

func CueAtom(a NounAtom) (Noun, error) {
	return Cue(a.Bytes())
}

// cueItem decodes one tag at start. It returns nil without error when the tag
// opens a cell whose children follow.
func cueItem(r *bitReader, table map[int]Noun, open []cueOpen, start int) (Noun, error) {
	tag, err := r.bit()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		v, err := r.rub()
		if err != nil {
			return nil, err
		}
		a := NounAtom{}
		if v.Sign() != 0 {
			a = NounAtom{v}
		}
		table[start] = a
		return a, nil
	}
	if tag, err = r.bit(); err != nil {
		return nil, err
	} else if tag == 0 {
		return nil, nil
	}
	ref, err := r.rub()
	if err != nil {
		return nil, err
	}
	if !ref.IsInt64() || ref.Int64() >= int64(start) {
		return nil, &CodecError{Reason: "backreference " + ref.String() + " points forward", Offset: start}
	}
	offset := int(ref.Int64())
	if n, ok := table[offset]; ok {
		return n, nil
	}
	if slices.ContainsFunc(open, func(o cueOpen) bool { return o.offset == offset }) {
		return nil, &CodecError{Reason: "backreference " + ref.String() + " into an unfinished cell", Offset: start}
	}
	return nil, &CodecError{Reason: "unknown backreference " + ref.String(), Offset: start}
}

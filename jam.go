package pinochle

import (
	"math/big"
	"math/bits"
)

// buckets are split by height as well as hash, so nouns whose mugs collide
// usually never meet in Equal
type jamKey struct {
	hash   uint32
	height uint32
}

type jamSeen struct {
	noun   Noun
	offset int
}

// Jam serializes n. The bytes are the little-endian bytes of the jam atom:
// the first bit written is bit 0 of byte 0, and the last byte is never 0.
func Jam(n Noun) []byte {
	return jam(n, Mug)
}

func JamAtom(n Noun) NounAtom {
	return atomFromLE(Jam(n))
}

// jam keys its table by hash but only trusts Equal, so any hash will do.
func jam(n Noun, hash func(Noun) uint32) []byte {
	w := &bitWriter{}
	seen := make(map[jamKey][]jamSeen)
	todo := []Noun{n}
	for len(todo) > 0 {
		cur := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		h := jamKey{hash(cur), height(cur)}
		if offset, ok := jamLookup(seen[h], cur); ok {
			// an atom no wider than its backreference is cheaper written out again
			if a, isatom := cur.(NounAtom); isatom && a.BitLen() <= bits.Len(uint(offset)) {
				w.bit(0)
				w.mat(a.bigInt())
			} else {
				w.bit(1)
				w.bit(1)
				w.mat(big.NewInt(int64(offset)))
			}
			continue
		}
		seen[h] = append(seen[h], jamSeen{noun: cur, offset: w.n})

		switch x := cur.(type) {
		case NounAtom:
			w.bit(0)
			w.mat(x.bigInt())
		case *NounCell:
			w.bit(1)
			w.bit(0)
			todo = append(todo, x.Tail, x.Head)
		default:
			panic("pinochle: jam of nil noun")
		}
	}
	return w.buf
}

func jamLookup(bucket []jamSeen, n Noun) (int, bool) {
	for _, s := range bucket {
		if Equal(s.noun, n) {
			return s.offset, true
		}
	}
	return 0, false
}

package pinochle

import (
	"fmt"
	"math/big"
	"slices"
	"sync/atomic"
)

// Noun is either a NounAtom or a *NounCell. Nouns are immutable once built.
type Noun interface {
	String() string
	deep() bool
}

// NounAtom is an unsigned integer of any size. The zero value is the atom 0.
type NounAtom struct {
	v *big.Int // nil means 0; never mutated after construction
}

type NounCell struct {
	Head Noun
	Tail Noun

	mug    atomic.Uint32 // 0 until Mug computes it
	height atomic.Uint32 // longest path to an atom; set before mug
}

// loobeans
var (
	Yes = NounAtom{}
	No  = Atom(1)
)

var bigZero = new(big.Int)

func Atom(u uint64) NounAtom {
	if u == 0 {
		return NounAtom{}
	}
	return NounAtom{new(big.Int).SetUint64(u)}
}

// BigAtom copies b. It panics on a negative b; use ToNoun to get an error instead.
func BigAtom(b *big.Int) NounAtom {
	if b.Sign() < 0 {
		panic("pinochle: negative atom " + b.String())
	} else if b.Sign() == 0 {
		return NounAtom{}
	}
	return NounAtom{new(big.Int).Set(b)}
}

// Cord packs s into an atom, first byte least significant.
func Cord(s string) NounAtom {
	return atomFromLE([]byte(s))
}

func atomFromLE(le []byte) NounAtom {
	be := slices.Clone(le)
	slices.Reverse(be)
	v := new(big.Int).SetBytes(be)
	if v.Sign() == 0 {
		return NounAtom{}
	}
	return NounAtom{v}
}

func (me NounAtom) bigInt() *big.Int {
	if me.v == nil {
		return bigZero
	}
	return me.v
}

func (me NounAtom) Big() *big.Int      { return new(big.Int).Set(me.bigInt()) }
func (me NounAtom) IsZero() bool       { return me.v == nil || me.v.Sign() == 0 }
func (me NounAtom) BitLen() int        { return me.bigInt().BitLen() }
func (me NounAtom) Cmp(b NounAtom) int { return me.bigInt().Cmp(b.bigInt()) }
func (me NounAtom) String() string     { return me.bigInt().String() }
func (NounAtom) deep() bool            { return false }

func (me NounAtom) Uint64() (uint64, bool) {
	if b := me.bigInt(); b.IsUint64() {
		return b.Uint64(), true
	}
	return 0, false
}

// Bytes returns the little-endian bytes of the atom without trailing zeros.
func (me NounAtom) Bytes() []byte {
	le := me.bigInt().Bytes()
	slices.Reverse(le)
	return le
}

func (me NounAtom) inc() NounAtom {
	return NounAtom{new(big.Int).Add(me.bigInt(), big.NewInt(1))}
}

func (me *NounCell) String() string { return Pretty(me) }
func (*NounCell) deep() bool        { return true }

func Cons(head Noun, tail Noun) *NounCell { return &NounCell{Head: head, Tail: tail} }

// T right-associates: T(a, b, c) is [a [b c]].
func T(first Noun, second Noun, rest ...Noun) Noun {
	if len(rest) == 0 {
		return Cons(first, second)
	}
	tail := rest[len(rest)-1]
	for i := len(rest) - 2; i >= 0; i-- {
		tail = Cons(rest[i], tail)
	}
	return Cons(first, Cons(second, tail))
}

// N builds a noun from Go literals, panicking where ToNoun would fail.
// More than one argument right-associates like a tuple.
func N(v ...any) Noun {
	var n Noun
	var err error
	if len(v) == 1 {
		n, err = ToNoun(v[0])
	} else {
		n, err = ToNoun(v)
	}
	if err != nil {
		panic(err)
	}
	return n
}

// ToNoun converts host values: nouns pass through, non-negative integers and
// *big.Int become atoms, strings become cords, slices become right-associated
// cells. A one-element slice is its element.
func ToNoun(v any) (Noun, error) {
	switch x := v.(type) {
	case Noun:
		if c, ok := x.(*NounCell); ok && c == nil {
			return nil, &ConversionError{Value: v, Reason: "nil cell"}
		}
		return x, nil
	case int:
		return signedAtom(v, int64(x))
	case int8:
		return signedAtom(v, int64(x))
	case int16:
		return signedAtom(v, int64(x))
	case int32:
		return signedAtom(v, int64(x))
	case int64:
		return signedAtom(v, x)
	case uint:
		return Atom(uint64(x)), nil
	case uint8:
		return Atom(uint64(x)), nil
	case uint16:
		return Atom(uint64(x)), nil
	case uint32:
		return Atom(uint64(x)), nil
	case uint64:
		return Atom(x), nil
	case uintptr:
		return Atom(uint64(x)), nil
	case *big.Int:
		if x == nil {
			return nil, &ConversionError{Value: v, Reason: "nil integer"}
		}
		return bigToNoun(x)
	case big.Int:
		return bigToNoun(&x)
	case string:
		return Cord(x), nil
	case []Noun:
		items := make([]any, len(x))
		for i := range x {
			items[i] = x[i]
		}
		return tupleToNoun(items)
	case []any:
		return tupleToNoun(x)
	case nil:
		return nil, &ConversionError{Value: v, Reason: "nil value"}
	}
	return nil, &ConversionError{Value: v, Reason: fmt.Sprintf("unsupported type %T", v)}
}

func signedAtom(orig any, i int64) (Noun, error) {
	if i < 0 {
		return nil, &ConversionError{Value: orig, Reason: "negative integer"}
	}
	return Atom(uint64(i)), nil
}

func bigToNoun(b *big.Int) (Noun, error) {
	if b.Sign() < 0 {
		return nil, &ConversionError{Value: b, Reason: "negative integer"}
	}
	return BigAtom(b), nil
}

func tupleToNoun(items []any) (Noun, error) {
	if len(items) == 0 {
		return nil, &ConversionError{Value: items, Reason: "empty tuple"}
	}
	last, err := ToNoun(items[len(items)-1])
	if err != nil {
		return nil, err
	}
	for i := len(items) - 2; i >= 0; i-- {
		head, err := ToNoun(items[i])
		if err != nil {
			return nil, err
		}
		last = Cons(head, last)
	}
	return last, nil
}

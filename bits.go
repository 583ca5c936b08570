package pinochle

import (
	"math/big"
	"math/bits"
)

// bitWriter appends bits least-significant first: bit i of the stream is
// bit i%8 of byte i/8.
type bitWriter struct {
	buf []byte
	n   int
}

func (me *bitWriter) bit(b uint) {
	if me.n>>3 >= len(me.buf) {
		me.buf = append(me.buf, 0)
	}
	if b != 0 {
		me.buf[me.n>>3] |= 1 << (me.n & 7)
	}
	me.n++
}

func (me *bitWriter) zeros(count int) {
	for i := 0; i < count; i++ {
		me.bit(0)
	}
}

func (me *bitWriter) word(v uint64, count int) {
	for i := 0; i < count; i++ {
		me.bit(uint(v>>i) & 1)
	}
}

func (me *bitWriter) atom(v *big.Int, count int) {
	for i := 0; i < count; i++ {
		me.bit(v.Bit(i))
	}
}

// mat writes the self-delimiting length-prefixed form of v:
// 0 is the single bit 1; otherwise c zeros, a 1, the low c-1 bits of
// b = bitlen(v), then the b bits of v, where c = bitlen(b).
func (me *bitWriter) mat(v *big.Int) {
	if v.Sign() == 0 {
		me.bit(1)
		return
	}
	b := v.BitLen()
	c := bits.Len(uint(b))
	me.zeros(c)
	me.bit(1)
	me.word(uint64(b), c-1)
	me.atom(v, b)
}

type bitReader struct {
	buf []byte
	pos int
	end int
}

func newBitReader(buf []byte) *bitReader {
	return &bitReader{buf: buf, end: len(buf) * 8}
}

func (me *bitReader) bit() (uint, error) {
	if me.pos >= me.end {
		return 0, &CodecError{Reason: "truncated stream", Offset: me.pos}
	}
	b := uint(me.buf[me.pos>>3]>>(me.pos&7)) & 1
	me.pos++
	return b, nil
}

func (me *bitReader) word(count int) (uint64, error) {
	var v uint64
	for i := 0; i < count; i++ {
		b, err := me.bit()
		if err != nil {
			return 0, err
		}
		v |= uint64(b) << i
	}
	return v, nil
}

func (me *bitReader) atom(count int) *big.Int {
	be := make([]byte, (count+7)/8)
	for i := 0; i < count; i++ {
		pos := me.pos + i
		if me.buf[pos>>3]>>(pos&7)&1 != 0 {
			be[len(be)-1-i>>3] |= 1 << (i & 7)
		}
	}
	me.pos += count
	return new(big.Int).SetBytes(be)
}

// rub reads what mat wrote.
func (me *bitReader) rub() (*big.Int, error) {
	start, c := me.pos, 0
	for {
		b, err := me.bit()
		if err != nil {
			return nil, err
		}
		if b == 1 {
			break
		}
		c++
	}
	if c == 0 {
		return new(big.Int), nil
	}
	if c-1 > 62 {
		return nil, &CodecError{Reason: "length prefix too wide", Offset: start}
	}
	lo, err := me.word(c - 1)
	if err != nil {
		return nil, err
	}
	b := uint64(1)<<(c-1) | lo
	if b > uint64(me.end-me.pos) {
		return nil, &CodecError{Reason: "atom length exceeds stream", Offset: start}
	}
	return me.atom(int(b)), nil
}

// rest reports whether any bit after the read position is set.
func (me *bitReader) rest() bool {
	for i := me.pos; i < me.end; i++ {
		if me.buf[i>>3]>>(i&7)&1 != 0 {
			return true
		}
	}
	return false
}

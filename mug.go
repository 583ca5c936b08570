package pinochle

import (
	"encoding/binary"

	"github.com/twmb/murmur3"
)

const (
	mugSeedAtom     uint32 = 0xcafebabe
	mugSeedCell     uint32 = 0xdeadbeef
	mugFallbackAtom uint32 = 0x7fff
	mugFallbackCell uint32 = 0xfffe
)

// Mug is the 31-bit structural hash. It is never 0 and never changes for a
// given noun value, so it can key persisted tables.
func Mug(n Noun) uint32 {
	switch x := n.(type) {
	case NounAtom:
		return mugAtom(x)
	case *NounCell:
		return mugCell(x)
	}
	panic("pinochle: mug of nil noun")
}

// murmur3 folded to 31 bits; a zero fold retries with the next seed
func mugBytes(seed uint32, fallback uint32, data []byte) uint32 {
	for i := uint32(0); i < 8; i++ {
		h := murmur3.SeedSum32(seed+i, data)
		if m := (h >> 31) ^ (h & 0x7fffffff); m != 0 {
			return m
		}
	}
	return fallback
}

func mugAtom(a NounAtom) uint32 {
	return mugBytes(mugSeedAtom, mugFallbackAtom, a.Bytes())
}

func mugBoth(head uint32, tail uint32) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], head)
	binary.LittleEndian.PutUint32(buf[4:], tail)
	return mugBytes(mugSeedCell, mugFallbackCell, buf[:])
}

func cachedMug(n Noun) (uint32, bool) {
	if c, ok := n.(*NounCell); ok {
		m := c.mug.Load()
		return m, m != 0
	}
	return mugAtom(n.(NounAtom)), true
}

// only meaningful once the mug is cached; atoms are 0
func cachedHeight(n Noun) uint32 {
	if c, ok := n.(*NounCell); ok {
		return c.height.Load()
	}
	return 0
}

// height forces the mug pass, which caches heights alongside mugs.
func height(n Noun) uint32 {
	if c, ok := n.(*NounCell); ok {
		mugCell(c)
		return c.height.Load()
	}
	return 0
}

// post-order without recursion; every cell visited ends up with its mug and
// height cached
func mugCell(c *NounCell) uint32 {
	if m := c.mug.Load(); m != 0 {
		return m
	}
	todo := []*NounCell{c}
	for len(todo) > 0 {
		top := todo[len(todo)-1]
		if top.mug.Load() != 0 {
			todo = todo[:len(todo)-1]
			continue
		}
		mh, okh := cachedMug(top.Head)
		mt, okt := cachedMug(top.Tail)
		if okh && okt {
			top.height.Store(1 + max(cachedHeight(top.Head), cachedHeight(top.Tail)))
			top.mug.Store(mugBoth(mh, mt))
			todo = todo[:len(todo)-1]
			continue
		}
		if !okt {
			todo = append(todo, top.Tail.(*NounCell))
		}
		if !okh {
			todo = append(todo, top.Head.(*NounCell))
		}
	}
	return c.mug.Load()
}

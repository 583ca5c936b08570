package pinochle

// Deep reports whether n is a cell. It is the only type discriminant nouns have.
func Deep(n Noun) bool { return n != nil && n.deep() }

// Loob maps a Go bool to the Nock loobean: true is 0, false is 1.
func Loob(b bool) NounAtom {
	if b {
		return Yes
	}
	return No
}

// Equal is structural equality, never identity. Cells whose mugs are already
// cached are unequal without descending when their mugs or heights differ.
// Mugs alone are not enough: the spine mugs of a long list cycle, and
// colliding spines would otherwise be walked to the end.
func Equal(noun1 Noun, noun2 Noun) bool {
	type pair struct{ a, b Noun }
	todo := []pair{{noun1, noun2}}
	for len(todo) > 0 {
		p := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		switch a := p.a.(type) {
		case NounAtom:
			if b, ok := p.b.(NounAtom); !ok || a.Cmp(b) != 0 {
				return false
			}
		case *NounCell:
			b, ok := p.b.(*NounCell)
			if !ok {
				return false
			}
			if a == b {
				continue
			}
			if ma, mb := a.mug.Load(), b.mug.Load(); ma != 0 && mb != 0 {
				if ma != mb || a.height.Load() != b.height.Load() {
					return false
				}
			}
			todo = append(todo, pair{a.Tail, b.Tail}, pair{a.Head, b.Head})
		default:
			return false
		}
	}
	return true
}

func axisAtom(axis Noun) (NounAtom, error) {
	a, ok := axis.(NounAtom)
	if !ok {
		return NounAtom{}, crashf(CrashAxis, "axis must be an atom, got %s", brief(axis))
	}
	if a.IsZero() {
		return NounAtom{}, crashf(CrashAxis, "axis 0")
	}
	return a, nil
}

// Fas is tree addressing, /[axis n].
//
//	/[1 a]            a
//	/[2 a b]          a
//	/[3 a b]          b
//	/[(a + a) b]      /[2 /[a b]]
//	/[(a + a + 1) b]  /[3 /[a b]]
func Fas(axis Noun, n Noun) (Noun, error) {
	a, err := axisAtom(axis)
	if err != nil {
		return nil, err
	}
	return fas(a, n)
}

// the bits below the leading 1 of the axis spell the path, MSB first: 0 head, 1 tail
func fas(axis NounAtom, n Noun) (Noun, error) {
	b := axis.bigInt()
	for i := b.BitLen() - 2; i >= 0; i-- {
		cell, ok := n.(*NounCell)
		if !ok {
			return nil, crashf(CrashAxis, "tree-address %s out of range", brief(axis))
		}
		if b.Bit(i) == 0 {
			n = cell.Head
		} else {
			n = cell.Tail
		}
	}
	return n, nil
}

// Hax is tree editing, #[axis value n]: n with the subtree at axis replaced by
// value. Only the cells along the edited path are new.
//
//	#[1 a b]            a
//	#[(a + a) b c]      #[a [b /[(a + a + 1) c]] c]
//	#[(a + a + 1) b c]  #[a [/[(a + a) c] b] c]
func Hax(axis Noun, value Noun, n Noun) (Noun, error) {
	a, err := axisAtom(axis)
	if err != nil {
		return nil, err
	}
	return hax(a, value, n)
}

func hax(axis NounAtom, value Noun, n Noun) (Noun, error) {
	b := axis.bigInt()
	depth := b.BitLen() - 1
	path := make([]*NounCell, depth)
	for k := 0; k < depth; k++ {
		cell, ok := n.(*NounCell)
		if !ok {
			return nil, crashf(CrashAxis, "tree-address %s out of range", brief(axis))
		}
		if path[k] = cell; b.Bit(depth-1-k) == 0 {
			n = cell.Head
		} else {
			n = cell.Tail
		}
	}
	for k := depth - 1; k >= 0; k-- {
		if b.Bit(depth-1-k) == 0 {
			value = Cons(value, path[k].Tail)
		} else {
			value = Cons(path[k].Head, value)
		}
	}
	return value, nil
}

// Lus is increment, +a. Incrementing a cell crashes.
func Lus(n Noun) (Noun, error) {
	a, ok := n.(NounAtom)
	if !ok {
		return nil, crashf(CrashIncrement, "increment of cell %s", brief(n))
	}
	return a.inc(), nil
}

// Wut is the cell test, ?a: 0 for a cell, 1 for an atom.
func Wut(n Noun) NounAtom { return Loob(Deep(n)) }

// Tis is the equality test, =[a b].
func Tis(a Noun, b Noun) NounAtom { return Loob(Equal(a, b)) }

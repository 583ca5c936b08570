package pinochle

import (
	"fmt"
	"math/big"
	"strings"
)

type SyntaxError struct {
	Pos    int
	Reason string
}

func (me *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", me.Pos, me.Reason)
}

// Parse reads noun syntax: decimal atoms (Hoon-style dot grouping allowed,
// 1.000), 0x hex atoms, %N opcode shorthand, and [a b c] cells, which
// right-associate. :: comments run to the end of the line.
func Parse(src string) (Noun, error) {
	return ParseWith(src, nil)
}

// ParseWith is Parse with bare names resolved through lookup.
func ParseWith(src string, lookup func(name string) (Noun, bool)) (Noun, error) {
	var (
		result Noun
		open   [][]Noun // one item list per unclosed bracket
		starts []int
	)
	emit := func(pos int, n Noun) error {
		if len(open) > 0 {
			open[len(open)-1] = append(open[len(open)-1], n)
			return nil
		}
		if result != nil {
			return &SyntaxError{Pos: pos, Reason: "more than one noun"}
		}
		result = n
		return nil
	}

	for i := 0; i < len(src); {
		switch ch := src[i]; {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == ':' && i+1 < len(src) && src[i+1] == ':':
			if nl := strings.IndexByte(src[i:], '\n'); nl < 0 {
				i = len(src)
			} else {
				i += nl
			}
		case ch == '[':
			open, starts = append(open, nil), append(starts, i)
			i++
		case ch == ']':
			if len(open) == 0 {
				return nil, &SyntaxError{Pos: i, Reason: "unbalanced ]"}
			}
			items := open[len(open)-1]
			open, starts = open[:len(open)-1], starts[:len(starts)-1]
			if len(items) < 2 {
				return nil, &SyntaxError{Pos: i, Reason: "a cell needs at least two nouns"}
			}
			if err := emit(i, T(items[0], items[1], items[2:]...)); err != nil {
				return nil, err
			}
			i++
		case ch >= '0' && ch <= '9' || ch == '%':
			end := i + 1
			for end < len(src) && isWordByte(src[end]) {
				end++
			}
			a, err := parseAtom(src[i:end])
			if err != nil {
				return nil, &SyntaxError{Pos: i, Reason: err.Error()}
			}
			if err = emit(i, a); err != nil {
				return nil, err
			}
			i = end
		case isNameStart(ch):
			end := i + 1
			for end < len(src) && isNameByte(src[end]) {
				end++
			}
			name := src[i:end]
			var n Noun
			var ok bool
			if lookup != nil {
				n, ok = lookup(name)
			}
			if !ok {
				return nil, &SyntaxError{Pos: i, Reason: "unknown name " + name}
			}
			if err := emit(i, n); err != nil {
				return nil, err
			}
			i = end
		default:
			return nil, &SyntaxError{Pos: i, Reason: fmt.Sprintf("unexpected %q", ch)}
		}
	}
	if len(open) > 0 {
		return nil, &SyntaxError{Pos: starts[len(starts)-1], Reason: "unclosed ["}
	}
	if result == nil {
		return nil, &SyntaxError{Pos: len(src), Reason: "no noun"}
	}
	return result, nil
}

func parseAtom(tok string) (NounAtom, error) {
	tok = strings.TrimPrefix(tok, "%")
	base, digits := 10, tok
	if strings.HasPrefix(tok, "0x") {
		base, digits = 16, tok[2:]
	}
	if digits == "" || strings.HasPrefix(digits, ".") || strings.HasSuffix(digits, ".") || strings.Contains(digits, "..") {
		return NounAtom{}, fmt.Errorf("bad atom %q", tok)
	}
	v, ok := new(big.Int).SetString(strings.ReplaceAll(digits, ".", ""), base)
	if !ok || v.Sign() < 0 {
		return NounAtom{}, fmt.Errorf("bad atom %q", tok)
	}
	return BigAtom(v), nil
}

func isWordByte(ch byte) bool {
	return ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '.'
}

func isNameStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isNameByte(ch byte) bool {
	return isNameStart(ch) || ch >= '0' && ch <= '9' || ch == '-'
}

// Pretty prints n in the syntax Parse reads, flattening right-nested tails:
// [1 [2 3]] prints as [1 2 3].
func Pretty(n Noun) string { return pretty(n, 0) }

// brief is Pretty cut off after 64 bytes, for error messages.
func brief(n Noun) string { return pretty(n, 64) }

func pretty(n Noun, limit int) string {
	var buf strings.Builder
	type item struct {
		noun Noun
		text string
	}
	todo := []item{{noun: n}}
	for len(todo) > 0 {
		if limit > 0 && buf.Len() > limit {
			return buf.String()[:limit] + "..."
		}
		it := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		switch x := it.noun.(type) {
		case nil:
			buf.WriteString(it.text)
		case NounAtom:
			buf.WriteString(x.String())
		case *NounCell:
			elems := []Noun{x.Head}
			var last Noun = x.Tail
			for {
				c, ok := last.(*NounCell)
				if !ok {
					break
				}
				elems, last = append(elems, c.Head), c.Tail
			}
			elems = append(elems, last)
			buf.WriteByte('[')
			todo = append(todo, item{text: "]"})
			for i := len(elems) - 1; i >= 0; i-- {
				todo = append(todo, item{noun: elems[i]})
				if i > 0 {
					todo = append(todo, item{text: " "})
				}
			}
		}
	}
	if limit > 0 && buf.Len() > limit {
		return buf.String()[:limit] + "..."
	}
	return buf.String()
}

package pinochle

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	defaultMaxStack = 1 << 24
	ctxPollSteps    = 1024
)

// Interp evaluates formulas against subjects. The zero value is ready to use
// and an Interp may be shared by concurrent callers.
type Interp struct {
	// OnHint observes opcode 11. clue is nil for a static hint. It cannot change
	// the result of the evaluation.
	OnHint func(tag Noun, clue Noun, subject Noun)

	Log *zap.Logger

	// MaxSteps bounds the number of formula reductions; 0 is unbounded.
	MaxSteps int
	// MaxStack bounds pending frames; 0 means 1<<24.
	MaxStack int
}

var defaultInterp Interp

// Nock is *[subject formula] with no budget and no hint observer.
func Nock(subject Noun, formula Noun) (Noun, error) {
	return defaultInterp.Eval(context.Background(), subject, formula)
}

type kont uint8

const (
	kEval    kont = iota // *[subj form]
	kCons                // pop tail, pop head, push [head tail]
	kCompose             // 2: pop formula, pop subject, evaluate
	kWut                 // 3
	kLus                 // 4
	kTis                 // 5
	kSeven               // 7: pop subject, evaluate form
	kPush                // 8: pop value, evaluate form against [value subj]
	kCore                // 9: pop core, evaluate the arm at axis form
	kEdit                // 10: pop d, pop c, edit c into d at axis form
	kHint                // 11: pop clue, report it with tag form
)

type frame struct {
	k    kont
	subj Noun
	form Noun
}

// opcode 6 as the calculus defines it, from 0 1 2 4 only:
// *[a 6 b c d]  ->  *[a 2 [0 1] 2 [1 c d] [1 0] 2 [1 2 3] [1 0] 4 4 b]
var (
	sixSelf   = T(Atom(0), Atom(1))
	sixZero   = T(Atom(1), Atom(0))
	sixBranch = T(Atom(1), Atom(2), Atom(3))
)

func sixFormula(b Noun, c Noun, d Noun) Noun {
	return T(Atom(2), sixSelf,
		Atom(2), Cons(Atom(1), Cons(c, d)),
		sixZero, Atom(2), sixBranch,
		sixZero, Atom(4), Atom(4), b)
}

func (me *Interp) log() *zap.Logger {
	if me.Log == nil {
		return zap.NewNop()
	}
	return me.Log
}

// Eval computes *[subject formula] on an explicit frame stack, so the depth of
// the goroutine stack does not grow with the formula. Crashes come back as
// *Crash; budgets as ErrStepBudget / ErrStackBudget; cancellation as ctx.Err().
func (me *Interp) Eval(ctx context.Context, subject Noun, formula Noun) (Noun, error) {
	maxstack := me.MaxStack
	if maxstack <= 0 {
		maxstack = defaultMaxStack
	}
	todo := []frame{{k: kEval, subj: subject, form: formula}}
	var vals []Noun
	pop := func() Noun {
		v := vals[len(vals)-1]
		vals = vals[:len(vals)-1]
		return v
	}

	steps := 0
	for len(todo) > 0 {
		if len(todo)+len(vals) > maxstack {
			return nil, fmt.Errorf("%w: %d frames", ErrStackBudget, len(todo)+len(vals))
		}
		f := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		switch f.k {
		case kEval:
			if steps++; me.MaxSteps > 0 && steps > me.MaxSteps {
				return nil, fmt.Errorf("%w: %d steps", ErrStepBudget, me.MaxSteps)
			}
			if steps%ctxPollSteps == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			next, err := me.step(f.subj, f.form, todo)
			if err != nil {
				return nil, me.crashed(err, steps)
			}
			if next.val != nil {
				vals = append(vals, next.val)
			}
			todo = next.todo

		case kCons:
			tail := pop()
			vals = append(vals, Cons(pop(), tail))
		case kCompose:
			form := pop()
			todo = append(todo, frame{k: kEval, subj: pop(), form: form})
		case kWut:
			vals = append(vals, Wut(pop()))
		case kLus:
			n, err := Lus(pop())
			if err != nil {
				return nil, me.crashed(err, steps)
			}
			vals = append(vals, n)
		case kTis:
			b := pop()
			vals = append(vals, Tis(pop(), b))
		case kSeven:
			todo = append(todo, frame{k: kEval, subj: pop(), form: f.form})
		case kPush:
			todo = append(todo, frame{k: kEval, subj: Cons(pop(), f.subj), form: f.form})
		case kCore:
			core := pop()
			arm, err := Fas(f.form, core)
			if err != nil {
				return nil, me.crashed(err, steps)
			}
			todo = append(todo, frame{k: kEval, subj: core, form: arm})
		case kEdit:
			d := pop()
			n, err := Hax(f.form, pop(), d)
			if err != nil {
				return nil, me.crashed(err, steps)
			}
			vals = append(vals, n)
		case kHint:
			me.hint(f.form, pop(), f.subj)
		}
	}
	if len(vals) != 1 {
		panic(fmt.Sprintf("pinochle: evaluator left %d values", len(vals)))
	}
	return vals[0], nil
}

type stepped struct {
	val  Noun
	todo []frame
}

// step reduces one formula: either to a value, or to more frames pushed on todo.
// Frames are pushed in reverse, so the first pushed runs last.
func (me *Interp) step(subj Noun, form Noun, todo []frame) (stepped, error) {
	cell, iscell := form.(*NounCell)
	if !iscell { //?                                                         *a
		return stepped{}, crashf(CrashFormula, "atom %s is not a formula", brief(form))
	}
	if _, isautocons := cell.Head.(*NounCell); isautocons { //?              *[a [b c] d]
		return stepped{todo: append(todo, //>                                [*[a b c] *[a d]]
			frame{k: kCons},
			frame{k: kEval, subj: subj, form: cell.Tail},
			frame{k: kEval, subj: subj, form: cell.Head},
		)}, nil
	}

	op, args := cell.Head.(NounAtom), cell.Tail
	opcode, small := op.Uint64()
	if !small || opcode > 11 {
		return stepped{}, crashf(CrashOpcode, "unknown opcode %s", brief(op))
	}
	eval := func(f Noun) frame { return frame{k: kEval, subj: subj, form: f} }

	switch opcode {
	case 0: //?                                                              *[a 0 b]
		n, err := Fas(args, subj) //>                                        /[b a]
		return stepped{val: n, todo: todo}, err
	case 1: //?                                                              *[a 1 b]
		return stepped{val: args, todo: todo}, nil //>                       b
	case 3: //?                                                              *[a 3 b]
		return stepped{todo: append(todo, frame{k: kWut}, eval(args))}, nil //> ?*[a b]
	case 4: //?                                                              *[a 4 b]
		return stepped{todo: append(todo, frame{k: kLus}, eval(args))}, nil //> +*[a b]
	}

	b, c, err := operands(opcode, args)
	if err != nil {
		return stepped{}, err
	}
	switch opcode {
	case 2: //?                                                              *[a 2 b c]
		todo = append(todo, frame{k: kCompose}, eval(c), eval(b)) //>       *[*[a b] *[a c]]
	case 5: //?                                                              *[a 5 b c]
		todo = append(todo, frame{k: kTis}, eval(c), eval(b)) //>           =[*[a b] *[a c]]
	case 6: //?                                                              *[a 6 b c d]
		cd, ok := c.(*NounCell) //>                                          *[a *[[c d] 0 *[[2 3] 0 *[a 4 4 b]]]]
		if !ok {
			return stepped{}, crashf(CrashShape, "opcode 6 needs [b c d], got %s", brief(args))
		}
		todo = append(todo, eval(sixFormula(b, cd.Head, cd.Tail)))
	case 7: //?                                                              *[a 7 b c]
		todo = append(todo, frame{k: kSeven, form: c}, eval(b)) //>         *[*[a b] c]
	case 8: //?                                                              *[a 8 b c]
		todo = append(todo, frame{k: kPush, subj: subj, form: c}, eval(b)) //> *[[*[a b] a] c]
	case 9: //?                                                              *[a 9 b c]
		todo = append(todo, frame{k: kCore, form: b}, eval(c)) //>          *[*[a c] 2 [0 1] 0 b]
	case 10: //?                                                             *[a 10 [b c] d]
		bc, ok := b.(*NounCell) //>                                          #[b *[a c] *[a d]]
		if !ok {
			return stepped{}, crashf(CrashShape, "opcode 10 needs [[b c] d], got %s", brief(args))
		}
		todo = append(todo, frame{k: kEdit, form: bc.Head}, eval(c), eval(bc.Tail))
	case 11:
		if tagclue, isdyn := b.(*NounCell); isdyn { //?                      *[a 11 [b c] d]
			todo = append(todo, eval(c), //>                                 *[[*[a c] *[a d]] 0 3]
				frame{k: kHint, subj: subj, form: tagclue.Head},
				eval(tagclue.Tail))
		} else { //?                                                         *[a 11 b c]
			me.hint(b, nil, subj) //>                                        *[a c]
			todo = append(todo, eval(c))
		}
	}
	return stepped{todo: todo}, nil
}

func operands(opcode uint64, args Noun) (Noun, Noun, error) {
	if cell, ok := args.(*NounCell); ok {
		return cell.Head, cell.Tail, nil
	}
	return nil, nil, crashf(CrashShape, "opcode %d needs a cell of operands, got %s", opcode, args)
}

func (me *Interp) hint(tag Noun, clue Noun, subj Noun) {
	if me.OnHint != nil {
		me.OnHint(tag, clue, subj)
	}
	if log := me.log(); log.Core().Enabled(zap.DebugLevel) {
		fields := []zap.Field{zap.Stringer("tag", tag)}
		if clue != nil {
			fields = append(fields, zap.Stringer("clue", clue))
		}
		log.Debug("hint", fields...)
	}
}

func (me *Interp) crashed(err error, steps int) error {
	if c, ok := err.(*Crash); ok {
		me.log().Debug("crash", zap.Stringer("kind", c.Kind), zap.String("reason", c.Reason), zap.Int("steps", steps))
	}
	return err
}

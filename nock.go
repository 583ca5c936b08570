// Package pinochle is a Nock 4K interpreter: nouns, tree addressing,
// the 12-opcode evaluator, the mug hash and the jam/cue codec.
package pinochle

import (
	"errors"
	"fmt"
)

var (
	// ErrCrash matches every evaluation crash via errors.Is.
	ErrCrash = errors.New("nock crash")
	// ErrCodec matches every cue decoding failure via errors.Is.
	ErrCodec = errors.New("cue")
	// ErrConversion matches every host-to-noun conversion failure.
	ErrConversion = errors.New("to-noun")

	ErrStepBudget  = errors.New("step budget exhausted")
	ErrStackBudget = errors.New("stack budget exhausted")
)

type CrashKind int

const (
	CrashAxis CrashKind = iota
	CrashOpcode
	CrashShape
	CrashIncrement
	CrashFormula
)

func (me CrashKind) String() string {
	switch me {
	case CrashAxis:
		return "axis"
	case CrashOpcode:
		return "opcode"
	case CrashShape:
		return "shape"
	case CrashIncrement:
		return "increment"
	case CrashFormula:
		return "formula"
	}
	return fmt.Sprintf("CrashKind(%d)", int(me))
}

// Crash is the calculus's own failure: the computation does not reduce.
type Crash struct {
	Kind   CrashKind
	Reason string
}

func (me *Crash) Error() string        { return "crash: " + me.Reason }
func (me *Crash) Is(target error) bool { return target == ErrCrash }

func crashf(kind CrashKind, format string, args ...any) *Crash {
	return &Crash{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// CodecError reports a malformed jam stream. Offset is in bits.
type CodecError struct {
	Reason string
	Offset int
}

func (me *CodecError) Error() string {
	return fmt.Sprintf("cue: %s at bit %d", me.Reason, me.Offset)
}

func (me *CodecError) Is(target error) bool { return target == ErrCodec }

type ConversionError struct {
	Value  any
	Reason string
}

func (me *ConversionError) Error() string {
	return fmt.Sprintf("to-noun %v: %s", me.Value, me.Reason)
}

func (me *ConversionError) Is(target error) bool { return target == ErrConversion }

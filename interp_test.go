package pinochle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type nockCase struct {
	subject string
	formula string
	want    string // "" means it must crash
	desc    string
}

func runNockCases(t *testing.T, cases []nockCase) {
	t.Helper()
	for _, tt := range cases {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := Nock(mustParse(t, tt.subject), mustParse(t, tt.formula))
			if tt.want == "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrCrash), "want a crash, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, Pretty(got))
		})
	}
}

func TestNockScenarios(t *testing.T) {
	runNockCases(t, []nockCase{
		{"100", "[0 1]", "100", "whole subject"},
		{"[10 20]", "[0 2]", "10", "head of subject"},
		{"41", "[4 0 1]", "42", "increment"},
		{"[1 2]", "[1 [3 4]]", "[3 4]", "constant cell"},
		{"[[1 2] [3 4]]", "[0 5]", "2", "axis 5"},
		{"[1 2]", "[3 0 1]", "0", "cell test on cell"},
		{"7", "[3 0 1]", "1", "cell test on atom"},
		{"42", "[[1 2] [1 3]]", "[2 3]", "autocons"},
		{"[5 6]", "[[0 3] [0 2]]", "[6 5]", "autocons swaps"},
		{"42", "[[4 0 1] [1 0] [0 1]]", "[43 0 42]", "nested autocons"},
	})
}

func TestNockCrashes(t *testing.T) {
	runNockCases(t, []nockCase{
		{"42", "[0 0]", "", "axis 0"},
		{"[1 2]", "[0 0]", "", "axis 0 on cell"},
		{"[1 2]", "[4 0 1]", "", "increment of cell"},
		{"42", "[12 0 1]", "", "unknown opcode"},
		{"42", "[99 1]", "", "large opcode"},
		{"42", "[340282366920938463463374607431768211455 1]", "", "huge opcode"},
		{"[1 2]", "[0 4]", "", "axis out of range"},
		{"42", "[0 [1 2]]", "", "cell axis"},
		{"42", "[2 0]", "", "compose without operands"},
		{"42", "[5 0]", "", "equality without operands"},
		{"42", "[6 [1 0] 0]", "", "if without branches"},
		{"42", "[6 [1 2] [1 3] [1 4]]", "", "if on non-loobean"},
		{"42", "[6 [1 [0 0]] [1 3] [1 4]]", "", "if on cell test value"},
		{"42", "[10 2 [1 3]]", "", "edit without [b c]"},
		{"42", "[10 [0 [1 3]] [0 1]]", "", "edit at axis 0"},
		{"42", "[11 [1 [0 4]] [0 1]]", "", "dynamic hint clue crashes"},
		{"42", "[1 2 3 4]", "[2 3 4]", "constant is never a crash"},
	})
}

func TestNockBareAtomFormula(t *testing.T) {
	_, err := Nock(Atom(1), Atom(0))
	var crash *Crash
	require.ErrorAs(t, err, &crash)
	assert.Equal(t, CrashFormula, crash.Kind)

	_, err = Nock(Atom(1), N(13, 0, 1))
	require.ErrorAs(t, err, &crash)
	assert.Equal(t, CrashOpcode, crash.Kind)

	_, err = Nock(N(1, 2), N(4, 0, 1))
	require.ErrorAs(t, err, &crash)
	assert.Equal(t, CrashIncrement, crash.Kind)

	_, err = Nock(Atom(1), N(7, 0))
	require.ErrorAs(t, err, &crash)
	assert.Equal(t, CrashShape, crash.Kind)
}

func TestNockOpcodes(t *testing.T) {
	runNockCases(t, []nockCase{
		{"41", "[2 [0 1] [1 4 0 1]]", "42", "2 composes"},
		{"[1 1]", "[5 [0 2] [0 3]]", "0", "5 equal atoms"},
		{"[1 2]", "[5 [0 2] [0 3]]", "1", "5 unequal atoms"},
		{"[[1 2] [1 2]]", "[5 [0 2] [0 3]]", "0", "5 equal cells"},
		{"0", "[6 [1 0] [1 10] [1 20]]", "10", "6 takes c on 0"},
		{"0", "[6 [1 1] [1 10] [1 20]]", "20", "6 takes d on 1"},
		{"[5 5]", "[6 [5 [0 2] [0 3]] [1 10] [1 20]]", "10", "6 with computed test"},
		{"41", "[7 [4 0 1] [4 0 1]]", "43", "7 pipes"},
		{"41", "[8 [4 0 1] [0 1]]", "[42 41]", "8 pushes"},
		{"0", "[9 2 [1 [4 0 3] 41]]", "42", "9 invokes the arm at axis"},
		{"[1 2]", "[10 [2 [1 9]] [0 1]]", "[9 2]", "10 edits head"},
		{"[[1 2] 3]", "[10 [5 [1 9]] [0 1]]", "[[1 9] 3]", "10 edits deep"},
		{"[1 2]", "[10 [1 [1 9]] [0 1]]", "9", "10 edits root"},
		{"7", "[11 5 [4 0 1]]", "8", "11 static hint"},
		{"7", "[11 [1 [1 42]] [4 0 1]]", "8", "11 dynamic hint"},
	})
}

// decrement, the classic counting loop through opcodes 6, 8 and 9
const decrement = "[8 [1 0] 8 [1 6 [5 [0 7] 4 0 6] [0 6] 9 2 [0 2] [4 0 6] 0 7] 9 2 0 1]"

func TestNockDecrement(t *testing.T) {
	runNockCases(t, []nockCase{
		{"42", decrement, "41", "decrement 42"},
		{"1", decrement, "0", "decrement 1"},
		{"1000", decrement, "999", "decrement 1000"},
	})
}

func TestNockOpcodeOneAtoms(t *testing.T) {
	for _, v := range []string{
		"0", "255", "256", "65535", "65536", "2147483647", "2147483648",
		"4294967295", "4294967296", "9223372036854775807", "9223372036854775808",
		"18446744073709551615", "18446744073709551616",
		"340282366920938463463374607431768211455",
	} {
		runNockCases(t, []nockCase{
			{"15", "[1 " + v + "]", v, "constant " + v},
			{v, "[0 1]", v, "subject " + v},
		})
	}
	runNockCases(t, []nockCase{
		{"18446744073709551615", "[4 0 1]", "18446744073709551616", "increment past 64 bits"},
	})
}

func TestNockDeepFormula(t *testing.T) {
	// a formula nested this deep would blow a recursive evaluator's stack budget
	const depth = 200000
	var f Noun = N(0, 1)
	for i := 0; i < depth; i++ {
		f = Cons(Atom(4), f)
	}
	got, err := Nock(Atom(0), f)
	require.NoError(t, err)
	assert.Equal(t, "200000", got.String())

	interp := &Interp{MaxStack: 1000}
	_, err = interp.Eval(context.Background(), Atom(0), f)
	assert.True(t, errors.Is(err, ErrStackBudget))
	assert.False(t, errors.Is(err, ErrCrash))
}

func TestNockBudgets(t *testing.T) {
	loop := mustParse(t, "[2 [0 1] [0 1]]")

	interp := &Interp{MaxSteps: 1000}
	_, err := interp.Eval(context.Background(), loop, loop)
	assert.True(t, errors.Is(err, ErrStepBudget))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Interp{}).Eval(ctx, loop, loop)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := (&Interp{MaxSteps: 100000}).Eval(context.Background(), Atom(42), mustParse(t, decrement))
	require.NoError(t, err)
	assert.Equal(t, "41", got.String())
}

func TestNockHints(t *testing.T) {
	type seen struct {
		tag, clue, subject string
	}
	var hints []seen
	interp := &Interp{OnHint: func(tag, clue, subject Noun) {
		s := seen{tag: Pretty(tag), subject: Pretty(subject)}
		if clue != nil {
			s.clue = Pretty(clue)
		}
		hints = append(hints, s)
	}}

	got, err := interp.Eval(context.Background(), Atom(7), mustParse(t, "[11 [1 [1 42]] [4 0 1]]"))
	require.NoError(t, err)
	assert.Equal(t, "8", got.String())

	got, err = interp.Eval(context.Background(), Atom(7), mustParse(t, "[11 5 [0 1]]"))
	require.NoError(t, err)
	assert.Equal(t, "7", got.String())

	assert.Equal(t, []seen{{"1", "42", "7"}, {"5", "", "7"}}, hints)
}

func TestNockLogsCrash(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	interp := &Interp{Log: zap.New(core)}
	_, err := interp.Eval(context.Background(), N(1, 2), mustParse(t, "[4 0 1]"))
	require.Error(t, err)
	entries := logs.FilterMessage("crash").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "increment", entries[0].ContextMap()["kind"])

	_, err = interp.Eval(context.Background(), Atom(1), mustParse(t, "[11 3 [0 1]]"))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("hint").Len())
}

func TestNockConcurrent(t *testing.T) {
	interp := &Interp{}
	f := mustParse(t, decrement)
	done := make(chan string)
	for i := 0; i < 8; i++ {
		go func() {
			got, err := interp.Eval(context.Background(), Atom(300), f)
			if err != nil {
				done <- err.Error()
				return
			}
			done <- got.String()
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, "299", <-done)
	}
}

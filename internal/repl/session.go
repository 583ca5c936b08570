// Package repl is the interactive Nock shell: a subject, the last result and
// named variables, driven one line at a time.
package repl

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/sigilante/pinochle"
	"github.com/sigilante/pinochle/internal/store"
	"go.uber.org/zap"
)

// ErrQuit is returned by Exec for :quit.
var ErrQuit = errors.New("quit")

var varDef = regexp.MustCompile(`^:\s*([a-zA-Z_][a-zA-Z0-9_-]*)\s+(.+)$`)

type Session struct {
	Interp *pinochle.Interp
	Store  *store.Store // nil turns :save and :load off
	Log    *zap.Logger

	subject pinochle.Noun
	last    pinochle.Noun
	vars    map[string]pinochle.Noun
}

func New(interp *pinochle.Interp, st *store.Store, log *zap.Logger) *Session {
	if interp == nil {
		interp = &pinochle.Interp{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{Interp: interp, Store: st, Log: log, subject: pinochle.Atom(0), vars: map[string]pinochle.Noun{}}
}

func (me *Session) Subject() pinochle.Noun { return me.subject }
func (me *Session) Last() pinochle.Noun    { return me.last }

type command struct {
	usage string
	run   func(me *Session, ctx context.Context, arg string) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"subject": {":subject <noun>       set the subject for later formulas", (*Session).cmdSubject},
		"formula": {":formula <formula>    evaluate a formula against the subject", (*Session).cmdFormula},
		"nock":    {":nock [subject formula]  evaluate a whole nock expression", (*Session).cmdNock},
		"show":    {":show [name]          show the subject, last result and variables", (*Session).cmdShow},
		"jam":     {":jam [noun]           jam a noun (default: last result) to a hex atom", (*Session).cmdJam},
		"cue":     {":cue <atom>           cue a jammed atom back to a noun", (*Session).cmdCue},
		"mug":     {":mug [noun]           the mug of a noun (default: last result)", (*Session).cmdMug},
		"save":    {":save <name>          store the subject and variables", (*Session).cmdSave},
		"load":    {":load <name>          restore a stored session", (*Session).cmdLoad},
		"help":    {":help                 this message", (*Session).cmdHelp},
		"quit":    {":quit                 leave the shell", (*Session).cmdQuit},
	}
}

// Exec runs one line of input and returns what it prints. Nothing in the
// session changes when it fails.
func (me *Session) Exec(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	me.Log.Debug("exec", zap.String("line", line))

	if inner, ok := strings.CutPrefix(line, ".*("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return "", errors.New(".*( needs a closing )")
		}
		return me.dottar(ctx, inner)
	}
	if !strings.HasPrefix(line, ":") {
		return me.cmdFormula(ctx, line)
	}
	word, arg, _ := strings.Cut(line[1:], " ")
	if cmd, ok := commands[word]; ok {
		return cmd.run(me, ctx, strings.TrimSpace(arg))
	}
	m := varDef.FindStringSubmatch(line)
	if m == nil {
		return "", fmt.Errorf("unknown command %q; define a variable with :name <noun>", line)
	}
	v, err := me.parse(m[2])
	if err != nil {
		return "", err
	}
	me.vars[m[1]] = v
	return fmt.Sprintf("Variable '%s' set to: %s", m[1], pinochle.Pretty(v)), nil
}

func (me *Session) parse(src string) (pinochle.Noun, error) {
	return pinochle.ParseWith(src, func(name string) (pinochle.Noun, bool) {
		v, ok := me.vars[name]
		return v, ok
	})
}

// parse with a default of the last result, then the subject
func (me *Session) parseOrLast(src string) (pinochle.Noun, error) {
	if src != "" {
		return me.parse(src)
	}
	if me.last != nil {
		return me.last, nil
	}
	return me.subject, nil
}

func (me *Session) eval(ctx context.Context, subject, formula pinochle.Noun) (string, error) {
	res, err := me.Interp.Eval(ctx, subject, formula)
	if err != nil {
		return "", err
	}
	me.last = res
	return pinochle.Pretty(res), nil
}

func (me *Session) dottar(ctx context.Context, src string) (string, error) {
	sf, err := me.parse("[" + src + "]")
	if err != nil {
		return "", err
	}
	cell := sf.(*pinochle.NounCell)
	out, err := me.eval(ctx, cell.Head, cell.Tail)
	if err != nil {
		return "", err
	}
	me.subject = cell.Head
	return out, nil
}

func (me *Session) cmdSubject(_ context.Context, arg string) (string, error) {
	n, err := me.parse(arg)
	if err != nil {
		return "", err
	}
	me.subject = n
	return "Subject set to: " + pinochle.Pretty(n), nil
}

func (me *Session) cmdFormula(ctx context.Context, arg string) (string, error) {
	f, err := me.parse(arg)
	if err != nil {
		return "", err
	}
	return me.eval(ctx, me.subject, f)
}

func (me *Session) cmdNock(ctx context.Context, arg string) (string, error) {
	n, err := me.parse(arg)
	if err != nil {
		return "", err
	}
	cell, ok := n.(*pinochle.NounCell)
	if !ok {
		return "", errors.New(":nock needs [subject formula]")
	}
	return me.eval(ctx, cell.Head, cell.Tail)
}

func (me *Session) cmdShow(_ context.Context, arg string) (string, error) {
	if arg != "" {
		v, ok := me.vars[arg]
		if !ok {
			return "", fmt.Errorf("variable '%s' not found", arg)
		}
		return fmt.Sprintf("%s = %s", arg, pinochle.Pretty(v)), nil
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "Subject: %s\n", pinochle.Pretty(me.subject))
	if me.last != nil {
		fmt.Fprintf(&buf, "Last result: %s\n", pinochle.Pretty(me.last))
	}
	if len(me.vars) == 0 {
		buf.WriteString("\nNo variables defined")
		return buf.String(), nil
	}
	buf.WriteString("\nVariables:")
	for _, name := range me.varNames() {
		fmt.Fprintf(&buf, "\n  %s = %s", name, pinochle.Pretty(me.vars[name]))
	}
	return buf.String(), nil
}

func (me *Session) varNames() []string {
	names := make([]string, 0, len(me.vars))
	for name := range me.vars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (me *Session) cmdJam(_ context.Context, arg string) (string, error) {
	n, err := me.parseOrLast(arg)
	if err != nil {
		return "", err
	}
	return "0x" + pinochle.JamAtom(n).Big().Text(16), nil
}

func (me *Session) cmdCue(_ context.Context, arg string) (string, error) {
	n, err := me.parse(arg)
	if err != nil {
		return "", err
	}
	a, ok := n.(pinochle.NounAtom)
	if !ok {
		return "", errors.New(":cue needs an atom")
	}
	res, err := pinochle.CueAtom(a)
	if err != nil {
		return "", err
	}
	me.last = res
	return pinochle.Pretty(res), nil
}

func (me *Session) cmdMug(_ context.Context, arg string) (string, error) {
	n, err := me.parseOrLast(arg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%x", pinochle.Mug(n)), nil
}

func (me *Session) cmdSave(ctx context.Context, arg string) (string, error) {
	if me.Store == nil {
		return "", errors.New("no store configured")
	}
	if arg == "" {
		return "", errors.New(":save needs a name")
	}
	id, err := me.Store.SaveSession(ctx, arg, store.Snapshot{Subject: me.subject, Vars: me.vars})
	if err != nil {
		me.Log.Warn("save failed", zap.String("session", arg), zap.Error(err))
		return "", err
	}
	return fmt.Sprintf("Saved session '%s' (%s)", arg, id), nil
}

func (me *Session) cmdLoad(ctx context.Context, arg string) (string, error) {
	if me.Store == nil {
		return "", errors.New("no store configured")
	}
	if arg == "" {
		return "", errors.New(":load needs a name")
	}
	snap, err := me.Store.LoadSession(ctx, arg)
	if err != nil {
		return "", err
	}
	me.subject, me.vars, me.last = snap.Subject, snap.Vars, nil
	return fmt.Sprintf("Loaded session '%s': %d variables, subject %s", arg, len(snap.Vars), pinochle.Pretty(snap.Subject)), nil
}

func (me *Session) cmdHelp(context.Context, string) (string, error) {
	var buf strings.Builder
	buf.WriteString("Commands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&buf, "  %s\n", commands[name].usage)
	}
	buf.WriteString(`  :<name> <noun>        define a variable; names may appear in any later noun
  .*(subject formula)   evaluate and make subject the new subject
  <formula>             evaluate a formula against the subject

%N is accepted anywhere an atom is, so %4 is 4.

Examples:
  :subject [42 43 44]
  :formula [0 2]              42
  :nock [[1 2] [0 1]]         [1 2]
  .*([1 2 3] [0 2])           1
  :increment [4 0 1]
  .*(43 increment)            44`)
	return buf.String(), nil
}

func (me *Session) cmdQuit(context.Context, string) (string, error) {
	return "", ErrQuit
}

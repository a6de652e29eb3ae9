package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/juju/errors"

	"github.com/mrdg/phrasegen/config"
	"github.com/mrdg/phrasegen/dub"
)

type env struct {
	song   *config.Song
	arr    *config.Arrangement
	engine *engine
}

func (e *env) part(name string) (*config.Part, error) {
	return e.arr.Part(name)
}

func (e *env) setProp(part, prop string, v interface{}) error {
	p, err := e.part(part)
	if err != nil {
		return err
	}
	if p.Instrument == nil {
		return errors.NotValidf("part %s without instrument", part)
	}
	return p.Instrument.Set(prop, v)
}

func (e *env) getProp(part, prop string) (interface{}, error) {
	p, err := e.part(part)
	if err != nil {
		return nil, err
	}
	if p.Instrument == nil {
		return nil, errors.NotValidf("part %s without instrument", part)
	}
	return p.Instrument.Get(prop)
}

func (e *env) eval(input string) (dub.Node, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return nil, err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, errors.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, errors.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, errors.Annotatef(err, "%s", cmd.name)
		}
		return result, nil
	}
	return nil, errors.NotFoundf("command %s", name)
}

// run evaluates every line of a script, stopping at the first error.
// Empty lines and lines starting with # are skipped.
func (e *env) run(script string, out io.Writer) error {
	for n, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result, err := e.eval(line)
		if err != nil {
			return errors.Annotatef(err, "line %d", n+1)
		}
		printResult(out, result)
	}
	return nil
}

// repl reads commands until the input ends or ctx is done.
func repl(ctx context.Context, env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return errors.Trace(err)
	}
	defer rl.Close()
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if result, err := env.eval(line); err != nil {
			fmt.Fprintln(rl.Stderr(), colorize(err.Error(), colorRed))
		} else {
			printResult(rl.Stdout(), result)
		}
	}
}

func printResult(w io.Writer, result dub.Node) {
	switch v := result.(type) {
	case nil:
	case dub.String:
		fmt.Fprint(w, string(v))
		if !strings.HasSuffix(string(v), "\n") {
			fmt.Fprintln(w)
		}
	default:
		fmt.Fprintln(w, v)
	}
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.NotValidf("%d arguments for %d slots", len(args), len(slots))
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return errors.NotValidf("argument %d: %v (expected a string or identifier)", n+1, arg)
			}
		case *float64:
			v, ok := dub.Number(arg)
			if !ok {
				return errors.NotValidf("argument %d: %v (expected a number)", n+1, arg)
			}
			*p = v
		case *int:
			v, ok := arg.(dub.Int)
			if !ok {
				return errors.NotValidf("argument %d: %v (expected an integer)", n+1, arg)
			}
			*p = int(v)
		case *dub.MatchExpr:
			m, ok := arg.(dub.MatchExpr)
			if !ok {
				return errors.NotValidf("argument %d: %v (expected a match expression)", n+1, arg)
			}
			*p = m
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}

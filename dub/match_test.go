package dub

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/juju/errors"

	"github.com/mrdg/phrasegen/rhythm"
)

func TestEvalMatchExpr(t *testing.T) {
	type test struct {
		input    string
		time     [2]int
		stepSize string
		expect   []int
	}
	tests := []test{
		{
			input:    "2,4/*",
			time:     [2]int{4, 4},
			stepSize: "16",
			expect:   []int{0, 0, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 1, 0, 1, 0},
		},
		{
			input:    "1:4",
			time:     [2]int{4, 4},
			stepSize: "16",
			expect:   []int{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		},
		{
			input:    "1:2//1:4",
			time:     [2]int{4, 4},
			stepSize: "16",
			expect:   []int{1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			input:    "*//3,4",
			time:     [2]int{4, 4},
			stepSize: "16",
			expect:   []int{0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1},
		},
		{
			input:    "*/2",
			time:     [2]int{4, 4},
			stepSize: "16",
			expect:   []int{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
		},
		{
			input:    "5",
			time:     [2]int{5, 4},
			stepSize: "16",
			expect:   []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		},
		{
			input:    "*",
			time:     [2]int{7, 8},
			stepSize: "16",
			expect:   []int{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0},
		},
		{
			input:    "1,4,6/2",
			time:     [2]int{7, 8},
			stepSize: "16",
			expect:   []int{0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0},
		},
		{
			input:    "*/2,3",
			time:     [2]int{4, 4},
			stepSize: "16T",
			expect: []int{
				0, 0, 1, 0, 1, 0,
				0, 0, 1, 0, 1, 0,
				0, 0, 1, 0, 1, 0,
				0, 0, 1, 0, 1, 0,
			},
		},
		{
			input:    "*/2",
			time:     [2]int{9, 8},
			stepSize: "16T",
			expect: []int{
				0, 1, 0, 0, 1, 0, 0, 1, 0,
				0, 1, 0, 0, 1, 0, 0, 1, 0,
				0, 1, 0, 0, 1, 0, 0, 1, 0,
			},
		},
		{
			input:    "*",
			time:     [2]int{4, 4},
			stepSize: "32",
			expect: []int{
				1, 0, 0, 0, 0, 0, 0, 0,
				1, 0, 0, 0, 0, 0, 0, 0,
				1, 0, 0, 0, 0, 0, 0, 0,
				1, 0, 0, 0, 0, 0, 0, 0,
			},
		},
	}
	for _, test := range tests {
		input := "a '" + test.input // make the input a valid dub command
		command, err := Parse(input)
		if err != nil {
			t.Error(err)
			continue
		}
		expr := command.Args[0].(MatchExpr)

		num := strings.TrimSuffix(test.stepSize, "T")
		triplets := len(num) != len(test.stepSize)
		stepSize, err := strconv.Atoi(num)
		if err != nil {
			t.Error(err)
			continue
		}

		got, err := EvalMatchExpr(expr, test.time[0], test.time[1], stepSize, triplets)
		if err != nil {
			t.Errorf("%s: %v", test.input, err)
			continue
		}
		if !reflect.DeepEqual(test.expect, got) {
			t.Errorf("%s: seq mismatch:\nwant %v\ngot: %v", test.input, test.expect, got)
		}
	}
}

func TestEvalMatchExprErrors(t *testing.T) {
	expr := MatchExpr{matchers: []matchItem{{level: 0, matcher: matchAll}, {level: 3, matcher: matchAll}}}
	if _, err := EvalMatchExpr(expr, 4, 4, 16, false); !errors.Is(err, errors.NotValid) {
		t.Errorf("expected not valid error for a level finer than the step size, got %v", err)
	}
	if _, err := EvalMatchExpr(MatchExpr{}, 4, 4, 16, false); !errors.Is(err, errors.NotValid) {
		t.Errorf("expected not valid error for an empty expression, got %v", err)
	}
	if _, err := EvalMatchExpr(expr, 4, 4, 15, true); !errors.Is(err, errors.NotValid) {
		t.Errorf("expected not valid error for an odd triplet step size, got %v", err)
	}
}

func TestOffsets(t *testing.T) {
	command, err := Parse("pattern snare '2,4/*' 16")
	if err != nil {
		t.Fatal(err)
	}
	expr := command.Args[1].(MatchExpr)

	offsets, err := expr.Offsets(rhythm.FourFour, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := []int{32, 48, 96, 112}, offsets; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong offsets: want %v, got %v", want, got)
	}

	seq, err := expr.Sequence("snare", rhythm.FourFour, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := []int{32, 48, 96, 112, 160, 176}, rhythm.Ticks(seq, 6); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong ticks: want %v, got %v", want, got)
	}

	// 32 ticks per beat can't be split in sixteenth note triplets
	if _, err := expr.Offsets(rhythm.FourFour, 16, true); !errors.Is(err, errors.NotValid) {
		t.Errorf("expected not valid error, got %v", err)
	}
	ts := rhythm.MustTimeSignature(4, 4, 48)
	offsets, err = expr.Offsets(ts, 16, true)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := []int{48, 64, 80, 144, 160, 176}, offsets; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong triplet offsets: want %v, got %v", want, got)
	}
}

func TestSequenceSelectingNothing(t *testing.T) {
	command, err := Parse("a '5")
	if err != nil {
		t.Fatal(err)
	}
	expr := command.Args[0].(MatchExpr)
	if _, err := expr.Sequence("a", rhythm.FourFour, 16, false); !errors.Is(err, errors.NotValid) {
		t.Errorf("expected not valid error, got %v", err)
	}
}

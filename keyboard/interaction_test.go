package keyboard

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Scenario tests use a small fixture DSL over a live Interaction:
//   run(t, Config{...}, func(f *fixture) {
//     f.letters("hi")
//     f.expectBuffer("hi", 2)
//   })

type fixture struct {
	t  *testing.T
	ia *Interaction
}

func run(t *testing.T, cfg Config, fn func(f *fixture)) {
	t.Helper()
	ia, err := NewInteraction(cfg)
	if err != nil {
		t.Fatalf("NewInteraction: %v", err)
	}
	fn(&fixture{t: t, ia: ia})
}

func triple(maxLen int) Config {
	return Config{MaxTextLength: maxLen, ButtonConfig: ButtonTriple}
}

func (f *fixture) press(p Press) State { return f.ia.OnKeyPress(p) }

func (f *fixture) letters(s string) {
	for _, r := range s {
		f.press(Letter(string(r)))
	}
}

func (f *fixture) do(actions ...Action) {
	for _, a := range actions {
		f.press(Do(a))
	}
}

func (f *fixture) button(t ResultType) (Result, bool) {
	return f.ia.OnResultButton(t)
}

func (f *fixture) expectBuffer(want string, cursor int) {
	f.t.Helper()
	st := f.ia.State()
	if st.Text != want {
		f.t.Fatalf("buffer: want %q, got %q", want, st.Text)
	}
	if st.Cursor != cursor {
		f.t.Fatalf("cursor: want %d, got %d", cursor, st.Cursor)
	}
}

func (f *fixture) expectLayout(kind LayoutKind, shifted bool) {
	f.t.Helper()
	if got := f.ia.Layout(); got.Kind != kind || got.Shifted != shifted {
		f.t.Fatalf("layout: want %v shifted=%v, got %v shifted=%v", kind, shifted, got.Kind, got.Shifted)
	}
}

func letterLabels(keys []Key) string {
	var b strings.Builder
	for _, k := range keys {
		if k.Tag == TagLetter {
			b.WriteString(k.Label)
		}
	}
	return b.String()
}

// ======================
// Text editing
// ======================

func TestLetterSpaceLetter(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.press(Letter("h"))
		f.do(ActionSpace)
		f.press(Letter("i"))
		f.expectBuffer("h i", 3)
	})
}

func TestBackspaceOnEmptyIsNoop(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.do(ActionBackspace)
		f.expectBuffer("", 0)
	})
}

func TestBackspaceRemovesRuneBeforeCursor(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.letters("abcd")
		f.do(ActionMoveLeft, ActionMoveLeft, ActionBackspace)
		f.expectBuffer("acd", 1)
		f.do(ActionBackspace, ActionBackspace)
		f.expectBuffer("cd", 0)
	})
}

func TestInsertInMiddleAdvancesCursor(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.letters("ac")
		f.do(ActionMoveLeft)
		f.letters("b")
		f.expectBuffer("abc", 2)
		f.do(ActionSpace)
		f.expectBuffer("ab c", 3)
	})
}

func TestMoveClampsAtBothEnds(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.letters("ab")
		f.do(ActionMoveRight, ActionMoveRight)
		f.expectBuffer("ab", 2)
		f.do(ActionMoveLeft, ActionMoveLeft, ActionMoveLeft, ActionMoveLeft)
		f.expectBuffer("ab", 0)
	})
}

func TestMaxLengthDropsExtraKeys(t *testing.T) {
	run(t, triple(3), func(f *fixture) {
		f.letters("abcdef")
		f.expectBuffer("abc", 3)
		f.do(ActionSpace)
		f.expectBuffer("abc", 3)
		f.do(ActionMoveLeft)
		f.letters("x")
		f.expectBuffer("abc", 2)
	})
}

func TestTextInsertTruncatesToCapacity(t *testing.T) {
	txt := NewText(Config{MaxTextLength: 5})
	if n := txt.Insert("héllo world"); n != 5 {
		t.Fatalf("inserted %d runes, want 5", n)
	}
	if got := txt.String(); got != "héllo" {
		t.Fatalf("text = %q, want %q", got, "héllo")
	}
	if txt.Cursor() != 5 || txt.Capacity() != 0 {
		t.Fatalf("cursor=%d capacity=%d, want 5 and 0", txt.Cursor(), txt.Capacity())
	}
}

func TestZeroMaxLengthAcceptsNothing(t *testing.T) {
	run(t, triple(0), func(f *fixture) {
		f.letters("a")
		f.do(ActionSpace)
		f.expectBuffer("", 0)
	})
}

func TestEnterOnlyBreaksLinesInMultilineMode(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.letters("a")
		f.do(ActionEnter)
		f.letters("b")
		f.expectBuffer("ab", 2)
	})
	cfg := triple(10)
	cfg.MultilineMode = true
	run(t, cfg, func(f *fixture) {
		f.letters("a")
		f.do(ActionEnter)
		f.letters("b")
		f.expectBuffer("a\nb", 3)
	})
}

func TestSingleLineFiltersPastedNewlines(t *testing.T) {
	txt := NewText(Config{MaxTextLength: 10})
	txt.Insert("a\r\nb")
	if got := txt.String(); got != "ab" {
		t.Fatalf("text = %q, want %q", got, "ab")
	}
}

func TestRandomEditsKeepCursorAndLengthInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	actions := []Action{ActionLetter, ActionBackspace, ActionSpace, ActionMoveLeft, ActionMoveRight, ActionShift, ActionEnter}
	for _, maxLen := range []int{0, 1, 2, 5, 17} {
		cfg := triple(maxLen)
		cfg.MultilineMode = maxLen%2 == 1
		run(t, cfg, func(f *fixture) {
			for step := 0; step < 500; step++ {
				a := actions[rng.Intn(len(actions))]
				p := Do(a)
				if a == ActionLetter {
					p = Letter(string(rune('a' + rng.Intn(26))))
				}
				st := f.press(p)
				n := len([]rune(st.Text))
				if st.Cursor < 0 || st.Cursor > n {
					t.Fatalf("max=%d step %d: cursor %d outside [0,%d]", maxLen, step, st.Cursor, n)
				}
				if n > maxLen {
					t.Fatalf("max=%d step %d: length %d exceeds max", maxLen, step, n)
				}
			}
		})
	}
}

// ======================
// Layout and case
// ======================

func TestShiftUppercasesLettersAndTypedText(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		st := f.press(Do(ActionShift))
		if got := letterLabels(st.Keys); got != "QWERTYUIOPASDFGHJKLZXCVBNM" {
			t.Fatalf("shifted letters = %q", got)
		}
		f.press(Letter("a"))
		f.do(ActionShift)
		f.press(Letter("B"))
		f.expectBuffer("Ab", 2)
	})
}

func TestToggleShiftIsInvolutive(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		before := f.ia.State().Keys
		f.do(ActionShift, ActionShift)
		after := f.ia.State().Keys
		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("keys changed after two shifts (-before +after):\n%s", diff)
		}
	})
}

func TestShiftIsNoopOnNumeric(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.press(SwitchLayout(Numeric))
		f.do(ActionShift)
		f.expectLayout(Numeric, false)
		for _, k := range f.ia.State().Keys {
			if k.Action == ActionShift {
				t.Fatalf("numeric layout should not expose a shift key")
			}
		}
	})
}

func TestLayoutSwitchRemembersShift(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.do(ActionShift)
		f.press(SwitchLayout(Numeric))
		f.expectLayout(Numeric, true)
		if got := letterLabels(f.ia.State().Keys); got != strings.Join(numRows, "") {
			t.Fatalf("numeric keys = %q", got)
		}
		f.press(SwitchLayout(Alphabetic))
		f.expectLayout(Alphabetic, true)
		if got := letterLabels(f.ia.State().Keys); got != strings.ToUpper(strings.Join(alphaRows, "")) {
			t.Fatalf("alphabetic keys after switch back = %q", got)
		}
	})
}

func TestNumericLetterKeysInsertLabels(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		st := f.press(SwitchLayout(Numeric))
		for _, k := range st.Keys {
			if k.Label == "7" || k.Label == "@" {
				f.press(k.Press())
			}
		}
		f.expectBuffer("7@", 2)
	})
}

func TestSwitchToActiveLayoutReportsNoChange(t *testing.T) {
	l := Layout{}
	if l.SwitchTo(Alphabetic) {
		t.Fatal("switching to the active layout should be a no-op")
	}
	if !l.SwitchTo(Numeric) || l.SwitchTo(Numeric) {
		t.Fatal("switching to numeric should change once")
	}
}

func TestApplyCaseIsIdempotent(t *testing.T) {
	keys := registry(Alphabetic)
	once := ApplyCase(keys, true)
	twice := ApplyCase(once, true)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("ApplyCase not idempotent (-once +twice):\n%s", diff)
	}
	for _, k := range once {
		if k.Tag == TagModifier && k.Label == "SHIFT" {
			t.Fatalf("modifier labels must not be re-cased")
		}
	}
}

func TestMultilineAddsEnterKey(t *testing.T) {
	cfg := triple(10)
	cfg.MultilineMode = true
	run(t, cfg, func(f *fixture) {
		keys := f.ia.State().Keys
		if last := keys[len(keys)-1]; last.Action != ActionEnter {
			t.Fatalf("last key = %+v, want enter", last)
		}
	})
}

// ======================
// Result buttons
// ======================

func TestPositiveCarriesTextAndConfig(t *testing.T) {
	cfg := Config{MaxTextLength: 10, ButtonConfig: ButtonTriple}
	run(t, cfg, func(f *fixture) {
		f.letters("abc")
		got, ok := f.button(ResultPositive)
		if !ok {
			t.Fatal("positive press rejected")
		}
		want := Result{Type: ResultPositive, Text: "abc", Config: &cfg}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestNeutralAndNegativeDropText(t *testing.T) {
	for _, rt := range []ResultType{ResultNeutral, ResultNegative} {
		run(t, triple(10), func(f *fixture) {
			f.letters("secret")
			got, ok := f.button(rt)
			if !ok {
				t.Fatalf("%v press rejected", rt)
			}
			if got != (Result{Type: rt}) {
				t.Fatalf("%v result = %+v, want empty text and no config", rt, got)
			}
		})
	}
}

func TestOnlyFirstButtonPressCounts(t *testing.T) {
	run(t, triple(10), func(f *fixture) {
		f.letters("a")
		if _, ok := f.button(ResultNegative); !ok {
			t.Fatal("first press rejected")
		}
		if _, ok := f.button(ResultPositive); ok {
			t.Fatal("second press accepted")
		}
		f.letters("b")
		f.expectBuffer("a", 1)
		if f.ia.Result().Type != ResultNegative {
			t.Fatalf("result = %v, want Negative", f.ia.Result().Type)
		}
		if _, ok := f.ia.Cancel(); ok {
			t.Fatal("cancel after finish accepted")
		}
	})
}

func TestHiddenButtonsAreIgnored(t *testing.T) {
	cases := []struct {
		bc      ButtonConfig
		visible []ResultType
	}{
		{ButtonNone, nil},
		{ButtonSingle, []ResultType{ResultPositive}},
		{ButtonDual, []ResultType{ResultPositive, ResultNegative}},
		{ButtonTriple, []ResultType{ResultPositive, ResultNeutral, ResultNegative}},
	}
	for _, tc := range cases {
		t.Run(tc.bc.String(), func(t *testing.T) {
			run(t, Config{MaxTextLength: 4, ButtonConfig: tc.bc}, func(f *fixture) {
				if diff := cmp.Diff(tc.visible, f.ia.State().Buttons); diff != "" {
					t.Fatalf("buttons (-want +got):\n%s", diff)
				}
				for _, rt := range []ResultType{ResultPositive, ResultNeutral, ResultNegative} {
					if hasButton(tc.visible, rt) {
						continue
					}
					if _, ok := f.button(rt); ok {
						t.Fatalf("hidden %v button accepted", rt)
					}
				}
			})
		})
	}
}

func TestNoButtonsOnlyEndsByCancel(t *testing.T) {
	run(t, Config{MaxTextLength: 4, ButtonConfig: ButtonNone}, func(f *fixture) {
		f.letters("ab")
		got, ok := f.ia.Cancel()
		if !ok || got != (Result{}) {
			t.Fatalf("cancel = %+v %v, want None result", got, ok)
		}
		if !f.ia.Finished() {
			t.Fatal("interaction should be finished after cancel")
		}
	})
}

func TestUnknownButtonConfigFailsFast(t *testing.T) {
	_, err := NewInteraction(Config{ButtonConfig: ButtonConfig(9)})
	if !errors.Is(err, ErrUnknownButtonConfig) {
		t.Fatalf("err = %v, want ErrUnknownButtonConfig", err)
	}
	_, err = NewInteraction(Config{MaxTextLength: -1})
	if !errors.Is(err, ErrNegativeMaxLength) {
		t.Fatalf("err = %v, want ErrNegativeMaxLength", err)
	}
}

func TestParseButtonConfig(t *testing.T) {
	for b, name := range buttonConfigNames {
		got, err := ParseButtonConfig(strings.ToLower(name))
		if err != nil || got != b {
			t.Fatalf("ParseButtonConfig(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseButtonConfig("quad"); !errors.Is(err, ErrUnknownButtonConfig) {
		t.Fatalf("err = %v, want ErrUnknownButtonConfig", err)
	}
}

// ======================
// Routing
// ======================

func TestRouteTreatsNoneAsNegative(t *testing.T) {
	var calls []string
	sink := SinkFuncs{
		OnPositive: func(text string, _ Config) { calls = append(calls, "positive:"+text) },
		OnNeutral:  func() { calls = append(calls, "neutral") },
		OnNegative: func() { calls = append(calls, "negative") },
	}
	Route(PositiveResult("ok", triple(4)), sink)
	Route(NeutralResult(), sink)
	Route(NegativeResult(), sink)
	Route(Result{}, sink)
	Route(Result{Type: ResultPositive, Text: "lost"}, sink)

	want := []string{"positive:ok", "neutral", "negative", "negative", "negative"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("routing (-want +got):\n%s", diff)
	}
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"vkbd/internal/history"
	"vkbd/keyboard"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func jsonLine(t *testing.T, r keyboard.Result) string {
	t.Helper()
	var b bytes.Buffer
	if err := printResult(&b, r); err != nil {
		t.Fatalf("print result: %v", err)
	}
	return b.String()
}

func TestDecodeCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := keyboard.Config{HintText: "Name", MaxTextLength: 8, ButtonConfig: keyboard.ButtonDual}
	want := keyboard.PositiveResult("mario", cfg)

	for _, codec := range []keyboard.Codec{keyboard.JSONCodec{}, keyboard.MsgpackCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			data, err := codec.Encode(want)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			path := filepath.Join(dir, "result."+codec.Name())
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			out, _, err := execute(t, "decode", "--format", codec.Name(), path)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out != jsonLine(t, want) {
				t.Fatalf("decode output = %q, want %q", out, jsonLine(t, want))
			}
		})
	}
}

func TestDecodeCommandMalformedPayloadIsNone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.json")
	if err := os.WriteFile(path, []byte(`{"type":"Sideways"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, errOut, err := execute(t, "decode", path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != jsonLine(t, keyboard.Result{}) {
		t.Fatalf("decode output = %q, want None", out)
	}
	if !strings.Contains(errOut, "level=WARN") {
		t.Fatalf("malformed payload should be logged as a warning, got %q", errOut)
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	if _, _, err := execute(t, "decode", "--format", "xml", "x"); err == nil {
		t.Fatalf("unknown format should fail")
	}
	if _, _, err := execute(t, "decode", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("missing file should fail")
	}
	if _, _, err := execute(t, "decode"); err == nil {
		t.Fatalf("decode without a file should fail")
	}
}

func writeHistoryConfig(t *testing.T, enabled bool) (string, string) {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	body := "[logging]\noutput = \"discard\"\n\n[history]\nenabled = " + map[bool]string{true: "true", false: "false"}[enabled] + "\npath = \"" + filepath.ToSlash(db) + "\"\n"
	path := filepath.Join(dir, "vkbd.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, db
}

func TestHistoryCommandListsNewestFirst(t *testing.T) {
	cfgPath, db := writeHistoryConfig(t, true)
	store, err := history.Open(db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cfg := keyboard.Config{MaxTextLength: 8, ButtonConfig: keyboard.ButtonTriple}
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if err := store.Record(ctx, history.NewEntry("11111111-aaaa", cfg, keyboard.PositiveResult("abc", cfg), base)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, history.NewEntry("22222222-bbbb", cfg, keyboard.NegativeResult(), base.Add(time.Minute))); err != nil {
		t.Fatalf("record: %v", err)
	}
	store.Close()

	out, _, err := execute(t, "history", "--config", cfgPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"RESULT", "11111111", "Positive", `"abc"`, "Negative", "Triple"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "22222222") > strings.Index(out, "11111111") {
		t.Fatalf("newest entry should come first:\n%s", out)
	}

	out, _, err = execute(t, "history", "--config", cfgPath, "-n", "1")
	if err != nil {
		t.Fatalf("history -n 1: %v", err)
	}
	if strings.Contains(out, "11111111") {
		t.Fatalf("limit not applied:\n%s", out)
	}
}

func TestHistoryCommandDisabled(t *testing.T) {
	cfgPath, _ := writeHistoryConfig(t, false)
	if _, _, err := execute(t, "history", "--config", cfgPath); err == nil {
		t.Fatalf("disabled history should be an error")
	}
}

// scriptedScreen queues input as soon as the simulation screen is ready.
type scriptedScreen struct {
	tcell.SimulationScreen
	script func(tcell.SimulationScreen)
}

func (s scriptedScreen) Init() error {
	if err := s.SimulationScreen.Init(); err != nil {
		return err
	}
	s.SetSize(80, 24)
	s.script(s.SimulationScreen)
	return nil
}

func useScreen(t *testing.T, script func(tcell.SimulationScreen)) {
	t.Helper()
	prev := newScreen
	newScreen = func() (tcell.Screen, error) {
		return scriptedScreen{SimulationScreen: tcell.NewSimulationScreen("UTF-8"), script: script}, nil
	}
	t.Cleanup(func() { newScreen = prev })
}

func TestRunCommandLoopsUntilDismissed(t *testing.T) {
	cfgPath, db := writeHistoryConfig(t, true)
	body, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	body = append([]byte("[keyboard]\nbutton_config = \"single\"\nmax_text_length = 4\n\n"), body...)
	if err := os.WriteFile(cfgPath, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	useScreen(t, func(s tcell.SimulationScreen) {
		// First interaction: type past the limit, then OK.
		for _, r := range "hello" {
			s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
		}
		s.InjectKey(tcell.KeyBacktab, 0, tcell.ModShift)
		s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
		// Second interaction: dismiss.
		s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	})

	out, _, err := execute(t, "run", "--config", cfgPath, "--loop", "--format", "msgpack")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	cfg := keyboard.Config{HintText: "Enter text", MaxTextLength: 4, ButtonConfig: keyboard.ButtonSingle}
	want := jsonLine(t, keyboard.PositiveResult("hell", cfg)) + jsonLine(t, keyboard.Result{})
	if out != want {
		t.Fatalf("run output = %q, want %q", out, want)
	}

	store, err := history.Open(db)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 || entries[1].Text != "hell" || entries[0].Type != keyboard.ResultNone {
		t.Fatalf("history = %+v", entries)
	}
}

func TestRunCommandRejectsUnknownFormat(t *testing.T) {
	cfgPath, _ := writeHistoryConfig(t, false)
	if _, _, err := execute(t, "run", "--config", cfgPath, "--format", "xml"); err == nil {
		t.Fatalf("unknown format should fail before the screen starts")
	}
}

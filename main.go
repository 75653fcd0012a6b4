package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vkbd/internal/config"
	"vkbd/internal/history"
	"vkbd/internal/logging"
	"vkbd/keyboard"
)

var buttonLabels = map[keyboard.ResultType]string{
	keyboard.ResultPositive: "OK",
	keyboard.ResultNeutral:  "I Forgot",
	keyboard.ResultNegative: "Cancel",
}

// target is anything the focus can rest on: a key or a result button.
type target struct {
	key      keyboard.Key
	button   keyboard.ResultType
	isButton bool
	label    string
	row, col int
}

type appState struct {
	handle    *keyboard.Handle
	state     keyboard.State
	targets   []target
	focus     int
	lastEvent string
	log       *slog.Logger

	hits      []hitBox
	mouseDown bool
}

func newAppState(h *keyboard.Handle, log *slog.Logger) *appState {
	if log == nil {
		log = slog.Default()
	}
	app := &appState{handle: h, log: log}
	app.refresh(h.State())
	return app
}

func buildTargets(st keyboard.State) []target {
	var out []target
	row, col, last := -1, 0, 0
	for _, k := range st.Keys {
		if k.Row != row {
			row, col = k.Row, 0
		}
		out = append(out, target{key: k, label: k.Label, row: k.Row, col: col})
		col++
		last = k.Row
	}
	for i, b := range st.Buttons {
		out = append(out, target{button: b, isButton: true, label: buttonLabels[b], row: last + 1, col: i})
	}
	return out
}

func (app *appState) refresh(st keyboard.State) {
	app.state = st
	app.targets = buildTargets(st)
	app.focus = clamp(app.focus, 0, max(len(app.targets)-1, 0))
}

func (app *appState) finished() bool { return app.handle.Finished() }

func (app *appState) apply(p keyboard.Press) {
	before := app.state.Layout
	app.refresh(app.handle.PressKey(p))
	if after := app.state.Layout; after != before {
		app.log.Debug("layout changed", "kind", after.Kind, "shifted", after.Shifted)
	}
}

func (app *appState) pressButton(rt keyboard.ResultType) {
	if r, ok := app.handle.Press(rt); ok {
		app.lastEvent = "Finished: " + r.Type.String()
	}
	app.refresh(app.handle.State())
}

// cancel ends the interaction without a button, like a dialog losing focus.
func (app *appState) cancel(reason string) {
	if !app.handle.Finished() {
		app.handle.Cancel()
		app.log.Info("keyboard dismissed", "reason", reason)
		app.lastEvent = "Dismissed: " + reason
	}
	app.refresh(app.handle.State())
}

func (app *appState) activate(i int) {
	if i < 0 || i >= len(app.targets) {
		return
	}
	t := app.targets[i]
	if t.isButton {
		app.pressButton(t.button)
		return
	}
	app.apply(t.key.Press())
}

func (app *appState) cycleFocus(delta int) {
	n := len(app.targets)
	if n == 0 {
		return
	}
	app.focus = (app.focus + delta + n) % n
}

func (app *appState) moveFocus(drow, dcol int) {
	if len(app.targets) == 0 {
		return
	}
	cur := app.targets[app.focus]
	wantRow, wantCol := cur.row+drow, cur.col+dcol
	best := -1
	for i, t := range app.targets {
		if t.row != wantRow {
			continue
		}
		if t.col == wantCol {
			app.focus = i
			return
		}
		// On row changes land on the closest column the row has.
		if drow != 0 && (best < 0 || t.col <= wantCol) {
			best = i
		}
	}
	if best >= 0 {
		app.focus = best
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ======================
// CLI
// ======================

var newScreen = tcell.NewScreen

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vkbd",
		Short:         "On-screen keyboard that returns typed text as a structured result",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("config", "", "Path to a TOML or YAML config file")
	root.AddCommand(newRunCmd(), newHistoryCmd(), newDecodeCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Show the keyboard and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE:  RunHandler,
	}
	cmd.Flags().Bool("watch", false, "Reload the config file between interactions when it changes")
	cmd.Flags().Bool("loop", false, "Start a new interaction after each result until one is dismissed")
	cmd.Flags().String("format", "", "Handoff encoding, overriding the config: json or msgpack")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent keyboard results",
		Args:  cobra.NoArgs,
		RunE:  HistoryHandler,
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of results to show")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode a serialized result the way a caller receives it",
		Args:  cobra.ExactArgs(1),
		RunE:  DecodeHandler,
	}
	cmd.Flags().String("format", "json", "Payload encoding: json or msgpack")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func setupLogging(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	lc, err := cfg.Logging.ToLogging()
	if err != nil {
		return nil, nil, err
	}
	return logging.New(lc)
}

func RunHandler(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")
	loop, _ := cmd.Flags().GetBool("loop")
	format, _ := cmd.Flags().GetString("format")
	if format != "" {
		if _, err := keyboard.CodecByName(format); err != nil {
			return err
		}
	}

	log, closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	var store *history.Store
	if cfg.History.Enabled {
		if store, err = history.Open(cfg.History.Path); err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	current := func() *config.Config { return cfg }
	if watch && path != "" {
		w := config.NewWatcher(path, cfg, log, nil)
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Warn("config watch stopped", "error", err)
			}
		}()
		current = w.Current
	}
	if format != "" {
		base := current
		current = func() *config.Config {
			c := *base()
			c.Keyboard.Codec = format
			return &c
		}
	}

	results, err := runInteractions(ctx, current, log, store, loop)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := printResult(cmd.OutOrStdout(), r); err != nil {
			return err
		}
	}
	return nil
}

func runInteractions(ctx context.Context, current func() *config.Config, log *slog.Logger, store *history.Store, loop bool) ([]keyboard.Result, error) {
	screen, err := newScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnableFocus()

	var results []keyboard.Result
	for {
		res, err := runInteraction(ctx, screen, current(), log, store)
		if err != nil {
			return results, err
		}
		results = append(results, res)

		// Cancel and dismissal end a loop; the other buttons ask for more.
		more := false
		keyboard.Route(res, keyboard.SinkFuncs{
			OnPositive: func(text string, _ keyboard.Config) {
				log.Info("text submitted", "length", utf8.RuneCountInString(text))
				more = true
			},
			OnNeutral: func() { more = true },
		})
		if !loop || !more || ctx.Err() != nil {
			return results, nil
		}
	}
}

// runInteraction runs the shell and the awaiting caller side together; the
// caller side records the result once the handle resolves.
func runInteraction(ctx context.Context, screen tcell.Screen, cfg *config.Config, log *slog.Logger, store *history.Store) (keyboard.Result, error) {
	kc, err := cfg.Keyboard.ToKeyboard()
	if err != nil {
		return keyboard.Result{}, err
	}
	codec, err := keyboard.CodecByName(cfg.Keyboard.Codec)
	if err != nil {
		return keyboard.Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	l := keyboard.Launcher{Log: log, Codec: codec}
	h, err := l.Start(gctx, kc)
	if err != nil {
		return keyboard.Result{}, err
	}
	app := newAppState(h, log)

	var res keyboard.Result
	g.Go(func() error {
		return runShell(gctx, screen, app)
	})
	g.Go(func() error {
		res = h.Await(gctx)
		if store == nil {
			return nil
		}
		return store.Record(context.WithoutCancel(ctx), history.NewEntry(h.ID, kc, res, time.Now()))
	})
	if err := g.Wait(); err != nil {
		return keyboard.Result{}, err
	}
	return res, nil
}

func printResult(w io.Writer, r keyboard.Result) error {
	data, err := keyboard.JSONCodec{}.Encode(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func HistoryHandler(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("history is disabled in the config")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	writeHistoryTable(cmd.OutOrStdout(), entries)
	return nil
}

func writeHistoryTable(w io.Writer, entries []history.Entry) {
	var data [][]string
	for _, e := range entries {
		data = append(data, []string{
			e.ID[:min(8, len(e.ID))],
			e.Type.String(),
			fmt.Sprintf("%q", e.Text),
			e.ButtonConfig.String(),
			e.FinishedAt.Local().Format(time.DateTime),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "RESULT", "TEXT", "BUTTONS", "FINISHED"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func DecodeHandler(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	codec, err := keyboard.CodecByName(format)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	log := logging.NewWithWriter(logging.DefaultConfig(), cmd.ErrOrStderr())
	res := keyboard.ParseEnvelope(log, codec, keyboard.Envelope{Status: keyboard.StatusOK, Payload: data})
	return printResult(cmd.OutOrStdout(), res)
}

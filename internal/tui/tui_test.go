package tui

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/voicecount/internal/coach"
	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
	"github.com/sadopc/voicecount/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPresets() []preset.Preset {
	return []preset.Preset{
		{Label: "Quick", Icon: "💪", MaxCount: 3, RepeatCount: 2, Speed: 10, Interval: 0, CustomText: "Set"},
		{Label: "Long", Icon: "🧘", MaxCount: 60, RepeatCount: 5, Speed: 1, Interval: 60, CustomText: "Hold"},
	}
}

func newTestCoach(t *testing.T, s *store.Store) *coach.Coach {
	t.Helper()
	var rec coach.Recorder
	if s != nil {
		rec = s
	}
	c := coach.New(coach.Config{
		Catalog:  preset.NewCatalog(testPresets()),
		Recorder: rec,
		Options:  counter.Options{Unit: time.Millisecond},
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(c.Close)
	return c
}

func newTestApp(t *testing.T) App {
	t.Helper()
	s := newTestStore(t)
	app := NewApp(newTestCoach(t, s), s, true)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// pump feeds the result of cmd back into the app until pred holds or the
// command chain ends. Batched commands are not expanded.
func pump(t *testing.T, app App, cmd tea.Cmd, pred func(App) bool) App {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for cmd != nil && !pred(app) {
		if time.Now().After(deadline) {
			t.Fatal("timed out pumping messages")
		}
		msg := cmd()
		var m tea.Model
		m, cmd = app.Update(msg)
		app = m.(App)
	}
	return app
}

// containsString checks if s contains substr.
func containsString(s, substr string) bool {
	return len(substr) > 0 && strings.Contains(s, substr)
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(3661); got != "01:01:01" {
		t.Fatalf("formatSeconds(3661) = %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-5 * time.Second, "00:00"},
		{59 * time.Second, "00:59"},
		{61 * time.Second, "01:01"},
		{75 * time.Minute, "75:00"},
	}

	for _, tt := range tests {
		got := formatClock(tt.d)
		if got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestPresetLine(t *testing.T) {
	p := preset.Preset{Label: "Squats", MaxCount: 25, RepeatCount: 4, Speed: 2, Interval: 45}
	want := "Squats  25 reps x 4 sets  speed=2 rest=45s"
	if got := presetLine(p); got != want {
		t.Fatalf("presetLine = %q, want %q", got, want)
	}
}

func TestLabelColorStable(t *testing.T) {
	if labelColor("Squats") != labelColor("Squats") {
		t.Fatal("label colour should be stable")
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 3 {
		t.Fatalf("expected 3 tab names, got %d", len(viewNames))
	}
	if viewNames[viewMenu] != "Workouts" || viewNames[viewSettings] != "Settings" || viewNames[viewHistory] != "History" {
		t.Fatalf("unexpected tab names: %v", viewNames)
	}
}

// ============================================================
// Run model
// ============================================================

func startedRunModel(t *testing.T) (runModel, *counter.Session) {
	t.Helper()
	s, err := counter.New(testPresets()[1], nil, counter.Options{Unit: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	r := newRunModel()
	r.setSize(120, 36)
	return r.begin(s), s
}

func TestRunModelAppliesEvents(t *testing.T) {
	r, s := startedRunModel(t)
	id := s.ID()

	events := []counter.Event{
		{Kind: counter.EventSetAnnounced, Rep: 2, Total: 5},
		{Kind: counter.EventNumberAnnounced, Rep: 2, Number: 7, MaxCount: 60, Spoken: false},
		{Kind: counter.EventProgressChanged, Percent: 22},
	}
	for _, e := range events {
		r, _ = r.update(sessionEventMsg{id: id, event: e})
	}

	if r.rep != 2 || r.total != 5 || r.number != 7 || r.percent != 22 {
		t.Fatalf("unexpected state: rep=%d total=%d number=%d percent=%d", r.rep, r.total, r.number, r.percent)
	}
	if r.lastSpoken != 0 {
		t.Fatal("unspoken numbers should not be marked spoken")
	}

	r, _ = r.update(sessionEventMsg{id: id, event: counter.Event{Kind: counter.EventNumberAnnounced, Number: 8, Spoken: true}})
	if r.lastSpoken != 8 {
		t.Fatalf("expected lastSpoken 8, got %d", r.lastSpoken)
	}

	r, _ = r.update(sessionEventMsg{id: id, event: counter.Event{Kind: counter.EventResting, Remaining: 42}})
	if !r.resting || r.remaining != 42 {
		t.Fatal("resting state not applied")
	}
	if !containsString(r.view(), "Rest 42s") {
		t.Fatal("view should show the rest countdown")
	}

	r, _ = r.update(sessionEventMsg{id: id, event: counter.Event{Kind: counter.EventSetAnnounced, Rep: 3, Total: 5}})
	if r.resting || r.number != 0 {
		t.Fatal("a new set should clear rest and number")
	}
}

func TestRunModelIgnoresOtherSessions(t *testing.T) {
	r, _ := startedRunModel(t)
	r, cmd := r.update(sessionEventMsg{id: "other", event: counter.Event{Kind: counter.EventProgressChanged, Percent: 50}})
	if r.percent != 0 || cmd != nil {
		t.Fatal("events from another session must be ignored")
	}
}

func TestRunModelCompletedView(t *testing.T) {
	r, s := startedRunModel(t)
	r, _ = r.update(sessionEventMsg{id: s.ID(), event: counter.Event{Kind: counter.EventCompleted}})

	if !r.finished || r.outcome != counter.StateCompleted || r.percent != 100 {
		t.Fatal("completion not applied")
	}
	if r.active() {
		t.Fatal("finished run should not be active")
	}
	out := r.view()
	if !containsString(out, "Workout complete!") {
		t.Fatal("view should announce completion")
	}
	if !containsString(out, "Sets 5/5") {
		t.Fatal("view should show all sets done")
	}
}

func TestRunModelStoppedView(t *testing.T) {
	r, s := startedRunModel(t)
	r, _ = r.update(sessionEventMsg{id: s.ID(), event: counter.Event{Kind: counter.EventSetAnnounced, Rep: 1, Total: 5}})
	r, _ = r.update(sessionEventMsg{id: s.ID(), event: counter.Event{Kind: counter.EventStopped}})

	if r.outcome != counter.StateStopped {
		t.Fatal("stop not applied")
	}
	if !containsString(r.view(), "Stopped.") {
		t.Fatal("view should show the stopped screen")
	}
}

func TestRunModelNoSession(t *testing.T) {
	r := newRunModel()
	r.setSize(80, 20)
	if !containsString(r.view(), "No workout running") {
		t.Fatal("empty run model should say so")
	}
}

func TestWaitForEventDrainsSession(t *testing.T) {
	s, err := counter.New(testPresets()[0], nil, counter.Options{Unit: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var kinds []counter.EventKind
	cmd := waitForEvent(s)
	for {
		msg := cmd()
		if closed, ok := msg.(sessionClosedMsg); ok {
			if closed.state != counter.StateCompleted {
				t.Fatalf("expected completed, got %v", closed.state)
			}
			break
		}
		kinds = append(kinds, msg.(sessionEventMsg).event.Kind)
	}
	if kinds[0] != counter.EventSetAnnounced || kinds[len(kinds)-1] != counter.EventCompleted {
		t.Fatalf("unexpected event order: %v", kinds)
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsFormUpdate(t *testing.T) {
	c := newTestCoach(t, nil)
	sm := newSettingsModel(c, nil)
	*sm.label = " Squats "
	*sm.maxCount = "25"
	*sm.repeatCount = "4"
	*sm.speed = " 2"
	*sm.interval = "45"
	*sm.customText = "Round"

	u, err := sm.formUpdate()
	if err != nil {
		t.Fatal(err)
	}
	got := u.Apply(testPresets()[0])
	if got.Label != "Squats" || got.MaxCount != 25 || got.RepeatCount != 4 || got.Speed != 2 || got.Interval != 45 || got.CustomText != "Round" {
		t.Fatalf("unexpected preset: %+v", got)
	}
}

func TestSettingsFormUpdateRejectsText(t *testing.T) {
	c := newTestCoach(t, nil)
	sm := newSettingsModel(c, nil)
	*sm.maxCount = "lots"
	*sm.repeatCount = "1"
	*sm.speed = "1"
	*sm.interval = "1"

	_, err := sm.formUpdate()
	verr, ok := err.(*preset.ValidationError)
	if !ok || verr.Field != "maxCount" {
		t.Fatalf("expected maxCount validation error, got %v", err)
	}
}

func fillForm(sm settingsModel, p preset.Preset) {
	*sm.label = p.Label
	*sm.maxCount = strconv.Itoa(p.MaxCount)
	*sm.repeatCount = strconv.Itoa(p.RepeatCount)
	*sm.speed = strconv.Itoa(p.Speed)
	*sm.interval = strconv.Itoa(p.Interval)
	*sm.customText = p.CustomText
}

func TestSettingsSavePreset(t *testing.T) {
	c := newTestCoach(t, nil)
	sm := newSettingsModel(c, nil)

	p := testPresets()[0]
	p.MaxCount = 12
	fillForm(sm, p)
	sm.editing = 0

	msg := sm.savePreset()()
	if _, ok := msg.(presetsChangedMsg); !ok {
		t.Fatalf("expected presetsChangedMsg, got %T", msg)
	}
	if c.ListPresets()[0].MaxCount != 12 {
		t.Fatal("edit should reach the catalog")
	}
}

func TestSettingsSavePresetInvalid(t *testing.T) {
	c := newTestCoach(t, nil)
	sm := newSettingsModel(c, nil)

	p := testPresets()[0]
	p.Speed = 11
	fillForm(sm, p)
	sm.editing = 0

	msg := sm.savePreset()()
	st, ok := msg.(statusMsg)
	if !ok || !st.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
	if !containsString(st.text, "speed") {
		t.Fatalf("status should name the field: %q", st.text)
	}
	if c.ListPresets()[0] != testPresets()[0] {
		t.Fatal("invalid edit must not change the preset")
	}
}

func TestFormValidators(t *testing.T) {
	if notBlank("  ") == nil || notBlank("x") != nil {
		t.Fatal("notBlank misbehaves")
	}
	v := intIn(1, 10)
	for in, ok := range map[string]bool{"1": true, "10": true, " 5 ": true, "0": false, "11": false, "five": false} {
		if (v(in) == nil) != ok {
			t.Fatalf("intIn(1,10)(%q) ok=%v", in, !ok)
		}
	}
}

func TestSettingsViewListsPresets(t *testing.T) {
	s := newTestStore(t)
	c := newTestCoach(t, s)
	sm := newSettingsModel(c, s)
	sm.setSize(120, 36)
	sm, _ = sm.update(sm.refresh()())

	out := sm.view()
	if !containsString(out, "Quick  3 reps x 2 sets  speed=10 rest=0s") {
		t.Fatal("settings should list presets in summary form")
	}
	if !containsString(out, store.KeySpeechRate) {
		t.Fatal("settings should show speech settings")
	}
}

// ============================================================
// History model
// ============================================================

func TestHistoryDateRangeDaily(t *testing.T) {
	h := newHistoryModel(nil)
	from, to := h.dateRange()
	if to.Sub(from) != 7*24*time.Hour {
		t.Fatalf("daily range should span 7 days, got %v", to.Sub(from))
	}
	if !to.After(time.Now().UTC()) {
		t.Fatal("current range should include today")
	}
}

func TestHistoryDateRangeWeekly(t *testing.T) {
	h := newHistoryModel(nil)
	h.mode = historyWeekly
	from, to := h.dateRange()
	if from.Weekday() != time.Monday {
		t.Fatalf("week should start on Monday, got %v", from.Weekday())
	}
	if to.Sub(from) != 7*24*time.Hour {
		t.Fatal("week should span 7 days")
	}
}

func TestHistoryRefreshAndView(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	err := s.RecordWorkout(store.Workout{
		ID: "w1", Label: "Squats", CustomText: "Round", MaxCount: 10, RepeatCount: 2, Speed: 2,
		CompletedUnits: 20, TotalUnits: 20, Status: store.StatusCompleted,
		StartedAt: now.Add(-time.Minute), FinishedAt: now, ElapsedSecs: 60,
	})
	if err != nil {
		t.Fatal(err)
	}

	h := newHistoryModel(s)
	h.setSize(120, 36)
	h, _ = h.update(h.refresh()())

	if len(h.workouts) != 1 || h.totalReps() != 20 {
		t.Fatalf("unexpected history: %d workouts, %d reps", len(h.workouts), h.totalReps())
	}
	if !containsString(h.view(), "Squats") {
		t.Fatal("history view should list the workout")
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	h := newHistoryModel(nil)
	h.setSize(80, 20)
	if h.refresh() != nil {
		t.Fatal("refresh without a store should be a no-op")
	}
	if !containsString(h.view(), "unavailable") {
		t.Fatal("view should explain history is unavailable")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(newTestCoach(t, s), s, true)

	if app.activeView != viewMenu {
		t.Fatal("default view should be the workout menu")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(newTestCoach(t, s), s, true)
	// Width 0 means not yet sized
	output := app.View()
	if output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)

	// Test all views render without panic
	for _, v := range []viewState{viewMenu, viewSettings, viewHistory, viewRun} {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)

	header := app.renderHeader()
	for _, name := range viewNames {
		if !containsString(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	m, _ := app.Update(statusMsg{text: "test status"})
	app = m.(App)

	if !containsString(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppMenuShowsPresets(t *testing.T) {
	app := newTestApp(t)
	out := app.View()
	if !containsString(out, "1. 💪 Quick") || !containsString(out, "2. 🧘 Long") {
		t.Fatal("menu should number the presets")
	}
}

func TestAppSilentWarning(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(newTestCoach(t, s), s, false)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if !containsString(m.(App).View(), "Speech unavailable") {
		t.Fatal("menu should warn when speech is unavailable")
	}
}

func TestAppNavigation(t *testing.T) {
	app := newTestApp(t)

	m, _ := app.Update(runeKey('s'))
	app = m.(App)
	if app.activeView != viewSettings {
		t.Fatal("s should open settings")
	}

	m, _ = app.Update(runeKey('h'))
	app = m.(App)
	if app.activeView != viewHistory {
		t.Fatal("h should open history")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewMenu {
		t.Fatal("tab should wrap to the menu")
	}

	m, _ = app.Update(runeKey('h'))
	app = m.(App)
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	if app.activeView != viewMenu {
		t.Fatal("esc should return to the menu")
	}
}

func TestAppQuit(t *testing.T) {
	app := newTestApp(t)
	_, cmd := app.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should produce tea.QuitMsg")
	}
}

func TestAppDigitRunsPresetToCompletion(t *testing.T) {
	app := newTestApp(t)

	m, cmd := app.Update(runeKey('1'))
	app = m.(App)
	if cmd == nil {
		t.Fatal("digit should start a session")
	}

	app = pump(t, app, cmd, func(a App) bool { return a.run.finished })
	if app.activeView != viewRun {
		t.Fatal("starting a preset should show the run view")
	}
	if app.run.outcome != counter.StateCompleted {
		t.Fatalf("expected completed outcome, got %v", app.run.outcome)
	}
	if !containsString(app.View(), "Workout complete!") {
		t.Fatal("run view should show completion")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(App)
	if app.activeView != viewMenu {
		t.Fatal("enter after a finished run should return to the menu")
	}
}

func TestAppStopKeyStopsSession(t *testing.T) {
	app := newTestApp(t)

	m, cmd := app.Update(runeKey('2'))
	app = m.(App)
	startMsg := cmd()
	m, cmd = app.Update(startMsg)
	app = m.(App)
	if !app.run.active() {
		t.Fatal("session should be running")
	}

	m, _ = app.Update(runeKey('x'))
	app = m.(App)

	app = pump(t, app, cmd, func(a App) bool { return a.run.finished })
	if app.run.outcome != counter.StateStopped {
		t.Fatalf("expected stopped outcome, got %v", app.run.outcome)
	}
	if !containsString(app.View(), "Stopped.") {
		t.Fatal("run view should show the stopped screen")
	}
}

func TestAppDigitWithoutPreset(t *testing.T) {
	app := newTestApp(t)
	_, cmd := app.Update(runeKey('9'))
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	st, ok := cmd().(statusMsg)
	if !ok || !st.isError {
		t.Fatal("unknown preset digit should report an error")
	}
}

func TestAppStartingWith(t *testing.T) {
	app := newTestApp(t)
	if app.autoStart != 0 {
		t.Fatal("a plain app should not start anything")
	}
	app = app.StartingWith(1)
	if app.autoStart != 2 {
		t.Fatalf("expected autoStart 2, got %d", app.autoStart)
	}

	msg := app.menu.start(app.autoStart - 1)()
	started, ok := msg.(sessionStartedMsg)
	if !ok {
		t.Fatalf("expected sessionStartedMsg, got %T", msg)
	}
	if started.session.Preset().Label != "Long" {
		t.Fatalf("started the wrong preset: %s", started.session.Preset().Label)
	}
	started.session.RequestStop()
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"number", func() string { return numberStyle.Render("test") }},
		{"spokenNumber", func() string { return spokenNumberStyle.Render("test") }},
		{"rest", func() string { return restStyle.Render("test") }},
		{"clock", func() string { return clockStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		result := s.fn()
		if result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

// ============================================================
// Store failures
// ============================================================

func TestDataLoadErrorsReachStatusBar(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(newTestCoach(t, s), s, true)

	ok := app.menu.loadData()()
	m, _ := app.Update(ok)
	if got := m.(App); got.statusErr {
		t.Fatalf("healthy store reported an error: %q", got.status)
	}

	s.Close()
	loads := []struct {
		name string
		cmd  tea.Cmd
		want string
	}{
		{"menu", app.menu.loadData(), "Workouts unavailable"},
		{"settings", app.settings.refresh(), "Settings unavailable"},
		{"history", app.history.refresh(), "History unavailable"},
	}
	for _, l := range loads {
		m, _ := app.Update(l.cmd())
		got := m.(App)
		if !got.statusErr {
			t.Fatalf("%s: expected an error status, got %q", l.name, got.status)
		}
		if !containsString(got.status, l.want) {
			t.Fatalf("%s: status %q does not mention %q", l.name, got.status, l.want)
		}
	}
}

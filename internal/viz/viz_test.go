package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if c.Grid[0][0] != brailleBase+0x1 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != brailleBase+0x80 {
		t.Errorf("expected dot 8, got %U", c.Grid[0][1])
	}
	if !c.IsSet(3, 3) || c.IsSet(1, 1) || c.IsSet(9, 9) {
		t.Error("IsSet disagrees with Set")
	}

	c.Clear()
	if c.String() != string([]rune{brailleBase, brailleBase}) {
		t.Errorf("expected blank canvas, got %q", c.String())
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19)
	for i := 0; i < 20; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}
	if lines := strings.Count(c.String(), "\n"); lines != 4 {
		t.Errorf("expected 5 rows, got %d", lines+1)
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	cam.Fit(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})

	x, y, _, ok := cam.Project(cam.Target, 160, 96)
	if !ok {
		t.Fatal("target should be visible")
	}
	if absInt(x-80) > 1 || absInt(y-48) > 1 {
		t.Errorf("target should project to the centre, got (%d, %d)", x, y)
	}

	behind := cam.Eye().Add(cam.Eye().Sub(cam.Target))
	if _, _, _, ok := cam.Project(behind, 160, 96); ok {
		t.Error("point behind the camera should not be visible")
	}
}

func TestCameraOrbitClamp(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 100; i++ {
		cam.Orbit(0, 0.1)
	}
	if cam.Pitch != maxPitch {
		t.Errorf("expected pitch clamped to %g, got %g", maxPitch, cam.Pitch)
	}
}

func TestWireframeAddMesh(t *testing.T) {
	verts := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	faces := [][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
	w := NewWireframe()
	w.AddMesh(verts, faces)
	if w.Len() != 6 {
		t.Errorf("tetrahedron has 6 edges, got %d", w.Len())
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds([]mgl64.Vec3{{1, -2, 3}, {-1, 4, 0}})
	if lo != (mgl64.Vec3{-1, -2, 0}) || hi != (mgl64.Vec3{1, 4, 3}) {
		t.Errorf("unexpected bounds %v %v", lo, hi)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("expected flat line, got %q", got)
	}
	got := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8}, 8)
	if utf8.RuneCountInString(got) != 8 {
		t.Errorf("expected 8 runes, got %q", got)
	}
	if !strings.HasPrefix(got, "▁") || !strings.HasSuffix(got, "█") {
		t.Errorf("expected rising sparkline, got %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(0.5, 4); got != "██░░" {
		t.Errorf("unexpected bar %q", got)
	}
	if got := ProgressBar(2, 3); got != "███" {
		t.Errorf("bar should clamp, got %q", got)
	}
}

func TestNextTheme(t *testing.T) {
	seen := map[string]bool{}
	th := Themes[0]
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th)
	}
	if len(seen) != len(Themes) || th.Name != Themes[0].Name {
		t.Error("themes should cycle through every entry")
	}
	if GetTheme("missing").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
}

func dropViewer(t *testing.T) Model {
	t.Helper()
	sc, err := experiment.Drop(scene.DefaultOptions(), 0)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(sc, sim.Config{TimeStep: 0.02, Duration: 1, Restitution: 1, Tolerance: 1e-3}, "drop")
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewerStepsAndResets(t *testing.T) {
	m := dropViewer(t)
	start := m.scene.Bodies()[0].COM

	for i := 0; i < 5; i++ {
		m = send(m, TickMsg{})
	}
	if m.steps != 5 || len(m.history) != 5 || len(m.energy) != 5 {
		t.Fatalf("expected 5 steps recorded, got %d/%d/%d", m.steps, len(m.history), len(m.energy))
	}
	if m.scene.Bodies()[0].COM == start {
		t.Error("body should have moved")
	}

	m = send(m, key("r"))
	if m.steps != 0 || len(m.history) != 0 {
		t.Error("reset should clear history")
	}
	if m.scene.Bodies()[0].COM != start || m.scene.Time() != 0 {
		t.Error("reset should restore the initial snapshot")
	}
}

func TestViewerPauseAndReplay(t *testing.T) {
	m := dropViewer(t)
	for i := 0; i < 4; i++ {
		m = send(m, TickMsg{})
	}

	m = send(m, key("["))
	if m.running || m.playHead != 2 {
		t.Fatalf("expected paused replay at 2, got running=%v head=%d", m.running, m.playHead)
	}
	want := m.history[2].Time
	if m.scene.Time() != want {
		t.Errorf("expected scene time %g, got %g", want, m.scene.Time())
	}

	m = send(m, TickMsg{})
	if m.scene.Time() != want {
		t.Error("paused viewer should not step")
	}

	m = send(m, key(" "))
	if !m.running || m.playHead != -1 || len(m.history) != 3 {
		t.Errorf("resume should truncate history, got head=%d len=%d", m.playHead, len(m.history))
	}
}

func TestViewerView(t *testing.T) {
	m := dropViewer(t)
	m = send(m, TickMsg{})
	m = send(m, TickMsg{})
	out := m.View()
	for _, want := range []string{"DROP", "RUNNING", "Bodies"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	m = send(m, key("?"))
	if !strings.Contains(m.View(), "single step") {
		t.Error("help overlay missing")
	}
}

func TestRecorderSave(t *testing.T) {
	m := dropViewer(t)
	m.GIFPath = filepath.Join(t.TempDir(), "out.gif")
	m = send(m, key("g"))
	m = send(m, TickMsg{})
	m = send(m, TickMsg{})
	if m.recorder == nil || m.recorder.Len() != 2 {
		t.Fatal("expected two recorded frames")
	}
	m = send(m, key("g"))
	if m.recorder != nil || m.err != nil {
		t.Fatalf("recording should stop cleanly, err=%v", m.err)
	}
	if _, err := os.Stat(m.GIFPath); err != nil {
		t.Errorf("gif not written: %v", err)
	}
}

func TestPickerOpensScenario(t *testing.T) {
	p := NewPicker(experiment.NewRegistry(), config.DefaultConfig())
	next, _ := p.Update(key("j"))
	p = next.(*Picker)
	if p.names[p.cursor] != "collide" {
		t.Fatalf("expected collide selected, got %s", p.names[p.cursor])
	}
	if !strings.Contains(p.View(), "collide") {
		t.Error("menu should list scenarios")
	}

	next, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = next.(*Picker)
	if p.viewer == nil {
		t.Fatalf("viewer not opened: %v", p.err)
	}
	if len(p.viewer.scene.Bodies()) != 2 {
		t.Error("collide should have two bodies")
	}
}

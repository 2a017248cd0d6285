package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

const (
	canvasWidth     = 80
	canvasHeight    = 24
	historyCapacity = 600
	frameInterval   = time.Second / 30
	orbitStep       = 0.1
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a scene in real time and draws it as a braille wireframe.
type Model struct {
	Title string
	// GIFPath is where recordings are written.
	GIFPath string

	scene   *scene.Scene
	cfg     sim.Config
	initial scene.Snapshot

	canvas *Canvas
	camera *Camera
	ground *Wireframe
	theme  Theme
	styles Styles

	running  bool
	showHelp bool
	steps    int
	last     scene.StepStats
	err      error

	energy   []float64
	contacts []float64
	history  []scene.Snapshot
	playHead int
	recorder *Recorder
}

// NewModel prepares a viewer for sc. The camera is fitted to the initial
// vertex positions.
func NewModel(sc *scene.Scene, cfg sim.Config, title string) Model {
	m := Model{
		Title:    title,
		GIFPath:  "rigidsim.gif",
		scene:    sc,
		cfg:      cfg,
		initial:  sc.Snapshot(),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
		theme:    Themes[0],
		running:  true,
		playHead: -1,
	}
	m.styles = NewStyles(m.theme)
	m.fit()
	m.draw()
	return m
}

func (m *Model) fit() {
	lo, hi := Bounds(m.scene.VertexBuffer())
	lo[1] = min(lo[1], 0)
	m.camera.Fit(lo, hi)
	half := max(hi.Sub(lo).Len(), 4)
	m.ground = GroundGrid(m.camera.Target, half, 9)
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopRecording()
			return m, tea.Quit
		case " ":
			m.toggle()
		case "n":
			if !m.running {
				m.resume()
				m.step()
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "left", "h":
			m.camera.Orbit(-orbitStep, 0)
		case "right", "l":
			m.camera.Orbit(orbitStep, 0)
		case "up", "k":
			m.camera.Orbit(0, orbitStep)
		case "down", "j":
			m.camera.Orbit(0, -orbitStep)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "f":
			m.fit()
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "g":
			if m.recorder != nil {
				m.stopRecording()
			} else {
				m.recorder = NewRecorder()
			}
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		m.draw()
		if m.recorder != nil {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) toggle() {
	if m.running {
		m.running = false
		return
	}
	m.resume()
	m.running = true
}

// resume drops history after the play head so stepping continues from the
// replayed state.
func (m *Model) resume() {
	if m.playHead >= 0 {
		m.history = m.history[:m.playHead+1]
		m.energy = m.energy[:min(len(m.energy), m.playHead+1)]
		m.contacts = m.contacts[:min(len(m.contacts), m.playHead+1)]
		m.playHead = -1
	}
}

func (m *Model) step() {
	m.last = m.scene.Step(m.cfg.TimeStep, m.cfg.Restitution, m.cfg.Tolerance)
	m.steps++

	for i, b := range m.scene.Bodies() {
		if !b.State().IsValid() {
			m.err = &sim.StepError{Step: m.steps, Time: m.scene.Time(), Body: i, Wrapped: sim.ErrInvalidState}
			m.running = false
			return
		}
	}

	m.energy = appendCapped(m.energy, metrics.Mechanical(m.scene))
	m.contacts = appendCapped(m.contacts, float64(m.last.Contacts+m.last.GroundContacts))
	m.history = append(m.history, m.scene.Snapshot())
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) scrub(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.playHead == -1 {
		m.playHead = len(m.history) - 1
	}
	m.running = false
	m.playHead = max(0, min(len(m.history)-1, m.playHead+dir))
	m.scene.Restore(m.history[m.playHead])
}

func (m *Model) reset() {
	m.scene.Restore(m.initial)
	m.steps = 0
	m.err = nil
	m.last = scene.StepStats{}
	m.energy = m.energy[:0]
	m.contacts = m.contacts[:0]
	m.history = m.history[:0]
	m.playHead = -1
}

func (m *Model) stopRecording() {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Save(m.GIFPath); err != nil {
		m.err = err
	}
	m.recorder = nil
}

// draw rebuilds the wireframe from the scene's published buffers.
func (m *Model) draw() {
	m.canvas.Clear()
	w := NewWireframe()
	w.Append(m.ground)
	w.AddMesh(m.scene.VertexBuffer(), m.scene.Faces())
	for _, l := range m.scene.ConstraintLines() {
		w.AddEdge(l[0], l[1])
	}
	Render3D(m.canvas, w, m.camera)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Record.Render("HALTED")
	case m.playHead >= 0:
		return m.styles.Paused.Render(fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history)))
	case !m.running:
		return m.styles.Paused.Render("PAUSED")
	}
	return m.styles.Running.Render("RUNNING")
}

func (m Model) row(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Value.Render(value) + "\n"
}

func (m Model) View() string {
	st := m.styles
	var s strings.Builder

	s.WriteString(st.Header.Render(strings.ToUpper(m.Title)) + "\n")
	s.WriteString(m.status())
	if m.recorder != nil {
		s.WriteString("  " + st.Record.Render(fmt.Sprintf("REC %d", m.recorder.Len())))
	}
	s.WriteString("\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	s.WriteString(m.row("Time", fmt.Sprintf("%.2fs", m.scene.Time())))
	if m.cfg.Duration > 0 {
		s.WriteString(m.row("Progress", ProgressBar(m.scene.Time()/m.cfg.Duration, 20)))
	}
	s.WriteString(m.row("Bodies", fmt.Sprintf("%d", len(m.scene.Bodies()))))
	s.WriteString(m.row("Constraints", fmt.Sprintf("%d", len(m.scene.Constraints()))))
	if n := len(m.energy); n > 0 {
		s.WriteString(m.row("Energy", fmt.Sprintf("%.3f", m.energy[n-1])))
	}
	s.WriteString(m.row("Contacts", fmt.Sprintf("%d + %d ground", m.last.Contacts, m.last.GroundContacts)))
	s.WriteString(m.row("", Sparkline(m.contacts, 24)))
	s.WriteString(m.row("Fixes", fmt.Sprintf("%d pos, %d vel", m.last.Constraints.PositionFixes, m.last.Constraints.VelocityFixes)))
	s.WriteString(m.row("Theme", m.theme.Name))
	if m.err != nil {
		s.WriteString("\n" + st.Record.Render(m.err.Error()) + "\n")
	}

	s.WriteString(st.Help.Render("SP:Pause N:Step R:Reset Q:Quit\n[ ]:Replay HJKL:Orbit +-:Zoom\nF:Fit T:Theme G:Record ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.Canvas.Render(m.canvas.String()), st.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  Space      pause or resume
  N          single step while paused
  R          reset to the initial state
  [ ]        step backwards or forwards through history
  H J K L    orbit the camera (arrow keys work too)
  + -        zoom
  F          refit the camera to the scene
  T          cycle themes
  G          start or stop GIF recording
  Q          quit
`

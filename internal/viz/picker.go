package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
)

// Picker lists the registered scenarios and opens the viewer on the chosen
// one.
type Picker struct {
	registry *experiment.Registry
	cfg      *config.Config
	names    []string
	cursor   int
	size     int
	err      error
	viewer   *Model
	styles   Styles
}

func NewPicker(registry *experiment.Registry, cfg *config.Config) *Picker {
	return &Picker{
		registry: registry,
		cfg:      cfg,
		names:    registry.List(),
		styles:   NewStyles(Themes[0]),
	}
}

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.viewer != nil {
		next, cmd := p.viewer.Update(msg)
		v := next.(Model)
		p.viewer = &v
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		p.cursor = max(0, p.cursor-1)
	case "down", "j":
		p.cursor = min(len(p.names)-1, p.cursor+1)
	case "left", "h":
		p.size = max(0, p.size-1)
	case "right", "l":
		p.size++
	case "enter", " ":
		return p, p.open()
	}
	return p, nil
}

func (p *Picker) open() tea.Cmd {
	name := p.names[p.cursor]
	sc, err := p.registry.Build(name, p.cfg.SceneOptions(), p.size)
	if err != nil {
		p.err = err
		return nil
	}
	exp := experiment.New(experiment.Source{Scenario: name, Size: p.size}, p.cfg, p.registry, nil)
	v := NewModel(sc, exp.SimConfig(), name)
	p.viewer = &v
	return v.Init()
}

func (p *Picker) View() string {
	if p.viewer != nil {
		return p.viewer.View()
	}

	st := p.styles
	var b strings.Builder
	b.WriteString("\n  " + st.Header.Render("RIGIDSIM") + "\n")
	for i, name := range p.names {
		s, _ := p.registry.Get(name)
		line := fmt.Sprintf("%-10s %s", name, s.Description)
		if i == p.cursor {
			b.WriteString("  " + st.Cursor.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + st.Item.Render(line) + "\n")
		}
	}

	size := "default"
	if p.size > 0 {
		size = fmt.Sprintf("%d", p.size)
	}
	b.WriteString("\n  " + st.Label.Render("size") + st.Value.Render(size) + "\n")
	if p.err != nil {
		b.WriteString("\n  " + st.Record.Render(p.err.Error()) + "\n")
	}
	b.WriteString(st.Help.Render("  j/k select  h/l size  enter open  q quit") + "\n")
	return b.String()
}

// Run starts a full-screen program for m.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

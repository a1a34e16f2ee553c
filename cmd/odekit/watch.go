package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/odekit/internal/driver"
	"github.com/san-kum/odekit/internal/ode"
	"github.com/san-kum/odekit/internal/problems"
	"github.com/san-kum/odekit/internal/viz"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
)

type tickMsg time.Time

type watchModel struct {
	name    string
	samples []ode.Sample
	diag    ode.Diagnostics
	comp    int
	cursor  int
	fps     int
	done    bool
}

func (m watchModel) Init() tea.Cmd {
	return tick(m.fps)
}

func tick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		if m.cursor < len(m.samples) {
			m.cursor += 1 + len(m.samples)/400
			if m.cursor > len(m.samples) {
				m.cursor = len(m.samples)
			}
			return m, tick(m.fps)
		}
		m.done = true
	}
	return m, nil
}

func (m watchModel) View() string {
	shown := m.samples[:m.cursor]
	if len(shown) < 2 {
		shown = m.samples[:min(2, len(m.samples))]
	}
	plot := viz.Component(shown, m.comp, 72, 14)

	status := fmt.Sprintf("t=%.4g  samples %d/%d  steps %d  evals %d",
		shown[len(shown)-1].T, m.cursor, len(m.samples), m.diag.Accepted, m.diag.Evals)
	if m.done {
		status += "  (done, q to quit)"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("odekit watch: "+m.name),
		panelStyle.Render(plot),
		statusStyle.Render(status),
	)
}

func runWatch(cmd *cobra.Command, args []string) error {
	sys, y0, err := problems.New(args[0])
	if err != nil {
		return err
	}
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	d, err := driver.New(sys, cfg)
	if err != nil {
		return err
	}
	res, err := d.Run(context.Background(), y0, 0, duration)
	if err != nil {
		return err
	}

	m := watchModel{
		name:    args[0],
		samples: res.Samples,
		diag:    res.Diag,
		comp:    component,
		cursor:  2,
		fps:     frameRate,
	}
	_, err = tea.NewProgram(m).Run()
	return err
}

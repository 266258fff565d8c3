// Package viz renders simulation runs in the terminal: an interactive live
// session view and static trajectory charts.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"oncosim/internal/session"
	"oncosim/internal/treatment"
)

const (
	chartWidth      = 70
	chartHeight     = 10
	historyCapacity = 365
	daysPerTick     = 1.0
)

var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	treatmentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 2)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type TickMsg time.Time

// Model drives one interactive session at a fixed tick rate, one simulated
// day per tick.
type Model struct {
	sess    *session.Session
	running bool
	err     error

	totalHistory []float64
	status       string
	lastMark     string // most recent manual checkpoint id
}

// NewModel wraps a started session for live display.
func NewModel(sess *session.Session) Model {
	m := Model{
		sess:         sess,
		running:      true,
		totalHistory: make([]float64, 0, historyCapacity),
	}
	m.record()
	return m
}

func (m *Model) record() {
	m.totalHistory = append(m.totalHistory, m.sess.Engine().TotalVolume())
	if len(m.totalHistory) > historyCapacity {
		m.totalHistory = m.totalHistory[1:]
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "1":
			m.switchTreatment(treatment.None)
		case "2":
			m.switchTreatment(treatment.Chemotherapy)
		case "3":
			m.switchTreatment(treatment.Radiotherapy)
		case "4":
			m.switchTreatment(treatment.Immunotherapy)
		case "s":
			m.lastMark = m.sess.SaveCheckpoint(fmt.Sprintf("manual, day %.0f", m.sess.Engine().CurrentTime()))
			m.status = "checkpoint saved"
		case "r":
			if m.sess.Rewind() {
				m.status = fmt.Sprintf("rewound to day %.0f", m.sess.Engine().CurrentTime())
				m.resetHistory()
			} else {
				m.status = "already at the first checkpoint"
			}
		case "f":
			if m.sess.FastForward() {
				m.status = fmt.Sprintf("forward to day %.0f", m.sess.Engine().CurrentTime())
				m.resetHistory()
			} else {
				m.status = "no later checkpoint on this arm"
			}
		case "g":
			if m.lastMark != "" && m.sess.GoToCheckpoint(m.lastMark) {
				m.status = "jumped to last manual checkpoint"
				m.resetHistory()
			}
		case "b":
			name := fmt.Sprintf("branch @ day %.0f", m.sess.Engine().CurrentTime())
			if _, ok := m.sess.Branch(name); ok {
				m.status = name
			}
		}
	case TickMsg:
		if m.running && m.err == nil {
			if err := m.sess.Advance(daysPerTick); err != nil {
				m.err = err
				m.running = false
			} else {
				m.record()
			}
		}
		return m, tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// resetHistory restarts the chart after navigation so the series matches the
// restored state rather than splicing two arms together.
func (m *Model) resetHistory() {
	m.totalHistory = m.totalHistory[:0]
	m.record()
}

func (m *Model) switchTreatment(k treatment.Kind) {
	if m.sess.Engine().Treatment() == k {
		return
	}
	m.sess.SetTreatment(k)
	m.status = "switched to " + k.String()
}

func (m Model) View() string {
	eng := m.sess.Engine()

	var chart string
	if len(m.totalHistory) > 1 {
		chart = asciigraph.Plot(m.totalHistory,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption("total volume, cm³"))
	} else {
		chart = "(collecting data...)"
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("TUMOR GROWTH SESSION") + "\n")
	if m.running {
		s.WriteString(statusStyle.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(statusStyle.Render("PAUSED") + "\n\n")
	}

	s.WriteString(labelStyle.Render("Day") + valueStyle.Render(fmt.Sprintf("%.0f", eng.CurrentTime())) + "\n")
	s.WriteString(labelStyle.Render("Sensitive") + valueStyle.Render(fmt.Sprintf("%.3f cm³", eng.SensitiveVolume())) + "\n")
	s.WriteString(labelStyle.Render("Resistant") + valueStyle.Render(fmt.Sprintf("%.3f cm³", eng.ResistantVolume())) + "\n")
	s.WriteString(labelStyle.Render("Total") + valueStyle.Render(fmt.Sprintf("%.3f cm³", eng.TotalVolume())) + "\n")
	s.WriteString(labelStyle.Render("Stage") + valueStyle.Render(eng.Stage().String()) + "\n")
	s.WriteString(labelStyle.Render("Resistance") + valueStyle.Render(fmt.Sprintf("%.1f%%", eng.ResistanceFraction()*100)) + "\n")

	dt := m.sess.DoublingTime()
	if math.IsInf(dt, 1) {
		s.WriteString(labelStyle.Render("Doubling") + valueStyle.Render("not growing") + "\n")
	} else {
		s.WriteString(labelStyle.Render("Doubling") + valueStyle.Render(fmt.Sprintf("%.1f days", dt)) + "\n")
	}

	s.WriteString(labelStyle.Render("Treatment") + treatmentStyle.Render(eng.Treatment().String()))
	if eng.Treatment() != treatment.None {
		s.WriteString(valueStyle.Render(fmt.Sprintf(" (day %d)", eng.TreatmentDays())))
	}
	s.WriteString("\n")

	f := m.sess.Timeline().MemoryFootprint()
	s.WriteString(labelStyle.Render("History") +
		valueStyle.Render(fmt.Sprintf("%d cp / %d deltas (%.0f%%)", f.Snapshots, f.Deltas, f.Ratio*100)) + "\n")

	if m.status != "" {
		s.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause Q:Quit\n1:None 2:Chemo 3:Radio 4:Immuno\nS:Save R:Rewind F:Forward\nG:Goto-Mark B:Branch"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		graphStyle.Render(chart),
		statsStyle.Render(s.String()))
}

// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"time"

	"vocalscope/internal/analysis"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// meterRefresh paces the display, not the analysis. The loop keeps its
// own tick rate; the meter just samples whatever is latest.
const meterRefresh = 100 * time.Millisecond

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var (
	pitchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(9)

	silentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// MetricsSource provides the latest analysis results for display. The
// analysis loop implements it.
type MetricsSource interface {
	Latest() analysis.Metrics
	Running() bool
}

// MeterModel is the Bubble Tea model for the live vocal meter: pitch
// with its nearest note name, a volume bar, and a clarity bar.
type MeterModel struct {
	source  MetricsSource
	metrics analysis.Metrics

	volumeBar  progress.Model
	clarityBar progress.Model
}

type meterTickMsg time.Time

// NewMeterModel creates the meter over a metrics source.
func NewMeterModel(source MetricsSource) MeterModel {
	return MeterModel{
		source:     source,
		volumeBar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		clarityBar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init schedules the first refresh.
func (m MeterModel) Init() tea.Cmd {
	return meterTick()
}

func meterTick() tea.Cmd {
	return tea.Tick(meterRefresh, func(t time.Time) tea.Msg {
		return meterTickMsg(t)
	})
}

// Update samples the source on each refresh and handles quit keys.
func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case meterTickMsg:
		m.metrics = m.source.Latest()
		return m, meterTick()

	case tea.WindowSizeMsg:
		width := msg.Width - 24
		if width < 10 {
			width = 10
		}
		if width > 60 {
			width = 60
		}
		m.volumeBar.Width = width
		m.clarityBar.Width = width

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))) {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the meter.
func (m MeterModel) View() string {
	title := titleStyle.Render("Vocal Meter")

	var pitchLine string
	if m.metrics.Pitch > 0 {
		pitchLine = pitchStyle.Render(fmt.Sprintf("%.1f Hz  (%s)", m.metrics.Pitch, nearestNote(m.metrics.Pitch)))
	} else {
		pitchLine = silentStyle.Render("no pitch detected")
	}

	// Volume bar spans the floor (-100 dBFS) up to full scale.
	volumeFrac := (m.metrics.Volume - analysis.FloorDB) / -analysis.FloorDB
	volumeFrac = math.Max(0, math.Min(1, volumeFrac))

	status := "running"
	if !m.source.Running() {
		status = "idle"
	}

	help := infoStyle.Render("q: Quit")

	return fmt.Sprintf("%s\n\n%s %s\n%s %s %6.1f dBFS\n%s %s %6.2f\n\n%s  %s\n",
		title,
		labelStyle.Render("Pitch"), pitchLine,
		labelStyle.Render("Volume"), m.volumeBar.ViewAs(volumeFrac), m.metrics.Volume,
		labelStyle.Render("Clarity"), m.clarityBar.ViewAs(m.metrics.Clarity), m.metrics.Clarity,
		dimStyle.Render(status), help)
}

// nearestNote names the equal-temperament note closest to freq, with
// its octave (A4 = 440 Hz).
func nearestNote(freq float64) string {
	semitones := 12 * math.Log2(freq/440.0)
	n := int(math.Round(semitones))

	// Index relative to A4 within the C-based octave layout.
	idx := (n + 9) % 12
	if idx < 0 {
		idx += 12
	}
	octave := 4 + (n+9)/12
	if (n+9)%12 < 0 {
		octave--
	}

	return fmt.Sprintf("%s%d", noteNames[idx], octave)
}

// StartMeterUI launches the full-screen live meter and blocks until the
// user quits.
func StartMeterUI(source MetricsSource) error {
	p := tea.NewProgram(
		NewMeterModel(source),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Styles ---
var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	infoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	progressBarStyle = lipgloss.NewStyle().Padding(0, 1)
	jobHeaderStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	jobStatusStyle   = map[string]lipgloss.Style{
		StatusExtracting: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		StatusComplete:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		StatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

const maxPathWidth = 40

// --- Model ---
type JobView struct {
	ID      uint64
	Path    string
	Status  string
	Percent float64 // 0..1
	Start   time.Time
	Elapsed time.Duration
}

type AppModel struct {
	State            AppState
	spinner          spinner.Model
	bar              progress.Model
	progressBarWidth int

	jobs        map[uint64]*JobView
	jobOrder    []uint64
	running     uint64 // id of the job currently extracting, 0 when idle
	visited     int
	lastVisited string
	unknownDone int

	Quitting bool

	termWidth  int
	termHeight int
}

func NewAppModel() *AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	bar := progress.New(progress.WithDefaultGradient())

	return &AppModel{
		State:      Scanning,
		spinner:    s,
		bar:        bar,
		jobs:       make(map[uint64]*JobView),
		termWidth:  80,
		termHeight: 24,
	}
}

// --- Bubbletea Interface ---

func (m *AppModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			// Only the display stops; extraction carries on and is logged.
			m.Quitting = true
			m.State = Exiting
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.progressBarWidth = max(10, min(40, m.termWidth-maxPathWidth-30))
		m.bar.Width = m.progressBarWidth
	case VisitMsg:
		m.visited++
		m.lastVisited = msg.Path
	case JobStartedMsg:
		// Jobs run one at a time, so a job still extracting when the next
		// one starts never reported completion.
		m.failRunning(msg.At)
		if _, exists := m.jobs[msg.JobID]; !exists {
			m.jobOrder = append(m.jobOrder, msg.JobID)
		}
		m.jobs[msg.JobID] = &JobView{
			ID:     msg.JobID,
			Path:   msg.Path,
			Status: StatusExtracting,
			Start:  msg.At,
		}
		m.running = msg.JobID
	case JobProgressMsg:
		if jv, ok := m.jobs[msg.JobID]; ok && jv.Status == StatusExtracting {
			jv.Percent = float64(msg.Percent) / 100
		}
	case JobDoneMsg:
		jv, ok := m.jobs[msg.JobID]
		if !ok {
			m.unknownDone++
			break
		}
		jv.Status = StatusComplete
		jv.Percent = 1
		jv.Elapsed = msg.At.Sub(jv.Start)
		if m.running == msg.JobID {
			m.running = 0
		}
	case ShutdownMsg:
		m.failRunning(time.Now())
		m.State = Finished
		return m, tea.Quit
	case spinner.TickMsg:
		if m.State == Scanning {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	}

	return m, cmd
}

func (m *AppModel) failRunning(at time.Time) {
	if m.running == 0 {
		return
	}
	if jv, ok := m.jobs[m.running]; ok && jv.Status == StatusExtracting {
		jv.Status = StatusFailed
		jv.Elapsed = at.Sub(jv.Start)
	}
	m.running = 0
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("--- rarsweep ---"))
	b.WriteString("\n\n")
	b.WriteString(m.viewSummary())
	b.WriteString(m.viewJobs())

	b.WriteString("\n")
	switch m.State {
	case Scanning:
		b.WriteString(infoStyle.Render("Extracting... 'q' or Ctrl+C closes the display."))
	case Finished:
		b.WriteString(infoStyle.Render("Finished."))
	case Exiting:
		b.WriteString(infoStyle.Render("Display closed, extraction continues in the log."))
	}
	b.WriteString("\n")

	return b.String()
}

// --- View Helpers ---

func (m *AppModel) viewSummary() string {
	var b strings.Builder
	prefix := " "
	if m.State == Scanning {
		prefix = m.spinner.View()
	}
	complete, failed := m.counts()
	b.WriteString(fmt.Sprintf("%s Visited %d | Complete %d | Failed %d\n", prefix, m.visited, complete, failed))
	if m.lastVisited != "" {
		b.WriteString(infoStyle.Render("Last visited: " + truncate(m.lastVisited, m.termWidth-16)))
		b.WriteString("\n")
	}
	if m.unknownDone > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d completion(s) for unknown jobs", m.unknownDone)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m *AppModel) viewJobs() string {
	if len(m.jobOrder) == 0 {
		return ""
	}
	var b strings.Builder

	maxLines := max(1, m.termHeight-10)
	startIdx := 0
	if len(m.jobOrder) > maxLines {
		startIdx = len(m.jobOrder) - maxLines
	}

	b.WriteString(jobHeaderStyle.Render(fmt.Sprintf("%-6s | %-40s | %-10s | %s", "Job", "Archive", "Status", "Progress")))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", m.termWidth))
	b.WriteString("\n")
	for _, id := range m.jobOrder[startIdx:] {
		jv := m.jobs[id]
		if jv == nil {
			continue
		}
		statusStyled, ok := jobStatusStyle[jv.Status]
		if !ok {
			statusStyled = infoStyle
		}
		elapsed := ""
		if jv.Elapsed > 0 {
			elapsed = " " + jv.Elapsed.Round(time.Millisecond).String()
		}
		b.WriteString(fmt.Sprintf("%-6d | %-40s | %-10s | %s%s",
			jv.ID,
			truncate(jv.Path, maxPathWidth),
			statusStyled.Render(jv.Status),
			progressBarStyle.Render(m.bar.ViewAs(jv.Percent)),
			elapsed,
		))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *AppModel) counts() (complete, failed int) {
	for _, jv := range m.jobs {
		switch jv.Status {
		case StatusComplete:
			complete++
		case StatusFailed:
			failed++
		}
	}
	return complete, failed
}

// Job returns a copy of the view of job id.
func (m *AppModel) Job(id uint64) (JobView, bool) {
	jv, ok := m.jobs[id]
	if !ok {
		return JobView{}, false
	}
	return *jv, true
}

// --- Helpers ---

// truncate keeps the tail of long paths, which is the part that differs.
func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return "..." + s[len(s)-(width-3):]
}

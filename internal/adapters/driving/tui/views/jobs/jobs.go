// Package jobs provides the ingestion jobs view for the TUI.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// View lists ingestion jobs with their pipeline state.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	ingest driving.IngestOrchestrator
	ctx    context.Context

	jobs     []domain.IngestJob
	selected int
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
}

// NewView creates a new jobs view.
func NewView(s *styles.Styles, km *keymap.KeyMap, ingest driving.IngestOrchestrator) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keymap: km,
		ingest: ingest,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and triggers the first load.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadJobs()
}

// Update handles messages for the jobs view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.JobsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.jobs = msg.Jobs
		if v.selected >= len(v.jobs) {
			v.selected = 0
		}
		return v, nil
	}

	return v, nil
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		v.moveUp()
		return v, nil
	case tea.KeyDown:
		v.moveDown()
		return v, nil
	}

	switch msg.String() {
	case "k":
		v.moveUp()
		return v, nil
	case "j":
		v.moveDown()
		return v, nil
	case "r":
		v.loading = true
		return v, v.loadJobs()
	}

	return v, nil
}

// loadJobs fetches the job list from the orchestrator.
func (v *View) loadJobs() tea.Cmd {
	return func() tea.Msg {
		if v.ingest == nil {
			return messages.JobsLoaded{Err: errors.New("ingestion not configured")}
		}
		jobs, err := v.ingest.Jobs(v.ctx)
		return messages.JobsLoaded{Jobs: jobs, Err: err}
	}
}

// View renders the jobs view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 6)

	header := v.styles.Title.Render("Ingestion Jobs")
	sections = append(sections, header, "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	switch {
	case v.loading:
		sections = append(sections, v.styles.Muted.Render("Loading..."))
	case len(v.jobs) == 0:
		sections = append(sections, v.styles.Muted.Render("No jobs"))
	default:
		sections = append(sections, v.renderJobs())
	}

	sections = append(sections, "")
	footer := v.styles.Help.Render("[j/k] Navigate  [r] Refresh  [esc] Back")
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderJobs formats the job list.
func (v *View) renderJobs() string {
	lines := make([]string, 0, len(v.jobs))

	visibleCount := v.height - 8
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if v.selected >= visibleCount {
		start = v.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(v.jobs) {
		end = len(v.jobs)
	}

	for i := start; i < end; i++ {
		lines = append(lines, v.renderJob(i, &v.jobs[i]))
	}

	return strings.Join(lines, "\n")
}

// renderJob formats a single job line.
func (v *View) renderJob(index int, job *domain.IngestJob) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	filename := job.Filename
	maxLen := v.width - 30
	if maxLen < 10 {
		maxLen = 10
	}
	if len(filename) > maxLen {
		filename = filename[:maxLen-3] + "..."
	}

	line := fmt.Sprintf("%s%-*s  %s", indicator, maxLen, filename, job.State)

	var state string
	switch job.State {
	case domain.StateCompleted:
		state = v.styles.Success.Render(line)
	case domain.StateError:
		state = v.styles.Error.Render(line)
	default:
		state = v.styles.Normal.Render(line)
	}

	if index == v.selected {
		state = v.styles.Selected.Render(line)
	}

	// Show failure cause under the selected job
	if index == v.selected && job.State == domain.StateError && job.Error != "" {
		state += "\n" + v.styles.Muted.Render("    "+job.Error)
	}

	return state
}

func (v *View) moveUp() {
	if v.selected > 0 {
		v.selected--
	}
}

func (v *View) moveDown() {
	if v.selected < len(v.jobs)-1 {
		v.selected++
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Jobs returns the currently loaded jobs.
func (v *View) Jobs() []domain.IngestJob {
	return v.jobs
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// SelectedJob returns the currently selected job, or nil if none.
func (v *View) SelectedJob() *domain.IngestJob {
	if len(v.jobs) == 0 || v.selected < 0 || v.selected >= len(v.jobs) {
		return nil
	}
	return &v.jobs[v.selected]
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Loading returns whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

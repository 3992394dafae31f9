package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quarry/internal/core/domain"
)

func validPorts() *Ports {
	return NewPorts(&mockSearchService{}, &mockIngestOrchestrator{}, &mockCollectionService{})
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(validPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	require.Error(t, err)
	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestApp_Init(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	cmd := app.Init()

	assert.NotNil(t, cmd)
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Nil(t, cmd)
	updated, ok := model.(*App)
	require.True(t, ok)
	assert.True(t, updated.Ready())
}

func TestApp_Update_CtrlC_Quits(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_Update_ViewChanged_Search(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	model, cmd := app.Update(messages.ViewChanged{View: messages.ViewSearch})

	updated, ok := model.(*App)
	require.True(t, ok)
	assert.Equal(t, messages.ViewSearch, updated.CurrentView())
	assert.NotNil(t, cmd) // search view Init
}

func TestApp_Update_ViewChanged_Jobs(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	model, cmd := app.Update(messages.ViewChanged{View: messages.ViewJobs})

	updated, ok := model.(*App)
	require.True(t, ok)
	assert.Equal(t, messages.ViewJobs, updated.CurrentView())
	require.NotNil(t, cmd) // jobs view triggers a load

	msg := cmd()
	loaded, ok := msg.(messages.JobsLoaded)
	require.True(t, ok)
	assert.NoError(t, loaded.Err)
}

func TestApp_Update_SearchCompleted(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)
	app.SetDimensions(80, 24)

	results := []domain.SearchResult{
		{Filename: "report.pdf", ChunkIndex: 0, Text: "passage", Score: 0.9},
	}
	model, _ := app.Update(messages.SearchCompleted{Results: results})

	updated, ok := model.(*App)
	require.True(t, ok)
	assert.Len(t, updated.Results(), 1)
	assert.NoError(t, updated.Err())
}

func TestApp_Update_SearchCompleted_Error(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	model, _ := app.Update(messages.SearchCompleted{Err: errors.New("embed failed")})

	updated, ok := model.(*App)
	require.True(t, ok)
	assert.Error(t, updated.Err())
}

func TestApp_Update_EscFromHelp(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	updated, ok := model.(*App)
	require.True(t, ok)
	assert.Equal(t, messages.ViewMenu, updated.CurrentView())
}

func TestApp_Update_QuitMessage(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)

	view := app.View()

	assert.Contains(t, view, "Initialising")
}

func TestApp_View_Menu(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)
	app.SetDimensions(80, 24)

	view := app.View()

	assert.Contains(t, view, "Quarry")
	assert.Contains(t, view, "Search")
	assert.Contains(t, view, "Jobs")
}

func TestApp_View_Help(t *testing.T) {
	app, err := NewApp(validPorts())
	require.NoError(t, err)
	app.SetDimensions(80, 24)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	view := app.View()

	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "Navigation")
}

func TestApp_ViewTypeString(t *testing.T) {
	assert.Equal(t, "menu", messages.ViewMenu.String())
	assert.Equal(t, "search", messages.ViewSearch.String())
	assert.Equal(t, "jobs", messages.ViewJobs.String())
	assert.Equal(t, "help", messages.ViewHelp.String())
}

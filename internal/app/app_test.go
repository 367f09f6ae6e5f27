package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(m *AppModel, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestAppModel_JobLifecycle(t *testing.T) {
	m := NewAppModel()
	start := time.Now()

	send(m,
		NewVisit("/data/movie"),
		JobStartedMsg{JobID: 2, Path: "/data/movie/movie.rar", At: start},
		NewJobProgress(2, 42),
	)

	jv, ok := m.Job(2)
	require.True(t, ok)
	assert.Equal(t, StatusExtracting, jv.Status)
	assert.InDelta(t, 0.42, jv.Percent, 0.001)

	send(m, JobDoneMsg{JobID: 2, At: start.Add(time.Second)})
	jv, _ = m.Job(2)
	assert.Equal(t, StatusComplete, jv.Status)
	assert.Equal(t, 1.0, jv.Percent)
	assert.Equal(t, time.Second, jv.Elapsed)

	view := m.View()
	assert.Contains(t, view, "Visited 1")
	assert.Contains(t, view, "movie.rar")
	assert.Contains(t, view, StatusComplete)
}

func TestAppModel_NextStartFailsUnfinishedJob(t *testing.T) {
	m := NewAppModel()
	send(m,
		NewJobStarted(1, "/a/a.rar"),
		NewJobProgress(1, 10),
		NewJobStarted(2, "/b/b.rar"),
	)

	first, _ := m.Job(1)
	assert.Equal(t, StatusFailed, first.Status)
	second, _ := m.Job(2)
	assert.Equal(t, StatusExtracting, second.Status)

	// Late progress for a failed job is ignored.
	send(m, NewJobProgress(1, 90))
	first, _ = m.Job(1)
	assert.InDelta(t, 0.10, first.Percent, 0.001)
}

func TestAppModel_UnknownCompletion(t *testing.T) {
	m := NewAppModel()
	send(m, NewJobDone(99))

	_, ok := m.Job(99)
	assert.False(t, ok)
	assert.Contains(t, m.View(), "unknown jobs")
}

func TestAppModel_ShutdownQuits(t *testing.T) {
	m := NewAppModel()
	cmd := send(m, NewJobStarted(1, "/a/a.rar"), ShutdownMsg{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, Finished, m.State)
	jv, _ := m.Job(1)
	assert.Equal(t, StatusFailed, jv.Status)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "...6789", truncate("0123456789", 7))
}

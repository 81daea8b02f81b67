package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/internal/builder"
)

func testModel(cancel func()) (*Model, chan struct{}) {
	if cancel == nil {
		cancel = func() {}
	}
	ack := make(chan struct{}, 1)
	m := New(Config{
		Project: "wifi-speed",
		Profile: v1.ProfileFull,
		Entry:   "wifi_speed.py",
	}, ack, cancel)
	m.width, m.height = 100, 30
	return m, ack
}

func testPlan() []builder.Step {
	return []builder.Step{
		{Name: "create venv", Kind: builder.KindCommand, Argv: []string{"python3", "-m", "venv", "venv"}},
		{Name: "install requirements", Kind: builder.KindCommand, Argv: []string{"pip", "install", "-r", "requirements.txt"}},
		{Name: "report artifact", Kind: builder.KindReport},
	}
}

func TestModelTracksPipelineProgress(t *testing.T) {
	m, _ := testModel(nil)

	m.Update(plannedMsg(testPlan()))
	require.Len(t, m.rows, 3)
	for _, row := range m.rows {
		assert.Equal(t, v1.StepPending, row.Status)
	}

	m.Update(stepStartedMsg{n: 1, total: 3, step: testPlan()[0]})
	assert.Equal(t, v1.StepRunning, m.rows[0].Status)

	m.Update(stepFinishedMsg{n: 1, res: v1.StepResult{
		Name:       "create venv",
		Status:     v1.StepOK,
		DurationMS: 420,
	}})
	assert.Equal(t, v1.StepOK, m.rows[0].Status)
	assert.Equal(t, int64(420), m.rows[0].DurationMS)

	view := m.View()
	assert.Contains(t, view, "PIPELINE")
	assert.Contains(t, view, "create venv")
	assert.Contains(t, view, "install requirements")
}

func TestModelGrowsRowsWithoutPlan(t *testing.T) {
	m, _ := testModel(nil)

	m.Update(stepStartedMsg{n: 2, total: 3, step: testPlan()[1]})
	require.Len(t, m.rows, 3)
	assert.Equal(t, v1.StepPending, m.rows[0].Status)
	assert.Equal(t, v1.StepRunning, m.rows[1].Status)
	assert.Equal(t, "install requirements", m.rows[1].Name)
}

func TestModelRendersCompletionMessage(t *testing.T) {
	m, _ := testModel(nil)

	m.Update(completedMsg{message: `Done. See dist\wifi_speed.exe`, failed: false})
	assert.Contains(t, m.View(), `Done. See dist\wifi_speed.exe`)

	m.Update(completedMsg{message: "", failed: true})
	assert.Contains(t, m.View(), "build aborted")
}

func TestModelPauseAcknowledge(t *testing.T) {
	m, ack := testModel(nil)

	m.Update(pauseMsg{})
	require.True(t, m.waitingAck)
	assert.Contains(t, m.View(), "Press Enter to close...")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.waitingAck)

	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("acknowledgment never signalled")
	}
}

func TestModelQuitCancelsBuild(t *testing.T) {
	cancelled := false
	m, _ := testModel(func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, cancelled)
}

func TestModelDoneQuitsWithSummary(t *testing.T) {
	m, _ := testModel(nil)

	rec := &v1.BuildRecord{
		Result:        v1.ResultSuccess,
		DurationMS:    12400,
		ArtifactBytes: 7 << 20,
	}
	_, cmd := m.Update(DoneMsg{Rec: rec})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	view := m.View()
	assert.Contains(t, view, "success in 12.4s")
	assert.Contains(t, view, "7.0M")
}

package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/plan"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogue = []plan.Plan{
	{ID: 1, TenorSeconds: 30 * 86400, AprBps: 500, Active: true},
	{ID: 2, TenorSeconds: 90 * 86400, AprBps: 800, Active: true},
}

func newWatch(fetch PlanFetcher) PlanWatch {
	return NewPlanWatch(context.Background(), "localhost", "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512", time.Second, fetch)
}

func update(t *testing.T, m PlanWatch, msg tea.Msg) (PlanWatch, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	w, ok := next.(PlanWatch)
	require.True(t, ok)
	return w, cmd
}

func TestPlanWatchFetchCmd(t *testing.T) {
	m := newWatch(func(context.Context) ([]plan.Plan, error) { return catalogue, nil })
	msg := m.fetchCmd()()
	fetched, ok := msg.(PlansFetchedMsg)
	require.True(t, ok)
	assert.Equal(t, catalogue, fetched.Plans)

	m = newWatch(func(context.Context) ([]plan.Plan, error) { return nil, errors.New("rpc down") })
	_, ok = m.fetchCmd()().(PlansErrorMsg)
	assert.True(t, ok)
}

func TestPlanWatchFirstPollMarksNothing(t *testing.T) {
	m := newWatch(nil)
	m, _ = update(t, m, PlansFetchedMsg{Plans: catalogue, At: time.Now()})

	assert.Equal(t, 1, m.Polls)
	assert.Empty(t, m.Changed)
	view := m.View()
	assert.Contains(t, view, "30d")
	assert.Contains(t, view, "8")
	assert.NotContains(t, view, "*")
}

func TestPlanWatchMarksChanges(t *testing.T) {
	m := newWatch(nil)
	m, _ = update(t, m, PlansFetchedMsg{Plans: catalogue, At: time.Now()})

	next := []plan.Plan{
		catalogue[0],
		{ID: 2, TenorSeconds: 90 * 86400, AprBps: 850, Active: true},
		{ID: 3, TenorSeconds: 180 * 86400, AprBps: 1000, Active: false},
	}
	m, _ = update(t, m, PlansFetchedMsg{Plans: next, At: time.Now()})

	assert.Equal(t, map[uint64]bool{2: true, 3: true}, m.Changed)
	assert.Contains(t, m.View(), "*")
}

func TestPlanWatchErrorKeepsPlans(t *testing.T) {
	m := newWatch(nil)
	m, _ = update(t, m, PlansFetchedMsg{Plans: catalogue, At: time.Now()})
	m, _ = update(t, m, PlansErrorMsg{Err: errors.New("header not found")})

	assert.Len(t, m.Plans, 2)
	view := m.View()
	assert.Contains(t, view, "✗ header not found")
	assert.Contains(t, view, "90d")

	m, _ = update(t, m, PlansFetchedMsg{Plans: catalogue, At: time.Now()})
	assert.Empty(t, m.ErrMsg)
}

func TestPlanWatchEmptyCatalogue(t *testing.T) {
	m := newWatch(nil)
	assert.Contains(t, m.View(), "connecting")

	m, _ = update(t, m, PlansFetchedMsg{At: time.Now()})
	assert.Contains(t, m.View(), "No plans configured")
}

func TestPlanWatchQuit(t *testing.T) {
	m := newWatch(nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, m.Quitting)
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestPlanWatchTickSchedulesFetch(t *testing.T) {
	m := newWatch(func(context.Context) ([]plan.Plan, error) { return nil, nil })
	_, cmd := update(t, m, planTickMsg(time.Now()))
	assert.NotNil(t, cmd)
}

func TestPlanTable(t *testing.T) {
	out := PlanTable(catalogue, map[uint64]bool{1: true})
	assert.Contains(t, out, "Tenor")
	assert.Contains(t, out, "APR %")
	assert.Contains(t, out, "90d")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "*")
}

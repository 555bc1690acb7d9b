package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/plan"
	tea "github.com/charmbracelet/bubbletea"
)

// PlanFetcher loads the current catalogue.
type PlanFetcher func(ctx context.Context) ([]plan.Plan, error)

// PlansFetchedMsg carries a fresh catalogue.
type PlansFetchedMsg struct {
	Plans []plan.Plan
	At    time.Time
}

// PlansErrorMsg reports a failed poll. The previous catalogue stays on screen.
type PlansErrorMsg struct{ Err error }

type planTickMsg time.Time

// PlanWatch is the Bubble Tea model behind `plans watch`. It polls the
// catalogue every Interval and marks plans whose terms changed since the
// previous poll.
type PlanWatch struct {
	Network  string
	Contract string
	Interval time.Duration

	Plans    []plan.Plan
	Changed  map[uint64]bool
	Updated  time.Time
	ErrMsg   string
	Polls    int
	Quitting bool

	fetch PlanFetcher
	ctx   context.Context
}

// NewPlanWatch creates the model. ctx bounds every fetch.
func NewPlanWatch(ctx context.Context, network, contract string, interval time.Duration, fetch PlanFetcher) PlanWatch {
	return PlanWatch{
		Network:  network,
		Contract: contract,
		Interval: interval,
		Changed:  make(map[uint64]bool),
		fetch:    fetch,
		ctx:      ctx,
	}
}

// Run starts the full-screen program and blocks until the user quits.
func (m PlanWatch) Run() error {
	_, err := tea.NewProgram(m).Run()
	return err
}

func (m PlanWatch) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), planTick(m.Interval))
}

func (m PlanWatch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}

	case planTickMsg:
		return m, tea.Batch(m.fetchCmd(), planTick(m.Interval))

	case PlansFetchedMsg:
		m.Changed = diffPlans(m.Plans, msg.Plans, m.Polls > 0)
		m.Plans = msg.Plans
		m.Updated = msg.At
		m.ErrMsg = ""
		m.Polls++

	case PlansErrorMsg:
		m.ErrMsg = msg.Err.Error()
	}
	return m, nil
}

func (m PlanWatch) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(fmt.Sprintf("Deposit plans · %s · %s", m.Network, TruncateAddr(m.Contract))) + "\n")
	if m.Updated.IsZero() {
		sb.WriteString(Meta("connecting…") + "\n\n")
	} else {
		sb.WriteString(Meta(fmt.Sprintf("updated %s · every %s · r refresh · q quit", m.Updated.Format("15:04:05"), m.Interval)) + "\n\n")
	}
	if m.ErrMsg != "" {
		sb.WriteString(Err(m.ErrMsg) + "\n\n")
	}

	if len(m.Plans) == 0 {
		if !m.Updated.IsZero() {
			sb.WriteString(Meta("No plans configured.") + "\n")
		}
		return sb.String()
	}

	sb.WriteString(PlanTable(m.Plans, m.Changed))
	return sb.String()
}

// PlanTable renders plans as a table. Rows whose id is in changed get a marker.
func PlanTable(plans []plan.Plan, changed map[uint64]bool) string {
	t := NewTable([]Column{
		{Title: "ID", Width: 4},
		{Title: "Tenor", Width: 14},
		{Title: "APR %", Width: 8},
		{Title: "Status", Width: 10},
		{Title: "", Width: 2},
	})
	for _, p := range plans {
		mark := ""
		if changed[p.ID] {
			mark = StyleWarning.Render("*")
		}
		t.AddRow(Row{
			fmt.Sprintf("%d", p.ID),
			p.Duration(),
			p.APR(),
			Active(p.Active),
			mark,
		})
	}
	return t.Render()
}

func (m PlanWatch) fetchCmd() tea.Cmd {
	fetch, ctx := m.fetch, m.ctx
	return func() tea.Msg {
		plans, err := fetch(ctx)
		if err != nil {
			return PlansErrorMsg{Err: err}
		}
		return PlansFetchedMsg{Plans: plans, At: time.Now()}
	}
}

func planTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return planTickMsg(t) })
}

// diffPlans returns the ids in next that are new or differ from prev. The
// first poll has nothing to compare against and marks nothing.
func diffPlans(prev, next []plan.Plan, compare bool) map[uint64]bool {
	changed := make(map[uint64]bool)
	if !compare {
		return changed
	}
	old := make(map[uint64]plan.Plan, len(prev))
	for _, p := range prev {
		old[p.ID] = p
	}
	for _, p := range next {
		if o, ok := old[p.ID]; !ok || o != p {
			changed[p.ID] = true
		}
	}
	return changed
}

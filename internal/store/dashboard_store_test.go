package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/tests/testutil"
)

func TestTeamSummary(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ana := testutil.SeedUser(t, s, "Ana")
	bo := testutil.SeedUser(t, s, "Bo")

	overdue := now.Add(-24 * time.Hour)
	upcoming := now.Add(24 * time.Hour)

	mustCreate := func(tk model.Task, assignees ...string) *model.Task {
		created, err := s.CreateTask(ctx, tk, assignees, nil)
		require.NoError(t, err)
		return created
	}

	mustCreate(model.Task{Title: "late", Status: model.StatusToDo, Priority: model.PriorityHigh, DueDate: &overdue, CreatorID: ana.ID}, ana.ID, bo.ID)
	mustCreate(model.Task{Title: "active", Status: model.StatusInProgress, Priority: model.PriorityMedium, DueDate: &upcoming, CreatorID: ana.ID}, ana.ID)
	// Done and overdue does not count as overdue, and does not add load.
	mustCreate(model.Task{Title: "shipped", Status: model.StatusDone, Priority: model.PriorityLow, DueDate: &overdue, CreatorID: bo.ID}, bo.ID)

	summary, err := s.TeamSummary(ctx, now)
	require.NoError(t, err)

	require.Equal(t, 3, summary.TotalTasks)
	require.Equal(t, 1, summary.OverdueTasks)

	byStatus := map[string]int{}
	for _, sc := range summary.ByStatus {
		byStatus[sc.Status] = sc.Count
	}
	require.Equal(t, map[string]int{
		model.StatusToDo:       1,
		model.StatusInProgress: 1,
		model.StatusDone:       1,
	}, byStatus)

	byPriority := map[string]int{}
	for _, pc := range summary.ByPriority {
		byPriority[pc.Priority] = pc.Count
	}
	require.Equal(t, 1, byPriority[model.PriorityHigh])

	load := map[string]int{}
	for _, al := range summary.AssigneeLoad {
		load[al.DisplayName] = al.OpenTasks
	}
	require.Equal(t, map[string]int{"Ana": 2, "Bo": 1}, load)

	// Heaviest load sorts first.
	require.Equal(t, "Ana", summary.AssigneeLoad[0].DisplayName)
}

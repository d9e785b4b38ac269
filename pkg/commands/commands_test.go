package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtilityCommandsTree(t *testing.T) {
	t.Parallel()

	cmds := NewUtilityCommands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "migrate", cmds[0].Name())
	var subs []string
	for _, c := range cmds[0].Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "status"}, subs)

	assert.Equal(t, "seed", cmds[1].Name())
	assert.NotNil(t, cmds[1].Flags().Lookup("file"))
}

func TestPrintStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := printStatus(&buf, []*goose.MigrationStatus{
		{
			Source:    &goose.Source{Path: "00001_core.sql", Version: 1},
			State:     goose.StateApplied,
			AppliedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			Source: &goose.Source{Path: "00101_events.sql", Version: 101},
			State:  goose.StatePending,
		},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "2026-05-01 09:30:00")
	assert.Contains(t, out, "00101_events.sql")
	assert.Contains(t, out, "pending")
}

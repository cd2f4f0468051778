package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTableIsValid(t *testing.T) {
	table, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, 0, table.Levels[0].MinPoints)

	reward, ok := table.Reward("sticker_pack")
	require.True(t, ok)
	require.Equal(t, RewardCategoryGift, reward.Category)

	_, ok = table.Reward("pony")
	require.False(t, ok)
}

func TestLoadOverridesSectionsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
points:
  per_correct: 7
  per_retry_correct: 3
  per_attempt: 1
  per_open_ended: 4
  perfect_assignment_bonus: 15
  speed_threshold_seconds: 45
levels:
  - name: Solver
    min_points: 80
  - name: Novice
    min_points: 0
  - name: Learner
    min_points: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 7, table.Points.PerCorrect)
	require.Equal(t, 45, table.Points.SpeedThresholdSeconds)
	require.Len(t, table.Levels, 3)
	require.Equal(t, "Novice", table.Levels[0].Name, "levels are sorted ascending")
	require.Equal(t, "Solver", table.Levels[2].Name)
	require.Len(t, table.Badges, len(Default().Badges), "badges keep defaults when absent")
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	cases := map[string]func(*Table){
		"no zero tier": func(tb *Table) {
			tb.Levels = []LevelTier{{Name: "Learner", MinPoints: 30}}
		},
		"duplicate threshold": func(tb *Table) {
			tb.Levels = append(tb.Levels, LevelTier{Name: "Twin", MinPoints: 30})
		},
		"duplicate badge": func(tb *Table) {
			tb.Badges = append(tb.Badges, tb.Badges[0])
		},
		"streak without length": func(tb *Table) {
			tb.Badges = append(tb.Badges, BadgeDefinition{ID: "streak_x", Title: "X", Kind: BadgeStreak})
		},
		"unknown badge kind": func(tb *Table) {
			tb.Badges = append(tb.Badges, BadgeDefinition{ID: "odd", Title: "Odd", Kind: "lucky"})
		},
		"free reward": func(tb *Table) {
			tb.Rewards = append(tb.Rewards, RewardItem{ID: "free", Title: "Free", Category: RewardCategoryGift})
		},
		"duplicate reward": func(tb *Table) {
			tb.Rewards = append(tb.Rewards, tb.Rewards[0])
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			table := Default()
			mutate(&table)
			require.Error(t, table.Validate(nil))
		})
	}
}

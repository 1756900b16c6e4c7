package seating_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/arranger"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/preference"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/seating"
)

// 两对互相选择的好朋友，并且都不想和另一对中的某个人同组
func friendsTable() *domain.PreferenceTable {
	return &domain.PreferenceTable{
		ID:   7,
		Name: "两对好友",
		Members: []domain.PreferenceTableMember{
			{Name: "甲", Preferences: []string{"乙", "", "丙"}},
			{Name: "丙", Preferences: []string{"丁", "", "甲"}},
			{Name: "乙", Preferences: []string{"甲", "", "丁"}},
			{Name: "丁", Preferences: []string{"丙", "", "乙"}},
		},
	}
}

func testOptions() seating.Options {
	return seating.Options{
		GroupSize:      2,
		Selector:       arranger.SelectorStochastic,
		SelectionCount: 4,
		Parameters: arranger.Parameters{
			PopulationSize: 20,
			MaxGenerations: 200,
			MutationRate:   1,
			Workers:        2,
			Seed:           5,
		},
		Policy: preference.DefaultWeightPolicy(),
	}
}

func TestArrange_FindsFriends(t *testing.T) {
	arrangement, err := seating.Arrange(context.Background(), friendsTable(), testOptions())
	require.NoError(t, err)

	require.Equal(t, int64(7), arrangement.PreferenceTableID)
	require.Equal(t, int32(2), arrangement.GroupSize)
	require.Equal(t, int32(200), arrangement.Generations)
	require.Equal(t, arranger.SelectorStochastic, arrangement.Selector)
	require.Equal(t, int64(4), arrangement.Score)
	require.Len(t, arrangement.Groups, 2)

	for _, group := range arrangement.Groups {
		require.Len(t, group.Members, 2)
		require.Contains(t, [][]string{{"甲", "乙"}, {"乙", "甲"}, {"丙", "丁"}, {"丁", "丙"}}, group.Members)
	}
}

func TestArrange_InvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.GroupSize = 0
	_, err := seating.Arrange(context.Background(), friendsTable(), opts)
	require.ErrorIs(t, err, arranger.ErrInvalidGroupSize)

	opts = testOptions()
	opts.Selector = "unknown"
	_, err = seating.Arrange(context.Background(), friendsTable(), opts)
	require.ErrorIs(t, err, arranger.ErrUnknownSelector)

	opts = testOptions()
	opts.SelectionCount = 21
	_, err = seating.Arrange(context.Background(), friendsTable(), opts)
	require.ErrorIs(t, err, arranger.ErrInvalidSelectionCount)

	_, err = seating.Arrange(context.Background(), &domain.PreferenceTable{}, testOptions())
	require.ErrorIs(t, err, preference.ErrEmptyTable)
}

func TestScore(t *testing.T) {
	groups := []domain.ArrangementGroup{
		{Members: []string{"甲", "丙"}},
		{Members: []string{"乙", "丁"}},
	}

	arrangement, err := seating.Score(friendsTable(), preference.DefaultWeightPolicy(), groups, 2)
	require.NoError(t, err)
	require.Equal(t, int64(-4), arrangement.Score)
	require.Equal(t, "manual", arrangement.Selector)
	require.Equal(t, groups, arrangement.Groups)
}

func TestOptionsFromConfig(t *testing.T) {
	arrangerCfg, preferenceCfg, err := config.LoadArrangerConfig()
	require.NoError(t, err)

	opts := seating.OptionsFromConfig(arrangerCfg, preferenceCfg)
	require.Equal(t, arrangerCfg.GroupSize, opts.GroupSize)
	require.Equal(t, arrangerCfg.PopulationSize, opts.Parameters.PopulationSize)
	require.Equal(t, arrangerCfg.SelectionCount, opts.SelectionCount)
	require.Equal(t, preference.DefaultWeightPolicy(), opts.Policy)
}

package preference_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/arranger"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/preference"
)

func sampleTable() *domain.PreferenceTable {
	return &domain.PreferenceTable{
		Name: "一班",
		Members: []domain.PreferenceTableMember{
			{Name: "张三", Preferences: []string{"李四", "王五", "赵六"}},
			{Name: "李四", Preferences: []string{"张三", "", "王五"}},
			{Name: "王五", Preferences: []string{"不存在", "赵六", "赵六"}},
			{Name: "赵六", Preferences: []string{}},
		},
	}
}

func TestBuildPeople_DefaultPolicy(t *testing.T) {
	people, err := preference.BuildPeople(sampleTable(), preference.DefaultWeightPolicy())
	require.NoError(t, err)
	require.Len(t, people, 4)

	for i, p := range people {
		require.Equal(t, i, p.Index)
		require.Len(t, p.Preferences, 4)
	}

	require.Equal(t, "张三", people[0].Name)
	require.Equal(t, []int64{0, 1, 1, -1}, people[0].Preferences)
	require.Equal(t, []int64{1, 0, -1, 0}, people[1].Preferences)
	// 第 2 列为正，第 3 列为负，同一个人时后者覆盖前者
	require.Equal(t, []int64{0, 0, 0, -1}, people[2].Preferences)
	require.Equal(t, []int64{0, 0, 0, 0}, people[3].Preferences)
}

func TestBuildPeople_ColumnInBothLists(t *testing.T) {
	policy := domain.WeightPolicy{
		PositiveColumns: []int{1},
		NegativeColumns: []int{1},
		PositiveWeight:  5,
		NegativeWeight:  -3,
	}

	people, err := preference.BuildPeople(sampleTable(), policy)
	require.NoError(t, err)
	require.Equal(t, int64(-3), people[0].Preferences[1])
	require.Equal(t, int64(0), people[0].Preferences[2])
}

func TestBuildPeople_InvalidTables(t *testing.T) {
	_, err := preference.BuildPeople(&domain.PreferenceTable{}, preference.DefaultWeightPolicy())
	require.ErrorIs(t, err, preference.ErrEmptyTable)

	dup := sampleTable()
	dup.Members[3].Name = "张三"
	_, err = preference.BuildPeople(dup, preference.DefaultWeightPolicy())
	require.ErrorIs(t, err, preference.ErrDuplicateMember)

	blank := sampleTable()
	blank.Members[1].Name = ""
	require.ErrorIs(t, preference.ValidateTable(blank), preference.ErrEmptyMemberName)
}

func TestChartGroupsRoundTrip(t *testing.T) {
	people, err := preference.BuildPeople(sampleTable(), preference.DefaultWeightPolicy())
	require.NoError(t, err)

	groups := []domain.ArrangementGroup{
		{Members: []string{"张三", "李四", "王五"}},
		{Members: []string{"赵六"}},
	}

	chart, err := preference.ChartFromGroups(people, groups, 3)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, chart.Indices())
	require.Equal(t, groups, preference.ChartGroups(chart))

	// 张三->李四 +1，张三->王五 +1，李四->张三 +1，李四->王五 -1
	require.Equal(t, arranger.Fitness(2), arranger.Evaluate(chart))
}

func TestChartFromGroups_Errors(t *testing.T) {
	people, err := preference.BuildPeople(sampleTable(), preference.DefaultWeightPolicy())
	require.NoError(t, err)

	cases := []struct {
		name   string
		groups []domain.ArrangementGroup
		err    error
	}{
		{"未知的人", []domain.ArrangementGroup{{Members: []string{"张三", "李四"}}, {Members: []string{"王五", "钱七"}}}, preference.ErrUnknownMember},
		{"重复的人", []domain.ArrangementGroup{{Members: []string{"张三", "李四"}}, {Members: []string{"王五", "张三"}}}, preference.ErrRepeatedMember},
		{"缺少的人", []domain.ArrangementGroup{{Members: []string{"张三", "李四"}}, {Members: []string{"王五"}}}, preference.ErrMissingMember},
		{"超过分组大小", []domain.ArrangementGroup{{Members: []string{"张三", "李四", "王五"}}, {Members: []string{"赵六"}}}, preference.ErrGroupTooLarge},
		{"空组", []domain.ArrangementGroup{{Members: []string{}}, {Members: []string{"张三", "李四"}}}, preference.ErrEmptyGroup},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := preference.ChartFromGroups(people, tc.groups, 2)
			require.ErrorIs(t, err, tc.err)
		})
	}

	// 中间的组不满
	_, err = preference.ChartFromGroups(people, []domain.ArrangementGroup{
		{Members: []string{"张三"}},
		{Members: []string{"李四", "王五"}},
		{Members: []string{"赵六"}},
	}, 2)
	require.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"姓名,想同组1,想同组2,不想同组",
		"张三, 李四,王五,赵六",
		"李四,张三,,王五",
		",,,",
		"王五,赵六",
		"赵六,,,",
	}, "\n")

	table, err := preference.ReadCSV(strings.NewReader(input), "导入")
	require.NoError(t, err)
	require.Equal(t, "导入", table.Name)
	require.Len(t, table.Members, 4)
	require.Equal(t, []string{"李四", "王五", "赵六"}, table.Members[0].Preferences)
	require.Equal(t, []string{"赵六"}, table.Members[2].Preferences)

	_, err = preference.ReadCSV(strings.NewReader(""), "空")
	require.ErrorIs(t, err, preference.ErrEmptyTable)

	_, err = preference.ReadCSV(strings.NewReader("姓名\n张三\n张三\n"), "重名")
	require.ErrorIs(t, err, preference.ErrDuplicateMember)
}

package preference

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/arranger"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
)

var (
	ErrEmptyTable      = errors.New("偏好表中没有任何人")
	ErrDuplicateMember = errors.New("偏好表中存在重名")
	ErrEmptyMemberName = errors.New("偏好表中存在空的人名")
	ErrUnknownMember   = errors.New("分组中存在偏好表以外的人")
	ErrMissingMember   = errors.New("分组中缺少偏好表中的人")
	ErrRepeatedMember  = errors.New("分组中存在重复的人")
	ErrGroupTooLarge   = errors.New("分组人数超过了分组大小")
	ErrEmptyGroup      = errors.New("分组中存在空组")
)

// DefaultWeightPolicy: 第 1、2 列为想要同组的人，第 3 列为不想同组的人
func DefaultWeightPolicy() domain.WeightPolicy {
	return domain.WeightPolicy{
		PositiveColumns: []int{1, 2},
		NegativeColumns: []int{3},
		PositiveWeight:  1,
		NegativeWeight:  -1,
	}
}

// BuildPeople 按成员顺序分配下标，并根据权重策略生成每个人的偏好向量
// 没有出现在偏好表中的人名和空单元格会被忽略
func BuildPeople(table *domain.PreferenceTable, policy domain.WeightPolicy) ([]*arranger.Person, error) {
	index, err := indexMembers(table)
	if err != nil {
		return nil, err
	}

	n := len(table.Members)
	people := make([]*arranger.Person, n)

	for i, member := range table.Members {
		person := &arranger.Person{
			Index:       i,
			Name:        member.Name,
			Preferences: make([]int64, n),
		}

		for col, name := range member.Preferences {
			other, exists := index[name]
			if !exists {
				continue
			}

			// 列号从 1 开始，负权重后判断，因此同时出现时负权重生效
			var weight int64
			if slices.Contains(policy.PositiveColumns, col+1) {
				weight = policy.PositiveWeight
			}
			if slices.Contains(policy.NegativeColumns, col+1) {
				weight = policy.NegativeWeight
			}

			person.Preferences[other] = weight
		}

		people[i] = person
	}

	return people, nil
}

// ChartGroups 将座位表转换为按组排列的人名
func ChartGroups(chart *arranger.Chart) []domain.ArrangementGroup {
	groups := make([]domain.ArrangementGroup, 0)
	for _, group := range chart.Groups() {
		members := make([]string, len(group))
		for i, p := range group {
			members[i] = p.Name
		}
		groups = append(groups, domain.ArrangementGroup{Members: members})
	}
	return groups
}

// ChartFromGroups 将手动给出的分组转换为座位表
// 每个人必须恰好出现一次，除最后一组外每组都必须恰好为 groupSize 人
func ChartFromGroups(people []*arranger.Person, groups []domain.ArrangementGroup, groupSize int) (*arranger.Chart, error) {
	byName := make(map[string]*arranger.Person, len(people))
	for _, p := range people {
		byName[p.Name] = p
	}

	seen := make(map[string]bool, len(people))
	ordered := make([]*arranger.Person, 0, len(people))

	for i, group := range groups {
		if len(group.Members) == 0 {
			return nil, fmt.Errorf("%w: 第 %d 组", ErrEmptyGroup, i+1)
		}
		if len(group.Members) > groupSize {
			return nil, fmt.Errorf("%w: 第 %d 组有 %d 人", ErrGroupTooLarge, i+1, len(group.Members))
		}
		if i < len(groups)-1 && len(group.Members) < groupSize {
			// 座位表按固定大小切分，中间的组不满会导致后面的人被分到错误的组
			return nil, fmt.Errorf("第 %d 组只有 %d 人，只有最后一组可以不满", i+1, len(group.Members))
		}

		for _, name := range group.Members {
			p, exists := byName[name]
			if !exists {
				return nil, fmt.Errorf("%w: %s", ErrUnknownMember, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %s", ErrRepeatedMember, name)
			}
			seen[name] = true
			ordered = append(ordered, p)
		}
	}

	if len(ordered) != len(people) {
		for _, p := range people {
			if !seen[p.Name] {
				return nil, fmt.Errorf("%w: %s", ErrMissingMember, p.Name)
			}
		}
	}

	return arranger.NewChart(ordered, groupSize)
}

// ValidateTable 检查偏好表是否可以用于排座
func ValidateTable(table *domain.PreferenceTable) error {
	_, err := indexMembers(table)
	return err
}

func indexMembers(table *domain.PreferenceTable) (map[string]int, error) {
	if len(table.Members) == 0 {
		return nil, ErrEmptyTable
	}

	index := make(map[string]int, len(table.Members))
	for i, member := range table.Members {
		if member.Name == "" {
			return nil, fmt.Errorf("%w: 第 %d 行", ErrEmptyMemberName, i+1)
		}
		if _, exists := index[member.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, member.Name)
		}
		index[member.Name] = i
	}

	return index, nil
}

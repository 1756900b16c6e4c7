package arranger

import (
	"fmt"
)

// Person: 需要安排座位的一个人
type Person struct {
	Index       int     // 在全体人员中的稳定下标
	Name        string  // 仅用于展示
	Preferences []int64 // Preferences[j] 表示此人对下标为 j 的人的偏好权重
}

// Fitness: 座位表的适应度，越大越好
type Fitness int64

func ZeroFitness() Fitness {
	return 0
}

func (f Fitness) AbsDiff(other Fitness) Fitness {
	if f > other {
		return f - other
	}
	return other - f
}

// Chart: 一个完整的座位表（染色体）
// people 按顺序每 groupSize 个人切分为一组，最后一组可以不满
// Chart 创建后不会被修改，交叉和变异都会产生新的 Chart
type Chart struct {
	people    []*Person
	groupSize int
}

// NewChart 检查 people 是否为 0..N-1 的一个排列，并创建座位表
func NewChart(people []*Person, groupSize int) (*Chart, error) {
	if groupSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGroupSize, groupSize)
	}
	if len(people) == 0 {
		return nil, ErrEmptyChart
	}

	n := len(people)
	seen := make([]bool, n)
	for _, p := range people {
		if p == nil {
			return nil, fmt.Errorf("%w: 存在空的人员", ErrNotPermutation)
		}
		if p.Index < 0 || p.Index >= n || seen[p.Index] {
			return nil, fmt.Errorf("%w: 下标 %d", ErrNotPermutation, p.Index)
		}
		if len(p.Preferences) != n {
			return nil, fmt.Errorf("%w: %s 的偏好长度为 %d，应为 %d", ErrPreferenceLength, p.Name, len(p.Preferences), n)
		}
		seen[p.Index] = true
	}

	return newChart(append([]*Person(nil), people...), groupSize), nil
}

// newChart 不做检查，调用方需要保证 people 是一个排列且不会再被修改
func newChart(people []*Person, groupSize int) *Chart {
	return &Chart{
		people:    people,
		groupSize: groupSize,
	}
}

func (c *Chart) Len() int {
	return len(c.people)
}

func (c *Chart) GroupSize() int {
	return c.groupSize
}

// People 返回人员顺序的副本
func (c *Chart) People() []*Person {
	return append([]*Person(nil), c.people...)
}

// Indices 返回每个位置上的人员下标
func (c *Chart) Indices() []int {
	indices := make([]int, len(c.people))
	for i, p := range c.people {
		indices[i] = p.Index
	}
	return indices
}

// Groups 按组切分，最后一组可以不满
func (c *Chart) Groups() [][]*Person {
	groups := make([][]*Person, 0, (len(c.people)+c.groupSize-1)/c.groupSize)
	for _, group := range chunk(c.people, c.groupSize) {
		groups = append(groups, append([]*Person(nil), group...))
	}
	return groups
}

// ScoredChart: 带有适应度的座位表
type ScoredChart struct {
	Chart   *Chart
	Fitness Fitness
}

// 遗传算法参数
// 每一代选出的繁殖个体数由选择算子的 Count 决定
type Parameters struct {
	PopulationSize      int32   // 种群大小
	MaxGenerations      int32   // 最大迭代次数
	MutationRate        float64 // 子代发生一次交换变异的概率
	EliteCount          int32   // 原样保留到下一代的精英数量
	ConvergenceDelta    int64   // 最优适应度变化不超过该值时视为停滞
	ConvergencePatience int32   // 连续停滞多少代后提前结束，0 表示不提前结束
	Workers             int32   // 并行计算适应度的 goroutine 数量
	Seed                int64   // 随机数种子，0 表示使用当前时间
}

func chunk(people []*Person, size int) [][]*Person {
	var chunks [][]*Person
	for start := 0; start < len(people); start += size {
		end := min(start+size, len(people))
		chunks = append(chunks, people[start:end])
	}
	return chunks
}

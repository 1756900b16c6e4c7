package arranger

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// makePeople 根据偏好矩阵创建人员，prefs[i][j] 为 i 对 j 的偏好
func makePeople(prefs [][]int64) []*Person {
	people := make([]*Person, len(prefs))
	for i, row := range prefs {
		people[i] = &Person{Index: i, Name: string(rune('A' + i)), Preferences: row}
	}
	return people
}

// zeroPeople 创建 n 个互相没有偏好的人
func zeroPeople(n int) []*Person {
	prefs := make([][]int64, n)
	for i := range prefs {
		prefs[i] = make([]int64, n)
	}
	return makePeople(prefs)
}

// order 按下标顺序排列人员
func order(people []*Person, indices ...int) []*Person {
	out := make([]*Person, len(indices))
	for i, idx := range indices {
		out[i] = people[idx]
	}
	return out
}

func mustChart(t *testing.T, people []*Person, groupSize int) *Chart {
	t.Helper()
	c, err := NewChart(people, groupSize)
	require.NoError(t, err)
	return c
}

func requirePermutation(t *testing.T, c *Chart, n int) {
	t.Helper()
	indices := c.Indices()
	require.Len(t, indices, n)
	slices.Sort(indices)
	for i, idx := range indices {
		require.Equal(t, i, idx)
	}
}

// pairPrefs: 0 和 1 互相喜欢 (+10)，都讨厌 2 和 3 (-5)
var pairPrefs = [][]int64{
	{0, 10, -5, -5},
	{10, 0, -5, -5},
	{0, 0, 0, 0},
	{0, 0, 0, 0},
}

func TestNewChart_Validation(t *testing.T) {
	people := zeroPeople(4)

	_, err := NewChart(people, 0)
	require.ErrorIs(t, err, ErrInvalidGroupSize)

	_, err = NewChart(nil, 2)
	require.ErrorIs(t, err, ErrEmptyChart)

	_, err = NewChart(order(people, 0, 1, 1, 3), 2)
	require.ErrorIs(t, err, ErrNotPermutation)

	short := []*Person{{Index: 0, Preferences: []int64{0}}, {Index: 1, Preferences: []int64{0, 0}}}
	_, err = NewChart(short, 2)
	require.ErrorIs(t, err, ErrPreferenceLength)

	c := mustChart(t, order(people, 3, 2, 1, 0), 2)
	require.Equal(t, []int{3, 2, 1, 0}, c.Indices())
	require.Equal(t, 2, c.GroupSize())
	require.Equal(t, 4, c.Len())
}

func TestChart_PeopleIsACopy(t *testing.T) {
	people := zeroPeople(3)
	c := mustChart(t, people, 3)

	got := c.People()
	got[0], got[1] = got[1], got[0]
	people[2] = people[0]

	require.Equal(t, []int{0, 1, 2}, c.Indices())
}

func TestChart_Groups(t *testing.T) {
	c := mustChart(t, zeroPeople(5), 2)
	groups := c.Groups()

	require.Len(t, groups, 3)
	require.Len(t, groups[0], 2)
	require.Len(t, groups[2], 1)
	require.Equal(t, 4, groups[2][0].Index)
}

func TestEvaluate_PairScenario(t *testing.T) {
	people := makePeople(pairPrefs)

	perfect := mustChart(t, order(people, 0, 1, 2, 3), 2)
	split := mustChart(t, order(people, 0, 2, 1, 3), 2)

	// 0 与 1 同组：10 + 10
	require.Equal(t, Fitness(20), Evaluate(perfect))
	// 0 与 2 同组、1 与 3 同组：-5 + -5
	require.Equal(t, Fitness(-10), Evaluate(split))
	require.Greater(t, Evaluate(perfect), Evaluate(split))
}

func TestEvaluate_Directed(t *testing.T) {
	people := makePeople([][]int64{
		{0, 3},
		{-1, 0},
	})

	require.Equal(t, Fitness(2), Evaluate(mustChart(t, people, 2)))
	// 分开坐时没有任何配对
	require.Equal(t, ZeroFitness(), Evaluate(mustChart(t, people, 1)))
}

func TestEvaluate_SingleGroupAndShortTail(t *testing.T) {
	prefs := [][]int64{
		{0, 1, 2},
		{3, 0, 4},
		{5, 6, 0},
	}
	people := makePeople(prefs)

	// 只有一组时所有有序对都计入
	require.Equal(t, Fitness(1+2+3+4+5+6), Evaluate(mustChart(t, people, 3)))
	// 分组大小大于人数时同样只有一组
	require.Equal(t, Fitness(21), Evaluate(mustChart(t, people, 10)))
	// [0,1] [2]：最后一组不满，单人组没有配对
	require.Equal(t, Fitness(1+3), Evaluate(mustChart(t, people, 2)))
}

func TestEvaluate_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 12
	prefs := make([][]int64, n)
	for i := range prefs {
		prefs[i] = make([]int64, n)
		for j := range prefs[i] {
			prefs[i][j] = int64(rng.Intn(21) - 10)
		}
	}

	pop, err := RandomPopulation(makePeople(prefs), 4, 5, rng)
	require.NoError(t, err)
	for _, c := range pop {
		require.Equal(t, Evaluate(c), Evaluate(c))
	}
}

// 交换同组两个人时，适应度变化只来自他们与其他组员的配对项
func TestEvaluate_SwapDelta(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 6
	prefs := make([][]int64, n)
	for i := range prefs {
		prefs[i] = make([]int64, n)
		for j := range prefs[i] {
			prefs[i][j] = int64(rng.Intn(11) - 5)
		}
	}
	people := makePeople(prefs)

	// [0,1,2] [3,4,5]，交换 1 和 4
	before := mustChart(t, people, 3)
	after := before.swapped(1, 4)

	pairTerms := func(p int, group []int) int64 {
		var sum int64
		for _, q := range group {
			sum += prefs[p][q] + prefs[q][p]
		}
		return sum
	}

	expected := pairTerms(4, []int{0, 2}) + pairTerms(1, []int{3, 5}) -
		pairTerms(1, []int{0, 2}) - pairTerms(4, []int{3, 5})

	require.Equal(t, Fitness(expected), Evaluate(after)-Evaluate(before))

	// 同组内交换不改变适应度
	require.Equal(t, Evaluate(before), Evaluate(before.swapped(0, 2)))
}

func TestCrossover_Interleaves(t *testing.T) {
	people := zeroPeople(8)

	a := mustChart(t, order(people, 0, 1, 2, 3, 4, 5, 6, 7), 2)
	b := mustChart(t, order(people, 4, 5, 6, 7, 0, 1, 2, 3), 2)

	child, err := Crossover(a, b)
	require.NoError(t, err)

	// 交替拼接后为 [0,1 | 4,5 | 2,3 | 6,7 | ...]，后续全部重复
	require.Equal(t, []int{0, 1, 4, 5, 2, 3, 6, 7}, child.Indices())
	require.Equal(t, 2, child.GroupSize())
}

func TestCrossover_SkipsDuplicates(t *testing.T) {
	people := zeroPeople(6)

	a := mustChart(t, order(people, 0, 1, 2, 3, 4, 5), 3)
	b := mustChart(t, order(people, 1, 5, 4, 0, 2, 3), 3)

	child, err := Crossover(a, b)
	require.NoError(t, err)

	// 流为 [0,1,2] [1,5,4] [3,4,5] [0,2,3]
	require.Equal(t, []int{0, 1, 2, 5, 4, 3}, child.Indices())
}

func TestCrossover_GroupStructure(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pop, err := RandomPopulation(zeroPeople(12), 3, 2, rng)
	require.NoError(t, err)

	a, b := pop[0], pop[1]
	child, err := Crossover(a, b)
	require.NoError(t, err)

	// 子代第一组一定完整来自父代 a 的第一组
	require.Equal(t, a.Indices()[:3], child.Indices()[:3])

	// 子代第二组中的人优先来自父代 b 的第一组
	for _, idx := range b.Indices()[:3] {
		if !slices.Contains(a.Indices()[:3], idx) {
			require.Contains(t, child.Indices()[3:6], idx)
		}
	}
}

func TestCrossover_SelfIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pop, err := RandomPopulation(zeroPeople(9), 4, 1, rng)
	require.NoError(t, err)

	child, err := Crossover(pop[0], pop[0])
	require.NoError(t, err)
	require.Equal(t, pop[0].Indices(), child.Indices())
}

func TestCrossover_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, groupSize := range []int{1, 2, 3, 4, 7, 20} {
		pop, err := RandomPopulation(zeroPeople(13), groupSize, 10, rng)
		require.NoError(t, err)

		for i := 0; i < len(pop); i++ {
			child, err := Crossover(pop[i], pop[(i+1)%len(pop)])
			require.NoError(t, err)
			requirePermutation(t, child, 13)
		}
	}
}

func TestCrossover_BrokenParentFailsLoudly(t *testing.T) {
	people := zeroPeople(4)
	good := mustChart(t, people, 2)

	// 绕过 NewChart 构造一个缺少 3 的父代
	broken := newChart(order(people, 0, 1, 2, 2), 2)

	_, err := Crossover(broken, broken)
	require.ErrorIs(t, err, ErrParentsExhausted)

	child, err := Crossover(broken, good)
	require.NoError(t, err)
	requirePermutation(t, child, 4)
}

func TestCrossover_MismatchedParents(t *testing.T) {
	people := zeroPeople(4)
	_, err := Crossover(mustChart(t, people, 2), mustChart(t, people, 4))
	require.ErrorIs(t, err, ErrGroupSizeMismatch)
}

func TestMutate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := mustChart(t, zeroPeople(10), 3)

	for i := 0; i < 100; i++ {
		mutated := Mutate(c, rng)
		requirePermutation(t, mutated, 10)

		// 最多只有两个位置不同
		diff := 0
		for j, idx := range mutated.Indices() {
			if idx != j {
				diff++
			}
		}
		require.Contains(t, []int{0, 2}, diff)
	}

	// 源座位表没有被修改
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, c.Indices())
}

func TestMutate_SamePositionIsNoop(t *testing.T) {
	c := mustChart(t, zeroPeople(5), 2)
	same := c.swapped(3, 3)

	require.Equal(t, c.Indices(), same.Indices())
	require.NotSame(t, c, same)
}

func TestRandomPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	pop, err := RandomPopulation(zeroPeople(8), 4, 20, rng)
	require.NoError(t, err)
	require.Len(t, pop, 20)
	for _, c := range pop {
		requirePermutation(t, c, 8)
		require.Equal(t, 4, c.GroupSize())
	}

	_, err = RandomPopulation(zeroPeople(8), 4, 0, rng)
	require.ErrorIs(t, err, ErrEmptyPopulation)

	_, err = RandomPopulation(zeroPeople(8), 0, 3, rng)
	require.ErrorIs(t, err, ErrInvalidGroupSize)
}

func TestFitness_AbsDiff(t *testing.T) {
	require.Equal(t, Fitness(7), Fitness(3).AbsDiff(-4))
	require.Equal(t, Fitness(7), Fitness(-4).AbsDiff(3))
	require.Equal(t, ZeroFitness(), Fitness(5).AbsDiff(5))
}

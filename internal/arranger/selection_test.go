package arranger

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func scoredPopulation(t *testing.T, fitnesses ...int64) []ScoredChart {
	t.Helper()
	people := zeroPeople(3)
	scored := make([]ScoredChart, len(fitnesses))
	for i, f := range fitnesses {
		scored[i] = ScoredChart{Chart: mustChart(t, people, 1), Fitness: Fitness(f)}
	}
	return scored
}

func TestSelectors_EmptyPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, name := range []string{SelectorStochastic, SelectorRoulette, SelectorTournament, SelectorMaximize} {
		s, err := NewSelector(name, 2, 3)
		require.NoError(t, err)
		require.Equal(t, name, s.Name())

		_, err = s.Select(rng, nil)
		require.ErrorIs(t, err, ErrEmptySelection, name)
	}
}

func TestSelectors_ReturnCount(t *testing.T) {
	scored := scoredPopulation(t, -3, 0, 5, 2)
	for _, name := range []string{SelectorStochastic, SelectorRoulette, SelectorTournament, SelectorMaximize} {
		s, err := NewSelector(name, 7, 2)
		require.NoError(t, err)

		chosen, err := s.Select(rand.New(rand.NewSource(2)), scored)
		require.NoError(t, err)
		require.Len(t, chosen, 7, name)
		for _, c := range chosen {
			require.NotNil(t, c)
		}
	}
}

func TestNewSelector_Unknown(t *testing.T) {
	_, err := NewSelector("lottery", 1, 0)
	require.ErrorIs(t, err, ErrUnknownSelector)

	s, err := NewSelector("", 4, 0)
	require.NoError(t, err)
	require.Equal(t, SelectorStochastic, s.Name())
	require.Equal(t, 4, s.Count())
}

func TestSelectors_DeterministicWithSeed(t *testing.T) {
	scored := scoredPopulation(t, 1, 2, 3, 4, 5, 6)
	for _, name := range []string{SelectorStochastic, SelectorRoulette, SelectorTournament} {
		s, err := NewSelector(name, 10, 3)
		require.NoError(t, err)

		first, err := s.Select(rand.New(rand.NewSource(99)), scored)
		require.NoError(t, err)
		second, err := s.Select(rand.New(rand.NewSource(99)), scored)
		require.NoError(t, err)
		require.Equal(t, positions(scored, first), positions(scored, second), name)
	}
}

// positions 将选出的座位表映射回其在种群中的下标
func positions(scored []ScoredChart, chosen []*Chart) []int {
	out := make([]int, len(chosen))
	for i, c := range chosen {
		for j, sc := range scored {
			if sc.Chart == c {
				out[i] = j
			}
		}
	}
	return out
}

func TestMaximizeSelector_TopAndStable(t *testing.T) {
	scored := scoredPopulation(t, 1, 9, 4, 9, 0)
	chosen, err := MaximizeSelector{count: 3}.Select(nil, scored)
	require.NoError(t, err)

	// 两个 9 中靠前的排在前面
	require.Same(t, scored[1].Chart, chosen[0])
	require.Same(t, scored[3].Chart, chosen[1])
	require.Same(t, scored[2].Chart, chosen[2])
}

func TestRouletteSelector_FavoursFitter(t *testing.T) {
	scored := scoredPopulation(t, -100, 100)
	chosen, err := RouletteSelector{count: 1000}.Select(rand.New(rand.NewSource(4)), scored)
	require.NoError(t, err)

	// 权重分别为 1 和 201
	better := 0
	for _, c := range chosen {
		if c == scored[1].Chart {
			better++
		}
	}
	require.Greater(t, better, 900)
}

func TestTournamentSelector_SizeOneIsUniform(t *testing.T) {
	scored := scoredPopulation(t, 0, 1000)
	chosen, err := TournamentSelector{count: 1000, TournamentSize: 1}.Select(rand.New(rand.NewSource(8)), scored)
	require.NoError(t, err)

	worse := 0
	for _, c := range chosen {
		if c == scored[0].Chart {
			worse++
		}
	}
	require.Greater(t, worse, 300)
	require.Less(t, worse, 700)
}

func TestRouletteSelector_ExtremeFitness(t *testing.T) {
	cases := [][]int64{
		{math.MinInt64, math.MaxInt64},
		{0, math.MaxInt64},
		{0, math.MaxInt64 - 1, math.MaxInt64 - 1},
		{math.MinInt64 + 1, 0, 0},
	}

	for _, fitnesses := range cases {
		scored := scoredPopulation(t, fitnesses...)
		chosen, err := RouletteSelector{count: 50}.Select(rand.New(rand.NewSource(3)), scored)
		require.NoError(t, err, fitnesses)
		require.Len(t, chosen, 50)
		for _, c := range chosen {
			require.NotNil(t, c)
		}
	}
}

func TestRouletteWeights(t *testing.T) {
	weights, total, ok := rouletteWeights(scoredPopulation(t, -2, 0, 3), Fitness(-2))
	require.True(t, ok)
	require.Equal(t, []int64{1, 3, 6}, weights)
	require.Equal(t, int64(10), total)

	_, _, ok = rouletteWeights(scoredPopulation(t, math.MinInt64, math.MaxInt64), Fitness(math.MinInt64))
	require.False(t, ok)
}

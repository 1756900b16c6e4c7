package arranger

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Selector 从带有适应度的种群中选出 Count 个用于繁殖的座位表（允许重复）
type Selector interface {
	Name() string
	Count() int
	Select(rng *rand.Rand, scored []ScoredChart) ([]*Chart, error)
}

const (
	SelectorStochastic = "stochastic"
	SelectorRoulette   = "roulette"
	SelectorTournament = "tournament"
	SelectorMaximize   = "maximize"
)

// NewSelector 根据名称创建选择算子，tournamentSize 只对锦标赛选择有效
func NewSelector(name string, count int, tournamentSize int) (Selector, error) {
	switch name {
	case SelectorStochastic, "":
		return StochasticSelector{count: count}, nil
	case SelectorRoulette:
		return RouletteSelector{count: count}, nil
	case SelectorTournament:
		return TournamentSelector{count: count, TournamentSize: tournamentSize}, nil
	case SelectorMaximize:
		return MaximizeSelector{count: count}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSelector, name)
	}
}

// StochasticSelector 等概率有放回地抽取
type StochasticSelector struct {
	count int
}

func NewStochasticSelector(count int) StochasticSelector {
	return StochasticSelector{count: count}
}

func (StochasticSelector) Name() string { return SelectorStochastic }

func (s StochasticSelector) Count() int { return s.count }

func (s StochasticSelector) Select(rng *rand.Rand, scored []ScoredChart) ([]*Chart, error) {
	if len(scored) == 0 {
		return nil, ErrEmptySelection
	}

	chosen := make([]*Chart, s.count)
	for i := range chosen {
		chosen[i] = scored[rng.Intn(len(scored))].Chart
	}
	return chosen, nil
}

// RouletteSelector 使用轮盘赌来进行选择
// 适应度可能为负，所以先平移使得最差个体的权重为 1
type RouletteSelector struct {
	count int
}

func (RouletteSelector) Name() string { return SelectorRoulette }

func (s RouletteSelector) Count() int { return s.count }

func (s RouletteSelector) Select(rng *rand.Rand, scored []ScoredChart) ([]*Chart, error) {
	if len(scored) == 0 {
		return nil, ErrEmptySelection
	}

	worst := scored[0].Fitness
	for _, sc := range scored[1:] {
		worst = min(worst, sc.Fitness)
	}

	weights, total, ok := rouletteWeights(scored, worst)
	if !ok {
		// 适应度跨度过大，权重之和无法用 int64 表示，退化为等概率选择
		return StochasticSelector{count: s.count}.Select(rng, scored)
	}

	chosen := make([]*Chart, s.count)
	for i := range chosen {
		pick := rng.Int63n(total)
		var partial int64

		// 理论上一定会在循环中选中，兜底选最后一个
		chosen[i] = scored[len(scored)-1].Chart
		for j, sc := range scored {
			partial += weights[j]
			if partial > pick {
				chosen[i] = sc.Chart
				break
			}
		}
	}
	return chosen, nil
}

// rouletteWeights 计算平移后的权重，溢出时 ok 为 false
func rouletteWeights(scored []ScoredChart, worst Fitness) ([]int64, int64, bool) {
	weights := make([]int64, len(scored))
	var total int64

	for i, sc := range scored {
		diff := int64(sc.Fitness) - int64(worst)
		if diff < 0 || diff == math.MaxInt64 {
			return nil, 0, false
		}
		weight := diff + 1
		if total > math.MaxInt64-weight {
			return nil, 0, false
		}
		weights[i] = weight
		total += weight
	}

	return weights, total, true
}

// TournamentSelector 每次随机抽取 TournamentSize 个个体，选出其中最好的
type TournamentSelector struct {
	count          int
	TournamentSize int
}

func (TournamentSelector) Name() string { return SelectorTournament }

func (s TournamentSelector) Count() int { return s.count }

func (s TournamentSelector) Select(rng *rand.Rand, scored []ScoredChart) ([]*Chart, error) {
	if len(scored) == 0 {
		return nil, ErrEmptySelection
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}

	chosen := make([]*Chart, s.count)
	for i := range chosen {
		best := scored[rng.Intn(len(scored))]
		for j := 1; j < size; j++ {
			candidate := scored[rng.Intn(len(scored))]
			if candidate.Fitness > best.Fitness {
				best = candidate
			}
		}
		chosen[i] = best.Chart
	}
	return chosen, nil
}

// MaximizeSelector 直接选出适应度最高的 Count 个，适应度相同时靠前的优先
type MaximizeSelector struct {
	count int
}

func (MaximizeSelector) Name() string { return SelectorMaximize }

func (s MaximizeSelector) Count() int { return s.count }

func (s MaximizeSelector) Select(_ *rand.Rand, scored []ScoredChart) ([]*Chart, error) {
	if len(scored) == 0 {
		return nil, ErrEmptySelection
	}

	ranked := rank(scored)
	chosen := make([]*Chart, s.count)
	for i := range chosen {
		// 数量超过种群大小时循环使用
		chosen[i] = ranked[i%len(ranked)].Chart
	}
	return chosen, nil
}

// rank 按适应度从高到低排序，不修改传入的切片
func rank(scored []ScoredChart) []ScoredChart {
	ranked := append([]ScoredChart(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

package arranger

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

type State int

const (
	StateConfigured State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Simulator: 代际循环
type Simulator struct {
	parameters *Parameters
	population []*Chart
	selector   Selector
	rng        *rand.Rand

	state       State
	generation  int
	best        *Chart
	bestFitness Fitness
	history     []Fitness // 每一代结束时的历史最优适应度
}

func New(parameters *Parameters, population []*Chart, selector Selector) (*Simulator, error) {
	if err := validate(parameters, population, selector); err != nil {
		return nil, err
	}

	seed := parameters.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulator{
		parameters: parameters,
		population: append([]*Chart(nil), population...),
		selector:   selector,
		rng:        rand.New(rand.NewSource(seed)),
		state:      StateConfigured,
	}, nil
}

func validate(parameters *Parameters, population []*Chart, selector Selector) error {
	if len(population) == 0 {
		return ErrEmptyPopulation
	}
	if parameters.PopulationSize > 0 && int(parameters.PopulationSize) != len(population) {
		return fmt.Errorf("%w: 期望 %d，实际 %d", ErrPopulationSize, parameters.PopulationSize, len(population))
	}

	first := population[0]
	if first == nil {
		return ErrEmptyChart
	}
	if first.groupSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidGroupSize, first.groupSize)
	}
	for _, c := range population[1:] {
		if c == nil || c.groupSize != first.groupSize || len(c.people) != len(first.people) {
			return ErrMismatchedUniverse
		}
	}

	if parameters.MaxGenerations < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxGenerations, parameters.MaxGenerations)
	}
	if parameters.MutationRate < 0 || parameters.MutationRate > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidMutationRate, parameters.MutationRate)
	}
	if parameters.EliteCount < 0 || int(parameters.EliteCount) > len(population) {
		return fmt.Errorf("%w: %d", ErrInvalidEliteCount, parameters.EliteCount)
	}

	if selector == nil {
		return ErrNilSelector
	}
	if selector.Count() < 1 || selector.Count() > len(population) {
		return fmt.Errorf("%w: %d", ErrInvalidSelectionCount, selector.Count())
	}

	return nil
}

// Run 迭代直到达到最大代数、收敛或 ctx 被取消
// ctx 只在两代之间检查
func (s *Simulator) Run(ctx context.Context) error {
	if s.state != StateConfigured {
		return ErrAlreadyStarted
	}
	s.state = StateRunning

	stalled := 0
	maxGenerations := int(s.parameters.MaxGenerations)
	start := time.Now()

	for s.generation < maxGenerations {
		if err := ctx.Err(); err != nil {
			s.state = StateTerminated
			return err
		}

		// 计算本代适应度并更新历史最优
		scored, err := s.evaluate()
		if err != nil {
			s.state = StateTerminated
			return err
		}
		previous := s.bestFitness
		s.track(scored)

		// 检查是否停滞
		if s.generation > 0 && s.bestFitness.AbsDiff(previous) <= Fitness(s.parameters.ConvergenceDelta) {
			stalled++
		} else {
			stalled = 0
		}

		// 繁殖
		next, err := s.reproduce(scored)
		if err != nil {
			s.state = StateTerminated
			return err
		}
		s.population = next
		s.generation++
		s.history = append(s.history, s.bestFitness)

		if s.generation%1000 == 0 {
			slog.Debug("排座迭代中", "generation", s.generation, "best", int64(s.bestFitness))
		}

		if s.parameters.ConvergencePatience > 0 && stalled >= int(s.parameters.ConvergencePatience) {
			slog.Debug("最优适应度已停滞，提前结束", "generation", s.generation, "stalled", stalled)
			break
		}
	}

	// 最后一代繁殖出的子代也需要参与评比
	scored, err := s.evaluate()
	if err != nil {
		s.state = StateTerminated
		return err
	}
	s.track(scored)
	if len(s.history) > 0 {
		s.history[len(s.history)-1] = s.bestFitness
	}

	s.state = StateTerminated
	slog.Info("排座迭代结束", "generations", s.generation, "best", int64(s.bestFitness), "selector", s.selector.Name(), "duration", time.Since(start))

	return nil
}

// evaluate 并行计算每个座位表的适应度，结果与种群顺序一致
func (s *Simulator) evaluate() ([]ScoredChart, error) {
	scored := make([]ScoredChart, len(s.population))

	var g errgroup.Group
	if s.parameters.Workers > 0 {
		g.SetLimit(int(s.parameters.Workers))
	}

	for i, c := range s.population {
		g.Go(func() error {
			scored[i] = ScoredChart{Chart: c, Fitness: Evaluate(c)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// track 更新历史最优，适应度相同时保留最先找到的
func (s *Simulator) track(scored []ScoredChart) {
	for _, sc := range scored {
		if s.best == nil || sc.Fitness > s.bestFitness {
			s.best = sc.Chart
			s.bestFitness = sc.Fitness
		}
	}
}

// reproduce 保留精英，然后用选出的个体两两交叉、变异补齐种群
func (s *Simulator) reproduce(scored []ScoredChart) ([]*Chart, error) {
	size := len(s.population)
	next := make([]*Chart, 0, size)

	if elite := int(s.parameters.EliteCount); elite > 0 {
		for _, sc := range rank(scored)[:elite] {
			next = append(next, sc.Chart)
		}
	}

	parents, err := s.selector.Select(s.rng, scored)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return nil, ErrEmptySelection
	}

	for len(next) < size {
		// 只选出一个时，与自己交叉得到的仍是它自己
		p1 := parents[s.rng.Intn(len(parents))]
		p2 := parents[s.rng.Intn(len(parents))]

		child, err := Crossover(p1, p2)
		if err != nil {
			return nil, err
		}

		if s.rng.Float64() < s.parameters.MutationRate {
			child = Mutate(child, s.rng)
		}

		next = append(next, child)
	}

	return next, nil
}

// Best 返回历史最优座位表及其适应度，只能在迭代结束后调用
func (s *Simulator) Best() (*Chart, Fitness, error) {
	if s.state != StateTerminated || s.best == nil {
		return nil, ZeroFitness(), ErrNotTerminated
	}
	return s.best, s.bestFitness, nil
}

func (s *Simulator) State() State {
	return s.state
}

func (s *Simulator) Generation() int {
	return s.generation
}

// History 返回每一代结束时的历史最优适应度，单调不减
func (s *Simulator) History() []Fitness {
	return append([]Fitness(nil), s.history...)
}

func (s *Simulator) Population() []*Chart {
	return append([]*Chart(nil), s.population...)
}

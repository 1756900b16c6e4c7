package seating

import (
	"context"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/arranger"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/preference"
)

// Options: 一次自动排座所需的全部参数
type Options struct {
	GroupSize      int32
	Selector       string
	SelectionCount int32
	TournamentSize int32
	Parameters     arranger.Parameters
	Policy         domain.WeightPolicy
}

// OptionsFromConfig 使用配置中的默认值
func OptionsFromConfig(arrangerCfg *config.ArrangerConfig, preferenceCfg *config.PreferenceConfig) Options {
	return Options{
		GroupSize:      arrangerCfg.GroupSize,
		Selector:       arrangerCfg.Selector,
		SelectionCount: arrangerCfg.SelectionCount,
		TournamentSize: arrangerCfg.TournamentSize,
		Parameters: arranger.Parameters{
			PopulationSize:      arrangerCfg.PopulationSize,
			MaxGenerations:      arrangerCfg.MaxGenerations,
			MutationRate:        arrangerCfg.MutationRate,
			EliteCount:          arrangerCfg.EliteCount,
			ConvergenceDelta:    arrangerCfg.ConvergenceDelta,
			ConvergencePatience: arrangerCfg.ConvergencePatience,
			Workers:             arrangerCfg.Workers,
		},
		Policy: preferenceCfg.WeightPolicy(),
	}
}

// Arrange 对偏好表进行自动排座
func Arrange(ctx context.Context, table *domain.PreferenceTable, opts Options) (*domain.Arrangement, error) {
	people, err := preference.BuildPeople(table, opts.Policy)
	if err != nil {
		return nil, err
	}

	parameters := opts.Parameters
	if parameters.Seed == 0 {
		parameters.Seed = time.Now().UnixNano()
	}

	// 初始种群与迭代使用不同的随机源，但都由同一个种子决定
	rng := rand.New(rand.NewSource(parameters.Seed))
	population, err := arranger.RandomPopulation(people, int(opts.GroupSize), int(parameters.PopulationSize), rng)
	if err != nil {
		return nil, err
	}

	selector, err := arranger.NewSelector(opts.Selector, int(opts.SelectionCount), int(opts.TournamentSize))
	if err != nil {
		return nil, err
	}

	parameters.Seed = rng.Int63() + 1
	simulator, err := arranger.New(&parameters, population, selector)
	if err != nil {
		return nil, err
	}

	if err := simulator.Run(ctx); err != nil {
		return nil, err
	}

	best, fitness, err := simulator.Best()
	if err != nil {
		return nil, err
	}

	return &domain.Arrangement{
		PreferenceTableID: table.ID,
		GroupSize:         opts.GroupSize,
		Score:             int64(fitness),
		Generations:       int32(simulator.Generation()),
		Selector:          selector.Name(),
		Groups:            preference.ChartGroups(best),
	}, nil
}

// Score 计算手动给出的分组的得分
func Score(table *domain.PreferenceTable, policy domain.WeightPolicy, groups []domain.ArrangementGroup, groupSize int32) (*domain.Arrangement, error) {
	people, err := preference.BuildPeople(table, policy)
	if err != nil {
		return nil, err
	}

	chart, err := preference.ChartFromGroups(people, groups, int(groupSize))
	if err != nil {
		return nil, err
	}

	return &domain.Arrangement{
		PreferenceTableID: table.ID,
		GroupSize:         groupSize,
		Score:             int64(arranger.Evaluate(chart)),
		Selector:          "manual",
		Groups:            preference.ChartGroups(chart),
	}, nil
}

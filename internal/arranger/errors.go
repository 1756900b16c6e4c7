package arranger

import "errors"

var (
	// 配置错误，在开始迭代之前返回
	ErrEmptyPopulation       = errors.New("初始种群为空")
	ErrPopulationSize        = errors.New("初始种群数量与种群大小不一致")
	ErrInvalidGroupSize      = errors.New("分组大小必须大于 0")
	ErrInvalidSelectionCount = errors.New("选择数量必须在 1 到种群大小之间")
	ErrInvalidMaxGenerations = errors.New("最大迭代次数必须大于 0")
	ErrInvalidMutationRate   = errors.New("变异概率必须在 0 到 1 之间")
	ErrInvalidEliteCount     = errors.New("精英数量必须在 0 到种群大小之间")
	ErrMismatchedUniverse    = errors.New("初始种群中的座位表人数或分组大小不一致")
	ErrNilSelector           = errors.New("没有指定选择算子")
	ErrUnknownSelector       = errors.New("未知的选择算子")

	// 座位表本身不合法
	ErrEmptyChart       = errors.New("座位表为空")
	ErrNotPermutation   = errors.New("座位表不是一个排列")
	ErrPreferenceLength = errors.New("偏好向量长度与人数不一致")

	// 不变量被破坏，说明上游构造座位表时存在缺陷
	ErrParentsExhausted  = errors.New("交叉时父代人员已耗尽，父代不是完整的排列")
	ErrGroupSizeMismatch = errors.New("父代的分组大小或人数不一致")

	ErrEmptySelection = errors.New("不能从空种群中进行选择")
	ErrNotTerminated  = errors.New("迭代尚未结束")
	ErrAlreadyStarted = errors.New("模拟器已经运行过")
)

package arranger

import (
	"fmt"
	"math/rand"
)

// RandomPopulation 将全体人员打乱 size 次，生成初始种群
func RandomPopulation(people []*Person, groupSize int, size int, rng *rand.Rand) ([]*Chart, error) {
	if size < 1 {
		return nil, ErrEmptyPopulation
	}

	base, err := NewChart(people, groupSize)
	if err != nil {
		return nil, err
	}

	pop := make([]*Chart, size)
	for i := range pop {
		shuffled := base.People()
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		pop[i] = newChart(shuffled, groupSize)
	}

	return pop, nil
}

/**
 * 计算座位表的适应度
 * fitness = Σ_group Σ_{p != q} p.Preferences[q.Index]
 * 同组中每个人对其他人的感受都会计入，A 对 B 和 B 对 A 是两项
 */
func Evaluate(c *Chart) Fitness {
	var fitness int64

	for _, group := range chunk(c.people, c.groupSize) {
		for i, person := range group {
			for j, other := range group {
				if i != j {
					fitness += person.Preferences[other.Index]
				}
			}
		}
	}

	return Fitness(fitness)
}

/**
 * 分组交叉
 * 将两个父代按组交替拼接：a 的第 0 组、b 的第 0 组、a 的第 1 组、b 的第 1 组 ...
 * 然后顺序扫描，跳过已经放入子代的人，直到所有人都被放入
 * 例如 [1,2,3,4] 和 [5,6,7,8]，分组大小为 2 时拼接结果为 [1,2,5,6,3,4,7,8]
 */
func Crossover(a *Chart, b *Chart) (*Chart, error) {
	if a.groupSize != b.groupSize || len(a.people) != len(b.people) {
		return nil, fmt.Errorf("%w: (%d, %d) 与 (%d, %d)", ErrGroupSizeMismatch, len(a.people), a.groupSize, len(b.people), b.groupSize)
	}

	n := len(a.people)
	placed := make([]bool, n)
	remaining := n
	child := make([]*Person, 0, n)

	groupsA := chunk(a.people, a.groupSize)
	groupsB := chunk(b.people, b.groupSize)

	for i := 0; i < len(groupsA) && remaining > 0; i++ {
		for _, group := range [2][]*Person{groupsA[i], groupsB[i]} {
			for _, person := range group {
				if remaining == 0 {
					break
				}
				if person.Index < 0 || person.Index >= n {
					return nil, fmt.Errorf("%w: 下标 %d 越界", ErrNotPermutation, person.Index)
				}
				if placed[person.Index] {
					continue
				}
				placed[person.Index] = true
				remaining--
				child = append(child, person)
			}
		}
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: 还有 %d 人没有放入", ErrParentsExhausted, remaining)
	}

	return newChart(child, a.groupSize), nil
}

// Mutate 随机交换两个位置，两个位置可以相同
func Mutate(c *Chart, rng *rand.Rand) *Chart {
	n := len(c.people)
	return c.swapped(rng.Intn(n), rng.Intn(n))
}

func (c *Chart) swapped(i int, j int) *Chart {
	people := c.People()
	people[i], people[j] = people[j], people[i]
	return newChart(people, c.groupSize)
}

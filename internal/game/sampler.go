package game

import "math/rand"

// SampleQuestions 从可玩题库中均匀抽取 count 道互不重复的题目。
// 实现为 Fisher–Yates 全量洗牌后截断；count 超过题库总量时收敛到总量。
// 注意：抽样对分类是"平铺"的，不做分类配额（见 DESIGN.md 的决策记录）。
func SampleQuestions(p *Pack, count int, rng *rand.Rand) []Question {
	pool := p.EligibleQuestions()
	if count > len(pool) {
		count = len(pool)
	}
	if count < 0 {
		count = 0
	}

	for i := len(pool) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:count]
}

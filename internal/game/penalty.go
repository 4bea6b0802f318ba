package game

import "math/rand"

// penaltyMessages 固定的派对惩罚文案，每连错两题随机抽一条
var penaltyMessages = []string{
	"为寿星唱一段生日歌！",
	"做 10 个深蹲，全场监督！",
	"学一种动物叫，直到有人猜对！",
	"用左手给旁边的人倒一杯饮料！",
	"讲一个冷笑话，不好笑就再来一个！",
	"模仿在场任意一位朋友，让大家猜是谁！",
	"原地转三圈再说一句绕口令！",
	"和寿星合影一张鬼脸照！",
}

// PickPenalty 随机抽取一条惩罚文案
func PickPenalty(rng *rand.Rand) string {
	return penaltyMessages[rng.Intn(len(penaltyMessages))]
}

// PenaltyMessages 供校验报告与前端预取使用
func PenaltyMessages() []string {
	out := make([]string, len(penaltyMessages))
	copy(out, penaltyMessages)
	return out
}

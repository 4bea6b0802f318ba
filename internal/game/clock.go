package game

import "time"

// Timer 可取消的延迟任务句柄
type Timer interface {
	Stop() bool
}

// Clock 注入式时钟，反馈延迟等定时推进通过它调度，
// 测试用假时钟手动走表代替真实等待。
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock 标准库 time 实现
func RealClock() Clock { return realClock{} }

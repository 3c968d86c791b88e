package night

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Outcome 是一项行动的结果
type Outcome struct {
	Capability Capability `json:"capability"`
	Result
}

// Report 是一名有行动的玩家在某个夜晚的全部结果
type Report struct {
	Night      int        `json:"night"`
	Player     PlayerID   `json:"player"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Modifiers  []Modifier `json:"modifiers,omitempty"`
	TargetName string     `json:"target_name"`
	Outcomes   []Outcome  `json:"outcomes"`
	Died       bool       `json:"died"`
}

// Lines 渲染成可读文本，每个结果一行，当晚死亡再追加一行
func (r Report) Lines() []string {
	prefix := r.Role.String()
	if len(r.Modifiers) > 0 {
		mods := make([]string, 0, len(r.Modifiers))
		for _, m := range r.Modifiers {
			mods = append(mods, m.String())
		}
		prefix = strings.Join(mods, " ") + " " + prefix
	}

	lines := make([]string, 0, len(r.Outcomes)+1)
	for _, o := range r.Outcomes {
		status := "fail"
		if o.Success {
			status = "success"
		}
		lines = append(lines, fmt.Sprintf("%s %s targets %s - %s - %s", prefix, r.Name, r.TargetName, status, o.Value))
	}
	if r.Died {
		lines = append(lines, fmt.Sprintf("%s %s died", r.Role, r.Name))
	}
	return lines
}

// Death 记录一次当晚发生的死亡，包括没有行动的玩家
type Death struct {
	Player PlayerID `json:"player"`
	Name   string   `json:"name"`
	Role   Role     `json:"role"`
}

// Summary 是一次 RunNight 的全部对外输出
type Summary struct {
	Night   int      `json:"night"`
	Reports []Report `json:"reports"`
	Deaths  []Death  `json:"deaths"`
}

// Sink 在整晚结算成功、引擎解锁之后按创建顺序收到每名相关玩家的结果
//
// 可以读取 Engine，但不能在回调里再次结算夜晚。
type Sink interface {
	Report(r Report)
}

type SinkFunc func(r Report)

func (f SinkFunc) Report(r Report) { f(r) }

// LogSink 把结果逐行写入 zap
func LogSink(logger *zap.Logger) Sink {
	return SinkFunc(func(r Report) {
		for _, line := range r.Lines() {
			logger.Info(
				line,
				zap.Int("night", r.Night),
				zap.String("player", r.Name),
			)
		}
	})
}

// reportResults 只读：按创建顺序为每名在场且有行动的玩家汇总结果
func reportResults(_ context.Context, nc *NightContext) error {
	for _, p := range nc.store.players {
		if !p.InPlay() {
			continue
		}

		if p.DiedTonight() {
			nc.summary.Deaths = append(nc.summary.Deaths, Death{Player: p.ID, Name: p.Name, Role: p.Role})
		}

		if !p.HasAction() {
			continue
		}

		report := Report{
			Night:      nc.Night,
			Player:     p.ID,
			Name:       p.Name,
			Role:       p.Role,
			Modifiers:  append([]Modifier(nil), p.Modifiers...),
			TargetName: nc.store.NameOf(p.Target),
			Died:       p.DiedTonight(),
		}

		for _, a := range p.actions {
			res, ok := nc.results.get(p.ID, a.capability)
			if !ok {
				return invariant(PhaseReport, p.ID, "no %s result recorded", a.capability)
			}
			report.Outcomes = append(report.Outcomes, Outcome{Capability: a.capability, Result: res})
		}

		nc.summary.Reports = append(nc.summary.Reports, report)
	}
	return nil
}

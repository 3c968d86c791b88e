package night

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type PhaseFunc func(ctx context.Context, nc *NightContext) error

// Phase 是夜晚结算中的一个步骤，After 声明它依赖的前置步骤
type Phase struct {
	Name  string
	After []string
	Run   PhaseFunc
}

// Scheduler 在构造时做一次拓扑排序，把阶段分成若干层（stage）
//
// 同一层的阶段互不依赖，可以并行；层与层之间是完整的屏障，
// 后一层只会看到前一层全部提交后的状态。
type Scheduler struct {
	stages   [][]Phase
	parallel bool
}

func NewScheduler(phases []Phase, parallel bool) (*Scheduler, error) {
	index := make(map[string]int, len(phases))
	for i, ph := range phases {
		if _, dup := index[ph.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePhase, ph.Name)
		}
		index[ph.Name] = i
	}

	indegree := make([]int, len(phases))
	dependents := make([][]int, len(phases))
	for i, ph := range phases {
		for _, dep := range ph.After {
			j, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %s needs %s", ErrUnknownDependency, ph.Name, dep)
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range phases {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	s := &Scheduler{parallel: parallel}
	placed := 0
	for len(ready) > 0 {
		stage := make([]Phase, 0, len(ready))
		var next []int
		for _, i := range ready {
			stage = append(stage, phases[i])
			placed++
			for _, d := range dependents[i] {
				indegree[d]--
				if indegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		// 同层内保持声明顺序，保证串行执行时结果稳定
		slices.Sort(next)
		s.stages = append(s.stages, stage)
		ready = next
	}

	if placed != len(phases) {
		var stuck []string
		for i, ph := range phases {
			if indegree[i] > 0 {
				stuck = append(stuck, ph.Name)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrPhaseCycle, strings.Join(stuck, ", "))
	}

	return s, nil
}

// Stages 返回每一层的阶段名
func (s *Scheduler) Stages() [][]string {
	out := make([][]string, 0, len(s.stages))
	for _, stage := range s.stages {
		names := make([]string, 0, len(stage))
		for _, ph := range stage {
			names = append(names, ph.Name)
		}
		out = append(out, names)
	}
	return out
}

// Order 返回串行执行时的阶段顺序
func (s *Scheduler) Order() []string {
	var out []string
	for _, names := range s.Stages() {
		out = append(out, names...)
	}
	return out
}

func (s *Scheduler) Run(ctx context.Context, nc *NightContext) error {
	for _, stage := range s.stages {
		if err := s.runStage(ctx, nc, stage); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runStage(ctx context.Context, nc *NightContext, stage []Phase) error {
	if !s.parallel || len(stage) == 1 {
		for _, ph := range stage {
			if err := runPhase(ctx, nc, ph); err != nil {
				return err
			}
		}
		return nil
	}

	p := pool.New().WithErrors()
	for _, ph := range stage {
		ph := ph
		p.Go(func() error {
			return runPhase(ctx, nc, ph)
		})
	}
	// Wait 即本层的屏障
	return p.Wait()
}

func runPhase(ctx context.Context, nc *NightContext, ph Phase) error {
	nc.logger.Debug(
		"执行夜晚阶段",
		zap.Int("night", nc.Night),
		zap.String("phase", ph.Name),
	)

	if err := ph.Run(ctx, nc); err != nil {
		nc.logger.Error(
			"夜晚阶段失败",
			zap.Int("night", nc.Night),
			zap.String("phase", ph.Name),
			zap.Error(err),
		)
		return err
	}

	return nil
}

package night

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Options struct {
	// 第 0 晚是否允许击杀，默认不允许
	SetupNightKills bool
	// 同一层内的阶段是否并行执行
	ParallelStages bool
	Logger         *zap.Logger
	Sinks          []Sink
	// 为空时使用 DefaultPhases
	Phases []Phase
}

// Engine 持有玩家表与夜晚计数，每次只允许一个夜晚在结算
type Engine struct {
	mu        sync.Mutex
	store     *Store
	night     int
	effects   *effects
	scheduler *Scheduler
	opts      Options
	logger    *zap.Logger

	halted error
	last   *Summary
}

func NewEngine(store *Store, opts Options) (*Engine, error) {
	phases := opts.Phases
	if len(phases) == 0 {
		phases = DefaultPhases()
	}

	scheduler, err := NewScheduler(phases, opts.ParallelStages)
	if err != nil {
		return nil, fmt.Errorf("build night scheduler: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}

	return &Engine{
		store:     store,
		effects:   newEffects(),
		scheduler: scheduler,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Night 返回下一次 RunNight 将要结算的夜晚编号
func (e *Engine) Night() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.night
}

// Store 返回底层玩家表；只应在没有夜晚结算时读取
func (e *Engine) Store() *Store {
	return e.store
}

func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// LastSummary 返回最近一次成功结算的结果
func (e *Engine) LastSummary() *Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// RunNightFrom 取得锁之后才从 src 取目标，引擎忙时 src 保持原样
func (e *Engine) RunNightFrom(ctx context.Context, src TargetSource) (*Summary, error) {
	return e.run(ctx, func(night int) (Submissions, error) {
		subs, err := src.Targets(ctx, e.store, night)
		if err != nil {
			return nil, fmt.Errorf("collect targets: %w", err)
		}
		return subs, nil
	})
}

// RunNight 按依赖顺序执行全部阶段一次
//
// 只有不变式错误会返回给调用方；返回后引擎停止工作，因为半个夜晚的状态没有定义。
func (e *Engine) RunNight(ctx context.Context, subs Submissions) (*Summary, error) {
	return e.run(ctx, func(int) (Submissions, error) {
		return subs, nil
	})
}

func (e *Engine) run(ctx context.Context, collect func(night int) (Submissions, error)) (*Summary, error) {
	summary, err := e.resolve(ctx, collect)
	if err != nil {
		return nil, err
	}

	// 锁已释放，sink 可以回读引擎
	for _, report := range summary.Reports {
		for _, sink := range e.opts.Sinks {
			sink.Report(report)
		}
	}

	return summary, nil
}

func (e *Engine) resolve(ctx context.Context, collect func(night int) (Submissions, error)) (*Summary, error) {
	if !e.mu.TryLock() {
		return nil, ErrNightInFlight
	}
	defer e.mu.Unlock()

	if e.halted != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineHalted, e.halted)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subs, err := collect(e.night)
	if err != nil {
		return nil, err
	}
	if err := subs.validate(e.store); err != nil {
		return nil, err
	}

	nc := &NightContext{
		Night:       e.night,
		store:       e.store,
		effects:     e.effects,
		results:     newResults(),
		submissions: subs,
		opts:        e.opts,
		logger:      e.logger,
		summary:     &Summary{Night: e.night},
		advance:     func() { e.night++ },
	}

	e.logger.Info(
		"开始结算夜晚",
		zap.Int("night", nc.Night),
		zap.Int("submissions", len(subs)),
	)

	if err := e.scheduler.Run(ctx, nc); err != nil {
		e.halted = err
		return nil, err
	}

	e.last = nc.summary

	e.logger.Info(
		"夜晚结算完成",
		zap.Int("night", nc.Night),
		zap.Int("reports", len(nc.summary.Reports)),
		zap.Int("deaths", len(nc.summary.Deaths)),
	)

	return nc.summary, nil
}

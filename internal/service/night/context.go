package night

import "go.uber.org/zap"

// NightContext 是一次夜晚结算期间各阶段共享的状态
type NightContext struct {
	Night int

	store       *Store
	effects     *effects
	results     *results
	submissions Submissions
	opts        Options
	logger      *zap.Logger

	summary *Summary
	advance func()
}

// Store 暴露给自定义阶段读取玩家状态
func (nc *NightContext) Store() *Store {
	return nc.store
}

func (nc *NightContext) Blocked(id PlayerID) bool {
	return nc.effects.has(EffectBlocked, id)
}

func (nc *NightContext) Saved(id PlayerID) bool {
	return nc.effects.has(EffectSaved, id)
}

// Result 返回某玩家某能力当晚已写入的结果
func (nc *NightContext) Result(id PlayerID, c Capability) (Result, bool) {
	return nc.results.get(id, c)
}

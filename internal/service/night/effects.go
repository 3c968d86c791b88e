package night

import "sync"

// Effect 是只在一个夜晚内存在的临时状态
type Effect int

const (
	EffectBlocked Effect = iota
	EffectSaved
)

func (e Effect) String() string {
	switch e {
	case EffectBlocked:
		return "Blocked"
	case EffectSaved:
		return "Saved"
	default:
		return "Effect(?)"
	}
}

// effects 与玩家实体分开保存，在 EffectCleanup 时整体丢弃
type effects struct {
	mu    sync.RWMutex
	flags map[Effect]map[PlayerID]struct{}
}

func newEffects() *effects {
	e := &effects{}
	e.reset()
	return e
}

func (e *effects) set(eff Effect, id PlayerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flags[eff][id] = struct{}{}
}

func (e *effects) has(eff Effect, id PlayerID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.flags[eff][id]
	return ok
}

func (e *effects) count(eff Effect) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.flags[eff])
}

func (e *effects) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flags = map[Effect]map[PlayerID]struct{}{
		EffectBlocked: {},
		EffectSaved:   {},
	}
}

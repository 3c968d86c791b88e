package night

import "sync"

const NotApplicable = "n/a"

// Result 是某个行动当晚的结算结果
type Result struct {
	Success bool   `json:"success"`
	Value   string `json:"value"`
}

func failed() Result {
	return Result{Value: NotApplicable}
}

func succeeded(value string) Result {
	return Result{Success: true, Value: value}
}

type resultKey struct {
	actor      PlayerID
	capability Capability
}

// results 每晚新建，同一阶段内可能被多个协程并发写入
type results struct {
	mu    sync.Mutex
	byKey map[resultKey]Result
}

func newResults() *results {
	return &results{byKey: make(map[resultKey]Result)}
}

// put 对同一 (玩家, 能力) 只允许写一次
func (r *results) put(phase string, actor PlayerID, c Capability, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := resultKey{actor: actor, capability: c}
	if _, dup := r.byKey[key]; dup {
		return invariant(phase, actor, "%s result written twice in one night", c)
	}
	r.byKey[key] = res
	return nil
}

func (r *results) get(actor PlayerID, c Capability) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byKey[resultKey{actor: actor, capability: c}]
	return res, ok
}

package night

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// Submissions 是当晚的目标提交：行动者 -> 目标（Nobody 表示提交了但不选目标）
type Submissions map[PlayerID]PlayerID

// TargetSource 在夜晚开始前一次性给出全部目标
type TargetSource interface {
	Targets(ctx context.Context, store *Store, night int) (Submissions, error)
}

// validate 在任何阶段运行之前检查提交，不合法则整晚不开始
func (s Submissions) validate(store *Store) error {
	for actor, target := range s {
		p, ok := store.get(actor)
		if !ok {
			return fmt.Errorf("%w: actor %d does not exist", ErrInvalidSubmission, actor)
		}
		if !p.InPlay() {
			return fmt.Errorf("%w: actor %s is dead", ErrInvalidSubmission, p.Name)
		}
		if target == Nobody {
			continue
		}
		t, ok := store.get(target)
		if !ok {
			return fmt.Errorf("%w: target %d does not exist", ErrInvalidSubmission, target)
		}
		if !t.InPlay() {
			return fmt.Errorf("%w: target %s is dead", ErrInvalidSubmission, t.Name)
		}
	}
	return nil
}

// FactionTargets 让同一阵营的所有在场玩家指向同一个名字
type FactionTargets map[Faction]string

func (ft FactionTargets) Targets(_ context.Context, store *Store, _ int) (Submissions, error) {
	subs := make(Submissions)
	for _, p := range store.players {
		if !p.InPlay() {
			continue
		}
		name, ok := ft[p.Faction]
		if !ok {
			continue
		}

		target := Nobody
		if id, found := store.Lookup(name); found {
			if t, _ := store.get(id); t.InPlay() {
				target = id
			}
		}
		subs[p.ID] = target
	}
	return subs, nil
}

// Ballot 收集玩家逐个提交的目标
type Ballot struct {
	mu      sync.Mutex
	store   *Store
	entries Submissions
}

func NewBallot(store *Store) *Ballot {
	return &Ballot{
		store:   store,
		entries: make(Submissions),
	}
}

func (b *Ballot) Submit(actor, target PlayerID) error {
	p, ok := b.store.get(actor)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, actor)
	}
	if !p.InPlay() {
		return fmt.Errorf("%w: %s is dead", ErrInvalidSubmission, p.Name)
	}
	if !p.HasAction() {
		return fmt.Errorf("%w: %s has no night action", ErrInvalidSubmission, p.Name)
	}
	if target != Nobody {
		t, ok := b.store.get(target)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownPlayer, target)
		}
		if !t.InPlay() {
			return fmt.Errorf("%w: %s is dead", ErrInvalidSubmission, t.Name)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[actor] = target
	return nil
}

// SubmitByName 按名字提交，空目标名表示不选目标
func (b *Ballot) SubmitByName(actorName, targetName string) error {
	actor, ok := b.store.Lookup(actorName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, actorName)
	}
	target := Nobody
	if targetName != "" {
		id, ok := b.store.Lookup(targetName)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPlayer, targetName)
		}
		target = id
	}
	return b.Submit(actor, target)
}

func (b *Ballot) Withdraw(actor PlayerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, actor)
}

// Pending 返回还没提交的、在场且有行动的玩家
func (b *Ballot) Pending() []PlayerID {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []PlayerID
	for _, p := range b.store.players {
		if !p.InPlay() || !p.HasAction() {
			continue
		}
		if _, ok := b.entries[p.ID]; !ok {
			out = append(out, p.ID)
		}
	}
	return out
}

// Targets 取走当前全部提交并清空，供下一晚重新收集
func (b *Ballot) Targets(_ context.Context, _ *Store, _ int) (Submissions, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := maps.Clone(b.entries)
	b.entries = make(Submissions)
	return subs, nil
}

package night

import (
	"fmt"
	"slices"
)

// PlayerID 是玩家在 Store 中的稳定句柄，从 1 开始，零值表示“没有人”
type PlayerID int

const Nobody PlayerID = 0

// Player 是一名玩家的全部持久状态
//
// 玩家之间只通过 PlayerID 互相引用（Target、Position），从不持有指针。
type Player struct {
	ID        PlayerID
	Name      string
	Faction   Faction
	Role      Role
	Modifiers []Modifier
	Innocence Innocence
	Traits    Trait

	// 当晚选定的目标与实际前往的位置
	Target   PlayerID
	Position PlayerID

	Died     bool
	DiedOn   int
	LongDead bool

	actions []*ActionState
}

// InPlay 表示玩家仍参与夜晚结算（包括当晚刚死亡、尚未处理的玩家）
func (p *Player) InPlay() bool {
	return !p.LongDead
}

// DiedTonight 表示死亡已发生但尚未被 DeathProcessing 处理
func (p *Player) DiedTonight() bool {
	return p.Died && !p.LongDead
}

func (p *Player) Actions() []Action {
	out := make([]Action, 0, len(p.actions))
	for _, a := range p.actions {
		out = append(out, a)
	}
	return out
}

func (p *Player) HasAction() bool {
	return len(p.actions) > 0
}

func (p *Player) action(c Capability) *ActionState {
	for _, a := range p.actions {
		if a.capability == c {
			return a
		}
	}
	return nil
}

func (p *Player) clone() Player {
	cp := *p
	cp.Modifiers = slices.Clone(p.Modifiers)
	cp.actions = make([]*ActionState, 0, len(p.actions))
	for _, a := range p.actions {
		st := *a
		cp.actions = append(cp.actions, &st)
	}
	return cp
}

// Store 是玩家实体的权威表，按创建顺序迭代
type Store struct {
	players []*Player
	byName  map[string]PlayerID
}

func NewStore() *Store {
	return &Store{
		byName: make(map[string]PlayerID),
	}
}

// CreatePlayer 创建一名完整初始化的玩家
//
// 顺序：阵营默认值 -> 身份授予（可能改写阵营与清白度） -> 修饰授予。
func (s *Store) CreatePlayer(name string, faction Faction, role Role, modifiers ...Modifier) PlayerID {
	p := &Player{
		ID:   PlayerID(len(s.players) + 1),
		Name: name,
		Role: role,
	}

	applyFaction(p, faction)
	applyRole(p, role)
	applyModifiers(p, modifiers)

	s.players = append(s.players, p)
	if _, taken := s.byName[name]; !taken {
		s.byName[name] = p.ID
	}

	return p.ID
}

func applyFaction(p *Player, faction Faction) {
	p.Faction = faction
	switch faction {
	case FactionMafia:
		p.Innocence = Guilty
	default:
		p.Innocence = Innocent
	}
}

func applyRole(p *Player, role Role) {
	switch role {
	case RoleCop, RoleSheriff, RoleDetective:
		p.Traits |= TraitVisiting | TraitGun
	case RoleTracker, RoleWatcher, RoleRoleblocker, RoleDoctor:
		p.Traits |= TraitVisiting
	case RoleGoon:
		applyFaction(p, FactionMafia)
		p.Traits |= TraitVisiting | TraitGun
	case RoleGodfather:
		applyFaction(p, FactionMafia)
		p.Innocence = Innocent
		p.Traits |= TraitVisiting | TraitUndetectable
	}

	for _, c := range roleCapabilities[role] {
		if p.action(c) == nil {
			p.actions = append(p.actions, newActionState(c))
		}
	}
}

func applyModifiers(p *Player, modifiers []Modifier) {
	for _, m := range modifiers {
		if slices.Contains(p.Modifiers, m) {
			continue
		}
		p.Modifiers = append(p.Modifiers, m)

		switch m {
		case ModifierBreakthrough:
			p.Traits |= TraitBreakthrough
		case ModifierMacho:
			p.Traits |= TraitMacho
		}
	}
}

// Grant 为已创建的玩家追加持久标记，例如 Uncoppable
func (s *Store) Grant(id PlayerID, t Trait) error {
	p, ok := s.get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	p.Traits |= t
	return nil
}

func (s *Store) Len() int {
	return len(s.players)
}

func (s *Store) IDs() []PlayerID {
	ids := make([]PlayerID, 0, len(s.players))
	for _, p := range s.players {
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *Store) Lookup(name string) (PlayerID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Snapshot 返回玩家的只读副本
func (s *Store) Snapshot(id PlayerID) (Player, bool) {
	p, ok := s.get(id)
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}

// Players 按创建顺序返回所有玩家的副本
func (s *Store) Players() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.clone())
	}
	return out
}

// NameOf 返回玩家名字，Nobody 或未知句柄返回 "nobody"
func (s *Store) NameOf(id PlayerID) string {
	if p, ok := s.get(id); ok {
		return p.Name
	}
	return "nobody"
}

func (s *Store) get(id PlayerID) (*Player, bool) {
	if id <= Nobody || int(id) > len(s.players) {
		return nil, false
	}
	return s.players[id-1], true
}

// mustGet 用于阶段内部：引用不存在的玩家属于不变式错误
func (s *Store) mustGet(phase string, id PlayerID) (*Player, error) {
	p, ok := s.get(id)
	if !ok {
		return nil, invariant(phase, id, "reference to a player that does not exist")
	}
	return p, nil
}

package night

import "fmt"

// Capability 是一种夜间行动能力
type Capability int

const (
	CapCop Capability = iota
	CapDetective
	CapTrack
	CapWatch
	CapBlock
	CapSave
	CapKill
)

var capabilityNames = []string{"cop", "detective", "track", "watch", "block", "save", "kill"}

func (c Capability) String() string {
	if c < 0 || int(c) >= len(capabilityNames) {
		return fmt.Sprintf("Capability(%d)", int(c))
	}
	return capabilityNames[c]
}

// Action 是“拥有一个可能激活、可能带目标的行动”的抽象
type Action interface {
	Capability() Capability
	Active() bool
	Target() PlayerID
}

// ActionState 记录某个玩家某项能力在当晚的状态
type ActionState struct {
	capability Capability
	active     bool
	target     PlayerID
}

func newActionState(c Capability) *ActionState {
	return &ActionState{capability: c}
}

func (a *ActionState) Capability() Capability { return a.capability }
func (a *ActionState) Active() bool           { return a.active }
func (a *ActionState) Target() PlayerID       { return a.target }

func (a *ActionState) arm(target PlayerID) {
	a.active = true
	a.target = target
}

func (a *ActionState) disarm() {
	a.active = false
	a.target = Nobody
}

// 按身份授予的能力
var roleCapabilities = map[Role][]Capability{
	RoleCop:         {CapCop},
	RoleSheriff:     {CapCop, CapDetective},
	RoleDetective:   {CapDetective},
	RoleTracker:     {CapTrack},
	RoleWatcher:     {CapWatch},
	RoleRoleblocker: {CapBlock},
	RoleDoctor:      {CapSave},
	RoleGoon:        {CapKill},
	RoleGodfather:   {CapKill},
}

// actorsWith 按玩家创建顺序返回拥有该能力的在场玩家及其行动
func (s *Store) actorsWith(c Capability) []actor {
	var out []actor
	for _, p := range s.players {
		if !p.InPlay() {
			continue
		}
		if a := p.action(c); a != nil {
			out = append(out, actor{player: p, action: a})
		}
	}
	return out
}

type actor struct {
	player *Player
	action Action
}

func (c Capability) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

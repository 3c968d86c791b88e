package night

import (
	"fmt"
	"strings"
)

// 阵营
type Faction int

const (
	FactionTown Faction = iota
	FactionMafia
)

var factionNames = []string{"Town", "Mafia"}

func (f Faction) String() string {
	if f < 0 || int(f) >= len(factionNames) {
		return fmt.Sprintf("Faction(%d)", int(f))
	}
	return factionNames[f]
}

func ParseFaction(s string) (Faction, error) {
	i, err := parseName("faction", s, factionNames)
	return Faction(i), err
}

// 身份，决定玩家在夜晚拥有哪些行动
type Role int

const (
	RoleVanilla Role = iota
	RoleCop
	RoleSheriff
	RoleDetective
	RoleTracker
	RoleWatcher
	RoleRoleblocker
	RoleDoctor
	RoleGoon
	RoleGodfather
)

var roleNames = []string{
	"Vanilla",
	"Cop",
	"Sheriff",
	"Detective",
	"Tracker",
	"Watcher",
	"Roleblocker",
	"Doctor",
	"Goon",
	"Godfather",
}

func (r Role) String() string {
	if !r.valid() {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

func (r Role) valid() bool {
	return r >= 0 && int(r) < len(roleNames)
}

func ParseRole(s string) (Role, error) {
	i, err := parseName("role", s, roleNames)
	return Role(i), err
}

// 修饰，按创建时的顺序保留用于展示
type Modifier int

const (
	ModifierBreakthrough Modifier = iota
	ModifierMacho
)

var modifierNames = []string{"Breakthrough", "Macho"}

func (m Modifier) String() string {
	if m < 0 || int(m) >= len(modifierNames) {
		return fmt.Sprintf("Modifier(%d)", int(m))
	}
	return modifierNames[m]
}

func ParseModifier(s string) (Modifier, error) {
	i, err := parseName("modifier", s, modifierNames)
	return Modifier(i), err
}

// 警察调查得到的结果
type Innocence int

const (
	Innocent Innocence = iota
	Guilty
)

func (i Innocence) String() string {
	switch i {
	case Innocent:
		return "Innocent"
	case Guilty:
		return "Guilty"
	default:
		return fmt.Sprintf("Innocence(%d)", int(i))
	}
}

// Trait 是玩家身上持久存在的标记，用位集合表示
type Trait uint16

const (
	TraitVisiting Trait = 1 << iota
	TraitGun
	TraitUncoppable
	TraitUndetectable
	TraitUntrackable
	TraitBreakthrough
	TraitMacho
)

var traitNames = []string{
	"Visiting",
	"Gun",
	"Uncoppable",
	"Undetectable",
	"Untrackable",
	"Breakthrough",
	"Macho",
}

func (t Trait) Has(other Trait) bool {
	return other != 0 && t&other == other
}

func (t Trait) String() string {
	if t == 0 {
		return "none"
	}
	parts := make([]string, 0, len(traitNames))
	for i, name := range traitNames {
		if t&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

func ParseTrait(s string) (Trait, error) {
	i, err := parseName("trait", s, traitNames)
	if err != nil {
		return 0, err
	}
	return Trait(1 << i), nil
}

func parseName(kind, s string, names []string) (int, error) {
	for i, name := range names {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownValue, kind, s)
}

func (f Faction) MarshalText() ([]byte, error)   { return []byte(f.String()), nil }
func (r Role) MarshalText() ([]byte, error)      { return []byte(r.String()), nil }
func (m Modifier) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (i Innocence) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

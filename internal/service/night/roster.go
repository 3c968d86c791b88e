package night

import (
	"fmt"
	"strings"
)

// Seat 是以文本描述的一名玩家，来自配置文件或 HTTP 请求
type Seat struct {
	Name      string   `json:"name" mapstructure:"name"`
	Faction   string   `json:"faction" mapstructure:"faction"`
	Role      string   `json:"role" mapstructure:"role"`
	Modifiers []string `json:"modifiers,omitempty" mapstructure:"modifiers"`
	Traits    []string `json:"traits,omitempty" mapstructure:"traits"`
}

// NewRoster 按顺序创建全部玩家，名字必须唯一
func NewRoster(seats []Seat) (*Store, error) {
	store := NewStore()

	for i, seat := range seats {
		name := strings.TrimSpace(seat.Name)
		if name == "" {
			return nil, fmt.Errorf("seat %d: empty name", i)
		}
		if _, taken := store.Lookup(name); taken {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}

		faction, err := ParseFaction(seat.Faction)
		if err != nil {
			return nil, fmt.Errorf("seat %q: %w", name, err)
		}

		role, err := ParseRole(seat.Role)
		if err != nil {
			return nil, fmt.Errorf("seat %q: %w", name, err)
		}

		modifiers := make([]Modifier, 0, len(seat.Modifiers))
		for _, text := range seat.Modifiers {
			m, err := ParseModifier(text)
			if err != nil {
				return nil, fmt.Errorf("seat %q: %w", name, err)
			}
			modifiers = append(modifiers, m)
		}

		id := store.CreatePlayer(name, faction, role, modifiers...)

		for _, text := range seat.Traits {
			t, err := ParseTrait(text)
			if err != nil {
				return nil, fmt.Errorf("seat %q: %w", name, err)
			}
			if err := store.Grant(id, t); err != nil {
				return nil, err
			}
		}
	}

	return store, nil
}

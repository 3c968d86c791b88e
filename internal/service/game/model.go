package game

import "scumsim-be/internal/service/night"

// 连接身份
const (
	ROLE_ADMIN    = "Admin" // 房主，可能同时占有一个座位
	ROLE_PLAYER   = "Player"
	ROLE_OBSERVER = "Observer"
)

// 胜利方
const (
	WINNER_TOWN  = "Town"
	WINNER_MAFIA = "Mafia"
)

// Player 是一个连接到房间的客户端，Seat 指向名单中的夜晚玩家
type Player struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Role string         `json:"role"`
	Seat night.PlayerID `json:"seat,omitempty"`

	RespCh chan ResponseWrapper `json:"-"`
}

func (p *Player) Seated() bool {
	return p.Seat != night.Nobody
}

// SeatView 是座位的私有信息，只发给座位的主人，游戏结束后公开
type SeatView struct {
	Name      string           `json:"name"`
	Faction   night.Faction    `json:"faction"`
	Role      night.Role       `json:"role"`
	Modifiers []night.Modifier `json:"modifiers,omitempty"`
	Alive     bool             `json:"alive"`
}

func newSeatView(p night.Player) SeatView {
	return SeatView{
		Name:      p.Name,
		Faction:   p.Faction,
		Role:      p.Role,
		Modifiers: p.Modifiers,
		Alive:     !p.Died,
	}
}

// checkWinner 没有黑手党时城镇获胜，黑手党人数不少于城镇时黑手党获胜
func checkWinner(store *night.Store) string {
	town, mafia := 0, 0
	for _, p := range store.Players() {
		if p.Died {
			continue
		}
		switch p.Faction {
		case night.FactionTown:
			town++
		case night.FactionMafia:
			mafia++
		}
	}

	if mafia == 0 {
		return WINNER_TOWN
	}
	if mafia >= town {
		return WINNER_MAFIA
	}
	return ""
}

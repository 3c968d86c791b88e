package game

import (
	"sort"
	"time"

	"scumsim-be/internal/service/night"

	"go.uber.org/zap"
)

type GameContext struct {
	RoomID    string
	GameStage string
	Players   map[string]*Player

	Engine        *night.Engine
	Ballot        *night.Ballot
	SubmitTimeout time.Duration

	Winner  string
	Aborted string

	TmoCh chan RequestWrapper
	Timer *time.Timer
}

func (gc *GameContext) GetAdmin() *Player {
	for _, p := range gc.Players {
		if p.Role == ROLE_ADMIN {
			return p
		}
	}

	return nil
}

// SeatHolder 返回占有该座位的连接
func (gc *GameContext) SeatHolder(seat night.PlayerID) *Player {
	if seat == night.Nobody {
		return nil
	}
	for _, p := range gc.Players {
		if p.Seat == seat {
			return p
		}
	}

	return nil
}

// PublicPlayers 按加入顺序列出全部连接，ID 是 v7 UUID，字典序即时间序
func (gc *GameContext) PublicPlayers() []Player {
	players := make([]Player, 0, len(gc.Players))
	for _, p := range gc.Players {
		players = append(players, Player{ID: p.ID, Name: p.Name, Role: p.Role, Seat: p.Seat})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	return players
}

// AliveNames 是名单中仍在场的玩家名
func (gc *GameContext) AliveNames() []string {
	names := make([]string, 0)
	for _, p := range gc.Engine.Store().Players() {
		if !p.Died {
			names = append(names, p.Name)
		}
	}

	return names
}

// PendingSeats 返回还未提交目标、且已被认领的行动座位
func (gc *GameContext) PendingSeats() []string {
	store := gc.Engine.Store()

	names := make([]string, 0)
	for _, id := range gc.Ballot.Pending() {
		if gc.SeatHolder(id) != nil {
			names = append(names, store.NameOf(id))
		}
	}

	return names
}

func (gc *GameContext) BroadcastResp(resp ResponseWrapper) {
	gc.broadcastExcept("", resp)
}

func (gc *GameContext) broadcastExcept(skipID string, resp ResponseWrapper) {
	for _, p := range gc.Players {
		if p.ID == skipID {
			continue
		}

		select {
		case p.RespCh <- resp:
			zap.L().Debug(
				"成功发送广播响应",
				zap.String("player_id", p.ID),
				zap.String("response_type", resp.RespType),
			)
		default:
			zap.L().Warn(
				"发送广播响应失败：玩家响应通道已满",
				zap.String("player_id", p.ID),
			)
		}
	}
}

func (gc *GameContext) UnicastResp(playerID string, resp ResponseWrapper) {
	player, ok := gc.Players[playerID]
	if !ok {
		zap.L().Warn(
			"无法找到玩家进行单播响应",
			zap.String("player_id", playerID),
		)
		return
	}

	select {
	case player.RespCh <- resp:
		zap.L().Debug(
			"发送单播响应成功",
			zap.String("player_id", playerID),
			zap.String("response_type", resp.RespType),
		)
	default:
		zap.L().Warn(
			"发送单播响应失败：玩家响应通道已满",
			zap.String("player_id", playerID),
		)
	}
}

// SetTimeout 到期后向状态机投递一个属于当前阶段和夜晚的超时请求
func (gc *GameContext) SetTimeout(d time.Duration) {
	gc.ClearTimeout()

	if d <= 0 {
		return
	}

	tmoReq := TimeoutRequest{
		Stage: gc.GameStage,
		Night: gc.Engine.Night(),
	}
	tmoCh := gc.TmoCh

	gc.Timer = time.AfterFunc(d, func() {
		select {
		case tmoCh <- RequestWrapper{ReqType: REQ_TIMEOUT, NativeData: &tmoReq}:
		default:
			zap.L().Warn("超时事件投递失败：通道已满", zap.String("stage", tmoReq.Stage))
		}
	})
}

func (gc *GameContext) ClearTimeout() {
	if gc.Timer != nil {
		gc.Timer.Stop()
		gc.Timer = nil
	}
}

package game

import (
	"scumsim-be/internal/service/night"

	"go.uber.org/zap"
)

// onPlayerJoin 在任何阶段都可以处理：重连、认领座位或作为观察者加入
func onPlayerJoin(ctx *GameContext, req *JoinGameRequest) {
	if req.RespCh == nil {
		zap.L().Warn(
			"加入请求缺少响应通道，忽略",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_name", req.JoinerName),
		)
		return
	}

	// 如果存在相同的玩家 ID，则视为按 ID 重连
	if req.PlayerID != "" {
		if existing, ok := ctx.Players[req.PlayerID]; ok {
			onPlayerReconnect(ctx, existing, req.RespCh)
			return
		}
	}

	// 同名玩家视为断线重连
	for _, existing := range ctx.Players {
		if existing.Name == req.JoinerName {
			onPlayerReconnect(ctx, existing, req.RespCh)
			return
		}
	}

	player := &Player{
		ID:     GenID(),
		Name:   req.JoinerName,
		Role:   ROLE_OBSERVER,
		RespCh: req.RespCh,
	}

	if !req.Observer {
		if seat, ok := claimableSeat(ctx, req.JoinerName); ok {
			player.Seat = seat
			player.Role = ROLE_PLAYER
		}
	}

	// 第一个加入的玩家成为房主
	if ctx.GetAdmin() == nil {
		player.Role = ROLE_ADMIN
	}

	ctx.Players[player.ID] = player

	zap.L().Info(
		"玩家加入房间",
		zap.String("room_id", ctx.RoomID),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
		zap.String("role", player.Role),
		zap.Bool("seated", player.Seated()),
	)

	announceJoin(ctx, player)
}

// claimableSeat 名单中存在同名座位且尚未被其他连接占有
func claimableSeat(ctx *GameContext, name string) (night.PlayerID, bool) {
	seat, ok := ctx.Engine.Store().Lookup(name)
	if !ok {
		return night.Nobody, false
	}

	if ctx.SeatHolder(seat) != nil {
		return night.Nobody, false
	}

	return seat, true
}

func onPlayerReconnect(ctx *GameContext, existing *Player, respCh chan ResponseWrapper) {
	// 关闭旧连接的响应通道，让旧的写协程退出
	if existing.RespCh != nil && existing.RespCh != respCh {
		close(existing.RespCh)
	}

	existing.RespCh = respCh

	zap.L().Info(
		"玩家断线重连",
		zap.String("room_id", ctx.RoomID),
		zap.String("player_id", existing.ID),
		zap.String("player_name", existing.Name),
	)

	announceJoin(ctx, existing)
}

// announceJoin 先给加入者私发带座位信息的快照，再向其他人广播公开版本
func announceJoin(ctx *GameContext, player *Player) {
	hostID := ""
	if admin := ctx.GetAdmin(); admin != nil {
		hostID = admin.ID
	}

	public := JoinGameResponse{
		RoomID:  ctx.RoomID,
		Stage:   ctx.GameStage,
		Night:   ctx.Engine.Night(),
		Joiner:  Player{ID: player.ID, Name: player.Name, Role: player.Role, Seat: player.Seat},
		Players: ctx.PublicPlayers(),
		HostID:  hostID,
	}

	private := public
	if sp, ok := ctx.Engine.Store().Snapshot(player.Seat); ok {
		view := newSeatView(sp)
		private.Seat = &view
	}

	ctx.UnicastResp(player.ID, WrapResponse(RESP_JOIN_GAME, private))
	ctx.broadcastExcept(player.ID, WrapResponse(RESP_JOIN_GAME, public))
}

func onPlayerExit(ctx *GameContext, req *ExitGameRequest) {
	if req.RespCh == nil {
		zap.L().Warn(
			"退出请求缺少响应通道，忽略",
			zap.String("player_id", req.PlayerID),
		)
		return
	}

	player, exists := ctx.Players[req.PlayerID]
	if !exists {
		zap.L().Warn(
			"玩家不存在，无法退出",
			zap.String("player_id", req.PlayerID),
		)
		return
	}

	// RespCh 不匹配说明已经被顶替重连，旧通道已在重连时关闭
	if player.RespCh != req.RespCh {
		zap.L().Info(
			"检测到旧连接退出（已被顶替），忽略",
			zap.String("player_id", player.ID),
			zap.String("player_name", player.Name),
		)
		return
	}

	exitResp := WrapResponse(
		RESP_EXIT_GAME,
		ExitGameResponse{
			LeftPlayerID:   player.ID,
			LeftPlayerName: player.Name,
		},
	)

	select {
	case player.RespCh <- exitResp:
	default:
		zap.L().Warn(
			"发送退出确认响应失败：响应通道已满",
			zap.String("player_id", player.ID),
		)
	}

	// 关闭该玩家的响应通道，通知写协程退出
	close(player.RespCh)

	// 释放座位
	delete(ctx.Players, player.ID)

	// 房主离开时，最早加入的连接接任
	hostID := ""
	if player.Role == ROLE_ADMIN {
		if players := ctx.PublicPlayers(); len(players) > 0 {
			hostID = players[0].ID
			ctx.Players[hostID].Role = ROLE_ADMIN
		}
	} else if admin := ctx.GetAdmin(); admin != nil {
		hostID = admin.ID
	}

	zap.L().Info(
		"玩家已退出游戏",
		zap.String("room_id", ctx.RoomID),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
		zap.String("host_id", hostID),
	)

	// 向其他玩家广播离开消息
	ctx.BroadcastResp(WrapResponse(
		RESP_EXIT_GAME,
		ExitGameResponse{
			LeftPlayerID:   player.ID,
			LeftPlayerName: player.Name,
			HostID:         hostID,
		},
	))
}

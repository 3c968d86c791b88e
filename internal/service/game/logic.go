package game

import (
	"context"
	"errors"
	"fmt"

	"scumsim-be/internal/service/night"

	"go.uber.org/zap"
)

// 游戏总体分为 4 个阶段，分别是：
// 1. 等待阶段（Waiting）：玩家加入房间并认领名单中的座位，房主开始游戏
// 2. 夜晚阶段（Night）：有行动的座位提交目标
// 3. 结算阶段（Resolving）：运行一次夜晚结算，私发结果，公布死亡并判定胜负
// 4. 结束阶段（Finished）：公布全部身份，房间等待清理
const (
	STAGE_WAITING   = "Waiting"
	STAGE_NIGHT     = "Night"
	STAGE_RESOLVING = "Resolving"
	STAGE_FINISHED  = "Finished"
)

type StageHandler interface {
	Stage() string

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, req RequestWrapper) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextStage string))
}

// authorize 拒绝冒用他人 ID 的请求，服务端内部请求没有 SenderID
func authorize(wrapper RequestWrapper, playerID string) error {
	if wrapper.SenderID != "" && wrapper.SenderID != playerID {
		return errors.New("无法处理请求：不能以其他玩家的身份操作")
	}
	return nil
}

// 等待阶段是整个游戏最初始的阶段
type waitStageHandler struct {
	onSwitch func(string)
}

func NewWaitStageHandler() *waitStageHandler {
	return &waitStageHandler{}
}

func (wsh *waitStageHandler) Stage() string {
	return STAGE_WAITING
}

func (wsh *waitStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_WAITING
	if ctx.Players == nil {
		ctx.Players = make(map[string]*Player)
	}
}

func (wsh *waitStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	// 在等待阶段只处理 JoinGame、StartGame 和 ExitGame 请求
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		onPlayerJoin(ctx, jreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq)
		return nil
	}

	if sreq := TryUnwrapStartGameRequest(req); sreq != nil {
		if err := authorize(req, sreq.StartPlayerID); err != nil {
			return err
		}

		adminPlayer := ctx.GetAdmin()
		if adminPlayer == nil {
			return errors.New("无法开始游戏：当前没有房主")
		}

		if adminPlayer.ID != sreq.StartPlayerID {
			return errors.New("无法开始游戏：只有房主可以开始游戏")
		}

		seated := 0
		for _, p := range ctx.Players {
			if p.Seated() {
				seated++
			}
		}
		if seated == 0 {
			return errors.New("无法开始游戏：还没有玩家认领座位")
		}

		zap.L().Info(
			"游戏开始",
			zap.String("room_id", ctx.RoomID),
			zap.Int("seated", seated),
		)

		wsh.onSwitch(STAGE_NIGHT)

		return nil
	}

	return errors.New("无法处理请求：当前阶段不支持该请求类型")
}

func (wsh *waitStageHandler) OnExit(ctx *GameContext) {
}

func (wsh *waitStageHandler) SetOnSwitch(onSwitch func(string)) {
	wsh.onSwitch = onSwitch
}

// 夜晚阶段处理器
type nightStageHandler struct {
	onSwitch func(string)
}

func NewNightStageHandler() *nightStageHandler {
	return &nightStageHandler{}
}

func (nsh *nightStageHandler) Stage() string {
	return STAGE_NIGHT
}

func (nsh *nightStageHandler) OnEnter(ctx *GameContext) {
	resp := WrapResponse(
		RESP_NIGHT_START,
		NightStartResponse{
			Night:          ctx.Engine.Night(),
			Alive:          ctx.AliveNames(),
			Pending:        ctx.PendingSeats(),
			TimeoutSeconds: int(ctx.SubmitTimeout.Seconds()),
		},
	)

	ctx.BroadcastResp(resp)

	// 超时后自动结算
	ctx.SetTimeout(ctx.SubmitTimeout)
}

func (nsh *nightStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		onPlayerJoin(ctx, jreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq)
		if allSeatsSubmitted(ctx) {
			nsh.onSwitch(STAGE_RESOLVING)
		}
		return nil
	}

	if sreq := TryUnwrapSubmitTargetRequest(req); sreq != nil {
		if err := authorize(req, sreq.PlayerID); err != nil {
			return err
		}

		player, ok := ctx.Players[sreq.PlayerID]
		if !ok {
			return errors.New("无法提交目标：玩家不存在")
		}

		if !player.Seated() {
			return errors.New("无法提交目标：观察者没有夜晚行动")
		}

		seatName := ctx.Engine.Store().NameOf(player.Seat)
		if err := ctx.Ballot.SubmitByName(seatName, sreq.TargetName); err != nil {
			return fmt.Errorf("无法提交目标：%w", err)
		}

		zap.L().Debug(
			"玩家提交目标",
			zap.String("room_id", ctx.RoomID),
			zap.String("seat", seatName),
			zap.Int("night", ctx.Engine.Night()),
		)

		// 只公开谁提交了，不公开目标
		resp := WrapResponse(
			RESP_SUBMIT_TARGET,
			SubmitTargetResponse{
				PlayerName: seatName,
				Pending:    ctx.PendingSeats(),
			},
		)

		ctx.BroadcastResp(resp)

		if allSeatsSubmitted(ctx) {
			nsh.onSwitch(STAGE_RESOLVING)
		}

		return nil
	}

	if rreq := TryUnwrapResolveNightRequest(req); rreq != nil {
		if err := authorize(req, rreq.PlayerID); err != nil {
			return err
		}

		adminPlayer := ctx.GetAdmin()
		if adminPlayer == nil || adminPlayer.ID != rreq.PlayerID {
			return errors.New("无法结算夜晚：只有房主可以提前结算")
		}

		nsh.onSwitch(STAGE_RESOLVING)
		return nil
	}

	if treq := TryUnwrapTimeoutRequest(req); treq != nil {
		if treq.Stage == STAGE_NIGHT && treq.Night == ctx.Engine.Night() {
			zap.L().Info(
				"提交目标超时，开始结算",
				zap.String("room_id", ctx.RoomID),
				zap.Int("night", treq.Night),
			)
			nsh.onSwitch(STAGE_RESOLVING)
			return nil
		}

		return errors.New("忽略过期的超时事件")
	}

	return errors.New("无法处理请求：当前阶段不支持该请求类型")
}

func (nsh *nightStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
}

func (nsh *nightStageHandler) SetOnSwitch(onSwitch func(string)) {
	nsh.onSwitch = onSwitch
}

// allSeatsSubmitted 所有被认领、在场且有行动的座位都已提交
func allSeatsSubmitted(ctx *GameContext) bool {
	if len(ctx.PendingSeats()) > 0 {
		return false
	}

	store := ctx.Engine.Store()
	for _, p := range ctx.Players {
		if !p.Seated() {
			continue
		}
		sp, ok := store.Snapshot(p.Seat)
		if ok && sp.InPlay() && sp.HasAction() {
			return true
		}
	}

	return false
}

// 结算阶段处理器，OnEnter 内完成全部工作并立即切换
type resolveStageHandler struct {
	onSwitch func(string)
}

func NewResolveStageHandler() *resolveStageHandler {
	return &resolveStageHandler{}
}

func (rsh *resolveStageHandler) Stage() string {
	return STAGE_RESOLVING
}

func (rsh *resolveStageHandler) OnEnter(ctx *GameContext) {
	sum, err := ctx.Engine.RunNightFrom(context.Background(), ctx.Ballot)
	if err != nil {
		if errors.Is(err, night.ErrInvalidSubmission) {
			// 提交未被接受，整晚没有开始，重新收集
			zap.L().Warn("夜晚提交无效，重新收集目标", zap.String("room_id", ctx.RoomID), zap.Error(err))
			ctx.BroadcastResp(WrapErrResponse(err.Error()))
			rsh.onSwitch(STAGE_NIGHT)
			return
		}

		zap.L().Error(
			"夜晚结算失败，游戏中止",
			zap.String("room_id", ctx.RoomID),
			zap.Error(err),
		)
		ctx.Aborted = err.Error()
		rsh.onSwitch(STAGE_FINISHED)
		return
	}

	// 每个座位只收到自己的结果
	for _, report := range sum.Reports {
		holder := ctx.SeatHolder(report.Player)
		if holder == nil {
			continue
		}

		resp := WrapResponse(
			RESP_NIGHT_RESULT,
			NightResultResponse{
				Report: report,
				Lines:  report.Lines(),
			},
		)

		ctx.UnicastResp(holder.ID, resp)
	}

	deaths := sum.Deaths
	if deaths == nil {
		deaths = []night.Death{}
	}

	ctx.BroadcastResp(WrapResponse(
		RESP_DEATHS,
		DeathsResponse{
			Night:  sum.Night,
			Deaths: deaths,
		},
	))

	if winner := checkWinner(ctx.Engine.Store()); winner != "" {
		ctx.Winner = winner
		rsh.onSwitch(STAGE_FINISHED)
		return
	}

	rsh.onSwitch(STAGE_NIGHT)
}

func (rsh *resolveStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		onPlayerJoin(ctx, jreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq)
		return nil
	}

	return errors.New("结算阶段不接受玩家请求")
}

func (rsh *resolveStageHandler) OnExit(ctx *GameContext) {
}

func (rsh *resolveStageHandler) SetOnSwitch(onSwitch func(string)) {
	rsh.onSwitch = onSwitch
}

// 结束阶段处理器
type finishStageHandler struct {
	onSwitch func(string)
}

func NewFinishStageHandler() *finishStageHandler {
	return &finishStageHandler{}
}

func (fsh *finishStageHandler) Stage() string {
	return STAGE_FINISHED
}

func (fsh *finishStageHandler) OnEnter(ctx *GameContext) {
	ctx.ClearTimeout()

	players := ctx.Engine.Store().Players()
	seats := make([]SeatView, 0, len(players))
	for _, p := range players {
		seats = append(seats, newSeatView(p))
	}

	zap.L().Info(
		"游戏结束",
		zap.String("room_id", ctx.RoomID),
		zap.String("winner", ctx.Winner),
		zap.String("aborted", ctx.Aborted),
	)

	// 广播游戏结果，公开全部身份
	ctx.BroadcastResp(WrapResponse(
		RESP_GAME_RESULT,
		GameResultResponse{
			Winner:  ctx.Winner,
			Aborted: ctx.Aborted,
			Nights:  ctx.Engine.Night(),
			Seats:   seats,
		},
	))
}

func (fsh *finishStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if jreq := TryUnwrapJoinGameRequest(req); jreq != nil {
		onPlayerJoin(ctx, jreq)
		return nil
	}

	if ereq := TryUnwrapExitGameRequest(req); ereq != nil {
		onPlayerExit(ctx, ereq)
		return nil
	}

	// 结束阶段不处理其他任何请求
	return errors.New("游戏已结束")
}

func (fsh *finishStageHandler) OnExit(ctx *GameContext) {
	// 强制确定为 FINISHED 阶段，防止出现异常状态
	ctx.GameStage = STAGE_FINISHED
}

func (fsh *finishStageHandler) SetOnSwitch(onSwitch func(string)) {
	fsh.onSwitch = onSwitch
}

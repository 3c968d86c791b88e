package game

import (
	"sync/atomic"
	"time"

	"scumsim-be/internal/service/night"

	"go.uber.org/zap"
)

// GameMachine 是游戏状态机，负责管理游戏状态和事件循环
type GameMachine struct {
	ctx     *GameContext
	handler StageHandler
	// 这是所有的用户的请求汇总的通道
	reqCh chan RequestWrapper
	// 结束通道，用于通知游戏状态机退出事件循环
	doneCh chan struct{}

	// 供其他协程读取的房间快照，每处理完一个事件更新一次
	status atomic.Pointer[Status]

	createdAt time.Time
}

// Status 是房间状态的只读快照
type Status struct {
	RoomID     string    `json:"room_id"`
	Stage      string    `json:"stage"`
	Night      int       `json:"night"`
	HostID     string    `json:"host_id"`
	Players    []Player  `json:"players"`
	Alive      []string  `json:"alive"`
	Winner     string    `json:"winner,omitempty"`
	Aborted    string    `json:"aborted,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
	finishedAt time.Time
}

func (s *Status) Finished() bool {
	return s.Stage == STAGE_FINISHED
}

// FinishedAt 返回进入结束阶段的时间
func (s *Status) FinishedAt() time.Time {
	return s.finishedAt
}

func NewGameMachine(roomID string, engine *night.Engine, submitTimeout time.Duration, doneCh chan struct{}) *GameMachine {
	ctx := &GameContext{
		RoomID:        roomID,
		Players:       make(map[string]*Player),
		Engine:        engine,
		Ballot:        night.NewBallot(engine.Store()),
		SubmitTimeout: submitTimeout,
		TmoCh:         make(chan RequestWrapper, 64),
	}

	reqCh := make(chan RequestWrapper, 64)

	gm := &GameMachine{
		ctx:       ctx,
		handler:   NewWaitStageHandler(),
		reqCh:     reqCh,
		doneCh:    doneCh,
		createdAt: time.Now(),
	}

	gm.handler.SetOnSwitch(gm.onSwitch)
	gm.publishStatus()

	return gm
}

func (gm *GameMachine) onSwitch(nextStage string) {
	gm.ctx.GameStage = nextStage
}

func (gm *GameMachine) GetReqCh() chan RequestWrapper {
	return gm.reqCh
}

func (gm *GameMachine) Start() {
	gm.enter()

	// 进入事件循环
	for {
		// 从请求通道或超时通道接收事件
		var req RequestWrapper

		select {
		case req = <-gm.reqCh:
			zap.L().Debug(
				"接收到客户端请求",
				zap.String("room_id", gm.ctx.RoomID),
				zap.String("request_type", req.ReqType),
			)
		case req = <-gm.ctx.TmoCh:
			zap.L().Debug(
				"接收到超时事件",
				zap.String("room_id", gm.ctx.RoomID),
			)
		case <-gm.doneCh:
			gm.ctx.ClearTimeout()
			zap.L().Info(
				"收到退出信号，结束游戏状态机",
				zap.String("room_id", gm.ctx.RoomID),
			)
			return
		}

		gm.handle(req)
	}
}

// enter 执行初始 handler 的 OnEnter
func (gm *GameMachine) enter() {
	gm.handler.OnEnter(gm.ctx)
	gm.settle()
	gm.publishStatus()
}

// handle 处理一个请求，并完成由此引起的全部阶段切换
func (gm *GameMachine) handle(req RequestWrapper) {
	err := gm.handler.OnHandle(gm.ctx, req)
	if err != nil {
		zap.L().Debug(
			"处理请求失败",
			zap.Error(err),
			zap.String("stage", gm.handler.Stage()),
			zap.String("request_type", req.ReqType),
		)

		if req.SenderID != "" {
			gm.ctx.UnicastResp(req.SenderID, WrapErrResponse(err.Error()))
		}
	}

	gm.settle()
	gm.publishStatus()
}

// settle 结算阶段可能在 OnEnter 中再次切换（例如 Resolving），循环直到稳定
func (gm *GameMachine) settle() {
	for gm.ctx.GameStage != gm.handler.Stage() {
		if !gm.switchStage() {
			gm.ctx.GameStage = gm.handler.Stage()
			return
		}

		gm.handler.OnEnter(gm.ctx)
	}
}

func (gm *GameMachine) switchStage() bool {
	// 根据新状态创建对应的 handler
	var newHandler StageHandler

	switch gm.ctx.GameStage {
	case STAGE_WAITING:
		newHandler = NewWaitStageHandler()
	case STAGE_NIGHT:
		newHandler = NewNightStageHandler()
	case STAGE_RESOLVING:
		newHandler = NewResolveStageHandler()
	case STAGE_FINISHED:
		newHandler = NewFinishStageHandler()
	default:
		zap.L().Error(
			"未知的游戏阶段",
			zap.String("stage", gm.ctx.GameStage),
		)
		return false
	}

	// 执行当前 handler 的 OnExit
	next := gm.ctx.GameStage
	gm.handler.OnExit(gm.ctx)
	gm.ctx.GameStage = next

	newHandler.SetOnSwitch(gm.onSwitch)

	zap.L().Info(
		"游戏阶段切换",
		zap.String("room_id", gm.ctx.RoomID),
		zap.String("from", gm.handler.Stage()),
		zap.String("to", next),
	)

	// 更新当前 handler
	gm.handler = newHandler

	return true
}

func (gm *GameMachine) publishStatus() {
	ctx := gm.ctx

	st := &Status{
		RoomID:    ctx.RoomID,
		Stage:     ctx.GameStage,
		Night:     ctx.Engine.Night(),
		Players:   ctx.PublicPlayers(),
		Alive:     ctx.AliveNames(),
		Winner:    ctx.Winner,
		Aborted:   ctx.Aborted,
		UpdatedAt: time.Now(),
	}
	if st.Stage == "" {
		st.Stage = STAGE_WAITING
	}
	if admin := ctx.GetAdmin(); admin != nil {
		st.HostID = admin.ID
	}

	if prev := gm.status.Load(); prev != nil && prev.Finished() {
		st.finishedAt = prev.finishedAt
	} else if st.Finished() {
		st.finishedAt = st.UpdatedAt
	}

	gm.status.Store(st)
}

// Status 可以被任意协程调用
func (gm *GameMachine) Status() *Status {
	return gm.status.Load()
}

func (gm *GameMachine) IsFinished() bool {
	return gm.Status().Finished()
}

func (gm *GameMachine) CreatedAt() time.Time {
	return gm.createdAt
}

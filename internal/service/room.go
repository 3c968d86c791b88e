package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"scumsim-be/internal/config"
	"scumsim-be/internal/service/dto"
	"scumsim-be/internal/service/game"
	"scumsim-be/internal/service/night"

	"go.uber.org/zap"
)

var (
	ErrRoomNotFound = errors.New("房间不存在")
	ErrRoomBusy     = errors.New("房间繁忙，请稍后再试")
	ErrInvalidRoom  = errors.New("房间参数无效")
)

type RoomService struct {
	state *roomServiceState
	night config.NightConfig
}

type roomServiceState struct {
	mu sync.RWMutex

	// 均为从 ID 到实体的映射
	rooms map[string]*roomEntry

	cleanUpDone chan struct{}
}

// roomEntry 记录一个房间和驱动它的状态机协程
type roomEntry struct {
	id      string
	name    string
	machine *game.GameMachine
	doneCh  chan struct{}
}

func NewRoomService(nightCfg config.NightConfig) *RoomService {
	cleanUpDone := make(chan struct{})

	state := &roomServiceState{
		rooms:       make(map[string]*roomEntry),
		cleanUpDone: cleanUpDone,
	}

	// 启动一个 goroutine 定期清理过期的房间
	go startCleanupLoop(state, time.Minute)

	return &RoomService{
		state: state,
		night: nightCfg,
	}
}

func startCleanupLoop(state *roomServiceState, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-state.cleanUpDone:
			return

		case now := <-ticker.C:
			state.cleanup(now)
		}
	}
}

func (state *roomServiceState) cleanup(now time.Time) {
	state.mu.Lock()
	defer state.mu.Unlock()

	for roomID, room := range state.rooms {
		if isRoomValid(room, now) {
			continue
		}

		zap.S().Infof("房间 %s 状态失效，开始清理", roomID)

		// 通知对应的房间 goroutine 退出
		close(room.doneCh)
		delete(state.rooms, roomID)
	}
}

func (rs *RoomService) Close() {
	close(rs.state.cleanUpDone)

	rs.state.mu.Lock()
	defer rs.state.mu.Unlock()

	for roomID, room := range rs.state.rooms {
		close(room.doneCh)
		delete(rs.state.rooms, roomID)
	}
}

// CreateRoom 按名单创建夜晚引擎，并为房间启动独立的状态机协程
func (rs *RoomService) CreateRoom(req dto.CreateRoomRequest) (dto.CreateRoomResponse, error) {
	if req.RoomName == "" {
		return dto.CreateRoomResponse{}, fmt.Errorf("%w: 房间名称不能为空", ErrInvalidRoom)
	}
	if len(req.Roster) == 0 {
		return dto.CreateRoomResponse{}, fmt.Errorf("%w: 名单不能为空", ErrInvalidRoom)
	}

	store, err := night.NewRoster(req.Roster)
	if err != nil {
		return dto.CreateRoomResponse{}, fmt.Errorf("%w: 名单无效: %w", ErrInvalidRoom, err)
	}

	nightCfg := mergeNightOptions(rs.night, req.Options)
	roomID := game.ShortID()

	roomLogger := zap.L().With(zap.String("room_id", roomID))
	engine, err := night.NewEngine(store, night.Options{
		SetupNightKills: nightCfg.SetupNightKills,
		ParallelStages:  nightCfg.ParallelStages,
		Logger:          roomLogger,
		Sinks:           []night.Sink{night.LogSink(roomLogger)},
	})
	if err != nil {
		return dto.CreateRoomResponse{}, fmt.Errorf("创建夜晚引擎失败: %w", err)
	}

	doneCh := make(chan struct{})
	machine := game.NewGameMachine(
		roomID,
		engine,
		time.Duration(nightCfg.SubmitTimeoutSeconds)*time.Second,
		doneCh,
	)

	room := &roomEntry{
		id:      roomID,
		name:    req.RoomName,
		machine: machine,
		doneCh:  doneCh,
	}

	rs.state.mu.Lock()
	rs.state.rooms[roomID] = room
	rs.state.mu.Unlock()

	go machine.Start()

	zap.S().Infof("房间 %s(%s) 已创建，共 %d 个座位", roomID, req.RoomName, store.Len())

	seats := make([]string, 0, store.Len())
	for _, p := range store.Players() {
		seats = append(seats, p.Name)
	}

	return dto.CreateRoomResponse{
		RoomID:   roomID,
		RoomName: req.RoomName,
		Seats:    seats,
		Options:  dto.NightSettings(nightCfg),
	}, nil
}

// JoinRoom 把加入请求投递给房间状态机，返回之后请求应使用的通道
//
// 加入结果通过 respCh 异步返回。
func (rs *RoomService) JoinRoom(req *game.JoinGameRequest, respCh chan game.ResponseWrapper) (chan<- game.RequestWrapper, error) {
	if req.RoomID == "" {
		return nil, errors.New("房间 ID 不能为空")
	}
	if req.JoinerName == "" {
		return nil, errors.New("加入者名称不能为空")
	}
	if respCh == nil {
		return nil, errors.New("响应通道不能为空")
	}

	rs.state.mu.RLock()
	room := rs.state.rooms[req.RoomID]
	rs.state.mu.RUnlock()

	if room == nil {
		return nil, ErrRoomNotFound
	}

	req.RespCh = respCh
	reqCh := room.machine.GetReqCh()

	zap.S().Debugf("房间 %s 收到加入请求：%s", req.RoomID, req.JoinerName)

	reqTimer := time.NewTimer(5 * time.Second)
	defer reqTimer.Stop()

	select {
	case reqCh <- game.RequestWrapper{ReqType: game.REQ_JOIN_GAME, NativeData: req}:
		return reqCh, nil

	case <-room.doneCh:
		return nil, ErrRoomNotFound

	case <-reqTimer.C:
		zap.S().Warnf("房间 %s 无法及时处理加入请求，%s 发送失败", req.RoomID, req.JoinerName)
		return nil, ErrRoomBusy
	}
}

func (rs *RoomService) GetRoom(roomID string) (dto.RoomSummary, error) {
	rs.state.mu.RLock()
	room := rs.state.rooms[roomID]
	rs.state.mu.RUnlock()

	if room == nil {
		return dto.RoomSummary{}, ErrRoomNotFound
	}

	return summarize(room), nil
}

// ListRooms 按创建时间返回全部房间
func (rs *RoomService) ListRooms() []dto.RoomSummary {
	rs.state.mu.RLock()
	rooms := make([]*roomEntry, 0, len(rs.state.rooms))
	for _, room := range rs.state.rooms {
		rooms = append(rooms, room)
	}
	rs.state.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].machine.CreatedAt().Before(rooms[j].machine.CreatedAt())
	})

	summaries := make([]dto.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, summarize(room))
	}

	return summaries
}

package game

import "scumsim-be/internal/service/night"

type JoinGameRequest struct {
	RoomID     string `json:"room_id"`
	JoinerName string `json:"joiner_name"`
	// 可选：断线后按 ID 重连
	PlayerID string `json:"player_id,omitempty"`
	Observer bool   `json:"observer,omitempty"`

	RespCh chan ResponseWrapper `json:"-"`
}

type JoinGameResponse struct {
	RoomID  string   `json:"room_id"`
	Stage   string   `json:"stage"`
	Night   int      `json:"night"`
	Joiner  Player   `json:"joiner"`
	Players []Player `json:"players"`
	HostID  string   `json:"host_id"`
	// 只在发给加入者本人的响应中出现
	Seat *SeatView `json:"seat,omitempty"`
}

type StartGameRequest struct {
	StartPlayerID string `json:"start_player_id"`
}

type NightStartResponse struct {
	Night          int      `json:"night"`
	Alive          []string `json:"alive"`
	Pending        []string `json:"pending"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
}

// 目标名为空表示本晚不选目标
type SubmitTargetRequest struct {
	PlayerID   string `json:"player_id"`
	TargetName string `json:"target_name"`
}

type SubmitTargetResponse struct {
	PlayerName string   `json:"player_name"`
	Pending    []string `json:"pending"`
}

type ResolveNightRequest struct {
	PlayerID string `json:"player_id"`
}

type TimeoutRequest struct {
	Stage string `json:"stage"`
	Night int    `json:"night"`
}

type NightResultResponse struct {
	Report night.Report `json:"report"`
	Lines  []string     `json:"lines"`
}

type DeathsResponse struct {
	Night  int           `json:"night"`
	Deaths []night.Death `json:"deaths"`
}

type GameResultResponse struct {
	Winner  string     `json:"winner,omitempty"`
	Aborted string     `json:"aborted,omitempty"`
	Nights  int        `json:"nights"`
	Seats   []SeatView `json:"seats"`
}

type ExitGameRequest struct {
	PlayerID string               `json:"player_id"`
	RespCh   chan ResponseWrapper `json:"-"`
}

type ExitGameResponse struct {
	LeftPlayerID   string `json:"left_player_id"`
	LeftPlayerName string `json:"left_player_name"`
	HostID         string `json:"host_id,omitempty"`
}

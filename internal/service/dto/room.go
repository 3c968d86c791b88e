package dto

import (
	"time"

	"scumsim-be/internal/service/night"
)

type CreateRoomRequest struct {
	RoomName string        `json:"room_name"`
	Roster   []night.Seat  `json:"roster"`
	Options  *NightOptions `json:"options,omitempty"`
}

type CreateRoomResponse struct {
	RoomID   string        `json:"room_id"`
	RoomName string        `json:"room_name"`
	Seats    []string      `json:"seats"`
	Options  NightSettings `json:"options"`
}

// 房间的只读概览，不包含任何座位身份
type RoomSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Stage     string    `json:"stage"`
	Night     int       `json:"night"`
	HostID    string    `json:"host_id,omitempty"`
	Players   []Player  `json:"players"`
	Alive     []string  `json:"alive"`
	Winner    string    `json:"winner,omitempty"`
	Aborted   string    `json:"aborted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

package service

import (
	"time"

	"scumsim-be/internal/config"
	"scumsim-be/internal/service/dto"
)

const (
	// 结束的房间保留一段时间，方便玩家查看结果
	finishedRoomTTL = 10 * time.Minute
	// 没有任何连接的房间的最长存活时间
	idleRoomTTL = 30 * time.Minute
)

func isRoomValid(room *roomEntry, now time.Time) bool {
	if room == nil {
		return false
	}

	status := room.machine.Status()

	if status.Finished() && now.Sub(status.FinishedAt()) > finishedRoomTTL {
		return false
	}

	if len(status.Players) == 0 && now.Sub(status.UpdatedAt) > idleRoomTTL {
		return false
	}

	return true
}

// mergeNightOptions 请求中未给出的选项沿用配置文件
func mergeNightOptions(base config.NightConfig, opts *dto.NightOptions) config.NightConfig {
	if opts == nil {
		return base
	}

	if opts.SetupNightKills != nil {
		base.SetupNightKills = *opts.SetupNightKills
	}
	if opts.ParallelStages != nil {
		base.ParallelStages = *opts.ParallelStages
	}
	if opts.SubmitTimeoutSeconds != nil && *opts.SubmitTimeoutSeconds >= 0 {
		base.SubmitTimeoutSeconds = *opts.SubmitTimeoutSeconds
	}

	return base
}

func summarize(room *roomEntry) dto.RoomSummary {
	status := room.machine.Status()

	players := make([]dto.Player, 0, len(status.Players))
	for _, p := range status.Players {
		players = append(players, dto.Player{
			ID:     p.ID,
			Name:   p.Name,
			Role:   p.Role,
			Seated: p.Seated(),
		})
	}

	return dto.RoomSummary{
		ID:        room.id,
		Name:      room.name,
		Stage:     status.Stage,
		Night:     status.Night,
		HostID:    status.HostID,
		Players:   players,
		Alive:     status.Alive,
		Winner:    status.Winner,
		Aborted:   status.Aborted,
		CreatedAt: room.machine.CreatedAt(),
	}
}

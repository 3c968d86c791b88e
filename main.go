package main

import (
	"scumsim-be/internal/api/http"
	"scumsim-be/internal/config"
	"scumsim-be/internal/logger"
	"scumsim-be/internal/service"
	"scumsim-be/internal/service/dto"
	"scumsim-be/internal/state"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel, cfg.LogFile)

	roomSvc := service.NewRoomService(cfg.Night)

	// 配置了名单时预先创建一个默认房间
	if len(cfg.Roster) > 0 {
		resp, err := roomSvc.CreateRoom(dto.CreateRoomRequest{
			RoomName: "default",
			Roster:   cfg.Roster,
		})
		if err != nil {
			zap.L().Fatal("创建默认房间失败", zap.Error(err))
		}

		zap.L().Info(
			"默认房间已创建",
			zap.String("room_id", resp.RoomID),
			zap.Strings("seats", resp.Seats),
		)
	}

	// 组装应用状态
	appState := state.NewAppState(cfg, roomSvc)

	// 启动服务器
	http.RunServer(appState)
}

package state

import (
	"scumsim-be/internal/config"
	"scumsim-be/internal/service"

	"go.uber.org/zap"
)

// AppState 汇总 HTTP 处理器需要的全部依赖
type AppState struct {
	Cfg     *config.AppConfig
	RoomSvc *service.RoomService
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		RoomSvc: roomSvc,
	}
}

// Close 停止全部房间协程并刷新日志
func (s *AppState) Close() {
	s.RoomSvc.Close()

	zap.L().Info("应用状态已释放")
	_ = zap.L().Sync()
}

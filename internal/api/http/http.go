package http

import (
	"context"
	"fmt"
	"time"

	"scumsim-be/internal/api/http/websocket"
	"scumsim-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	api := app.Party("/api/v1")

	api.Post("/rooms/create", CreateRoom(appState))
	api.Get("/rooms", ListRooms(appState))
	api.Get("/rooms/{id:string}", GetRoom(appState))

	api.Get("/ws/join", websocket.JoinGame(appState))

	return app
}

func RunServer(appState *state.AppState) {
	app := NewApp(appState)

	iris.RegisterOnInterrupt(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		zap.L().Info("收到中断信号，关闭服务器")

		if err := app.Shutdown(ctx); err != nil {
			zap.L().Error("关闭服务器失败", zap.Error(err))
		}
		appState.Close()
	})

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	if err := app.Listen(addr, iris.WithoutInterruptHandler); err != nil {
		zap.L().Error("服务器退出", zap.Error(err))
	}
}

package http

import (
	"errors"

	"scumsim-be/internal/service"
	"scumsim-be/internal/service/dto"
	"scumsim-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func CreateRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateRoomRequest

		if err := ctx.ReadJSON(&req); err != nil {
			replyErr(ctx, iris.StatusBadRequest, "请求参数无效")
			return
		}

		resp, err := appState.RoomSvc.CreateRoom(req)
		if err != nil {
			zap.L().Debug(
				"创建房间被拒绝",
				zap.String("room_name", req.RoomName),
				zap.Int("seats", len(req.Roster)),
				zap.Error(err),
			)
			replyErr(ctx, statusOf(err), err.Error())
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(resp)
	}
}

func GetRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		summary, err := appState.RoomSvc.GetRoom(ctx.Params().Get("id"))
		if err != nil {
			replyErr(ctx, statusOf(err), err.Error())
			return
		}

		ctx.JSON(summary)
	}
}

func ListRooms(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"rooms": appState.RoomSvc.ListRooms(),
		})
	}
}

// statusOf 把服务层错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		return iris.StatusNotFound
	case errors.Is(err, service.ErrRoomBusy):
		return iris.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidRoom):
		return iris.StatusBadRequest
	default:
		return iris.StatusInternalServerError
	}
}

func replyErr(ctx iris.Context, status int, msg string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"error": msg,
	})
}

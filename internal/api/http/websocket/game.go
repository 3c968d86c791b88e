package websocket

import (
	"encoding/json"
	"time"

	"scumsim-be/internal/service/game"
	"scumsim-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		clientIP := ctx.RemoteAddr()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		// 响应通道由游戏状态机写入并在玩家退出时关闭
		respCh := make(chan game.ResponseWrapper, 64)

		req, err := readJoinRequest(conn)
		if err != nil {
			zap.L().Error(
				"读取首次请求失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			conn.WriteJSON(game.WrapErrResponse(err.Error()))
			return
		}

		// 先调用加入房间的接口，获取游戏状态机的请求通道
		reqCh, err := appState.RoomSvc.JoinRoom(req, respCh)
		if err != nil {
			zap.L().Error(
				"加入房间失败",
				zap.String("client_ip", clientIP),
				zap.String("room_id", req.RoomID),
				zap.Error(err),
			)
			conn.WriteJSON(game.WrapErrResponse(err.Error()))
			return
		}

		// 等待加入确认响应，获取玩家ID
		var joinResp game.ResponseWrapper

		select {
		case joinResp = <-respCh:
		case <-time.After(3 * time.Second):
			zap.L().Error("等待加入响应超时", zap.String("client_ip", clientIP))
			return
		}

		respData, ok := joinResp.Data.(game.JoinGameResponse)
		if joinResp.RespType != game.RESP_JOIN_GAME || !ok {
			zap.L().Error(
				"未能获取玩家ID",
				zap.String("client_ip", clientIP),
				zap.String("response_type", joinResp.RespType),
			)
			return
		}

		playerID := respData.Joiner.ID

		if err := conn.WriteJSON(joinResp); err != nil {
			zap.L().Error("发送加入响应失败", zap.String("client_ip", clientIP), zap.Error(err))
		}

		zap.L().Info(
			"玩家成功加入房间",
			zap.String("client_ip", clientIP),
			zap.String("room_id", req.RoomID),
			zap.String("player_id", playerID),
			zap.String("player_name", respData.Joiner.Name),
		)

		// 读协程产生的错误响应走单独的通道，只有写协程写连接
		errCh := make(chan game.ResponseWrapper, 8)
		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)
		writerExited := make(chan struct{})

		go func() {
			defer close(writerExited)
			writePump(conn, clientIP, respCh, errCh, writeDoneCh)
		}()

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var wrapper game.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Error(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				pushErr(errCh, "无效的请求格式")
				continue
			}

			// 身份以连接为准
			wrapper.SenderID = playerID

			// 将解析后的请求发送到游戏状态机
			select {
			case reqCh <- wrapper:
				zap.L().Debug(
					"发送请求到游戏状态机",
					zap.String("client_ip", clientIP),
					zap.String("request_type", wrapper.ReqType),
				)
			default:
				zap.L().Error(
					"发送请求到游戏状态机失败：请求通道已满",
					zap.String("client_ip", clientIP),
				)

				pushErr(errCh, "房间繁忙，请稍后再试")
			}
		}

		// 读循环退出，表示客户端断开连接
		// 发送 ExitGame 请求通知游戏状态机清理玩家
		zap.L().Info(
			"客户端连接断开，发送退出请求",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)

		exitWrapper := game.RequestWrapper{
			ReqType: game.REQ_EXIT_GAME,
			NativeData: &game.ExitGameRequest{
				PlayerID: playerID,
				RespCh:   respCh,
			},
		}

		select {
		case reqCh <- exitWrapper:
		default:
			zap.L().Warn(
				"发送退出请求失败：请求通道已满",
				zap.String("player_id", playerID),
			)
		}

		// 状态机关闭响应通道后写协程自行退出
		select {
		case <-writerExited:
			zap.L().Info(
				"玩家退出完成",
				zap.String("player_id", playerID),
			)
		case <-time.After(3 * time.Second):
			zap.L().Warn(
				"等待退出确认超时，强制退出",
				zap.String("player_id", playerID),
			)
		}

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)
	}
}

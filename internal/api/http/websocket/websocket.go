package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"scumsim-be/internal/service/game"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 暂时允许所有来源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 心跳间隔
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间，超过后读写都会失败
	HEARTBEAT_TIMEOUT = 45 * time.Second
)

var errFirstRequestNotJoin = errors.New("首次请求必须是 JoinGame")

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}

// readJoinRequest 读取连接上的第一条消息，必须是 JoinGame
func readJoinRequest(conn *websocket.Conn) (*game.JoinGameRequest, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var wrapper game.RequestWrapper

	if err := json.Unmarshal(msg, &wrapper); err != nil {
		return nil, err
	}

	req := game.ParseJoinGameRequest(wrapper)
	if req == nil {
		return nil, errFirstRequestNotJoin
	}

	return req, nil
}

func pushErr(errCh chan<- game.ResponseWrapper, msg string) {
	select {
	case errCh <- game.WrapErrResponse(msg):
	default:
	}
}

func writePump(
	conn *websocket.Conn,
	clientIP string,
	respCh <-chan game.ResponseWrapper,
	errCh <-chan game.ResponseWrapper,
	doneCh <-chan struct{},
) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	for {
		var resp game.ResponseWrapper

		select {
		case <-doneCh:
			zap.L().Info(
				"WebSocket写入协程退出",
				zap.String("client_ip", clientIP),
			)
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}
			continue

		case resp = <-errCh:

		case r, ok := <-respCh:
			// 玩家退出或被顶替时状态机关闭了通道
			if !ok {
				zap.L().Info(
					"响应通道已关闭，退出写协程",
					zap.String("client_ip", clientIP),
				)
				return
			}
			resp = r
		}

		conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		if err := conn.WriteJSON(resp); err != nil {
			zap.L().Error(
				"发送消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		zap.L().Debug(
			"发送消息",
			zap.String("client_ip", clientIP),
			zap.String("response_type", resp.RespType),
		)
	}
}

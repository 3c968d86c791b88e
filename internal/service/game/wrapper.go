package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME     = "JoinGame"
	REQ_START_GAME    = "StartGame"
	REQ_SUBMIT_TARGET = "SubmitTarget"
	REQ_RESOLVE_NIGHT = "ResolveNight"
	REQ_TIMEOUT       = "Timeout"
	REQ_EXIT_GAME     = "ExitGame"
)

// RequestWrapper 来自客户端时携带 Data，服务端内部构造时直接携带 NativeData
type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`

	NativeData any    `json:"-"`
	SenderID   string `json:"-"`
}

func tryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	if native, ok := wrapper.NativeData.(*T); ok {
		return native
	}

	var req T

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Error(
			"解包请求失败",
			zap.String("request_type", reqType),
			zap.Error(err),
		)
		return nil
	}

	return &req
}

// tryUnwrapNative 只接受服务端构造的请求，客户端发来的同类型请求一律不认
func tryUnwrapNative[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType || wrapper.SenderID != "" {
		return nil
	}

	req, _ := wrapper.NativeData.(*T)
	return req
}

// ParseJoinGameRequest 解析连接上的首条 JoinGame 消息，RespCh 由房间服务填充
func ParseJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	return tryUnwrap[JoinGameRequest](wrapper, REQ_JOIN_GAME)
}

// 加入请求只能由房间服务转发，且必须带着响应通道
func TryUnwrapJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	return tryUnwrapNative[JoinGameRequest](wrapper, REQ_JOIN_GAME)
}

func TryUnwrapStartGameRequest(wrapper RequestWrapper) *StartGameRequest {
	return tryUnwrap[StartGameRequest](wrapper, REQ_START_GAME)
}

func TryUnwrapSubmitTargetRequest(wrapper RequestWrapper) *SubmitTargetRequest {
	return tryUnwrap[SubmitTargetRequest](wrapper, REQ_SUBMIT_TARGET)
}

func TryUnwrapResolveNightRequest(wrapper RequestWrapper) *ResolveNightRequest {
	return tryUnwrap[ResolveNightRequest](wrapper, REQ_RESOLVE_NIGHT)
}

// 超时请求只能由服务端产生
func TryUnwrapTimeoutRequest(wrapper RequestWrapper) *TimeoutRequest {
	return tryUnwrapNative[TimeoutRequest](wrapper, REQ_TIMEOUT)
}

// 退出请求只能由连接断开时的服务端产生
func TryUnwrapExitGameRequest(wrapper RequestWrapper) *ExitGameRequest {
	return tryUnwrapNative[ExitGameRequest](wrapper, REQ_EXIT_GAME)
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_JOIN_GAME     = "JoinGame"
	RESP_NIGHT_START   = "NightStart"
	RESP_SUBMIT_TARGET = "SubmitTarget"
	RESP_NIGHT_RESULT  = "NightResult"
	RESP_DEATHS        = "Deaths"
	RESP_GAME_RESULT   = "GameResult"
	RESP_EXIT_GAME     = "ExitGame"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}

package dto

// 房间中的一个连接，在加入房间后有效
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	// 是否占有名单中的座位，座位身份只在游戏内私发
	Seated bool `json:"seated"`
}

package dto

// NightOptions 是创建房间时可选的覆盖项，未给出的沿用配置文件
type NightOptions struct {
	SetupNightKills      *bool `json:"setup_night_kills,omitempty"`
	ParallelStages       *bool `json:"parallel_stages,omitempty"`
	SubmitTimeoutSeconds *int  `json:"submit_timeout_seconds,omitempty"`
}

// NightSettings 是房间最终生效的夜晚选项
type NightSettings struct {
	SetupNightKills      bool `json:"setup_night_kills"`
	ParallelStages       bool `json:"parallel_stages"`
	SubmitTimeoutSeconds int  `json:"submit_timeout_seconds"`
}

package game

import "github.com/google/uuid"

// GenID 生成 v7 UUID，按时间单调递增
func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("生成 UUID 失败: " + err.Error())
	}

	return id.String()
}

// ShortID 取 UUID 的随机尾部作为便于输入的房间号
func ShortID() string {
	id := GenID()
	return id[len(id)-8:]
}

package utils

import (
	"github.com/google/uuid"
)

// 一个示例uuid, 用于测试和生成示例配置
const ExampleUUID = "a684455c-b14f-11ea-bf0d-42010aaa0003"

// GenerateUUIDStr 生成符合v4标准的uuid
func GenerateUUIDStr() string {
	return uuid.NewString()
}

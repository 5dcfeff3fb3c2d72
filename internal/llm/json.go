// internal/llm/json.go
package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON 从模型输出中剥离代码围栏，返回裸 JSON 文本
// 模型经常把 JSON 包在 ```json ... ``` 里，或夹带说明文字
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.Contains(text, "```") {
		parts := strings.SplitN(text, "```", 3)
		if len(parts) >= 2 {
			text = parts[1]
			text = strings.TrimPrefix(text, "json")
		}
	}

	return strings.TrimSpace(text)
}

// UnmarshalLoose 解析模型返回的松散 JSON
// 直接解析失败时先用 jsonrepair 修复再重试；仍失败才返回错误
func UnmarshalLoose(text string, v interface{}) error {
	raw := ExtractJSON(text)

	err := json.Unmarshal([]byte(raw), v)
	if err == nil {
		return nil
	}

	fixed, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return err
	}
	return json.Unmarshal([]byte(fixed), v)
}

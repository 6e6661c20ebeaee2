package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// 分镜生成状态机：pending -> generating -> {completed | error}
// completed / error 对单次生成是终态；error 可重新进入 generating。
const (
	SceneStatusPending    = "pending"
	SceneStatusGenerating = "generating"
	SceneStatusCompleted  = "completed"
	SceneStatusError      = "error"
)

type Scene struct {
	ID          string `json:"id"`
	Order       int    `json:"order"`
	Description string `json:"description"`
	Status      string `json:"status"`
	VideoUrl    string `json:"videoUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SceneList 作为 JSON 列嵌入 project 行存储，分镜不单独建表。
type SceneList []Scene

// 实现 driver.Valuer 接口: Go Struct -> JSON String (存入数据库)
func (l SceneList) Value() (driver.Value, error) {
	if l == nil {
		l = SceneList{}
	}
	return json.Marshal(l)
}

// 实现 sql.Scanner 接口: JSON String -> Go Struct (从数据库读取)
func (l *SceneList) Scan(value interface{}) error {
	if value == nil {
		*l = SceneList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, l)
}

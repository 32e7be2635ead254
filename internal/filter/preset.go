package filter

import (
	"fmt"
	"os"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/oriys/tracescope/internal/domain"
)

// presetKeys 把预设文件中的字段映射到 Spec
var presetKeys = map[string]func(*Spec) *string{
	"function":       func(s *Spec) *string { return &s.Function },
	"min_duration":   func(s *Spec) *string { return &s.MinDuration },
	"max_duration":   func(s *Spec) *string { return &s.MaxDuration },
	"start_time":     func(s *Spec) *string { return &s.StartTime },
	"end_time":       func(s *Spec) *string { return &s.EndTime },
	"operation_type": func(s *Spec) *string { return &s.OperationType },
	"search":         func(s *Spec) *string { return &s.Search },
}

// LoadPreset 解析 JSON 格式的过滤预设。
// 字段值可以是字符串或数字，其余类型和未知字段被忽略。
// 只有 JSON 本身不合法时才返回错误，字段值是否有效留给 Compile 判断。
//
// 示例：
//
//	{"function": "create_tables", "min_duration": 0.5, "max_duration": "10"}
func LoadPreset(data []byte) (Spec, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %v", domain.ErrInvalidPreset, err)
	}
	obj, err := v.Object()
	if err != nil {
		return Spec{}, fmt.Errorf("%w: top level must be an object", domain.ErrInvalidPreset)
	}

	var spec Spec
	obj.Visit(func(key []byte, val *fastjson.Value) {
		field, ok := presetKeys[string(key)]
		if !ok {
			return
		}
		switch val.Type() {
		case fastjson.TypeString:
			*field(&spec) = string(val.GetStringBytes())
		case fastjson.TypeNumber:
			f, err := val.Float64()
			if err == nil {
				*field(&spec) = strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
	})
	return spec, nil
}

// ReadPreset 从文件读取过滤预设。
func ReadPreset(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %v", domain.ErrInvalidPreset, err)
	}
	return LoadPreset(data)
}

// Merge 用 override 中的非空字段覆盖 base。
func Merge(base, override Spec) Spec {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	return Spec{
		Function:      pick(base.Function, override.Function),
		MinDuration:   pick(base.MinDuration, override.MinDuration),
		MaxDuration:   pick(base.MaxDuration, override.MaxDuration),
		StartTime:     pick(base.StartTime, override.StartTime),
		EndTime:       pick(base.EndTime, override.EndTime),
		OperationType: pick(base.OperationType, override.OperationType),
		Search:        pick(base.Search, override.Search),
	}
}

package probe

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Value 是 ffprobe 输出中的一个可选字段。
//
// ffprobe 对同一字段可能输出数字或字符串，也可能输出 "N/A" / "unknown" / 空串，
// 这些情况统一视为“无值”，由调用方决定默认值。
type Value struct {
	raw string
	ok  bool
}

// V 构造一个值（测试与默认值填充用）。空串 / "N/A" / "unknown" 视为无值。
func V(s string) Value {
	s = strings.TrimSpace(s)
	if isAbsent(s) {
		return Value{}
	}
	return Value{raw: s, ok: true}
}

func isAbsent(s string) bool {
	switch strings.ToLower(s) {
	case "", "n/a", "unknown":
		return true
	default:
		return false
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = V(s)
		return nil
	}
	// 数字：保留原始文本，按需再解析。
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = V(n.String())
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.raw)
}

// Present 表示字段存在且有意义。
func (v Value) Present() bool { return v.ok }

// String 返回原始文本以及是否存在。
func (v Value) String() (string, bool) { return v.raw, v.ok }

// Int 解析为整数；允许 "25.0" 这类浮点文本（截断）。
func (v Value) Int() (int64, bool) {
	if !v.ok {
		return 0, false
	}
	if n, err := strconv.ParseInt(v.raw, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v.raw, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

func (v Value) Float() (float64, bool) {
	if !v.ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Ratio 解析 "num/den" 或 "num:den"。
func (v Value) Ratio() (num, den int64, ok bool) {
	if !v.ok {
		return 0, 0, false
	}
	sep := strings.IndexAny(v.raw, "/:")
	if sep <= 0 || sep == len(v.raw)-1 {
		return 0, 0, false
	}
	n, err1 := strconv.ParseInt(strings.TrimSpace(v.raw[:sep]), 10, 64)
	d, err2 := strconv.ParseInt(strings.TrimSpace(v.raw[sep+1:]), 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return n, d, true
}

package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/John-Robertt/vidfilter/internal/domain"
)

const (
	bytesPerMB = 1048576.0
	bpsPerKbps = 1000.0

	maxInt   = math.MaxInt
	maxInt64 = math.MaxInt64
)

var inf = math.Inf(1)

// ValidationError 表示用户输入的某个条件不合法。它在扫描开始前返回，不是单文件错误。
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("过滤条件 %s 不合法：%s", e.Field, e.Reason)
	}
	return fmt.Sprintf("过滤条件 %s 不合法（%q）：%s", e.Field, e.Value, e.Reason)
}

var validate = validator.New()

type floatCheck struct {
	Min float64 `validate:"gte=0"`
	Max float64 `validate:"gtefield=Min"`
}

type intCheck struct {
	Min int `validate:"gte=0"`
	Max int `validate:"gtefield=Min"`
}

type modeCheck struct {
	Mode string `validate:"required,oneof=Any Constant Variable"`
}

type valueCheck struct {
	Value string `validate:"required"`
}

// Build 解析并校验原始输入，得到只读的 Criteria。
//
// 任一启用条件的端点无法解析（非数字、"WIDTHxHEIGHT" 格式错误）、为负数，
// 或 min > max，都返回 *ValidationError。
func Build(in Input) (Criteria, error) {
	var c Criteria
	var err error

	if in.Codec.Enabled {
		if c.Codec, err = buildEqual("codec", in.Codec.Value); err != nil {
			return Criteria{}, err
		}
	}
	if in.Resolution.Enabled {
		if c.Resolution, err = buildResolution(in.Resolution); err != nil {
			return Criteria{}, err
		}
	}
	if in.Duration.Enabled {
		if c.Duration, err = buildFloat("duration", in.Duration); err != nil {
			return Criteria{}, err
		}
	}
	if in.SizeMB.Enabled {
		r, err := buildFloat("size", in.SizeMB)
		if err != nil {
			return Criteria{}, err
		}
		c.Size = scaleRange(r, bytesPerMB)
	}
	if in.BitrateKbps.Enabled {
		r, err := buildFloat("bitrate", in.BitrateKbps)
		if err != nil {
			return Criteria{}, err
		}
		c.Bitrate = scaleRange(r, bpsPerKbps)
	}
	if in.BitrateMode.Enabled {
		if c.BitrateMode, err = buildMode(in.BitrateMode.Value); err != nil {
			return Criteria{}, err
		}
	}
	if in.Framerate.Enabled {
		if c.Framerate, err = buildFloat("framerate", in.Framerate); err != nil {
			return Criteria{}, err
		}
	}
	if in.AspectRatio.Enabled {
		if c.AspectRatio, err = buildEqual("aspect_ratio", in.AspectRatio.Value); err != nil {
			return Criteria{}, err
		}
	}
	if in.ColorSpace.Enabled {
		// 颜色空间为空等同 Any：启用但不约束。
		c.ColorSpace = Equal{Enabled: true, Value: strings.TrimSpace(in.ColorSpace.Value)}
	}
	if in.BitDepth.Enabled {
		if c.BitDepth, err = buildInt("bit_depth", in.BitDepth); err != nil {
			return Criteria{}, err
		}
	}
	return c, nil
}

func buildEqual(field, v string) (Equal, error) {
	v = strings.TrimSpace(v)
	if err := validate.Struct(valueCheck{Value: v}); err != nil {
		return Equal{}, &ValidationError{Field: field, Reason: "启用时必须指定值"}
	}
	return Equal{Enabled: true, Value: v}, nil
}

func buildMode(v string) (Equal, error) {
	v = strings.TrimSpace(v)
	mode := v
	for _, m := range []string{domain.BitrateAny, domain.BitrateConstant, domain.BitrateVariable} {
		if strings.EqualFold(v, m) {
			mode = m
			break
		}
	}
	if err := validate.Struct(modeCheck{Mode: mode}); err != nil {
		return Equal{}, &ValidationError{Field: "bitrate_mode", Value: v, Reason: "只能是 Any / Constant / Variable"}
	}
	return Equal{Enabled: true, Value: mode}, nil
}

func buildFloat(field string, in RangeInput) (Range[float64], error) {
	lo, err := parseFloat(field, in.Min, 0)
	if err != nil {
		return Range[float64]{}, err
	}
	hi, err := parseFloat(field, in.Max, inf)
	if err != nil {
		return Range[float64]{}, err
	}
	if err := checkBounds(field, in, validate.Struct(floatCheck{Min: lo, Max: hi})); err != nil {
		return Range[float64]{}, err
	}
	return Range[float64]{Enabled: true, Min: lo, Max: hi}, nil
}

func buildInt(field string, in RangeInput) (Range[int], error) {
	lo, err := parseInt(field, in.Min, 0)
	if err != nil {
		return Range[int]{}, err
	}
	hi, err := parseInt(field, in.Max, maxInt)
	if err != nil {
		return Range[int]{}, err
	}
	if err := checkBounds(field, in, validate.Struct(intCheck{Min: lo, Max: hi})); err != nil {
		return Range[int]{}, err
	}
	return Range[int]{Enabled: true, Min: lo, Max: hi}, nil
}

func buildResolution(in RangeInput) (Resolution, error) {
	if strings.TrimSpace(in.Min) == "" && strings.TrimSpace(in.Max) == "" {
		return Resolution{}, &ValidationError{Field: "resolution", Reason: "启用时必须至少指定一个 WIDTHxHEIGHT 边界"}
	}
	minW, minH, err := parseDims(in.Min, 0)
	if err != nil {
		return Resolution{}, err
	}
	maxW, maxH, err := parseDims(in.Max, maxInt)
	if err != nil {
		return Resolution{}, err
	}
	if err := checkBounds("resolution", in, validate.Struct(intCheck{Min: minW, Max: maxW})); err != nil {
		return Resolution{}, err
	}
	if err := checkBounds("resolution", in, validate.Struct(intCheck{Min: minH, Max: maxH})); err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Enabled: true,
		Width:   Range[int]{Enabled: true, Min: minW, Max: maxW},
		Height:  Range[int]{Enabled: true, Min: minH, Max: maxH},
	}, nil
}

// checkBounds 把 validator 的错误翻译为 ValidationError。
func checkBounds(field string, in RangeInput, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, field)
	}
	value := in.Min + ":" + in.Max
	switch verrs[0].Tag() {
	case "gte":
		return &ValidationError{Field: field, Value: value, Reason: "不能为负数"}
	case "gtefield":
		return &ValidationError{Field: field, Value: value, Reason: "最小值不能大于最大值"}
	default:
		return &ValidationError{Field: field, Value: value, Reason: verrs[0].Error()}
	}
}

func parseFloat(field, s string, def float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, &ValidationError{Field: field, Value: s, Reason: "不是数字"}
	}
	return f, nil
}

func parseInt(field, s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: s, Reason: "不是整数"}
	}
	return n, nil
}

// parseDims 解析 "WIDTHxHEIGHT"（x 不区分大小写）；空串返回 def x def。
func parseDims(s string, def int) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, def, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, &ValidationError{Field: "resolution", Value: s, Reason: "格式应为 WIDTHxHEIGHT"}
	}
	w, err1 := parseDim(ws)
	h, err2 := parseDim(hs)
	if err1 != nil || err2 != nil || w < 0 || h < 0 {
		return 0, 0, &ValidationError{Field: "resolution", Value: s, Reason: "格式应为 WIDTHxHEIGHT"}
	}
	return w, h, nil
}

// parseDim 允许用 "∞" / "inf" 表示无上界。
func parseDim(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "∞" || s == "inf" {
		return maxInt, nil
	}
	return strconv.Atoi(s)
}

// scaleRange 把以 MB / kbps 为单位的区间换算为字节 / bps；无上界映射为 MaxInt64。
// 下界向上取整、上界向下取整，保证整数比较与 [min, max] 的闭区间一致。
func scaleRange(r Range[float64], unit float64) Range[int64] {
	return Range[int64]{
		Enabled: r.Enabled,
		Min:     ceilInt64(r.Min * unit),
		Max:     toInt64(r.Max * unit),
	}
}

func toInt64(f float64) int64 {
	if f >= float64(maxInt64) {
		return maxInt64
	}
	return int64(snap(f))
}

func ceilInt64(f float64) int64 {
	if f >= float64(maxInt64) {
		return maxInt64
	}
	return int64(math.Ceil(snap(f)))
}

// snap 消除十进制换算的浮点误差（例如 1.1*1000 = 1100.0000000000002）。
func snap(f float64) float64 {
	if r := math.Round(f); math.Abs(f-r) < 1e-6 {
		return r
	}
	return f
}

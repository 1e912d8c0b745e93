package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/John-Robertt/vidfilter/internal/filter"
	"github.com/John-Robertt/vidfilter/internal/infra/logx"
	"github.com/John-Robertt/vidfilter/internal/probe"
	"github.com/John-Robertt/vidfilter/internal/scan"
)

const (
	// ErrCodeNotFound 表示未指定 path 运行但 cwd 下没有 vidfilter 配置文件。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示未指定 path 运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// FileName 是配置文件名（不含扩展名）；支持 json / yaml / yml / toml。
	FileName = "vidfilter"
	// EnvPrefix 是环境变量前缀，例如 VIDFILTER_FFPROBE、VIDFILTER_LOG_LEVEL。
	EnvPrefix = "VIDFILTER"
	// DefaultOutput 是纯文本结果文件的默认位置（相对 cwd）。
	DefaultOutput = "output.txt"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --ffprobe 必须能覆盖配置文件与环境变量。
type CLIArgs struct {
	Path string

	FFprobe    string
	FFprobeSet bool

	Output    string
	OutputSet bool

	LogLevel    string
	LogLevelSet bool

	// Filters 中 Enabled 的条件整体覆盖配置文件中的同名条件。
	Filters filter.Input
}

// FileConfig 对应 vidfilter.{json,yaml,toml} 的解析结构（已叠加环境变量与默认值）。
type FileConfig struct {
	Path        string       `mapstructure:"path"`
	FFprobe     string       `mapstructure:"ffprobe"`
	Output      string       `mapstructure:"output"`
	ExcludeDirs []string     `mapstructure:"exclude_dirs"`
	Log         logx.Config  `mapstructure:"log"`
	Filters     filter.Input `mapstructure:"filters"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	FFprobe string
	// Output 是纯文本结果文件的绝对路径。
	Output string
	// StateDir 是 <path>/.vidfilter，存放 report.json。
	StateDir    string
	ExcludeDirs []string

	Log     logx.Config
	Filters filter.Input

	// ConfigFile 是实际读取的配置文件；没有读取任何文件时为空。
	ConfigFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var validate = validator.New()

// LoadEffective 按约定发现并读取配置，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/vidfilter.*（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/vidfilter.*（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：CLI > 环境变量（含 <cwd>/.env）> 配置文件 > 默认值。
// filters 按条件整体覆盖：CLI 启用的条件替换配置中的同名条件。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	// .env 不存在不算错误；已存在的环境变量不会被覆盖。
	envFile := filepath.Join(cwdAbs, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envFile, Err: err}
		}
	}

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/vidfilter.*。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		fc, cfgFile, err := readFileConfig(absPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: describeCfg(absPath, cfgFile), Err: err}
		}
		return merge(cwdAbs, absPath, cli, fc, cfgFile)
	}

	// CLI 没给 path：必须读取 <cwd>/vidfilter.*，且其中必须包含 path。
	fc, cfgFile, err := readFileConfig(cwdAbs)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: describeCfg(cwdAbs, cfgFile), Err: err}
	}
	if cfgFile == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: describeCfg(cwdAbs, ""), Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgFile}
	}

	absPath := absCleanFrom(filepath.Dir(cfgFile), fc.Path)
	return merge(cwdAbs, absPath, cli, fc, cfgFile)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig, cfgFile string) (EffectiveConfig, error) {
	ffprobe := strings.TrimSpace(fc.FFprobe)
	if cli.FFprobeSet {
		ffprobe = strings.TrimSpace(cli.FFprobe)
	}
	if ffprobe == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgFile, Err: errors.New("ffprobe 不能为空")}
	}

	output := strings.TrimSpace(fc.Output)
	if cli.OutputSet {
		output = strings.TrimSpace(cli.Output)
	}
	if output == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgFile, Err: errors.New("output 不能为空")}
	}

	logCfg := fc.Log
	if cli.LogLevelSet {
		logCfg.Level = cli.LogLevel
	}
	logCfg.Level = strings.ToLower(strings.TrimSpace(logCfg.Level))
	logCfg.Encoding = strings.ToLower(strings.TrimSpace(logCfg.Encoding))
	if err := validate.Struct(logCfg); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgFile, Err: errors.Wrap(err, "log 配置无效")}
	}

	return EffectiveConfig{
		Path:        absPath,
		FFprobe:     ffprobe,
		Output:      absCleanFrom(cwdAbs, output),
		StateDir:    filepath.Join(absPath, scan.StateDirName),
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
		Log:         logCfg,
		Filters:     fc.Filters.Overlay(cli.Filters),
		ConfigFile:  cfgFile,
	}, nil
}

// newViper 创建带默认值与环境变量绑定的 viper 实例。
// 所有键都有默认值，这样 AutomaticEnv 才能在 Unmarshal 时覆盖到嵌套键。
func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(FileName)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("path", "")
	v.SetDefault("ffprobe", probe.DefaultBin)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("exclude_dirs", []string{})

	def := logx.Default()
	v.SetDefault("log.development", def.Development)
	v.SetDefault("log.disable_caller", def.DisableCaller)
	v.SetDefault("log.disable_stacktrace", def.DisableStacktrace)
	v.SetDefault("log.encoding", def.Encoding)
	v.SetDefault("log.level", def.Level)

	for _, name := range rangeFilters {
		v.SetDefault("filters."+name+".enabled", false)
		v.SetDefault("filters."+name+".min", "")
		v.SetDefault("filters."+name+".max", "")
	}
	for _, name := range textFilters {
		v.SetDefault("filters."+name+".enabled", false)
		v.SetDefault("filters."+name+".value", "")
	}
	return v
}

var (
	rangeFilters = []string{"resolution", "duration", "size", "bitrate", "framerate", "bit_depth"}
	textFilters  = []string{"codec", "bitrate_mode", "aspect_ratio", "color_space"}
)

// readFileConfig 在 dir 下查找并解析 vidfilter.*。
// 返回值 cfgFile 为实际读取的文件路径；不存在时为空串（不算错误）。
func readFileConfig(dir string) (fc FileConfig, cfgFile string, err error) {
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return FileConfig{}, v.ConfigFileUsed(), err
		}
	} else {
		cfgFile = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&fc); err != nil {
		return FileConfig{}, cfgFile, err
	}
	fc.ExcludeDirs = splitList(fc.ExcludeDirs)
	return fc, cfgFile, nil
}

// splitList 兼容环境变量写法：VIDFILTER_EXCLUDE_DIRS="a,b"。
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func describeCfg(dir, cfgFile string) string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(dir, FileName+".{json,yaml,yml,toml}")
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

package logx

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// Config 是日志配置（来自配置文件 log.* 或环境变量）。
type Config struct {
	Development       bool   `mapstructure:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	Encoding          string `mapstructure:"encoding" validate:"oneof=console json"`
	Level             string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Default 是未配置时的日志设置：info 级别、console 编码。
func Default() Config {
	return Config{Encoding: EncodingConsole, Level: "info"}
}

// New 按配置构建 logger，输出到 w（nil 表示 stderr）。
//
// 日志只写 stderr：stdout 在非 TTY 时承载 JSON 报告，不能被日志污染。
func New(cfg Config, w io.Writer) (*zap.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, errors.Wrapf(err, "log.level 无效：%q", cfg.Level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch cfg.Encoding {
	case "", EncodingConsole:
		enc = zapcore.NewConsoleEncoder(encCfg)
	case EncodingJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, errors.Errorf("log.encoding 只能是 console 或 json，实际是 %q", cfg.Encoding)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)

	opts := make([]zap.Option, 0, 3)
	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/vidfilter/internal/filter"
	"github.com/John-Robertt/vidfilter/internal/probe"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ConfigMissingPath(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "vidfilter.json"), []byte(`{"ffprobe":"/opt/ffprobe"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingPath {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingPath, err, Code(err))
	}
}

func TestLoadEffective_Defaults(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "vidfilter.json"), []byte(`{"path":"videos"}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	wantPath := filepath.Join(cwd, "videos")
	if eff.Path != wantPath {
		t.Fatalf("期望 path=%q，实际=%q", wantPath, eff.Path)
	}
	if eff.FFprobe != probe.DefaultBin {
		t.Fatalf("期望 ffprobe=%q，实际=%q", probe.DefaultBin, eff.FFprobe)
	}
	if eff.Output != filepath.Join(cwd, DefaultOutput) {
		t.Fatalf("output 默认应在 cwd 下，实际=%q", eff.Output)
	}
	if eff.StateDir != filepath.Join(wantPath, ".vidfilter") {
		t.Fatalf("state dir 不正确：%q", eff.StateDir)
	}
	if eff.Log.Level != "info" || eff.Log.Encoding != "console" {
		t.Fatalf("log 默认值不正确：%+v", eff.Log)
	}
	if eff.ConfigFile != filepath.Join(cwd, "vidfilter.json") {
		t.Fatalf("config file 不正确：%q", eff.ConfigFile)
	}
}

func TestLoadEffective_YAMLFiltersAndCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "vidfilter.yaml"), []byte(`
path: videos
ffprobe: /opt/ffprobe
exclude_dirs: [tmp]
filters:
  codec:
    enabled: true
    value: h264
  duration:
    enabled: true
    min: 5
    max: 20
`))

	eff, err := LoadEffective(cwd, CLIArgs{
		FFprobe:    "/usr/local/bin/ffprobe",
		FFprobeSet: true,
		Filters: filter.Input{
			Codec: filter.Text("hevc"),
		},
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.FFprobe != "/usr/local/bin/ffprobe" {
		t.Fatalf("CLI 必须覆盖配置文件，实际=%q", eff.FFprobe)
	}
	if eff.Filters.Codec.Value != "hevc" {
		t.Fatalf("CLI 启用的条件必须覆盖配置，实际=%+v", eff.Filters.Codec)
	}
	if !eff.Filters.Duration.Enabled || eff.Filters.Duration.Min != "5" || eff.Filters.Duration.Max != "20" {
		t.Fatalf("配置中的 duration 条件应保留：%+v", eff.Filters.Duration)
	}
	if len(eff.ExcludeDirs) != 1 || eff.ExcludeDirs[0] != "tmp" {
		t.Fatalf("exclude_dirs 不正确：%v", eff.ExcludeDirs)
	}
}

func TestLoadEffective_EnvOverridesFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "vidfilter.json"), []byte(`{"path":"p","ffprobe":"/from/file","log":{"level":"warn"}}`))
	t.Setenv("VIDFILTER_FFPROBE", "/from/env")
	t.Setenv("VIDFILTER_FILTERS_CODEC_ENABLED", "true")
	t.Setenv("VIDFILTER_FILTERS_CODEC_VALUE", "av1")

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.FFprobe != "/from/env" {
		t.Fatalf("环境变量必须覆盖配置文件，实际=%q", eff.FFprobe)
	}
	if eff.Log.Level != "warn" {
		t.Fatalf("期望 log.level=warn，实际=%q", eff.Log.Level)
	}
	if !eff.Filters.Codec.Enabled || eff.Filters.Codec.Value != "av1" {
		t.Fatalf("嵌套键也应被环境变量覆盖：%+v", eff.Filters.Codec)
	}
}

func TestLoadEffective_DotEnv(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(cwd, ".env"), []byte("VIDFILTER_OUTPUT=from-dotenv.txt\n"))
	t.Cleanup(func() { _ = os.Unsetenv("VIDFILTER_OUTPUT") })

	eff, err := LoadEffective(cwd, CLIArgs{Path: root})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Output != filepath.Join(cwd, "from-dotenv.txt") {
		t.Fatalf(".env 中的值应生效，实际=%q", eff.Output)
	}
}

func TestLoadEffective_CLIPath_ConfigOptional(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{
		Path: root,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != root {
		t.Fatalf("期望 path=%q，实际=%q", root, eff.Path)
	}
	if eff.ConfigFile != "" {
		t.Fatalf("没有配置文件时 ConfigFile 应为空，实际=%q", eff.ConfigFile)
	}
}

func TestLoadEffective_CLIPath_InvalidConfig(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(root, "vidfilter.json"), []byte(`{`))

	_, err := LoadEffective(cwd, CLIArgs{Path: root})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_InvalidLogLevel(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "vidfilter.json"), []byte(`{"path":"p"}`))

	_, err := LoadEffective(cwd, CLIArgs{LogLevel: "loud", LogLevelSet: true})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_EmptyFFprobe(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "vidfilter.json"), []byte(`{"path":"p"}`))

	_, err := LoadEffective(cwd, CLIArgs{FFprobe: " ", FFprobeSet: true})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}

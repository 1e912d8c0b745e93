package fsx

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// startFunc 启动外部程序后立即返回（不等待它退出）；测试中替换为记录调用。
var startFunc = func(name string, args ...string) error {
	_, err := startDetached(exec.Command(name, args...))
	return err
}

// startDetached 启动 cmd，并在后台 Wait 回收子进程；返回的 channel 在进程退出后收到 Wait 结果。
func startDetached(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	return done, nil
}

var goos = runtime.GOOS

// Open 用系统默认程序打开文件。
func Open(path string) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return err
	}
	name, args := openCommand(path)
	if err := startFunc(name, args...); err != nil {
		return errors.Wrapf(err, "打开 %s 失败", path)
	}
	return nil
}

// Reveal 在文件管理器中显示文件（Linux 上打开所在目录）。
func Reveal(path string) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return err
	}
	name, args := revealCommand(path)
	if err := startFunc(name, args...); err != nil {
		return errors.Wrapf(err, "在文件夹中显示 %s 失败", path)
	}
	return nil
}

func openCommand(path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}

func revealCommand(path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-R", path}
	case "windows":
		return "explorer", []string{"/select," + path}
	default:
		return "xdg-open", []string{filepath.Dir(path)}
	}
}

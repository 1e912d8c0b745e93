package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/vidfilter/internal/domain"
)

func TestStore_ReadWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".vidfilter")

	s := New(dir, false)
	in := domain.ScanReport{
		RunID:   "run-1",
		Root:    "/videos",
		Matches: []domain.Match{{Path: "/videos/a.mp4", Meta: domain.VideoMetadata{Codec: "h264"}}},
	}
	in.Finalize()
	if err := s.WriteReport(in); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	got, err := New(dir, true).ReadReport()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.RunID != "run-1" || len(got.Matches) != 1 || got.Matches[0].Meta.Codec != "h264" {
		t.Fatalf("内容不一致：%+v", got)
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	dir := t.TempDir()

	s := New(dir, true)
	err := s.WriteReport(domain.ScanReport{})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}
	if _, err := os.Stat(s.ReportPath()); !os.IsNotExist(err) {
		t.Fatalf("期望文件不存在，但 Stat err=%v", err)
	}
}

func TestStore_NoReport(t *testing.T) {
	_, err := New(t.TempDir(), true).ReadReport()
	if !errors.Is(err, ErrNoReport) {
		t.Fatalf("期望 ErrNoReport，实际：%v", err)
	}
}

func TestStore_CorruptReport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ReportFile), []byte("{"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	_, err := New(dir, true).ReadReport()
	if err == nil || errors.Is(err, ErrNoReport) {
		t.Fatalf("期望解析错误，实际：%v", err)
	}
}

package domain

// VideoFile 描述一次扫描得到的视频候选文件。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - 枚举阶段只读目录项，不读文件内容；大小由提取阶段 stat 得到
type VideoFile struct {
	AbsPath string
	RelPath string
	Ext     string // ".mp4"（已小写）
}

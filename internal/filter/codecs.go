package filter

// CommonCodecs 是常见的视频编码名（ffprobe codec_name），用于 --codec 的补全提示。
// 不在列表中的编码也可以作为过滤值。
var CommonCodecs = []string{
	// HAP
	"hap", "hap_alpha", "hap_q", "hap_q_alpha",
	// ProRes
	"prores", "prores_aw", "prores_ks", "prores_lt", "prores_proxy", "prores_hq",
	"h264", "hevc", "h265", "vp9", "av1", "mpeg4", "wmv", "theora",
	"vp8", "vp7", "mpeg2video", "divx", "xvid", "h263", "h261",
	"flv1", "mpeg1video", "huffyuv", "dnxhd", "cinepak", "indeo3",
	"msmpeg4v2", "rv10", "rv20", "svq1", "svq3", "vp6",
	"wmv1", "wmv2",
}

package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 媒体上传相关常量
const (
	MimeVideo = "video/"
	MimeAudio = "audio/"
	MimeImage = "image/"
)

var (
	AllowedMediaExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".mp3", ".ogg", ".wav", ".mp4", ".webm"}
)

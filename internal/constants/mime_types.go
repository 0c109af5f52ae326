package constants

// MimeTypes maps file extensions to their corresponding MIME types
var MimeTypes = map[string]string{
	// Image formats
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jfif": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".svg":  "image/svg+xml",

	// Video formats
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".3gp":  "video/3gpp",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",

	// Document formats
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".rtf":  "application/rtf",
	".vcf":  "text/vcard",

	// Audio formats
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".m4a":  "audio/mp4",
	".amr":  "audio/amr",
}

// DefaultMimeType is the fallback MIME type for unknown file extensions
const DefaultMimeType = "application/octet-stream"

// Media type names used throughout the pipeline
const (
	MediaTypeImage    = "image"
	MediaTypeVideo    = "video"
	MediaTypeAudio    = "audio"
	MediaTypeDocument = "document"
	MediaTypeSticker  = "sticker"
	MediaTypeContact  = "contact"
	MediaTypeGif      = "gif"
	MediaTypeFile     = "file"
)

// Extension groups for media type classification
var (
	ImageExtensions    = []string{"jpg", "jpeg", "jfif", "png", "gif", "webp", "heic"}
	VideoExtensions    = []string{"mp4", "mov", "avi", "3gp", "webm", "mkv"}
	AudioExtensions    = []string{"ogg", "opus", "mp3", "wav", "aac", "m4a", "amr"}
	DocumentExtensions = []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf"}
	ContactExtensions  = []string{"vcf"}
)

package files

import (
	"io/fs"
	"mime"
	"path/filepath"
)

// Entry is a point-in-time snapshot of one filesystem object. It is never
// persisted; every request recomputes entries from live metadata.
type Entry struct {
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	RelPath      string `json:"rel_path"`
	Size         int64  `json:"size"`
	IsDirectory  bool   `json:"is_directory"`
	CreatedTime  int64  `json:"created_time"`
	ModifiedTime int64  `json:"modified_time"`
	FileType     string `json:"file_type,omitempty"`
	Owner        string `json:"owner,omitempty"`
	ParentDir    string `json:"parent_dir"`
}

// newEntry builds an Entry from stat metadata. relPath is the root-relative
// identifier handed back to clients.
func newEntry(abs string, info fs.FileInfo, relPath string) Entry {
	e := Entry{
		Name:         info.Name(),
		FullName:     abs,
		RelPath:      relPath,
		IsDirectory:  info.IsDir(),
		ModifiedTime: info.ModTime().UnixMilli(),
		ParentDir:    filepath.Dir(abs),
		Owner:        fileOwner(info),
	}
	e.CreatedTime = createdTime(info)
	if !e.IsDirectory {
		e.Size = info.Size()
		e.FileType = typeByName(info.Name())
	}
	return e
}

func init() {
	// The stdlib's built-in table lacks most media types; register the common
	// ones so detection does not depend on the host's /etc/mime.types.
	for ext, typ := range map[string]string{
		".mp4":  "video/mp4",
		".mkv":  "video/x-matroska",
		".webm": "video/webm",
		".avi":  "video/x-msvideo",
		".mov":  "video/quicktime",
		".m4v":  "video/x-m4v",
		".flv":  "video/x-flv",
		".wmv":  "video/x-ms-wmv",
		".mpg":  "video/mpeg",
		".mpeg": "video/mpeg",
		".mp3":  "audio/mpeg",
		".flac": "audio/flac",
		".m4a":  "audio/mp4",
		".bmp":  "image/bmp",
		".tif":  "image/tiff",
		".tiff": "image/tiff",
	} {
		mime.AddExtensionType(ext, typ)
	}
}

// typeByName guesses a MIME type from the file extension.
func typeByName(name string) string {
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

package assets

import "strings"

// Class is the broad media category of an asset.
type Class int

const (
	ClassNone Class = iota
	ClassImage
	ClassAudio
	ClassVideo
)

func (c Class) String() string {
	switch c {
	case ClassImage:
		return "image"
	case ClassAudio:
		return "audio"
	case ClassVideo:
		return "video"
	default:
		return "none"
	}
}

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".tiff", ".tif", ".ico"}
	audioExtensions = []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".wma", ".opus"}
	videoExtensions = []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv", ".m4v", ".3gp", ".ogv"}
)

func hasAnySuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// AssetClass reports which allow-list the filename's extension belongs to,
// ignoring case.
func AssetClass(filename string) Class {
	name := strings.ToLower(filename)
	switch {
	case hasAnySuffix(name, imageExtensions):
		return ClassImage
	case hasAnySuffix(name, audioExtensions):
		return ClassAudio
	case hasAnySuffix(name, videoExtensions):
		return ClassVideo
	default:
		return ClassNone
	}
}

// IsValidAssetType reports whether filename ends in one of the accepted
// image, audio or video extensions.
func IsValidAssetType(filename string) bool {
	return AssetClass(filename) != ClassNone
}

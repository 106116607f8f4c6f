// Package artifacts names and addresses the files a session produces.
//
// Every artifact lives under {workspace}/sessions/{session}/{category}/
// and is published at {base}/{session}/{category}/{filename}. Keeping the
// on-disk layout and the URL layout identical means the report assembler
// can resolve links without touching the filesystem.
package artifacts

import (
	"fmt"
	"path"
	"strings"
)

// Category is one of the fixed per-session artifact directories.
type Category string

const (
	CategoryAudio Category = "audio"
	CategoryImage Category = "image"
	CategoryText  Category = "text"
	CategoryVideo Category = "video"
)

// Categories lists every category in layout order.
func Categories() []Category {
	return []Category{CategoryAudio, CategoryImage, CategoryText, CategoryVideo}
}

// Valid reports whether c names a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryAudio, CategoryImage, CategoryText, CategoryVideo:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Resolver maps session artifacts to their public URLs.
type Resolver struct {
	baseURL string
}

// NewResolver builds a resolver rooted at the configured base URL.
func NewResolver(baseURL string) *Resolver {
	return &Resolver{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// URL returns the public location of one artifact.
func (r *Resolver) URL(sessionID string, category Category, filename string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	filename = strings.TrimSpace(filename)
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	if !category.Valid() {
		return "", fmt.Errorf("unknown artifact category %q", category)
	}
	if filename == "" || filename != path.Base(filename) {
		return "", fmt.Errorf("invalid artifact filename %q", filename)
	}
	return fmt.Sprintf("%s/%s/%s/%s", r.baseURL, sessionID, category, filename), nil
}

// SegmentImageName returns the deterministic filename for segment n's image.
func SegmentImageName(n int) string { return fmt.Sprintf("image_%d.png", n) }

// SegmentAudioName returns the deterministic filename for segment n's narration.
func SegmentAudioName(n int) string { return fmt.Sprintf("audio_%d.mp3", n) }

// SegmentVideoName returns the deterministic filename for segment n's clip.
func SegmentVideoName(n int) string { return fmt.Sprintf("video_%d.mp4", n) }

// FinalVideoName is the filename of the assembled full-length video.
const FinalVideoName = "final_video.mp4"

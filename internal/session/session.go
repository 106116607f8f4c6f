// Package session holds the per-run session identity and the mutable state
// bag pipeline stages read from and write to. State is session-scoped;
// separate sessions share nothing.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Well-known state bag keys shared across stages.
const (
	KeyTopic            = "topic"
	KeyContentOutline   = "content_outline"
	KeyDraftArticle     = "draft_article"
	KeyMultimediaAssets = "multimedia_assets"
	KeyVideoPath        = "video_path"
	KeyNumVideos        = "num_videos"
	KeyReport           = "report"
)

// Outline is the structured content plan produced by the planning stage.
type Outline struct {
	Title    string    `json:"title"`
	Tone     string    `json:"tone"`
	Sections []Section `json:"sections"`
}

// Section is one outline entry with its talking points.
type Section struct {
	Heading   string   `json:"heading"`
	KeyPoints []string `json:"key_points"`
}

// Asset is one per-segment multimedia record: the relocated image, audio and
// video references plus the text that produced them.
type Asset struct {
	Index       int    `json:"index"`
	ImagePath   string `json:"image_path"`
	AudioPath   string `json:"audio_path"`
	VideoPath   string `json:"video_path"`
	Transcript  string `json:"transcript"`
	ImagePrompt string `json:"image_prompt"`
}

// Session identifies one pipeline run and owns its state bag.
type Session struct {
	ID        string
	CreatedAt time.Time
	State     *Bag
}

// New creates a session with a fresh opaque identifier.
func New() *Session {
	return NewWithID(uuid.NewString())
}

// NewWithID creates a session with a caller-chosen identifier. Used when
// resuming report generation for an existing session layout.
func NewWithID(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		State:     NewBag(),
	}
}

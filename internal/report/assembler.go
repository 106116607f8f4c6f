// Package report assembles the final per-session report from the text
// artifacts and deterministic media URLs.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cocreator/internal/artifacts"
	"cocreator/internal/logging"
	"cocreator/internal/services"
	"cocreator/internal/workspace"
)

// Unit is one report entry, covering a single generated segment.
type Unit struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
	ImagePrompt string   `json:"image_prompt"`
	Transcript  string   `json:"transcript"`
	VideoURL    string   `json:"video_url"`
	ImageURL    string   `json:"image_url"`
	AudioURL    string   `json:"audio_url"`
}

// Document is the ordered report for one session.
type Document struct {
	SessionID string `json:"session_id"`
	Units     []Unit `json:"units"`
}

// Assembler builds report documents from session text artifacts.
type Assembler struct {
	workspace *workspace.Manager
	resolver  *artifacts.Resolver
	logger    *slog.Logger
	titleCase cases.Caser
}

// NewAssembler constructs a report assembler.
func NewAssembler(ws *workspace.Manager, resolver *artifacts.Resolver, logger *slog.Logger) *Assembler {
	assemblerLogger := logger
	if assemblerLogger != nil {
		assemblerLogger = assemblerLogger.With(logging.String(logging.FieldComponent, "report"))
	}
	return &Assembler{
		workspace: ws,
		resolver:  resolver,
		logger:    assemblerLogger,
		titleCase: cases.Title(language.English),
	}
}

// Assemble reads the session's text artifacts, groups them into units by
// their trailing numeric filename suffix, and resolves the media URLs for
// each unit. Malformed filenames are skipped with a diagnostic. It fails
// only when no unit at all could be assembled.
func (a *Assembler) Assemble(ctx context.Context, sessionID string) (*Document, error) {
	files, err := a.workspace.ReadAllText(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make(map[int]*Unit)
	for _, name := range names {
		field, number, ok := splitUnitFilename(name)
		if !ok {
			if a.logger != nil {
				logging.WithContext(ctx, a.logger).Warn(
					"skipping text artifact without unit suffix",
					logging.String(logging.FieldSessionID, sessionID),
					logging.String("filename", name),
				)
			}
			continue
		}
		if !knownField(field) {
			if a.logger != nil {
				logging.WithContext(ctx, a.logger).Warn(
					"skipping text artifact with unrecognized field",
					logging.String(logging.FieldSessionID, sessionID),
					logging.String("filename", name),
				)
			}
			continue
		}
		unit := units[number]
		if unit == nil {
			unit = &Unit{Number: number}
			units[number] = unit
		}
		applyField(unit, field, strings.TrimSpace(files[name]))
	}

	if len(units) == 0 {
		return nil, services.Wrap(
			services.ErrReport,
			"",
			"assemble report",
			fmt.Sprintf("session %s has no text artifacts grouped into units", sessionID),
			nil,
		)
	}

	numbers := make([]int, 0, len(units))
	for number := range units {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	doc := &Document{SessionID: sessionID, Units: make([]Unit, 0, len(numbers))}
	for _, number := range numbers {
		unit := units[number]
		if unit.Title == "" {
			unit.Title = a.fallbackTitle(unit.Transcript)
		}
		unit.VideoURL = a.resolveURL(ctx, sessionID, artifacts.CategoryVideo, artifacts.SegmentVideoName(number))
		unit.ImageURL = a.resolveURL(ctx, sessionID, artifacts.CategoryImage, artifacts.SegmentImageName(number))
		unit.AudioURL = a.resolveURL(ctx, sessionID, artifacts.CategoryAudio, artifacts.SegmentAudioName(number))
		doc.Units = append(doc.Units, *unit)
	}
	return doc, nil
}

func (a *Assembler) resolveURL(ctx context.Context, sessionID string, category artifacts.Category, filename string) string {
	url, err := a.resolver.URL(sessionID, category, filename)
	if err != nil {
		if a.logger != nil {
			logging.WithContext(ctx, a.logger).Warn("url resolution failed", logging.Error(err))
		}
		return ""
	}
	return url
}

// fallbackTitle derives a short title from the transcript when no title
// artifact was produced for the unit.
func (a *Assembler) fallbackTitle(transcript string) string {
	words := strings.Fields(transcript)
	if len(words) == 0 {
		return ""
	}
	const maxWords = 6
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return a.titleCase.String(strings.Join(words, " "))
}

func knownField(field string) bool {
	switch field {
	case "title", "description", "hashtags", "image_prompt", "transcript":
		return true
	}
	return false
}

func applyField(unit *Unit, field, content string) {
	switch field {
	case "title":
		unit.Title = content
	case "description":
		unit.Description = content
	case "hashtags":
		unit.Hashtags = splitHashtags(content)
	case "image_prompt":
		unit.ImagePrompt = content
	case "transcript":
		unit.Transcript = content
	}
}

func splitHashtags(content string) []string {
	fields := strings.Fields(content)
	tags := make([]string, 0, len(fields))
	for _, field := range fields {
		tag := strings.TrimSpace(field)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	return tags
}

// splitUnitFilename parses names like description_3.txt into the field name
// and unit number. Grouping keys off the final underscore, so fields may
// themselves contain underscores (image_prompt_3.txt).
func splitUnitFilename(name string) (string, int, bool) {
	base := strings.TrimSuffix(name, ".txt")
	if base == name {
		return "", 0, false
	}
	idx := strings.LastIndex(base, "_")
	if idx <= 0 || idx == len(base)-1 {
		return "", 0, false
	}
	number, err := strconv.Atoi(base[idx+1:])
	if err != nil || number <= 0 {
		return "", 0, false
	}
	return base[:idx], number, true
}

// Package workspace owns the on-disk layout of session artifacts.
//
// Each session gets a directory tree under {workspace}/sessions/{id} with
// one subdirectory per artifact category. The manager creates the layout,
// saves text artifacts, relocates media produced in scratch space, and
// persists summary fields into the session index.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"cocreator/internal/artifacts"
	"cocreator/internal/config"
	"cocreator/internal/docstore"
	"cocreator/internal/fileutil"
	"cocreator/internal/logging"
	"cocreator/internal/services"
)

// Manager manipulates the per-session artifact tree.
type Manager struct {
	root   string
	docs   *docstore.Store
	logger *slog.Logger
}

// NewManager builds a manager rooted at the configured sessions directory.
func NewManager(cfg *config.Config, docs *docstore.Store, logger *slog.Logger) *Manager {
	managerLogger := logger
	if managerLogger != nil {
		managerLogger = managerLogger.With(logging.String(logging.FieldComponent, "workspace"))
	}
	return &Manager{root: cfg.SessionsDir(), docs: docs, logger: managerLogger}
}

// Root returns the directory all session trees live under.
func (m *Manager) Root() string {
	return m.root
}

// SessionDir returns the root of one session's tree.
func (m *Manager) SessionDir(sessionID string) string {
	return filepath.Join(m.root, sessionID)
}

// CategoryDir returns the directory holding one category of session artifacts.
func (m *Manager) CategoryDir(sessionID string, category artifacts.Category) string {
	return filepath.Join(m.root, sessionID, category.String())
}

// EnsureLayout creates the session directory tree. Calling it again for an
// existing session is a no-op and never disturbs files already present.
func (m *Manager) EnsureLayout(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return services.Wrap(services.ErrWorkspace, "", "ensure layout", "session id is required", nil)
	}
	for _, category := range artifacts.Categories() {
		dir := m.CategoryDir(sessionID, category)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrWorkspace, "", "ensure layout", fmt.Sprintf("create %s directory", category), err)
		}
	}
	if m.logger != nil {
		logging.WithContext(ctx, m.logger).Debug("session layout ready", logging.String(logging.FieldSessionID, sessionID))
	}
	return nil
}

// SaveText writes a text artifact into the session's text directory,
// replacing any existing file of the same name.
func (m *Manager) SaveText(ctx context.Context, sessionID, filename, content string) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", services.Wrap(services.ErrWorkspace, "", "save text", "invalid text artifact name", err)
	}
	if err := m.EnsureLayout(ctx, sessionID); err != nil {
		return "", err
	}
	target := filepath.Join(m.CategoryDir(sessionID, artifacts.CategoryText), filename)
	if err := fileutil.WriteFileAtomic(target, []byte(content), 0o644); err != nil {
		return "", services.Wrap(services.ErrWorkspace, "", "save text", fmt.Sprintf("write %s", filename), err)
	}
	return target, nil
}

// ReadText returns the content of one text artifact.
func (m *Manager) ReadText(ctx context.Context, sessionID, filename string) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", services.Wrap(services.ErrWorkspace, "", "read text", "invalid text artifact name", err)
	}
	data, err := os.ReadFile(filepath.Join(m.CategoryDir(sessionID, artifacts.CategoryText), filename))
	if errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrNotFound, "", "read text", fmt.Sprintf("text artifact %s not found", filename), err)
	}
	if err != nil {
		return "", services.Wrap(services.ErrWorkspace, "", "read text", fmt.Sprintf("read %s", filename), err)
	}
	return string(data), nil
}

// ListText returns the filenames in the session's text directory in
// ascending lexical order.
func (m *Manager) ListText(ctx context.Context, sessionID string) ([]string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, services.Wrap(services.ErrWorkspace, "", "list text", "session id is required", nil)
	}
	entries, err := os.ReadDir(m.CategoryDir(sessionID, artifacts.CategoryText))
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "", "list text", fmt.Sprintf("session %s has no text artifacts", sessionID), err)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrWorkspace, "", "list text", "read text directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadAllText returns every text artifact in the session keyed by filename.
func (m *Manager) ReadAllText(ctx context.Context, sessionID string) (map[string]string, error) {
	names, err := m.ListText(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	contents := make(map[string]string, len(names))
	for _, name := range names {
		content, err := m.ReadText(ctx, sessionID, name)
		if err != nil {
			return nil, err
		}
		contents[name] = content
	}
	return contents, nil
}

// Relocate moves a file produced in scratch space into the session's
// category directory, keeping its basename. The move is a rename when
// source and destination share a filesystem, otherwise a verified copy
// staged beside the target and renamed into place, then source removal.
func (m *Manager) Relocate(ctx context.Context, sessionID string, category artifacts.Category, sourcePath string) (string, error) {
	if !category.Valid() {
		return "", services.Wrap(services.ErrWorkspace, "", "relocate artifact", fmt.Sprintf("unknown artifact category %q", category), nil)
	}
	if _, err := os.Stat(sourcePath); errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrNotFound, "", "relocate artifact", fmt.Sprintf("source file %s not found", sourcePath), err)
	} else if err != nil {
		return "", services.Wrap(services.ErrWorkspace, "", "relocate artifact", "stat source file", err)
	}
	if err := m.EnsureLayout(ctx, sessionID); err != nil {
		return "", err
	}

	target := filepath.Join(m.CategoryDir(sessionID, category), filepath.Base(sourcePath))
	if renameErr := os.Rename(sourcePath, target); renameErr != nil {
		var linkErr *os.LinkError
		if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			if copyErr := crossDeviceMove(sourcePath, target); copyErr != nil {
				return "", services.Wrap(services.ErrWorkspace, "", "relocate artifact", "copy file across filesystems", copyErr)
			}
			if err := os.Remove(sourcePath); err != nil && m.logger != nil {
				logging.WithContext(ctx, m.logger).Warn("failed to remove source file after copy", logging.Error(err))
			}
		} else {
			return "", services.Wrap(services.ErrWorkspace, "", "relocate artifact", "move file into session tree", renameErr)
		}
	}
	if m.logger != nil {
		logging.WithContext(ctx, m.logger).Debug(
			"artifact relocated",
			logging.String(logging.FieldSessionID, sessionID),
			logging.String(logging.FieldCategory, category.String()),
			logging.String("target", target),
		)
	}
	return target, nil
}

// crossDeviceMove copies sourcePath to a staging file beside target and
// renames it into place. The canonical path only ever holds the previous
// file or the complete new one, never a partial write.
func crossDeviceMove(sourcePath, target string) error {
	staging := target + ".tmp"
	if err := fileutil.CopyFileVerified(sourcePath, staging); err != nil {
		_ = os.Remove(staging)
		return err
	}
	if err := os.Rename(staging, target); err != nil {
		_ = os.Remove(staging)
		return err
	}
	return nil
}

// PersistIndex merges summary fields into the session's durable index
// document.
func (m *Manager) PersistIndex(ctx context.Context, sessionID string, fields map[string]any) error {
	if m.docs == nil {
		return services.Wrap(services.ErrConfiguration, "", "persist index", "session index store is not configured", nil)
	}
	return m.docs.Merge(ctx, sessionID, fields)
}

func validateFilename(filename string) error {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return fmt.Errorf("filename is required")
	}
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return fmt.Errorf("filename %q must not contain path separators", filename)
	}
	return nil
}

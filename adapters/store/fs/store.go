package storefs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-visual-export/export"
)

// ArtifactMeta is the sidecar record written next to each saved artifact.
type ArtifactMeta struct {
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Format      export.Format `json:"format"`
	Units       int           `json:"units"`
	Size        int64         `json:"size"`
	SavedAt     time.Time     `json:"saved_at"`
}

// Store saves finished artifacts under their suggested filename. Saving the
// same filename again replaces the previous file.
type Store struct {
	Root string
	Now  func() time.Time
}

var _ export.Saver = (*Store)(nil)

// NewStore creates a filesystem-backed artifact saver.
func NewStore(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

// Save writes an artifact atomically.
func (s *Store) Save(ctx context.Context, artifact export.OutputArtifact) error {
	_ = ctx
	if s == nil {
		return export.NewError(export.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return export.NewError(export.KindValidation, "store root is required", nil)
	}
	if artifact.Filename == "" {
		return export.NewError(export.KindValidation, "artifact filename is required", nil)
	}

	pathOnDisk, err := s.resolvePath(artifact.Filename)
	if err != nil {
		return err
	}

	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeAtomic(dir, ".export-*", pathOnDisk, artifact.Data); err != nil {
		return err
	}

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	meta := ArtifactMeta{
		Filename:    artifact.Filename,
		ContentType: contentType,
		Format:      artifact.Format,
		Units:       artifact.Units,
		Size:        int64(len(artifact.Data)),
		SavedAt:     s.now(),
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return writeAtomic(dir, ".meta-*", metaPath(pathOnDisk), payload)
}

// Open reads a saved artifact from disk.
func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, ArtifactMeta, error) {
	_ = ctx
	if s == nil {
		return nil, ArtifactMeta{}, export.NewError(export.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return nil, ArtifactMeta{}, export.NewError(export.KindValidation, "store root is required", nil)
	}
	if filename == "" {
		return nil, ArtifactMeta{}, export.NewError(export.KindValidation, "artifact filename is required", nil)
	}

	pathOnDisk, err := s.resolvePath(filename)
	if err != nil {
		return nil, ArtifactMeta{}, err
	}

	file, err := os.Open(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ArtifactMeta{}, export.NewError(export.KindValidation, fmt.Sprintf("artifact %q not found", filename), err)
		}
		return nil, ArtifactMeta{}, err
	}

	meta := s.readMeta(pathOnDisk)
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if meta.Size == 0 {
		if info, err := file.Stat(); err == nil {
			meta.Size = info.Size()
			if meta.SavedAt.IsZero() {
				meta.SavedAt = info.ModTime()
			}
		}
	}
	return file, meta, nil
}

// Path returns the on-disk location of a filename.
func (s *Store) Path(filename string) (string, error) {
	return s.resolvePath(filename)
}

func (s *Store) resolvePath(key string) (string, error) {
	clean := path.Clean("/" + key)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", export.NewError(export.KindValidation, "invalid artifact filename", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) && target != root {
		return "", export.NewError(export.KindValidation, "artifact filename escapes root", nil)
	}
	return target, nil
}

func (s *Store) readMeta(pathOnDisk string) ArtifactMeta {
	data, err := os.ReadFile(metaPath(pathOnDisk))
	if err != nil {
		return ArtifactMeta{}
	}
	var meta ArtifactMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return ArtifactMeta{}
	}
	return meta
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func writeAtomic(dir, pattern, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func metaPath(pathOnDisk string) string {
	return pathOnDisk + ".meta.json"
}

package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Folder is a resolved Drive folder.
type Folder struct {
	ID   string
	Path string
}

// Store wraps the Drive API: folder-path resolution and file creation.
type Store struct {
	api    *driveapi.Service
	logger *slog.Logger
}

// NewStore builds a Drive client over an already-authenticated HTTP client.
func NewStore(ctx context.Context, httpClient *http.Client, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	api, err := driveapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Store{api: api, logger: logger}, nil
}

// ResolveOrCreateFolderPath walks a slash-separated path from the Drive
// root, creating any missing segment. An empty path is a fatal
// configuration error.
func (s *Store) ResolveOrCreateFolderPath(ctx context.Context, path string) (Folder, error) {
	parts := splitFolderPath(path)
	if len(parts) == 0 {
		return Folder{}, errors.New("drive folder path is empty")
	}

	parentID := "root"
	for _, name := range parts {
		id, err := s.findChildFolder(ctx, parentID, name)
		if err != nil {
			return Folder{}, err
		}
		if id == "" {
			id, err = s.createFolder(ctx, parentID, name)
			if err != nil {
				return Folder{}, err
			}
			s.logger.Info("Created Drive folder", "name", name)
		}
		parentID = id
	}

	return Folder{ID: parentID, Path: strings.Join(parts, "/")}, nil
}

// CreateFile uploads data as a new file inside folder and returns the file
// ID.
func (s *Store) CreateFile(ctx context.Context, folder Folder, name, mimeType string, data []byte) (string, error) {
	file := &driveapi.File{
		Name:     name,
		Parents:  []string{folder.ID},
		MimeType: mimeType,
	}

	created, err := s.api.Files.Create(file).
		Media(bytes.NewReader(data)).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create file %q in %q: %w", name, folder.Path, err)
	}

	return created.Id, nil
}

func (s *Store) findChildFolder(ctx context.Context, parentID, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQueryValue(name), parentID, folderMimeType)

	resp, err := s.api.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up folder %q: %w", name, err)
	}

	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].Id, nil
}

func (s *Store) createFolder(ctx context.Context, parentID, name string) (string, error) {
	folder := &driveapi.File{
		Name:     name,
		Parents:  []string{parentID},
		MimeType: folderMimeType,
	}

	created, err := s.api.Files.Create(folder).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return created.Id, nil
}

// splitFolderPath splits a slash-separated path into trimmed non-empty
// segments.
func splitFolderPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// escapeQueryValue escapes single quotes and backslashes for Drive query
// string literals.
func escapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

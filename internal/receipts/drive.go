// Package receipts stores receipt images in a Google Drive folder and hands
// out time-limited view links.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type Store struct {
	service  *drive.Service
	folderID string
}

// Config selects the service account credentials and the target folder.
// Exactly one of CredentialsJSON or CredentialsFile must be set.
type Config struct {
	CredentialsJSON string
	CredentialsFile string
	FolderID        string
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	if cfg.FolderID == "" {
		return nil, errors.New("missing drive folder id")
	}

	service, err := drive.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(drive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Store{service: service, folderID: cfg.FolderID}, nil
}

// Upload stores the image under the configured folder and returns the Drive
// file id.
func (s *Store) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	file := &drive.File{
		Name:     name,
		MimeType: contentType,
		Parents:  []string{s.folderID},
	}

	created, err := s.service.Files.Create(file).
		Media(r).
		Context(ctx).
		Fields("id").
		Do()
	if err != nil {
		return "", fmt.Errorf("upload receipt image: %w", err)
	}

	slog.InfoContext(ctx, "Receipt image uploaded", "file_id", created.Id, "name", name)
	return created.Id, nil
}

// ShareURL grants anonymous read access that lapses after ttl and returns a
// direct view link for the file.
func (s *Store) ShareURL(ctx context.Context, fileID string, ttl time.Duration) (string, error) {
	permission := &drive.Permission{
		Type:           "anyone",
		Role:           "reader",
		ExpirationTime: time.Now().Add(ttl).UTC().Format(time.RFC3339),
	}
	if _, err := s.service.Permissions.Create(fileID, permission).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("share receipt image: %w", err)
	}

	file, err := s.service.Files.Get(fileID).Fields("webContentLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("resolve receipt link: %w", err)
	}
	if file.WebContentLink == "" {
		return fmt.Sprintf("https://drive.google.com/uc?id=%s", fileID), nil
	}
	return file.WebContentLink, nil
}

// Delete removes the stored image. Used when the owning expense goes away.
func (s *Store) Delete(ctx context.Context, fileID string) error {
	if err := s.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete receipt image: %w", err)
	}
	return nil
}

// FileIDFromURL recovers the Drive file id from a share link. It understands
// the webContentLink uc?id= form and the /file/d/<id>/view form.
func FileIDFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(u.Host, "google.com") {
		return "", false
	}
	if id := u.Query().Get("id"); id != "" {
		return id, true
	}
	if rest, ok := strings.CutPrefix(u.Path, "/file/d/"); ok {
		if id, _, _ := strings.Cut(rest, "/"); id != "" {
			return id, true
		}
	}
	return "", false
}

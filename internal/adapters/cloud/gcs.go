// Package cloud provides cloud provider integrations.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig holds Google Cloud Storage configuration.
type GCSConfig struct {
	Bucket          string `json:"bucket"`
	CredentialsPath string `json:"credentials_path,omitempty"`
	Prefix          string `json:"prefix"`
}

// DefaultGCSConfig returns default GCS configuration.
func DefaultGCSConfig() GCSConfig {
	return GCSConfig{
		Prefix: "artifacts/",
	}
}

// ArtifactInfo describes a published artifact.
type ArtifactInfo struct {
	Name      string    `json:"name" yaml:"name"`
	Size      int64     `json:"size" yaml:"size"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Path      string    `json:"path" yaml:"path"`
}

// GCSArtifactStore publishes generated source and binaries to a bucket under
// PREFIX/<build-id>/.
type GCSArtifactStore struct {
	config GCSConfig
	client *storage.Client
	logger ports.Logger

	// newWriter opens an object for writing; replaced in tests.
	newWriter func(ctx context.Context, object, contentType string) io.WriteCloser
}

// NewGCSArtifactStore creates a store backed by a GCS client.
func NewGCSArtifactStore(ctx context.Context, config GCSConfig, logger ports.Logger) (*GCSArtifactStore, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	var opts []option.ClientOption
	if config.CredentialsPath != "" {
		if _, err := os.Stat(config.CredentialsPath); err != nil {
			return nil, fmt.Errorf("credentials file not found: %s", config.CredentialsPath)
		}
		opts = append(opts, option.WithCredentialsFile(config.CredentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	s := &GCSArtifactStore{
		config: config,
		client: client,
		logger: logger,
	}
	s.newWriter = func(ctx context.Context, object, contentType string) io.WriteCloser {
		w := s.client.Bucket(s.config.Bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return s, nil
}

// ObjectName returns the object a file of a build is stored under.
func (s *GCSArtifactStore) ObjectName(buildID, file string) string {
	return path.Join(s.buildPrefix(buildID), filepath.Base(file))
}

func (s *GCSArtifactStore) buildPrefix(buildID string) string {
	return strings.TrimSuffix(s.config.Prefix, "/") + "/" + buildID
}

// Publish uploads each file and returns its gs:// location.
func (s *GCSArtifactStore) Publish(ctx context.Context, build *domain.Build, files []string) ([]string, error) {
	locations := make([]string, 0, len(files))
	for _, f := range files {
		object := s.ObjectName(build.ID.String(), f)
		if err := s.upload(ctx, f, object); err != nil {
			return locations, err
		}
		loc := fmt.Sprintf("gs://%s/%s", s.config.Bucket, object)
		locations = append(locations, loc)
		s.logger.Info("Artifact published", "build", build.ID, "path", loc)
	}
	return locations, nil
}

func (s *GCSArtifactStore) upload(ctx context.Context, localPath, object string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	writer := s.newWriter(ctx, object, ContentType(localPath))
	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(localPath), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// List returns the artifacts published for a build.
func (s *GCSArtifactStore) List(ctx context.Context, buildID string) ([]ArtifactInfo, error) {
	prefix := s.buildPrefix(buildID) + "/"
	it := s.client.Bucket(s.config.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var artifacts []ArtifactInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		artifacts = append(artifacts, ArtifactInfo{
			Name:      strings.TrimPrefix(attrs.Name, prefix),
			Size:      attrs.Size,
			CreatedAt: attrs.Created,
			Path:      fmt.Sprintf("gs://%s/%s", s.config.Bucket, attrs.Name),
		})
	}

	return artifacts, nil
}

// Close closes the GCS client.
func (s *GCSArtifactStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ContentType picks the object content type from a file extension.
func ContentType(file string) string {
	switch filepath.Ext(file) {
	case ".rs":
		return "text/x-rust; charset=utf-8"
	case ".go":
		return "text/x-go; charset=utf-8"
	case ".fc1":
		return "text/plain; charset=utf-8"
	case ".wasm":
		return "application/wasm"
	default:
		return "application/octet-stream"
	}
}

var _ ports.ArtifactStore = (*GCSArtifactStore)(nil)

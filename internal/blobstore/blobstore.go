package blobstore

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"

	"github.com/DemioMAD/demiochatplus/internal/boot"
	"github.com/DemioMAD/demiochatplus/internal/model"
)

type blobstore struct {
	dir     string
	baseURL string
	secret  []byte
}

func New(config *boot.Config) (*blobstore, error) {
	if err := os.MkdirAll(config.BlobDirectory(), 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}

	secret := []byte(config.Blob.LinkSecret)
	if len(secret) == 0 {
		// No configured secret: links only survive this process.
		secret = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, secret); err != nil {
			return nil, fmt.Errorf("generating link secret: %w", err)
		}
	}

	return &blobstore{
		dir:     config.BlobDirectory(),
		baseURL: config.BaseURL,
		secret:  secret,
	}, nil
}

// UploadPath builds the storage path for a fresh upload: a generated id
// segment plus the original filename, so the link's last path segment is
// the filename itself.
func UploadPath(filename string) string {
	return "files/" + model.CreateID() + "/" + path.Base(filename)
}

func (s *blobstore) Upload(blobPath string, data io.Reader) error {
	cleaned, err := s.cleanPath(blobPath)
	if err != nil {
		return err
	}

	target := path.Join(s.dir, cleaned)
	if err := os.MkdirAll(path.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("writing blob file: %w", err)
	}
	return nil
}

// SignedLink returns a retrieval URL valid for ttl. The signature covers
// the blob path and the expiry timestamp.
func (s *blobstore) SignedLink(blobPath string, ttl time.Duration) (string, error) {
	cleaned, err := s.cleanPath(blobPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path.Join(s.dir, cleaned)); err != nil {
		return "", fmt.Errorf("checking blob exists: %w", err)
	}

	expires := time.Now().UTC().Add(ttl).Unix()

	segments := strings.Split(cleaned, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	query := url.Values{}
	query.Set("exp", strconv.FormatInt(expires, 10))
	query.Set("sig", s.signature(cleaned, expires))

	return s.baseURL + "/files/download/" + strings.Join(segments, "/") + "?" + query.Encode(), nil
}

// Verify checks a presented path/expiry/signature triple and returns the
// blob's reader when the link is still good.
func (s *blobstore) Verify(blobPath string, expires int64, signature string) (io.ReadCloser, error) {
	cleaned, err := s.cleanPath(blobPath)
	if err != nil {
		return nil, err
	}

	expected := s.signature(cleaned, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, model.ErrorInvalidLink
	}
	if time.Now().UTC().Unix() > expires {
		return nil, model.ErrorLinkExpired
	}

	f, err := os.Open(path.Join(s.dir, cleaned))
	if err != nil {
		return nil, fmt.Errorf("opening blob: %w", err)
	}
	return f, nil
}

func (s *blobstore) signature(blobPath string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(blobPath))
	mac.Write([]byte("."))
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return base58.Encode(mac.Sum(nil))
}

func (s *blobstore) cleanPath(blobPath string) (string, error) {
	cleaned := path.Clean(blobPath)
	if cleaned == "" || strings.HasPrefix(cleaned, "/") || strings.HasPrefix(cleaned, "..") {
		return "", model.ErrorInvalidLink
	}
	return cleaned, nil
}

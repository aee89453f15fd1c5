package media

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/internal/infrastructure"
	"github.com/shahadul878/planet-2.0/internal/usecase"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/jitter"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

const (
	maxConcurrentCopies = 4
	maxImageBytes       = 20 << 20
)

// MediaInfrastructure copies remote catalog images into local object storage.
// Object keys derive from the source URL, so re-running a sync re-uses the
// already stored copies instead of downloading again.
type MediaInfrastructure struct {
	imageRepo   usecase.ImageRepository
	httpClient  *http.Client
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
}

func NewMediaInfrastructure(imageRepo usecase.ImageRepository, logger logger.Logger, shutdownCtx context.Context) *MediaInfrastructure {
	return &MediaInfrastructure{
		imageRepo:   imageRepo,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		shutdownCtx: shutdownCtx,
	}
}

// CopyImages mirrors the given remote URLs into object storage with bounded
// concurrency. The result maps each successfully copied source URL to its
// local public URL; failed URLs are logged and left out so callers keep the
// original reference.
func (m *MediaInfrastructure) CopyImages(ctx context.Context, req *usecase.CopyImagesReq) (*usecase.CopyImagesRes, error) {
	const op = "MediaInfrastructure.CopyImages"

	type copied struct {
		source string
		url    string
	}

	resultCh := make(chan copied, len(req.URLs))
	sem := make(chan struct{}, maxConcurrentCopies)

	var copyWg sync.WaitGroup
	for _, sourceURL := range req.URLs {
		copyWg.Add(1)
		go func() {
			defer copyWg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			localURL, err := m.copyOne(ctx, req.ProductCode, sourceURL)
			if err != nil {
				m.logger.Warnf("%s: image copy failed, keeping remote URL. url: %s, error: %v", op, sourceURL, err)
				return
			}

			resultCh <- copied{source: sourceURL, url: localURL}
		}()
	}

	copyWg.Wait()
	close(resultCh)

	urlBySource := make(map[string]string, len(req.URLs))
	for c := range resultCh {
		urlBySource[c.source] = c.url
	}

	return usecase.NewCopyImagesRes(urlBySource), nil
}

// copyOne downloads one image and stores it. Already stored objects are
// reused without a download. The object key has no extension because the
// content type is only known after the download; it travels as metadata.
func (m *MediaInfrastructure) copyOne(ctx context.Context, productCode, sourceURL string) (string, error) {
	objectKey := m.objectKey(productCode, sourceURL)
	exists, err := m.imageRepo.Exists(ctx, objectKey)
	if err == nil && exists {
		return m.imageRepo.PublicURL(objectKey), nil
	}

	data, mimeType, err := m.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	if _, err := infrastructure.GetExtensionFromMIME(mimeType); err != nil {
		return "", fmt.Errorf("unsupported type %s for %s: %w", mimeType, sourceURL, err)
	}

	image := domain.NewImage(m.urlHash(sourceURL), "", objectKey, sourceURL, data, &mimeType)

	storedKey, err := m.imageRepo.Upload(ctx, image)
	if err != nil {
		return "", err
	}

	return m.imageRepo.PublicURL(storedKey), nil
}

func (m *MediaInfrastructure) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: %d from %s", e.ErrRemoteBadStatus, resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (m *MediaInfrastructure) objectKey(productCode, sourceURL string) string {
	if productCode == "" {
		return m.urlHash(sourceURL)
	}
	return fmt.Sprintf("%s/%s", productCode, m.urlHash(sourceURL))
}

func (m *MediaInfrastructure) urlHash(sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])
}

// CleanupImages removes the stored objects behind the given image URLs in
// the background. URLs not served from local storage are ignored, so
// callers can pass a product's image fields as-is.
func (m *MediaInfrastructure) CleanupImages(urls []string) {
	prefix := m.imageRepo.PublicURL("")
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || !strings.HasPrefix(u, prefix) {
			continue
		}
		keys = append(keys, strings.TrimPrefix(u, prefix))
	}
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupKeys(keys)
}

// cleanupKeys deletes objects with exponential backoff and jitter.
func (m *MediaInfrastructure) cleanupKeys(keys []string) {
	defer m.wg.Done()
	const op = "MediaInfrastructure.cleanupKeys"
	m.logger.Infof("%s: cleaning up stored keys", op)

	ctx, cancel := context.WithTimeout(m.shutdownCtx, 30*time.Second)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < 3; attempt++ {
			if err := m.imageRepo.Delete(ctx, key); err == nil {
				break
			}

			select {
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			default:
			}

			if attempt < 2 {
				sleepTime := jitter.ExponentialBackoff(time.Second, 10*time.Second, attempt, jitter.DefaultJitter)
				select {
				case <-time.After(sleepTime):
				case <-ctx.Done():
					m.logger.Warnf("cleanup interrupted by shutdown during backoff, key=%v", key)
					return
				}
			}
		}
	}
}

// WaitForCleanup blocks until background cleanups finish or the shutdown
// timeout expires.
func (m *MediaInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("media cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

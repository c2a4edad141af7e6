package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlaskin/docvision/constants"
	"github.com/mlaskin/docvision/internal/common"
)

// Resource is a fetched document: raw bytes plus the media type they were
// labeled with. Resources are request-scoped; nothing caches or shares
// them across calls.
type Resource struct {
	Bytes     []byte
	MediaType string
}

// Fetcher resolves input identifiers (local paths or URLs) into Resources.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A nil client falls back to
// http.DefaultClient; deadlines are expected to arrive through the
// caller's context or the injected client.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch resolves an identifier into a Resource. An existing local file
// wins; otherwise the identifier must be an absolute http(s) URL. The two
// paths label media types differently and on purpose: local files are
// labeled from their extension without looking at the content, remote
// responses from the Content-Type header without looking at the URL.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) (*Resource, error) {
	if st, err := os.Stat(identifier); err == nil && !st.IsDir() {
		return f.fetchLocal(identifier)
	}

	u, err := url.Parse(identifier)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, common.ResourceError(
			fmt.Sprintf("identifier %q is neither an existing file nor an http(s) url", identifier), err)
	}
	return f.fetchRemote(ctx, identifier)
}

func (f *Fetcher) fetchLocal(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ResourceError(fmt.Sprintf("read file %s", path), err)
	}
	mediaType := constants.MediaTypeForExt(filepath.Ext(path))
	f.logger.Debug("fetch.local", "path", path, "bytes", len(data), "media_type", mediaType)
	return &Resource{Bytes: data, MediaType: mediaType}, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, rawURL string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, common.ResourceError(fmt.Sprintf("build request for %s", rawURL), err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, common.ResourceError(fmt.Sprintf("get %s", rawURL), err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("fetch.remote.body_close_error", "url", rawURL, "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.ResourceError(fmt.Sprintf("get %s: status %d", rawURL, resp.StatusCode), nil)
	}

	// Full buffering; documents are small enough that streaming buys nothing.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.ResourceError(fmt.Sprintf("read body of %s", rawURL), err)
	}

	mediaType := mediaTypeFromHeader(resp.Header.Get("Content-Type"))
	f.logger.Debug("fetch.remote", "url", rawURL, "bytes", len(data), "media_type", mediaType)
	return &Resource{Bytes: data, MediaType: mediaType}, nil
}

// mediaTypeFromHeader strips any ";"-delimited parameter suffix (such as
// "; charset=utf-8") from a Content-Type value and falls back to JPEG when
// the header is absent.
func mediaTypeFromHeader(header string) string {
	mediaType, _, _ := strings.Cut(header, ";")
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return constants.MediaTypeJPEG
	}
	return mediaType
}

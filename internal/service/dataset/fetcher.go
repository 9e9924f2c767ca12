package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL      = "https://api.data.gov.in/resource/"
	DefaultOutputFolder = "datasets"
	DefaultDirPerm      = 0o755
	DefaultFilePerm     = 0o644

	credentialParam = "api-key"
	formatParam     = "format"
	formatCSV       = "csv"
	sniffLen        = 512
)

// Request describes one download. The credential travels with the call so
// concurrent requests never observe each other's keys.
type Request struct {
	Credential   string
	ResourceID   string
	OutputFolder string
	Filters      map[string]string
	// RequestID is attached to log lines when set.
	RequestID string
}

// Result describes a file written to disk.
type Result struct {
	ResourceID   string
	OutputFolder string
	FilePath     string
	SizeBytes    int64
	ContentType  string
}

type Options struct {
	BaseURL             string
	HTTPClient          *http.Client
	DefaultCredential   string
	DefaultOutputFolder string
	// TrustBody writes whatever the server returns. When false, HTML bodies are rejected.
	TrustBody bool
	Logger    zerolog.Logger
}

// Fetcher downloads CSV resources from the dataset API.
type Fetcher struct {
	baseURL       string
	client        *http.Client
	credential    string
	defaultFolder string
	trustBody     bool
	log           zerolog.Logger
}

// NewFetcher constructs a Fetcher instance.
func NewFetcher(opts Options) *Fetcher {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	folder := opts.DefaultOutputFolder
	if folder == "" {
		folder = DefaultOutputFolder
	}
	return &Fetcher{
		baseURL:       base,
		client:        client,
		credential:    opts.DefaultCredential,
		defaultFolder: folder,
		trustBody:     opts.TrustBody,
		log:           opts.Logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch downloads req.ResourceID as CSV into <OutputFolder>/<ResourceID>.csv,
// replacing any previous file of that name.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	log := f.log
	if req.RequestID != "" {
		log = log.With().Str("request_id", req.RequestID).Logger()
	}
	if err := ValidateResourceID(req.ResourceID); err != nil {
		log.Warn().Str("resource_id", req.ResourceID).Err(err).Msg("Rejected download request")
		return nil, err
	}
	id := req.ResourceID
	folder := req.OutputFolder
	if folder == "" {
		folder = f.defaultFolder
	}
	credential := req.Credential
	if credential == "" {
		credential = f.credential
	}

	if err := os.MkdirAll(folder, DefaultDirPerm); err != nil {
		err = fmt.Errorf("create output folder %s: %w", folder, err)
		log.Error().Str("resource_id", id).Err(err).Msgf("Error preparing download for API endpoint: %s", id)
		return nil, err
	}

	httpReq, err := f.newRequest(ctx, id, credential, req.Filters)
	if err != nil {
		return nil, requestFailed(log, &RequestError{ResourceID: id, Err: err})
	}
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, requestFailed(log, &RequestError{ResourceID: id, Err: redactURLError(err)})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, requestFailed(log, &RequestError{ResourceID: id, StatusCode: resp.StatusCode, Status: resp.Status})
	}

	contentType := resp.Header.Get("Content-Type")
	body := bufio.NewReaderSize(resp.Body, sniffLen)
	if !f.trustBody {
		head, _ := body.Peek(sniffLen)
		if isHTML(contentType, head) {
			err := fmt.Errorf("%w: resource %s returned %q", ErrUntrustedBody, id, contentType)
			log.Error().Str("resource_id", id).Err(err).Msgf("Rejected response for API endpoint: %s", id)
			return nil, err
		}
	}

	dest := FilePath(folder, id)
	size, err := writeAtomic(dest, body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil || isReadErr(err) {
			return nil, requestFailed(log, &RequestError{ResourceID: id, Err: err})
		}
		log.Error().Str("resource_id", id).Err(err).Msgf("Error writing dataset for API endpoint: %s", id)
		return nil, err
	}

	log.Info().
		Str("resource_id", id).
		Str("file_path", dest).
		Int64("size_bytes", size).
		Msgf("Download successful for API endpoint: %s", id)

	return &Result{
		ResourceID:   id,
		OutputFolder: folder,
		FilePath:     dest,
		SizeBytes:    size,
		ContentType:  contentType,
	}, nil
}

// FilePath is where Fetch stores resourceID inside folder.
func FilePath(folder, resourceID string) string {
	return filepath.Join(folder, resourceID+"."+formatCSV)
}

// ValidateResourceID accepts non-empty identifiers that name a single path segment.
func ValidateResourceID(id string) error {
	trimmed := strings.TrimSpace(id)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: empty", ErrInvalidResourceID)
	case trimmed == "." || trimmed == "..":
		return fmt.Errorf("%w: %q", ErrInvalidResourceID, id)
	case strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidResourceID, id)
	}
	return nil
}

func (f *Fetcher) newRequest(ctx context.Context, id, credential string, filters map[string]string) (*http.Request, error) {
	u, err := url.Parse(f.baseURL + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	q := u.Query()
	if credential != "" {
		q.Set(credentialParam, credential)
	}
	q.Set(formatParam, formatCSV)
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(fmt.Sprintf("filters[%s]", k), filters[k])
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if credential != "" {
		httpReq.Header.Set(credentialParam, credential)
	}
	return httpReq, nil
}

func requestFailed(log zerolog.Logger, err *RequestError) error {
	log.Error().
		Str("resource_id", err.ResourceID).
		Int("status", err.StatusCode).
		Msgf("Error in API request: %v", err)
	return err
}

type readError struct{ err error }

func (e *readError) Error() string { return "read response body: " + e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

func isReadErr(err error) bool {
	var re *readError
	return errors.As(err, &re)
}

// writeAtomic streams r into a temp file next to dest and renames it into place.
func writeAtomic(dest string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	size, err := io.Copy(tmp, readerFunc(func(p []byte) (int, error) {
		n, err := r.Read(p)
		if err != nil && !errors.Is(err, io.EOF) {
			return n, &readError{err: err}
		}
		return n, err
	}))
	if err != nil {
		cleanup()
		var re *readError
		if errors.As(err, &re) {
			return 0, re
		}
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Chmod(DefaultFilePerm); err != nil {
		cleanup()
		return 0, fmt.Errorf("chmod %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("close %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("rename into %s: %w", dest, err)
	}
	return size, nil
}

type readerFunc func(p []byte) (int, error)

func (fn readerFunc) Read(p []byte) (int, error) { return fn(p) }

func isHTML(contentType string, head []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		return true
	}
	return strings.HasPrefix(http.DetectContentType(head), "text/html")
}

// redactURLError strips the query string, which carries the credential, from transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		u.RawQuery = ""
		return &url.Error{Op: urlErr.Op, URL: u.String(), Err: urlErr.Err}
	}
	return urlErr.Err
}

// Package registry reads provider office snapshots from the Provider Data API
// or from a JSON file with the same shape.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
	"github.com/jacksonlee411/provider-portal/pkg/logging"
)

const (
	SnapshotPath = "/api/v1/provider-offices/snapshot"
	APIKeyHeader = "x-authorization"

	maxSnapshotBytes = 256 << 20
)

var ErrMalformedSnapshot = errors.New("malformed registry snapshot")

type document struct {
	Offices json.RawMessage `json:"offices"`
}

// decode extracts the row array from a snapshot document.
func decode(r io.Reader) ([]snapshot.Row, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	raw := strings.TrimSpace(string(doc.Offices))
	if raw == "" || raw == "null" {
		return nil, fmt.Errorf("%w: missing offices array", ErrMalformedSnapshot)
	}
	if !strings.HasPrefix(raw, "[") {
		return nil, fmt.Errorf("%w: offices is not an array", ErrMalformedSnapshot)
	}
	var rows []snapshot.Row
	if err := json.Unmarshal(doc.Offices, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return rows, nil
}

type HTTPOptions struct {
	BaseURL        string
	APIKey         string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Logger         *logrus.Entry
}

// HTTPSource fetches the full office snapshot in one GET. It does not retry.
type HTTPSource struct {
	url    string
	apiKey string
	client *http.Client
	log    *logrus.Entry
}

func NewHTTPSource(opts HTTPOptions) *HTTPSource {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = opts.ConnectTimeout
	transport.ResponseHeaderTimeout = opts.ReadTimeout
	return &HTTPSource{
		url:    strings.TrimRight(opts.BaseURL, "/") + SnapshotPath,
		apiKey: opts.APIKey,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.ConnectTimeout + opts.ReadTimeout,
		},
		log: opts.Logger.WithField("component", "registry"),
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]snapshot.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build snapshot request")
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set(APIKeyHeader, s.apiKey)
	}

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request registry snapshot")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("registry responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	rows, err := decode(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"rows":     len(rows),
		"duration": time.Since(started),
	}).Debug("registry snapshot downloaded")
	return rows, nil
}

// FileSource reads a snapshot document from disk, for offline runs.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]snapshot.Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open snapshot file %s", s.path)
	}
	defer f.Close()
	return decode(f)
}

package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/provider-portal/pkg/configuration"
)

const sample = `{
  "offices": [
    {"officeAccountNo": "0A001", "firmNumber": 1001, "firmName": "Acme Legal", "firmType": "Legal Services Provider",
     "parentFirmNumber": null, "officeAddressLine1": "1 High St", "officeAddressCity": "Leeds", "officeAddressPostcode": "LS1 1AA"},
    {"officeAccountNo": "0A002", "firmNumber": "1002", "firmName": "Bravo", "firmType": "Chambers",
     "parentFirmNumber": "1001", "officeAddressLine1": "2 High St", "officeAddressCity": "York", "officeAddressPostcode": "YO1 1AA"}
  ]
}`

func TestHTTPSource_Fetch(t *testing.T) {
	var gotKey, gotPath, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(APIKeyHeader)
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPOptions{BaseURL: srv.URL + "/", APIKey: "secret"})
	rows, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, "secret", gotKey)
	require.Equal(t, "application/json", gotAccept)
	require.Equal(t, SnapshotPath, gotPath)
	require.Len(t, rows, 2)
	require.Equal(t, "1001", rows[0].FirmNumber.String())
	require.Empty(t, rows[0].ParentFirmNumber.String())
	require.Equal(t, "1001", rows[1].ParentFirmNumber.String())
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(HTTPOptions{BaseURL: srv.URL}).Fetch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "registry responded 503")
}

func TestHTTPSource_MalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":       `<html>`,
		"missing member": `{"data": []}`,
		"null member":    `{"offices": null}`,
		"object member":  `{"offices": {"0A001": {}}}`,
		"bad row":        `{"offices": [{"firmNumber": {"nested": true}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewHTTPSource(HTTPOptions{BaseURL: srv.URL}).Fetch(context.Background())
			require.ErrorIs(t, err, ErrMalformedSnapshot)
		})
	}
}

func TestHTTPSource_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	src := NewHTTPSource(HTTPOptions{BaseURL: srv.URL, ConnectTimeout: 20 * time.Millisecond, ReadTimeout: 20 * time.Millisecond})
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
}

func TestFileSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	rows, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	require.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	_, ok := FromConfig(configuration.RegistryOptions{UseLocalFile: true, LocalFilePath: "x.json"}, nil).(*FileSource)
	require.True(t, ok)

	_, ok = FromConfig(configuration.RegistryOptions{BaseURL: "http://pda.local"}, nil).(*HTTPSource)
	require.True(t, ok)

	_, err := FromConfig(configuration.RegistryOptions{}, nil).Fetch(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}

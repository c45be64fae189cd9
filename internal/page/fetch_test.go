package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		wantError  bool
		wantRows   int
	}{
		{
			name:       "successful fetch",
			body:       sample,
			statusCode: http.StatusOK,
			wantRows:   2,
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusNotFound,
			wantError:  true,
		},
		{
			name:       "empty page",
			body:       "<html><body><p>Архив пуст</p></body></html>",
			statusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "zabava-archive"))
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body)) // nolint:errcheck
			}))
			defer server.Close()

			doc, err := Fetch(context.Background(), server.URL)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			rows, err := doc.QueryAll(context.Background(), "tr")
			require.NoError(t, err)
			assert.Len(t, rows, tt.wantRows)
		})
	}
}

func TestFetch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, "http://127.0.0.1:1/")
	assert.Error(t, err)
}

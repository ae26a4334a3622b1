package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultPage = `
<html><body>
<div class="result">
  <h2><a class="result__a" href="https://old.example.com/admin/">Admin Panel</a></h2>
  <a class="result__snippet" href="#">Administrative  interface for legacy systems</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://old.example.com/docs.pdf">Quarterly report</a></h2>
</div>
<div class="result">
  <h2><a class="result__a">No link here</a></h2>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	hits, err := ParseResults(strings.NewReader(resultPage))
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "Admin Panel", hits[0].Title)
	assert.Equal(t, "https://old.example.com/admin/", hits[0].URL)
	assert.Contains(t, hits[0].Snippet, "Administrative")

	assert.Equal(t, "https://old.example.com/docs.pdf", hits[1].URL)
	assert.Empty(t, hits[1].Snippet)
}

func TestParseResults_EmptyPage(t *testing.T) {
	hits, err := ParseResults(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_QueryEncodedAndParsed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(resultPage))
	}))
	defer srv.Close()

	client := NewClient(0, WithBaseURL(srv.URL+"/"))
	hits, err := client.Search(context.Background(), "site:old.example.com inurl:admin")
	require.NoError(t, err)

	assert.Equal(t, "site:old.example.com inurl:admin", gotQuery)
	assert.Len(t, hits, 2)
}

func TestSearch_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(0, WithBaseURL(srv.URL+"/"))
	_, err := client.Search(context.Background(), "site:old.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestSearch_LimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultPage))
	}))
	defer srv.Close()

	// One query per hour; the second call must block and then fail with the
	// context, never reach the server.
	client := NewClient(time.Hour, WithBaseURL(srv.URL+"/"))

	_, err := client.Search(context.Background(), "site:a.example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Search(ctx, "site:b.example.com")
	assert.Error(t, err)
}

func TestDorkQueries(t *testing.T) {
	queries := DorkQueries("old.example.com")
	require.Len(t, queries, 10)
	assert.Equal(t, "site:old.example.com", queries[0])
	assert.Contains(t, queries, "site:old.example.com intitle:index.of")
	for _, q := range queries {
		assert.Contains(t, q, "site:old.example.com")
	}
}

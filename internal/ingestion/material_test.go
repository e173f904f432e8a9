package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html>
<head><title>Test</title><style>body { color: red; }</style></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Battery Storage</h1>
<p>Grid-scale batteries doubled in capacity last year.</p>
</article>
<footer>Copyright</footer>
</body>
</html>`

func TestExtractMainText_PrefersArticle(t *testing.T) {
	text, err := ExtractMainText(articleHTML)
	require.NoError(t, err)

	assert.Contains(t, text, "Battery Storage")
	assert.Contains(t, text, "Grid-scale batteries doubled in capacity last year.")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "color: red")
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	text, err := ExtractMainText(`<html><body><p>Plain page content.</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Plain page content.", text)
}

func TestExtractMainText_NoContent(t *testing.T) {
	_, err := ExtractMainText(`<html><body><script>var x;</script></body></html>`)
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("  some research notes\n"), 0644))

	m, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Source)
	assert.Equal(t, "some research notes", m.Text)
}

func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile("/no/such/file.txt")
	require.Error(t, err)

	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	m, err := FromURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, m.Source)
	assert.Contains(t, m.Text, "Battery Storage")
}

func TestFromURL_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := FromURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP status 404")
}

func TestFromURL_InvalidURL(t *testing.T) {
	_, err := FromURL(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestFromURLs_PreservesOrderAndReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`<html><body><p>Page ` + r.URL.Path + `</p></body></html>`))
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/bad", srv.URL + "/b"}
	materials, err := FromURLs(context.Background(), urls)

	// The failure is reported, but successful fetches are kept in order.
	require.Error(t, err)
	require.Len(t, materials, 2)
	assert.Contains(t, materials[0].Text, "/a")
	assert.Contains(t, materials[1].Text, "/b")
}

func TestCombine(t *testing.T) {
	combined := Combine([]*Material{
		{Source: "a.txt", Text: "first"},
		nil,
		{Source: "b.txt", Text: ""},
		{Source: "https://example.com", Text: "second"},
	})

	assert.Equal(t, "Source: a.txt\nfirst\n\nSource: https://example.com\nsecond", combined)
}

func TestCombine_Empty(t *testing.T) {
	assert.Equal(t, "", Combine(nil))
}

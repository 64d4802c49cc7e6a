package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tendermatch/pkg/config"
)

const portalHTML = `
<html>
<body>
<table class="list_table">
	<tr>
		<td>Road Resurfacing Works</td>
		<td>Resurfacing of state highway stretch between km 10 and km 25</td>
		<td>Rs. 2.5 Crores</td>
		<td>15/10/2026</td>
		<td><a href="/tender/101">View</a></td>
	</tr>
	<tr>
		<td>School Furniture Supply</td>
		<td>Supply of desks and benches to government schools</td>
		<td>₹ 18 Lakhs</td>
		<td>01-11-2026</td>
		<td><a href="/tender/102">View</a></td>
	</tr>
	<tr>
		<td></td>
		<td></td>
	</tr>
</table>
</body>
</html>
`

func newPortalServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(portalHTML))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestScrapeSource(t *testing.T) {
	server := newPortalServer(t)

	src := config.Source{
		Name:     "Test Portal",
		URL:      server.URL,
		Selector: "table.list_table tr",
		Limit:    20,
	}

	s, err := NewWithConfig(ScraperConfig{
		Sources:   []config.Source{src},
		RateLimit: 100,
	})
	require.NoError(t, err)

	tenders, err := s.ScrapeSource(context.Background(), src)
	require.NoError(t, err)
	// Row with no title or description is skipped
	require.Len(t, tenders, 2)

	first := tenders[0]
	assert.Equal(t, "Road Resurfacing Works", first.Title)
	assert.Contains(t, first.Description, "state highway")
	assert.Equal(t, "Test Portal", first.Source)
	assert.Contains(t, first.ID, "test-portal-")
	require.NotNil(t, first.Amount)
	assert.Equal(t, 25_000_000.0, *first.Amount)
	require.NotNil(t, first.Deadline)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), *first.Deadline)
	assert.Equal(t, server.URL+"/tender/101", first.URL)
	assert.NotEmpty(t, first.RawText)

	second := tenders[1]
	require.NotNil(t, second.Amount)
	assert.Equal(t, 1_800_000.0, *second.Amount)
	require.NotNil(t, second.Deadline)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), *second.Deadline)
}

func TestScrapeSourceLimit(t *testing.T) {
	server := newPortalServer(t)

	src := config.Source{
		Name:     "Test Portal",
		URL:      server.URL,
		Selector: "table.list_table tr",
		Limit:    1,
	}

	s, err := NewWithConfig(ScraperConfig{RateLimit: 100})
	require.NoError(t, err)

	tenders, err := s.ScrapeSource(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, tenders, 1)
}

func TestScrapeAllSkipsFailingSource(t *testing.T) {
	server := newPortalServer(t)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	var progress []string
	s, err := NewWithConfig(ScraperConfig{
		Sources: []config.Source{
			{Name: "Good Portal", URL: server.URL, Selector: "table.list_table tr", Limit: 20},
			{Name: "Broken Portal", URL: broken.URL, Selector: "div.item", Limit: 20},
		},
		RateLimit: 100,
		OnProgress: func(source string, count int) {
			progress = append(progress, source)
		},
	})
	require.NoError(t, err)

	tenders, err := s.ScrapeAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenders, 2)
	for _, tender := range tenders {
		assert.Equal(t, "Good Portal", tender.Source)
	}
	assert.Equal(t, []string{"Good Portal"}, progress)
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<html>
				<head><title>Acme Infra</title></head>
				<body>
					<nav>Home | About</nav>
					<main>
						<h1>Acme Infrastructure Ltd</h1>
						<p>We provide civil construction and road building services.</p>
					</main>
				</body>
			</html>
		`))
	}))
	defer server.Close()

	s, err := NewWithConfig(ScraperConfig{RateLimit: 100})
	require.NoError(t, err)

	content, err := s.FetchProfile(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, content, "Acme Infrastructure Ltd")
	assert.Contains(t, content, "civil construction")
	assert.NotContains(t, content, "Home |")
}

func TestFetchProfileBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s, err := NewWithConfig(ScraperConfig{RateLimit: 100})
	require.NoError(t, err)

	_, err = s.FetchProfile(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

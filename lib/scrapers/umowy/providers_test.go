package umowy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func providerListing(codes ...string) string {
	page := `<table><tr><th>Kod</th><th>Nazwa świadczeniodawcy</th><th>Miasto</th></tr>`
	for _, code := range codes {
		page += fmt.Sprintf(
			`<tr><td>%s</td><td>Szpital %s</td><td>Lublin</td></tr>`,
			code, code,
		)
	}
	return page + `</table>`
}

func searchServer(t *testing.T, pages map[int]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/umowy/Provider/SearchResults" {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Write([]byte(pages[page]))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSearchProvidersWalksUntilEmptyPage(t *testing.T) {
	pages := map[int]string{
		1: providerListing("P1", "P2"),
		2: providerListing("P3"),
		// page 3 empty: the walk ends here even though later pages have rows
	}
	for page := 4; page <= maxSearchPages; page++ {
		pages[page] = providerListing(fmt.Sprintf("GHOST%d", page))
	}
	server := searchServer(t, pages)

	client := newTestClient(t, server.URL, false)
	providers, err := client.SearchProviders(context.Background(), Query{Year: 2024, Branch: "06", Service: "03"}, SearchOptions{Workers: 5})
	require.NoError(t, err)

	require.Equal(t, []Provider{
		{Code: "P1", Name: "Szpital P1", City: "Lublin"},
		{Code: "P2", Name: "Szpital P2", City: "Lublin"},
		{Code: "P3", Name: "Szpital P3", City: "Lublin"},
	}, providers)
}

func TestSearchProvidersEmptyFirstPage(t *testing.T) {
	server := searchServer(t, map[int]string{1: `<p>Brak wyników</p>`})

	client := newTestClient(t, server.URL, false)
	providers, err := client.SearchProviders(context.Background(), Query{Year: 2024}, SearchOptions{})
	require.NoError(t, err)
	require.Empty(t, providers)
}

func TestSearchProvidersFailingPageEndsWalk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page >= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(providerListing("P1")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	providers, err := client.SearchProviders(context.Background(), Query{Year: 2024}, SearchOptions{Workers: 3})
	require.NoError(t, err)
	require.Len(t, providers, 1)
	require.Equal(t, "P1", providers[0].Code)
}

// a listing without the expected header names falls back to the first
// three columns in positional order.
func TestSearchProvidersPositionalFallback(t *testing.T) {
	listing := `<table>
		<tr><th>Id</th><th>Placówka</th><th>Lokalizacja</th><th>Uwagi</th></tr>
		<tr><td>X1</td><td>Przychodnia</td><td>Zamość</td><td>-</td></tr>
	</table>`
	server := searchServer(t, map[int]string{1: listing})

	client := newTestClient(t, server.URL, false)
	providers, err := client.SearchProviders(context.Background(), Query{Year: 2024}, SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, []Provider{{Code: "X1", Name: "Przychodnia", City: "Zamość"}}, providers)
}

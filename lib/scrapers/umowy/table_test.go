package umowy

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

var testBase, _ = url.Parse("https://portal.example.com")

func TestExtractTableEmptyInput(t *testing.T) {
	testCases := []struct {
		name string
		body []byte
	}{
		{"nil body", nil},
		{"empty body", []byte{}},
		{"no table", []byte(`<html><body><p>nothing here</p></body></html>`)},
		{"malformed html", []byte(`<table><tr><td`)},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			table := ExtractTable(testBase, test.body)
			require.True(t, table.Empty())
			require.Empty(t, table.Headers)
		})
	}
}

func TestExtractTableFirstTableOnly(t *testing.T) {
	body := []byte(`<html><body>
		<table>
			<tr><th>Kod</th></tr>
			<tr><td>first</td></tr>
		</table>
		<table>
			<tr><th>Other</th></tr>
			<tr><td>second</td></tr>
		</table>
	</body></html>`)

	table := ExtractTable(testBase, body)
	require.Equal(t, []string{"Kod"}, table.Headers)
	require.Len(t, table.Rows, 1)
	require.Equal(t, "first", table.Rows[0].At(0))
}

func TestExtractTableNamedRows(t *testing.T) {
	body := []byte(`<table>
		<tr><th>Kod</th><th>Miasto</th></tr>
		<tr><td>06R/1</td><td>Lublin</td></tr>
	</table>`)

	table := ExtractTable(testBase, body)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	require.True(t, row.Named())
	code, ok := row.Get("Kod")
	require.True(t, ok)
	require.Equal(t, "06R/1", code)
	city, ok := row.Get("Miasto")
	require.True(t, ok)
	require.Equal(t, "Lublin", city)
}

// a header/cell count mismatch must not silently bind names to the wrong
// cells: named access fails and only positional access works.
func TestExtractTableHeaderMismatchFallsBackPositional(t *testing.T) {
	body := []byte(`<table>
		<tr><th>A</th><th>B</th></tr>
		<tr><td>one</td><td>two</td><td>three</td></tr>
	</table>`)

	table := ExtractTable(testBase, body)
	require.Equal(t, []string{"A", "B"}, table.Headers)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	require.False(t, row.Named())
	_, ok := row.Get("A")
	require.False(t, ok)
	require.Equal(t, "one", row.At(0))
	require.Equal(t, "two", row.At(1))
	require.Equal(t, "three", row.At(2))
	require.Equal(t, 3, row.Len())
}

func TestExtractTableSkipsRowsWithoutCells(t *testing.T) {
	body := []byte(`<table>
		<tr><th>Kod</th></tr>
		<tr></tr>
		<tr><td>abc</td></tr>
	</table>`)

	table := ExtractTable(testBase, body)
	require.Len(t, table.Rows, 1)
}

func TestExtractTableRowLink(t *testing.T) {
	body := []byte(`<table>
		<tr><th>Kod</th><th>Szczegóły</th></tr>
		<tr><td><a href="/x/y">details</a></td><td><a href="/wrong">ignored</a></td></tr>
		<tr><td>no anchor</td><td><a href="/also-ignored">x</a></td></tr>
	</table>`)

	table := ExtractTable(testBase, body)
	require.Len(t, table.Rows, 2)

	require.NotNil(t, table.Rows[0].Link)
	require.Equal(t, "https://portal.example.com/x/y", table.Rows[0].Link.String())

	// the primary link comes from the first cell only
	require.Nil(t, table.Rows[1].Link)
}

func TestExtractTableNormalizesCellWhitespace(t *testing.T) {
	body := []byte("<table><tr><td>Szpital\r\nWojewódzki   nr 2</td></tr></table>")

	table := ExtractTable(testBase, body)
	require.Len(t, table.Rows, 1)
	require.Equal(t, "Szpital Wojewódzki nr 2", table.Rows[0].At(0))
}

func TestRowFieldsPositionalKeys(t *testing.T) {
	body := []byte(`<table>
		<tr><th>A</th></tr>
		<tr><td>one</td><td>two</td></tr>
	</table>`)

	table := ExtractTable(testBase, body)
	require.Len(t, table.Rows, 1)
	require.Equal(t, map[string]string{"0": "one", "1": "two"}, table.Rows[0].Fields())
}

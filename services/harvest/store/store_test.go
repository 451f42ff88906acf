package store

import (
	"context"
	"path/filepath"
	"testing"

	"nfzharvest/lib/scrapers/umowy"

	"github.com/stretchr/testify/require"
)

func testRecord(providerCode, month string) umowy.Record {
	return umowy.Record{
		umowy.ColYear:          "2024",
		umowy.ColProviderCode:  providerCode,
		umowy.ColProviderName:  "Szpital",
		umowy.ColCity:          "Lublin",
		umowy.ColAgreementCode: "123/A",
		umowy.ColProductCode:   "05.1234.567.89",
		"Miesiąc":              month,
		"Wartość":              "1000,00",
	}
}

func TestReplaceSwapsRelation(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	err = st.Replace(ctx, []umowy.Record{
		testRecord("06/1", "1"),
		testRecord("06/1", "2"),
	})
	require.NoError(t, err)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// a second Replace fully supersedes the first
	err = st.Replace(ctx, []umowy.Record{testRecord("06/2", "1")})
	require.NoError(t, err)

	n, err = st.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestReplaceKeepsMonthFieldsAsJSON(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	require.NoError(t, st.Replace(ctx, []umowy.Record{testRecord("06/1", "7")}))

	var providerCode, fields string
	err = st.db.QueryRowContext(ctx,
		`SELECT provider_code, month_fields FROM harvest_records`,
	).Scan(&providerCode, &fields)
	require.NoError(t, err)
	require.Equal(t, "06/1", providerCode)
	require.JSONEq(t, `{"Miesiąc": "7", "Wartość": "1000,00"}`, fields)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Replace(context.Background(), []umowy.Record{testRecord("06/1", "1")}))
	require.NoError(t, st.Close())

	// reopening an existing database must not fail on the schema
	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

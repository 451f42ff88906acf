package recordio

import (
	"bytes"
	"testing"

	"nfzharvest/lib/scrapers/umowy"

	"github.com/stretchr/testify/require"
)

func TestColumnsIdentityFirstThenSorted(t *testing.T) {
	records := []umowy.Record{
		{umowy.ColYear: "2024", umowy.ColProviderCode: "06/1", "Wartość": "10"},
		{umowy.ColYear: "2024", umowy.ColProviderCode: "06/2", "Miesiąc": "1"},
	}

	want := append(append([]string{}, umowy.IdentityColumns...), "Miesiąc", "Wartość")
	require.Equal(t, want, Columns(records))
}

func TestWriteCSVMissingColumnsAreEmptyCells(t *testing.T) {
	records := []umowy.Record{
		{
			umowy.ColYear:          "2024",
			umowy.ColProviderCode:  "06/1",
			umowy.ColProviderName:  "Szpital",
			umowy.ColCity:          "Lublin",
			umowy.ColAgreementCode: "123/A",
			umowy.ColProductCode:   "05.1",
			"Miesiąc":              "1",
		},
		{
			umowy.ColYear:         "2024",
			umowy.ColProviderCode: "06/2",
			"Wartość":             "99,50",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	want := "Rok,Kod świadczeniodawcy,Nazwa świadczeniodawcy,Miasto,Kod umowy,Kod produktu kontraktowanego,Miesiąc,Wartość\n" +
		"2024,06/1,Szpital,Lublin,123/A,05.1,1,\n" +
		"2024,06/2,,,,,,\"99,50\"\n"
	require.Equal(t, want, buf.String())
}

func TestWriteCSVEmptyRelationStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	require.Equal(t, "Rok,Kod świadczeniodawcy,Nazwa świadczeniodawcy,Miasto,Kod umowy,Kod produktu kontraktowanego\n", buf.String())
}

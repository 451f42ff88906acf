// Package store persists the harvest relation to sqlite, so a finished run
// can be queried without re-reading the output file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"nfzharvest/lib/scrapers/umowy"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS harvest_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	year INTEGER NOT NULL,
	provider_code TEXT NOT NULL,
	provider_name TEXT NOT NULL,
	city TEXT NOT NULL,
	agreement_code TEXT NOT NULL,
	product_code TEXT NOT NULL,
	month_fields TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_harvest_records_provider
	ON harvest_records (provider_code);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return Store{}, err
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Replace swaps the stored relation for the given one in a single
// transaction. identity columns become real columns, the remaining month
// columns are kept as a json object since their set varies per plan.
func (s Store) Replace(ctx context.Context, records []umowy.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM harvest_records`)
	if err != nil {
		return err
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO harvest_records
			(year, provider_code, provider_name, city, agreement_code, product_code, month_fields)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for _, record := range records {
		year, _ := strconv.Atoi(record[umowy.ColYear])

		months := make(map[string]string, len(record))
		identity := map[string]bool{}
		for _, c := range umowy.IdentityColumns {
			identity[c] = true
		}
		for col, v := range record {
			if !identity[col] {
				months[col] = v
			}
		}
		fields, err := json.Marshal(months)
		if err != nil {
			return err
		}

		_, err = insert.ExecContext(ctx,
			year,
			record[umowy.ColProviderCode],
			record[umowy.ColProviderName],
			record[umowy.ColCity],
			record[umowy.ColAgreementCode],
			record[umowy.ColProductCode],
			string(fields),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM harvest_records`).Scan(&n)
	return n, err
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "embed"

	_ "modernc.org/sqlite"

	"memorialcrawl/lib/scrapers/memorial"
)

//go:embed schema.sql
var Schema string

// Store persists crawl state so an interrupted run can be resumed:
// every url gets a terminal outcome row, and completed records are
// written in full.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// DoneUrls returns the set of urls that already produced a record in a
// previous run.
func (s Store) DoneUrls(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM crawl_urls WHERE status = 'done'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		done[url] = true
	}
	return done, rows.Err()
}

func (s Store) NoteDone(ctx context.Context, url string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_urls (url, status, attempts, cause, updated_at)
		VALUES (?, 'done', 0, '', datetime('now'))
		ON CONFLICT (url) DO UPDATE SET
			status = 'done',
			cause = '',
			updated_at = datetime('now')
	`, url)
	return err
}

func (s Store) NoteFailed(ctx context.Context, url string, attempts int, cause string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_urls (url, status, attempts, cause, updated_at)
		VALUES (?, 'failed', ?, ?, datetime('now'))
		ON CONFLICT (url) DO UPDATE SET
			status = 'failed',
			attempts = excluded.attempts,
			cause = excluded.cause,
			updated_at = datetime('now')
	`, url, attempts, cause)
	return err
}

func (s Store) InsertRecord(ctx context.Context, record memorial.Record) error {
	latitude, longitude := "", ""
	if record.Gps != nil {
		latitude = record.Gps.Latitude
		longitude = record.Gps.Longitude
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO records (
			memorial_url, name, prefix, title,
			birth_date, death_date,
			cemetery, location, plot_value,
			part_bio, bio,
			gps_latitude, gps_longitude,
			image_url, image_credits, image_credits_url,
			photos, parents, spouses, children, siblings, half_siblings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.SourceUrl, record.Name, record.NamePrefix, record.HonorificTitle,
		record.BirthDate, record.DeathDate,
		record.CemeteryName, record.CemeteryCity, record.PlotDescriptor,
		record.PartialBiography, record.Biography,
		latitude, longitude,
		record.ProfileImageUrl, record.ImageCredits, record.ImageCreditsUrl,
		marshalJson(record.AdditionalPhotos),
		marshalJson(record.Parents),
		marshalJson(record.Spouses),
		marshalJson(record.Children),
		marshalJson(record.Siblings),
		marshalJson(record.HalfSiblings),
	)
	return err
}

func marshalJson[T any](items []T) string {
	if len(items) == 0 {
		return "[]"
	}
	out, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(out)
}

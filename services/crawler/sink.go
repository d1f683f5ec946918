package crawler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"

	"memorialcrawl/lib/scrapers/memorial"
	"memorialcrawl/services/crawler/db"
)

// RecordSink receives each completed record exactly once. Sinks are
// only ever called from the collection loop, they don't need to be
// safe for concurrent use.
type RecordSink interface {
	Append(ctx context.Context, record memorial.Record) error
	Close() error
}

// column order matches the historical export format consumers of the
// csv already depend on
var csvColumns = []string{
	"memorial_url", "name", "birth_date", "death_date",
	"cemetery", "location", "part_bio", "bio", "gps",
	"image_url", "image_credits", "image_credits_url",
	"parents", "spouses", "children", "siblings", "half_siblings",
	"plot_value", "title", "prefix", "photos",
}

// CsvSink writes records as flat csv rows; nested sequences are
// embedded as json arrays ("[]" when empty) since csv can't represent
// them natively.
type CsvSink struct {
	file   *os.File
	writer *csv.Writer
}

func NewCsvSink(path string) (*CsvSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvColumns); err != nil {
		file.Close()
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return nil, err
	}
	return &CsvSink{file: file, writer: writer}, nil
}

func (s *CsvSink) Append(ctx context.Context, record memorial.Record) error {
	gps := ""
	if record.Gps != nil {
		out, err := json.Marshal(record.Gps)
		if err == nil {
			gps = string(out)
		}
	}

	row := []string{
		record.SourceUrl, record.Name, record.BirthDate, record.DeathDate,
		record.CemeteryName, record.CemeteryCity, record.PartialBiography, record.Biography, gps,
		record.ProfileImageUrl, record.ImageCredits, record.ImageCreditsUrl,
		marshalList(record.Parents),
		marshalList(record.Spouses),
		marshalList(record.Children),
		marshalList(record.Siblings),
		marshalList(record.HalfSiblings),
		record.PlotDescriptor, record.HonorificTitle, record.NamePrefix,
		marshalList(record.AdditionalPhotos),
	}

	if err := s.writer.Write(row); err != nil {
		return err
	}
	// flushed per record so an aborted run still leaves a usable file
	s.writer.Flush()
	return s.writer.Error()
}

func (s *CsvSink) Close() error {
	s.writer.Flush()
	flushErr := s.writer.Error()
	closeErr := s.file.Close()
	return errors.Join(flushErr, closeErr)
}

func marshalList[T any](items []T) string {
	if len(items) == 0 {
		return "[]"
	}
	out, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(out)
}

// SqliteSink persists records into the crawl-state database.
type SqliteSink struct {
	store db.Store
}

func NewSqliteSink(store db.Store) SqliteSink {
	return SqliteSink{store: store}
}

func (s SqliteSink) Append(ctx context.Context, record memorial.Record) error {
	return s.store.InsertRecord(ctx, record)
}

func (s SqliteSink) Close() error {
	return nil
}

// MultiSink fans each record out to several sinks.
type MultiSink []RecordSink

func (m MultiSink) Append(ctx context.Context, record memorial.Record) error {
	var errlist []error
	for _, sink := range m {
		if err := sink.Append(ctx, record); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

func (m MultiSink) Close() error {
	var errlist []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

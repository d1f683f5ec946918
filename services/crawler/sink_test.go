package crawler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"memorialcrawl/lib/scrapers/memorial"
)

func fullRecord() memorial.Record {
	return memorial.Record{
		SourceUrl:        "https://www.example.com/memorial/12345/mary-ann-smith",
		Name:             "Mary Ann Smith",
		NamePrefix:       "Capt",
		HonorificTitle:   "Veteran",
		BirthDate:        "1845-05-26",
		DeathDate:        "1921-02-03",
		CemeteryName:     "Maplewood Cemetery",
		CemeteryCity:     "Crediton, Huron County, Ontario, Canada",
		PlotDescriptor:   "Section B, Lot 14",
		PartialBiography: "Beloved wife and mother.",
		Biography:        "At rest\nGone but not forgotten",
		ProfileImageUrl:  "https://images.example.com/photos/mary.jpg",
		ImageCredits:     "Added by J. Archer",
		ImageCreditsUrl:  "https://www.example.com/user/profile/4711",
		Gps:              &memorial.Gps{Latitude: "43.3006439", Longitude: "-81.5520696"},
		AdditionalPhotos: []memorial.Photo{
			{ImageUrl: "https://images.example.com/photos/grave.jpg", ContributorName: "K. Mason"},
		},
		Parents: []memorial.FamilyMember{
			{Name: "John Smith", BirthDate: "1820-00-00", DeathDate: "1880-11-11"},
		},
		Spouses: []memorial.FamilyMember{
			{Name: "George Brown"},
		},
	}
}

func TestCsvSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memorials.csv")

	sink, err := NewCsvSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Append(context.Background(), fullRecord()))
	require.NoError(t, sink.Append(context.Background(), memorial.Record{
		SourceUrl: "https://www.example.com/memorial/99/john-doe",
		Name:      "John Doe",
	}))
	require.NoError(t, sink.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvColumns, rows[0])

	full := rows[1]
	require.Equal(t, "https://www.example.com/memorial/12345/mary-ann-smith", full[0])
	require.Equal(t, "Mary Ann Smith", full[1])
	require.Equal(t, "1845-05-26", full[2])
	require.Equal(t, "1921-02-03", full[3])
	require.Equal(t, "Section B, Lot 14", full[17])
	require.Equal(t, "Veteran", full[18])
	require.Equal(t, "Capt", full[19])

	var gps memorial.Gps
	require.NoError(t, json.Unmarshal([]byte(full[8]), &gps))
	require.Equal(t, "43.3006439", gps.Latitude)

	var parents []memorial.FamilyMember
	require.NoError(t, json.Unmarshal([]byte(full[12]), &parents))
	require.Len(t, parents, 1)
	require.Equal(t, "John Smith", parents[0].Name)

	// nested sequences always serialize, even when empty
	empty := rows[2]
	require.Equal(t, "", empty[8])
	for _, column := range []int{12, 13, 14, 15, 16, 20} {
		require.Equal(t, "[]", empty[column], "column %s", csvColumns[column])
	}
}

func TestCsvSinkSurvivesAbortedRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memorials.csv")

	sink, err := NewCsvSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append(context.Background(), fullRecord()))

	// read back without closing: every appended row must already be on
	// disk if the process dies mid-run
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, sink.Close())
}

func TestMultiSinkDeliversToEverySink(t *testing.T) {
	first := &memorySink{}
	second := &memorySink{}
	failing := &memorySink{err: errors.New("disk full")}

	multi := MultiSink{first, failing, second}

	err := multi.Append(context.Background(), fullRecord())
	require.ErrorContains(t, err, "disk full")
	require.Len(t, first.records, 1)
	require.Len(t, second.records, 1)
}

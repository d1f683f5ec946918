package memorial

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"memorialcrawl/lib/htmlutil"
	"memorialcrawl/lib/textutil"
)

// every selector lookup below is independent: a missing element leaves
// its field empty and never fails the record as a whole.

const familyGridSelector = "#family-grid"

var familySections = []struct {
	label  string
	assign func(*Record, []FamilyMember)
}{
	{"parentsLabel", func(r *Record, m []FamilyMember) { r.Parents = m }},
	{"spouseLabel", func(r *Record, m []FamilyMember) { r.Spouses = m }},
	{"childrenLabel", func(r *Record, m []FamilyMember) { r.Children = m }},
	{"siblingLabel", func(r *Record, m []FamilyMember) { r.Siblings = m }},
	{"halfSibLabel", func(r *Record, m []FamilyMember) { r.HalfSiblings = m }},
}

// ExtractRecord parses one memorial page into a Record. It also
// returns the page's reported photo count so the caller can decide
// whether the photo sub-page is worth fetching. The only error case is
// html that cannot be tokenized at all.
func ExtractRecord(html, sourceUrl string) (Record, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Record{}, 0, err
	}

	record := Record{SourceUrl: sourceUrl}

	record.Name = selectText(doc, "#bio-name > b")
	if record.Name == "" {
		record.Name = selectText(doc, "#bio-name")
	}
	record.NamePrefix = selectText(doc, "#bio-name > span")
	record.HonorificTitle = selectText(doc, "#bio-name > b > span.visually-hidden")

	record.BirthDate = NormalizeDate(selectText(doc, "#birthDateLabel"))
	record.DeathDate = NormalizeDate(selectText(doc, "#deathDateLabel"))

	record.CemeteryName = selectText(doc, "#cemeteryNameLabel")
	record.CemeteryCity = selectText(doc, "#cemeteryCityName")
	record.PlotDescriptor = selectText(doc, "#plotValueLabel")
	record.PartialBiography = selectText(doc, "#partBio")
	record.Biography = extractBiography(doc)

	record.ProfileImageUrl = doc.Find("#profileImage").AttrOr("src", "")
	credits := doc.Find("#profile-photo > p > a").First()
	record.ImageCredits = textutil.CollapseWhitespace(credits.Text())
	record.ImageCreditsUrl = credits.AttrOr("href", "")

	record.Gps = extractGps(doc)

	grid := doc.Find(familyGridSelector)
	for _, section := range familySections {
		list := grid.Find("ul[aria-labelledby='" + section.label + "']")
		if list.Length() == 0 {
			continue
		}
		section.assign(&record, ExtractFamilyMembers(list))
	}

	return record, extractPhotoCount(doc), nil
}

// ExtractFamilyMembers parses a family section's list into entries.
// Fields are looked up independently; an item missing every field still
// produces an (empty) entry so list lengths keep matching the visible
// section counts.
func ExtractFamilyMembers(list *goquery.Selection) []FamilyMember {
	var members []FamilyMember
	list.Find("li[itemscope]").Each(func(_ int, item *goquery.Selection) {
		member := FamilyMember{
			Name:       textutil.CollapseWhitespace(item.Find("h3[itemprop='name']").Text()),
			ProfileUrl: item.Find("a[itemprop='url']").AttrOr("href", ""),
		}
		if birth := strings.TrimSpace(item.Find("span[itemprop='birthDate']").Text()); birth != "" {
			member.BirthDate = NormalizeDate(birth)
		}
		if death := strings.TrimSpace(item.Find("span[itemprop='deathDate']").Text()); death != "" {
			member.DeathDate = NormalizeDate(death)
		}
		members = append(members, member)
	})
	return members
}

func extractBiography(doc *goquery.Document) string {
	section := doc.Find("#inscriptionValue")
	if section.Length() == 0 {
		section = doc.Find("#fullBio")
	}
	if section.Length() == 0 {
		return ""
	}
	inner, err := section.Html()
	if err != nil {
		return ""
	}
	return htmlutil.FlattenFragment(inner)
}

func extractGps(doc *goquery.Document) *Gps {
	href := doc.Find("#gpsLocation a").AttrOr("href", "")
	if !strings.Contains(href, "google.com/maps") {
		return nil
	}
	_, query, found := strings.Cut(href, "q=")
	if !found {
		return nil
	}
	coords := strings.Split(strings.Split(query, "&")[0], ",")
	if len(coords) != 2 {
		return nil
	}
	return &Gps{Latitude: coords[0], Longitude: coords[1]}
}

func extractPhotoCount(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find(".photosCount").First().Text())
	if text == "" {
		return 0
	}
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return count
}

func selectText(doc *goquery.Document, selector string) string {
	return textutil.CollapseWhitespace(doc.Find(selector).First().Text())
}

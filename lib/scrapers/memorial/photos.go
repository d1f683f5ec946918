package memorial

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"memorialcrawl/lib/textutil"
)

const photoTileSelector = "#TabPhotos div.section-photos > div > div > div"

// ExtractGallery parses the photo sub-page into one Photo per tile.
// The already-known profile image is excluded so the primary portrait
// isn't duplicated. Tiles without an image are skipped.
func ExtractGallery(html, excludeImageUrl string) ([]Photo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var photos []Photo
	doc.Find(photoTileSelector).Each(func(_ int, tile *goquery.Selection) {
		src := tile.Find("button img").AttrOr("src", "")
		if src == "" || src == excludeImageUrl {
			return
		}

		contributor := tile.Find("div.card-body p a").First()
		photos = append(photos, Photo{
			ImageUrl:              src,
			ContributorName:       textutil.CollapseWhitespace(contributor.Text()),
			ContributorProfileUrl: contributor.AttrOr("href", ""),
		})
	})

	return photos, nil
}

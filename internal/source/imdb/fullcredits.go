// Package imdb parses saved IMDb "full credits" pages into scraped movie
// documents. It never fetches anything: pages are read from disk.
package imdb

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/credits"
)

const titleBase = "https://www.imdb.com/title/"

// ParseFullCredits turns the HTML of a title's full credits page into a
// scraped movie document. pageURL (or the page's canonical link) must name
// the title. When the page lists a director, the first one becomes the
// document's director id.
func ParseFullCredits(html []byte, pageURL string) (*credits.ScrapedMovie, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return nil, errors.Mark(errors.New("empty page"), credits.ErrMalformedRecord)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse credits page"), credits.ErrMalformedRecord)
	}

	movieID := titleID(pageURL)
	if movieID == "" {
		if href, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok {
			movieID = titleID(href)
		}
	}
	if movieID == "" {
		return nil, errors.Mark(errors.Newf("no title id in %q", pageURL), credits.ErrMalformedRecord)
	}

	sm := &credits.ScrapedMovie{
		TitleURI: titleBase + movieID + "/",
		Title:    pageTitle(doc),
	}

	doc.Find("#fullcredits_content h4.dataHeaderWithBorder").Each(func(_ int, h *goquery.Selection) {
		role := normSpace(h.Text())
		if role == "" {
			return
		}
		table := h.NextFiltered("table")
		if table.Length() == 0 {
			return
		}

		credit := credits.ScrapedCredit{Role: role}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if m, ok := member(row); ok {
				credit.Crew = append(credit.Crew, m)
			}
		})
		if len(credit.Crew) > 0 {
			sm.FullCredits = append(sm.FullCredits, credit)
		}
	})

	for _, c := range sm.FullCredits {
		if credits.NormalizeRole(c.Role) == credits.RoleDirectedBy && len(c.Crew) > 0 {
			sm.DirectorID = credits.IDFromURI(c.Crew[0].Link, "/name/")
			break
		}
	}
	return sm, nil
}

// member extracts the credited person of a table row. Cast rows start with
// a photo cell whose link carries no text, so the first named link wins.
func member(row *goquery.Selection) (credits.ScrapedCrew, bool) {
	var out credits.ScrapedCrew
	found := false
	row.Find("a[href*='/name/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		name := normSpace(a.Text())
		if name == "" {
			return true
		}
		href, _ := a.Attr("href")
		out = credits.ScrapedCrew{Name: name, Link: strings.TrimSpace(href)}
		found = true
		return false
	})
	return out, found
}

func titleID(uri string) string {
	if !strings.Contains(uri, "/title/") {
		return ""
	}
	return credits.IDFromURI(uri, "/title/")
}

func pageTitle(doc *goquery.Document) string {
	for _, sel := range []string{
		".subpage_title_block h3[itemprop='name'] a",
		".subpage_title_block .parent h3 a",
		"h3[itemprop='name'] a",
	} {
		if t := normSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// normSpace collapses runs of whitespace, including the non-breaking
// spaces IMDb pads role headers with.
func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

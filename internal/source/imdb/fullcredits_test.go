package imdb

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/credits"
)

const page = `<!DOCTYPE html>
<html><head><link rel="canonical" href="https://www.imdb.com/title/tt0118694/fullcredits/"></head>
<body>
<div class="subpage_title_block">
  <div class="parent"><h3 itemprop="name"><a href="/title/tt0118694/">In the Mood for Love</a> (2000)</h3></div>
</div>
<div id="fullcredits_content" class="header">
  <h4 name="director" id="director" class="dataHeaderWithBorder">Directed by&nbsp;</h4>
  <table class="simpleTable simpleCreditsTable">
    <tbody>
      <tr><td class="name"><a href="/name/nm0939182/?ref_=ttfc_fc_dr1"> Kar-Wai Wong</a></td></tr>
    </tbody>
  </table>
  <h4 class="dataHeaderWithBorder">Cast (in credits order) verified as complete&nbsp;</h4>
  <table class="cast_list">
    <tr><td colspan="4" class="castlist_label"></td></tr>
    <tr class="odd">
      <td class="primary_photo"><a href="/name/nm0504897/?ref_=ttfc_fc_cl_i1"><img alt="Tony Leung"></a></td>
      <td><a href="/name/nm0504897/?ref_=ttfc_fc_cl_t1"> Tony Chiu-Wai Leung</a></td>
      <td class="ellipsis">...</td>
      <td class="character">Chow Mo-wan</td>
    </tr>
  </table>
  <h4 class="dataHeaderWithBorder">Cinematography by&nbsp;</h4>
  <table class="simpleTable simpleCreditsTable">
    <tbody>
      <tr><td class="name"><a href="/name/nm0003745/">Christopher Doyle</a></td><td>...</td><td class="credit">(director of photography)</td></tr>
      <tr><td class="name"><a href="/name/nm0497215/">Pin Bing Lee</a></td></tr>
    </tbody>
  </table>
  <h4 class="dataHeaderWithBorder">Thanks&nbsp;</h4>
  <table class="simpleTable simpleCreditsTable"><tbody></tbody></table>
</div>
</body></html>`

func TestParseFullCredits(t *testing.T) {
	sm, err := ParseFullCredits([]byte(page), "")
	if err != nil {
		t.Fatalf("ParseFullCredits: %v", err)
	}
	if sm.TitleURI != "https://www.imdb.com/title/tt0118694/" {
		t.Errorf("TitleURI = %q", sm.TitleURI)
	}
	if sm.Title != "In the Mood for Love" {
		t.Errorf("Title = %q", sm.Title)
	}
	if sm.DirectorID != "nm0939182" {
		t.Errorf("DirectorID = %q", sm.DirectorID)
	}
	if len(sm.FullCredits) != 3 {
		t.Fatalf("groups = %d, want 3 (empty groups dropped)", len(sm.FullCredits))
	}

	tests := []struct {
		role  string
		names []string
	}{
		{"Directed by", []string{"Kar-Wai Wong"}},
		{"Cast (in credits order) verified as complete", []string{"Tony Chiu-Wai Leung"}},
		{"Cinematography by", []string{"Christopher Doyle", "Pin Bing Lee"}},
	}
	for i, tt := range tests {
		got := sm.FullCredits[i]
		if got.Role != tt.role {
			t.Errorf("group %d role = %q, want %q", i, got.Role, tt.role)
		}
		if len(got.Crew) != len(tt.names) {
			t.Errorf("%s: %d members, want %d", tt.role, len(got.Crew), len(tt.names))
			continue
		}
		for j, name := range tt.names {
			if got.Crew[j].Name != name {
				t.Errorf("%s[%d] = %q, want %q", tt.role, j, got.Crew[j].Name, name)
			}
		}
	}

	rec, err := sm.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.MovieID != "tt0118694" || rec.Credits[1].Members[0].ID != "nm0504897" {
		t.Errorf("record = %+v", rec)
	}
	if credits.NormalizeRole(rec.Credits[1].Role) != "Cast" {
		t.Errorf("cast role normalizes to %q", credits.NormalizeRole(rec.Credits[1].Role))
	}
}

func TestParseFullCredits_TitleFromURL(t *testing.T) {
	html := `<html><body><div id="fullcredits_content"></div></body></html>`
	sm, err := ParseFullCredits([]byte(html), "https://www.imdb.com/title/tt0000001/fullcredits?ref_=tt_cl_sm")
	if err != nil {
		t.Fatalf("ParseFullCredits: %v", err)
	}
	if sm.TitleURI != "https://www.imdb.com/title/tt0000001/" {
		t.Errorf("TitleURI = %q", sm.TitleURI)
	}
	if sm.DirectorID != "" {
		t.Errorf("DirectorID = %q, want empty", sm.DirectorID)
	}
}

func TestParseFullCredits_Malformed(t *testing.T) {
	tests := []struct {
		name, html, url string
	}{
		{"empty", "  ", "https://www.imdb.com/title/tt1/"},
		{"no title id", "<html></html>", "https://example.com/page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFullCredits([]byte(tt.html), tt.url)
			if !errors.Is(err, credits.ErrMalformedRecord) {
				t.Fatalf("err = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

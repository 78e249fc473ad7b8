// internal/careers/extract_test.go
package careers

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/browser/driver/drivertest"
	"github.com/xkilldash9x/jobprobe/internal/browser/snapshot"
)

func TestExtractMatchingCandidates(t *testing.T) {
	ctx := context.Background()
	spec := OpenPositionsCards()

	t.Run("keeps matching cards in document order", func(t *testing.T) {
		f := drivertest.New()
		f.Page().Set(spec.Cards,
			card("c0", "Software Test Engineer", "Quality Assurance", "Istanbul, Turkiye", "https://jobs.lever.co/x/0"),
			card("c1", "Senior  Quality Assurance\nEngineer", "Quality Assurance", "Istanbul, Turkey", " https://jobs.lever.co/x/1 "),
			card("c2", "Quality Assurance Analyst", "Quality Assurance", "Remote", "https://jobs.lever.co/x/2"),
			card("c3", "Quality Assurance Lead", "Quality Assurance", "Istanbul, Turkiye", "https://jobs.lever.co/x/3"),
		)

		got := ExtractMatchingCandidates(ctx, f, spec, MatchesQAIstanbul)

		want := []Candidate{
			{Title: "Senior Quality Assurance Engineer", Department: "Quality Assurance", Location: "Istanbul, Turkey", ActionReference: "https://jobs.lever.co/x/1", SourceIndex: 1},
			{Title: "Quality Assurance Lead", Department: "Quality Assurance", Location: "Istanbul, Turkiye", ActionReference: "https://jobs.lever.co/x/3", SourceIndex: 3},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("candidates mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unreadable fields read as blank", func(t *testing.T) {
		f := drivertest.New()
		broken := card("c0", "Quality Assurance Engineer", "Quality Assurance", "Istanbul, Turkiye", "https://jobs.lever.co/x/0")
		broken.Children[spec.Department][0].Stale = true
		noLink := card("c1", "Quality Assurance Engineer", "Quality Assurance", "Istanbul, Turkiye", "")
		delete(noLink.Children, spec.Action)
		f.Page().Set(spec.Cards, broken, noLink)

		got := ExtractMatchingCandidates(ctx, f, spec, MatchesQAIstanbul)

		require.Len(t, got, 1, "the card with a stale department is skipped")
		assert.Equal(t, 1, got[0].SourceIndex)
		assert.Empty(t, got[0].ActionReference)
	})

	t.Run("listing failure yields nothing", func(t *testing.T) {
		f := drivertest.New()
		f.Page().SetFunc(spec.Cards, func(int) ([]*drivertest.Node, error) {
			return nil, driver.NewError(driver.KindUnexpected, "find", nil)
		})

		assert.Empty(t, ExtractMatchingCandidates(ctx, f, spec, MatchesQAIstanbul))
	})

	t.Run("predicate sees every card", func(t *testing.T) {
		f := drivertest.New()
		f.Page().Set(spec.Cards, card("a", "A", "B", "C", "D"), card("b", "E", "F", "G", "H"))

		var seen []string
		all := func(c Candidate) Match {
			seen = append(seen, c.Title)
			return Match{true, true, true}
		}

		assert.Len(t, ExtractMatchingCandidates(ctx, f, spec, all), 2)
		assert.Equal(t, []string{"A", "E"}, seen)
	})
}

func TestExtractFromSnapshot(t *testing.T) {
	d, err := snapshot.LoadFile("../browser/snapshot/testdata/open_positions.html",
		"https://insiderone.com/careers/open-positions/?department=qualityassurance")
	require.NoError(t, err)

	got := ExtractMatchingCandidates(context.Background(), d, OpenPositionsCards(), MatchesQAIstanbul)

	want := []Candidate{
		{
			Title:           "Senior Software Quality Assurance Engineer",
			Department:      "Quality Assurance",
			Location:        "Istanbul, Turkiye",
			ActionReference: "https://jobs.lever.co/insiderone/0a1b2c3d",
			SourceIndex:     0,
		},
		{
			Title:           "Quality Assurance Engineer - Mobile",
			Department:      "Quality Assurance",
			Location:        "Istanbul, Turkey",
			ActionReference: "https://insiderone.com/jobs/4e5f6a7b",
			SourceIndex:     1,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

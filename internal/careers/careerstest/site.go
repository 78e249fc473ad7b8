// internal/careers/careerstest/site.go
// Package careerstest renders the careers site on a drivertest.Fake so the
// whole flow can run without a browser.
package careerstest

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver/drivertest"
	"github.com/xkilldash9x/jobprobe/internal/careers"
)

// Default addresses of the simulated site.
const (
	HomeURL      = "https://insiderone.com/"
	CareersQAURL = "https://insiderone.com/careers/quality-assurance/"
	QAJobsURL    = "https://insiderone.com/careers/open-positions/?department=qualityassurance"
	Location     = "Istanbul, Turkiye"
)

// Posting is what a role page shows once opened.
type Posting struct {
	Title      string
	Department string
	Location   string
}

// Job is one card on the open positions list.
type Job struct {
	Title      string
	Department string
	Location   string
	Href       string
	// Posting, when set, makes a click open a new browsing context showing it.
	Posting *Posting
	// ClickErrs are returned by the card's button, one per click.
	ClickErrs []error
}

// Site describes the pages served by the fake.
type Site struct {
	HomeURL      string
	CareersQAURL string
	QAJobsURL    string
	// Locations are the options of the location filter besides "All".
	Locations []string
	Jobs      []Job
	// LogoHref overrides the logo link, which defaults to HomeURL.
	LogoHref string
	// DepartmentPreselected controls whether the QA department arrives selected.
	DepartmentPreselected bool
	// BlankAfterFilter renders the cards without text once a location is chosen.
	BlankAfterFilter bool

	// Opened lists the handles of contexts opened by card clicks.
	Opened []string
	// Links maps a job href to its rendered button.
	Links map[string]*drivertest.Node
}

// NewSite returns a site with two matching QA roles in Istanbul, the first
// of which opens nothing when clicked, plus non-matching roles.
func NewSite() *Site {
	return &Site{
		HomeURL:               HomeURL,
		CareersQAURL:          CareersQAURL,
		QAJobsURL:             QAJobsURL,
		Locations:             []string{Location, "Remote"},
		DepartmentPreselected: true,
		Jobs: []Job{
			{
				Title: "Quality Assurance Engineer", Department: "Quality Assurance",
				Location: "Istanbul, Turkiye", Href: "https://jobs.lever.co/insiderone/qa-1",
			},
			{
				Title: "Senior Software Quality Assurance Engineer", Department: "Quality Assurance",
				Location: "Istanbul, Turkiye", Href: "https://jobs.lever.co/insiderone/qa-2",
				Posting: &Posting{
					Title:      "Senior Software Quality Assurance Engineer",
					Department: "Quality Assurance – Engineering",
					Location:   "Istanbul, Turkiye",
				},
			},
			{
				Title: "Backend Engineer", Department: "Engineering",
				Location: "Istanbul, Turkiye", Href: "https://jobs.lever.co/insiderone/be-1",
			},
			{
				Title: "Quality Assurance Engineer", Department: "Quality Assurance",
				Location: "Remote", Href: "https://jobs.lever.co/insiderone/qa-remote",
			},
		},
	}
}

// Install makes f serve the site on navigation.
func (s *Site) Install(f *drivertest.Fake) {
	f.OnNavigate = func(f *drivertest.Fake, p *drivertest.Page, url string) {
		switch url {
		case s.HomeURL:
			s.home(p)
		case s.CareersQAURL:
			s.careersQA(p)
		case s.QAJobsURL:
			s.jobs(p)
		}
	}
}

func (s *Site) home(p *drivertest.Page) {
	p.Title = "Insider One"
	p.Set(careers.HomeNavbar, &drivertest.Node{ID: "navigation"})
	logo := s.LogoHref
	if logo == "" {
		logo = s.HomeURL
	}
	p.Set(careers.HomeLogo, &drivertest.Node{ID: "logo", Attrs: map[string]string{"href": logo}})
	p.Set(careers.HomeNavbarDemo, &drivertest.Node{ID: "navbar-demo", Text: "Get a demo"})
	p.Set(careers.HomeEmailInput, &drivertest.Node{ID: "email"})
	p.Set(careers.HomeHeroDemo, &drivertest.Node{ID: "hero-demo", Text: "Get a demo"})
}

func (s *Site) careersQA(p *drivertest.Page) {
	btn := &drivertest.Node{ID: "see-all-qa", Text: "See all QA jobs", Attrs: map[string]string{"href": s.QAJobsURL}}
	btn.OnClick = func(f *drivertest.Fake) { _ = f.Navigate(context.Background(), s.QAJobsURL) }
	p.Set(careers.SeeAllQAJobs, btn)
}

func (s *Site) jobs(p *drivertest.Page) {
	dept := &drivertest.Node{
		ID: "filter-by-department",
		Options: []drivertest.Option{
			{Text: "All"},
			{Text: "Quality Assurance", Class: "job-team qualityassurance"},
		},
	}
	if s.DepartmentPreselected {
		dept.Selected = 1
	}
	p.Set(careers.JobsDepartmentSelect, dept)

	list := &drivertest.Node{ID: "jobs-list"}
	p.Set(careers.JobsList, list)
	s.render(p, list, "")

	loc := &drivertest.Node{ID: "filter-by-location", Options: []drivertest.Option{{Text: "All"}}}
	for _, l := range s.Locations {
		loc.Options = append(loc.Options, drivertest.Option{Text: l})
	}
	loc.OnSelect = func(f *drivertest.Fake, text string) {
		if text == "All" {
			text = ""
		}
		s.render(f.Page(), list, text)
	}
	p.Set(careers.JobsLocationSelect, loc)
}

// render shows the cards whose location contains filter and updates the
// list's text accordingly.
func (s *Site) render(p *drivertest.Page, list *drivertest.Node, filter string) {
	spec := careers.OpenPositionsCards()
	s.Links = make(map[string]*drivertest.Node)

	var cards []*drivertest.Node
	var text []string
	for i, j := range s.Jobs {
		if !strings.Contains(strings.ToLower(j.Location), strings.ToLower(filter)) {
			continue
		}
		if filter != "" && s.BlankAfterFilter {
			j.Title, j.Department, j.Location = "", "", ""
		}
		id := fmt.Sprintf("job-%d", i)
		link := &drivertest.Node{
			ID:        id + "-apply",
			Text:      "View Role",
			Attrs:     map[string]string{"href": j.Href},
			ClickErrs: append([]error(nil), j.ClickErrs...),
		}
		if j.Posting != nil {
			link.OnClick = s.opener(fmt.Sprintf("role-%d", i), j.Href, *j.Posting)
		}
		s.Links[j.Href] = link
		cards = append(cards, (&drivertest.Node{ID: id}).
			Add(spec.Title, &drivertest.Node{ID: id + "-title", Text: j.Title}).
			Add(spec.Department, &drivertest.Node{ID: id + "-dept", Text: j.Department}).
			Add(spec.Location, &drivertest.Node{ID: id + "-loc", Text: j.Location}).
			Add(spec.Action, link))
		text = append(text, j.Title)
	}
	p.Set(spec.Cards, cards...)
	list.Text = strings.Join(text, "\n")
}

func (s *Site) opener(handle, url string, posting Posting) func(f *drivertest.Fake) {
	return func(f *drivertest.Fake) {
		p := f.OpenWindow(handle, url)
		p.Title = posting.Title
		p.Set(careers.LeverTitle, &drivertest.Node{ID: "posting-title", Text: posting.Title})
		p.Set(careers.LeverDepartment, &drivertest.Node{ID: "posting-department", Text: posting.Department})
		p.Set(careers.LeverLocation, &drivertest.Node{ID: "posting-location", Text: posting.Location})
		s.Opened = append(s.Opened, handle)
	}
}

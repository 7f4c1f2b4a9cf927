package linkedin

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reCount     = regexp.MustCompile(`\d[\d.,\s\x{00a0}\x{202f}]*`)
	reViewID    = regexp.MustCompile(`/jobs/view/(\d+)`)
	reApplicant = regexp.MustCompile(`(?i)(applicant|bewerb|people clicked|personen)`)
	rePosted    = regexp.MustCompile(`(?i)(ago|vor |reposted|erneut|posted|today|heute)`)
)

// parseCount reads the leading number of "1,234 results" / "1.234 Ergebnisse".
func parseCount(text string) int {
	m := reCount.FindString(text)
	if m == "" {
		return 0
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// parseJobID takes the id from currentJobId=... or /jobs/view/<id>.
func parseJobID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("currentJobId"); id != "" {
		return id
	}
	if m := reViewID.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

// isSearchURL reports whether raw is a job search result list.
func isSearchURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "linkedin.com") {
		return false
	}
	return strings.HasPrefix(u.Path, "/jobs/search") || strings.HasPrefix(u.Path, "/jobs/collections")
}

type primaryDescription struct {
	location   string
	posted     string
	applicants string
}

// splitPrimary splits "Berlin, Germany · 2 weeks ago · Over 100 applicants".
func splitPrimary(text string) primaryDescription {
	var pd primaryDescription
	for i, part := range strings.Split(text, "·") {
		part = strings.Join(strings.Fields(part), " ")
		switch {
		case part == "":
		case reApplicant.MatchString(part):
			pd.applicants = part
		case rePosted.MatchString(part):
			pd.posted = part
		case i == 0:
			pd.location = part
		}
	}
	return pd
}

var jobTypes = []struct{ needle, value string }{
	{"full-time", "Full-time"}, {"vollzeit", "Full-time"},
	{"part-time", "Part-time"}, {"teilzeit", "Part-time"},
	{"contract", "Contract"}, {"befristet", "Contract"},
	{"internship", "Internship"}, {"praktikum", "Internship"},
	{"temporary", "Temporary"},
}

var remoteTypes = []struct{ needle, value string }{
	{"remote", "Remote"}, {"hybrid", "Hybrid"}, {"on-site", "On-site"}, {"vor ort", "On-site"},
}

func classifyInsights(text string) (jobType, remoteType string) {
	lower := strings.ToLower(text)
	for _, jt := range jobTypes {
		if strings.Contains(lower, jt.needle) {
			jobType = jt.value
			break
		}
	}
	for _, rt := range remoteTypes {
		if strings.Contains(lower, rt.needle) {
			remoteType = rt.value
			break
		}
	}
	return jobType, remoteType
}

package resolver

import (
	"net/url"
	"strings"
)

// aggregatorDomains are "link-in-bio" services that point at a restaurant's
// real site rather than being one.
var aggregatorDomains = []string{
	"linktr.ee",
	"linkin.bio",
	"bio.link",
	"beacons.ai",
	"taplink.cc",
	"lnk.bio",
	"campsite.bio",
	"linkpop.com",
}

// skipDomains are social networks, review sites, and delivery marketplaces
// that never count as a restaurant's official website.
var skipDomains = []string{
	"yelp.com",
	"tripadvisor.com",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"tiktok.com",
	"youtube.com",
	"linkedin.com",
	"pinterest.com",
	"doordash.com",
	"ubereats.com",
	"grubhub.com",
	"postmates.com",
	"seamless.com",
	"opentable.com",
	"google.com",
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}

func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// IsAggregator reports whether the URL lives on a link-in-bio service.
func IsAggregator(rawURL string) bool {
	return matchesDomain(hostOf(rawURL), aggregatorDomains)
}

// IsSkipDomain reports whether the URL lives on a social/review/delivery
// domain that should never be treated as the official site.
func IsSkipDomain(rawURL string) bool {
	return matchesDomain(hostOf(rawURL), skipDomains)
}

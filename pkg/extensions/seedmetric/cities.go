package seedmetric

import (
	"regexp"
	"strconv"
	"strings"
)

// cities is the closed list of recognized city names for extraction from
// free-text queries. Matching is deliberately closed-list rather than NER:
// the affordability module only ever prices a fixed quantum against a
// known set of metros, per spec.md §4.J.
var cities = []string{
	"new york", "los angeles", "chicago", "houston", "phoenix", "philadelphia",
	"san antonio", "san diego", "dallas", "austin", "san jose", "san francisco",
	"seattle", "denver", "boston", "miami", "atlanta", "portland", "nashville",
	"detroit", "memphis", "baltimore", "milwaukee", "albuquerque", "tucson",
	"fresno", "sacramento", "kansas city", "mesa", "omaha", "raleigh",
	"london", "manchester", "birmingham", "glasgow", "edinburgh", "liverpool",
	"paris", "marseille", "lyon", "toulouse", "berlin", "munich", "hamburg",
	"frankfurt", "cologne", "madrid", "barcelona", "valencia", "seville",
	"rome", "milan", "naples", "turin", "amsterdam", "rotterdam", "brussels",
	"vienna", "zurich", "geneva", "stockholm", "oslo", "copenhagen", "helsinki",
	"dublin", "lisbon", "warsaw", "prague", "budapest", "athens", "istanbul",
	"moscow", "kyiv", "tokyo", "osaka", "yokohama", "nagoya", "sapporo",
	"seoul", "busan", "beijing", "shanghai", "shenzhen", "guangzhou",
	"hong kong", "taipei", "singapore", "kuala lumpur", "bangkok", "jakarta",
	"surabaya", "manila", "ho chi minh city", "hanoi", "mumbai", "delhi",
	"bangalore", "chennai", "hyderabad", "kolkata", "karachi", "lahore",
	"dhaka", "dubai", "abu dhabi", "doha", "riyadh", "jeddah", "tel aviv",
	"cairo", "lagos", "nairobi", "johannesburg", "cape town", "casablanca",
	"sao paulo", "rio de janeiro", "buenos aires", "santiago", "lima",
	"bogota", "mexico city", "toronto", "vancouver", "montreal", "sydney",
	"melbourne", "brisbane", "auckland",
}

var cityMatchers = buildCityMatchers()

func buildCityMatchers() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(cities))
	for _, c := range cities {
		m[c] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(c) + `\b`)
	}
	return m
}

// ExtractCities returns every recognized city name found in text, in
// closed-list order (not input order), deduplicated.
func ExtractCities(text string) []string {
	var found []string
	for _, c := range cities {
		if cityMatchers[c].MatchString(text) {
			found = append(found, c)
		}
	}
	return found
}

var yearPattern = regexp.MustCompile(`\b(19[5-9]\d|20[0-2]\d)\b`)

// ExtractDecade returns the decade (e.g. 1990, 2020) of the first
// recognized year (1950-2029) found in text, and whether one was found.
func ExtractDecade(text string) (int, bool) {
	m := yearPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return (year / 10) * 10, true
}

// QueriesPerCity builds the fixed 4-query search plan used to source
// price-per-sqm and income figures for one city, per spec.md §4.J.
func QueriesPerCity(city string) []string {
	title := strings.Title(city) //nolint:staticcheck // closed list, ASCII city names only
	return []string{
		title + " average land price per square meter",
		title + " median annual household income",
		title + " real estate price per sqm 2024",
		title + " cost of living income statistics",
	}
}

package diary

import (
	"regexp"
	"strings"
)

// FallbackRegion labels diaries whose places name no recognisable region.
const FallbackRegion = "여행지"

type regionPattern struct {
	re *regexp.Regexp
	// canonical replaces short province forms such as 충북.
	canonical string
}

// Longer alternatives come first so "강원도" is matched whole.
var regionPatterns = []regionPattern{
	{re: regexp.MustCompile(`제주도|제주`)},
	{re: regexp.MustCompile(`서울시|서울`)},
	{re: regexp.MustCompile(`부산시|부산`)},
	{re: regexp.MustCompile(`대구시|대구`)},
	{re: regexp.MustCompile(`인천시|인천`)},
	{re: regexp.MustCompile(`광주시|광주`)},
	{re: regexp.MustCompile(`대전시|대전`)},
	{re: regexp.MustCompile(`울산시|울산`)},
	{re: regexp.MustCompile(`경기도|경기`)},
	{re: regexp.MustCompile(`강원도|강원`)},
	{re: regexp.MustCompile(`충청북도|충북`), canonical: "충청북도"},
	{re: regexp.MustCompile(`충청남도|충남`), canonical: "충청남도"},
	{re: regexp.MustCompile(`전라북도|전북`), canonical: "전라북도"},
	{re: regexp.MustCompile(`전라남도|전남`), canonical: "전라남도"},
	{re: regexp.MustCompile(`경상북도|경북`), canonical: "경상북도"},
	{re: regexp.MustCompile(`경상남도|경남`), canonical: "경상남도"},
	{re: regexp.MustCompile(`세종시|세종`)},
}

// Returned as matched, without a suffix.
var bareRegions = map[string]struct{}{
	"서울": {}, "부산": {}, "대구": {}, "인천": {},
	"광주": {}, "대전": {}, "울산": {}, "세종": {},
	"제주": {},
}

// Well known cities mapped to their province, tried after the region patterns.
var cityAliases = []struct {
	city   string
	region string
}{
	{"서귀포", "제주"},
	{"춘천", "강원도"}, {"강릉", "강원도"}, {"속초", "강원도"}, {"원주", "강원도"}, {"평창", "강원도"}, {"양양", "강원도"},
	{"수원", "경기도"}, {"가평", "경기도"}, {"파주", "경기도"}, {"용인", "경기도"}, {"성남", "경기도"},
	{"청주", "충청북도"}, {"충주", "충청북도"}, {"단양", "충청북도"},
	{"천안", "충청남도"}, {"공주", "충청남도"}, {"보령", "충청남도"}, {"태안", "충청남도"},
	{"전주", "전라북도"}, {"군산", "전라북도"}, {"남원", "전라북도"},
	{"여수", "전라남도"}, {"목포", "전라남도"}, {"순천", "전라남도"}, {"담양", "전라남도"},
	{"경주", "경상북도"}, {"안동", "경상북도"}, {"포항", "경상북도"}, {"영덕", "경상북도"},
	{"통영", "경상남도"}, {"창원", "경상남도"}, {"진주", "경상남도"}, {"거제", "경상남도"},
}

func normalizeRegion(p regionPattern, matched string) string {
	if p.canonical != "" {
		return p.canonical
	}
	if _, ok := bareRegions[matched]; ok {
		return matched
	}
	if strings.HasSuffix(matched, "도") || strings.HasSuffix(matched, "시") {
		return matched
	}
	return matched + "도"
}

// ClassifyRegion guesses one region label from free-text place names.
// The first pattern, in pattern order, that matches any name wins. When nothing
// matches, the first token of the first name is used if that name has more than one token.
func ClassifyRegion(names []string) string {
	for _, p := range regionPatterns {
		for _, name := range names {
			if m := p.re.FindString(name); m != "" {
				return normalizeRegion(p, m)
			}
		}
	}
	for _, a := range cityAliases {
		for _, name := range names {
			if strings.Contains(name, a.city) {
				return a.region
			}
		}
	}
	if len(names) == 0 {
		return FallbackRegion
	}
	if tokens := strings.Fields(names[0]); len(tokens) > 1 {
		return tokens[0]
	}
	return FallbackRegion
}

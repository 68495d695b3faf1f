package period

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// match is a header successfully resolved by one pattern.
type match struct {
	start       time.Time
	end         time.Time
	label       string
	approximate bool
}

// Pattern is one entry of the ordered header dispatch table.
type Pattern struct {
	Name    string
	Resolve func(header string, c Calendar) (match, bool)
}

const (
	PatternLongForm   = "long-form"
	PatternMonthRange = "month-range"
	PatternSlashYear  = "slash-year"
	PatternFY         = "fy"
	PatternMonthYear  = "month-year"
	PatternRelative   = "relative"
	PatternBareYear   = "bare-year"
)

// DefaultPatterns returns the header patterns in priority order. The first
// pattern that resolves a header wins. Long-form dates come before the year
// patterns so that "2024-06-30" is never read as a slash-year.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Name: PatternLongForm, Resolve: resolveLongForm},
		{Name: PatternMonthRange, Resolve: resolveMonthRange},
		{Name: PatternSlashYear, Resolve: resolveSlashYear},
		{Name: PatternFY, Resolve: resolveFY},
		{Name: PatternMonthYear, Resolve: resolveMonthYear},
		{Name: PatternRelative, Resolve: resolveRelative},
		{Name: PatternBareYear, Resolve: resolveBareYear},
	}
}

const monthAlt = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

var (
	dayMonthYear = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthAlt + `,?\s+((?:19|20)\d{2})\b`)
	monthDayYear = regexp.MustCompile(`(?i)\b` + monthAlt + `\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+((?:19|20)\d{2})\b`)
	numericDate  = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.]((?:19|20)\d{2})\b`)
	isoDate      = regexp.MustCompile(`\b((?:19|20)\d{2})-(\d{2})-(\d{2})\b`)
	monthsEnded  = regexp.MustCompile(`(?i)\b(\d{1,2}|three|six|nine|twelve)\s+months?\s+(?:ended|ending|to)\b`)
	monthRange   = regexp.MustCompile(`(?i)\b` + monthAlt + `\s*((?:19|20)\d{2})\s*(?:-|–|—|to)\s*` + monthAlt + `\s*((?:19|20)\d{2})\b`)
	slashYear    = regexp.MustCompile(`\b((?:19|20)\d{2})\s*[/\-–]\s*(\d{4}|\d{2})\b`)
	fyYear       = regexp.MustCompile(`(?i)\bFY\s*'?(\d{4}|\d{2})\b`)
	monthYear    = regexp.MustCompile(`(?i)\b` + monthAlt + `\s+((?:19|20)\d{2})\b`)
	bareYear     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

var monthWords = map[string]int{
	"three": 3, "six": 6, "nine": 9, "twelve": 12,
}

var relativeTerms = []struct {
	term   string
	offset int
}{
	// Longer phrases first so "prior year 2" is not read as "prior year".
	{"prior year 2", -2},
	{"two years prior", -2},
	{"current year", 0},
	{"this year", 0},
	{"current period", 0},
	{"prior year", -1},
	{"previous year", -1},
	{"last year", -1},
	{"prior period", -1},
	{"comparative", -1},
	{"current", 0},
	{"prior", -1},
}

func monthNumber(s string) time.Month {
	s = strings.ToLower(s)
	if len(s) > 3 {
		s = s[:3]
	}
	switch s {
	case "jan":
		return time.January
	case "feb":
		return time.February
	case "mar":
		return time.March
	case "apr":
		return time.April
	case "may":
		return time.May
	case "jun":
		return time.June
	case "jul":
		return time.July
	case "aug":
		return time.August
	case "sep":
		return time.September
	case "oct":
		return time.October
	case "nov":
		return time.November
	case "dec":
		return time.December
	}
	return 0
}

func validDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func endOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// yearEnding returns the start of the twelve months ending on end.
func yearEnding(end time.Time) time.Time {
	return end.AddDate(0, 0, 1).AddDate(-1, 0, 0)
}

func resolveLongForm(h string, c Calendar) (match, bool) {
	var end time.Time
	ok := false
	if m := dayMonthYear.FindStringSubmatch(h); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		end, ok = validDate(year, monthNumber(m[2]), day)
	} else if m := monthDayYear.FindStringSubmatch(h); m != nil {
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		end, ok = validDate(year, monthNumber(m[1]), day)
	} else if m := isoDate.FindStringSubmatch(h); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		end, ok = validDate(year, time.Month(month), day)
	} else if m := numericDate.FindStringSubmatch(h); m != nil {
		// Day first, as exported by AU/NZ accounting packages.
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		end, ok = validDate(year, time.Month(month), day)
	}
	if !ok {
		return match{}, false
	}

	if m := monthsEnded.FindStringSubmatch(h); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			n = monthWords[strings.ToLower(m[1])]
		}
		if n > 0 && n < 12 {
			return match{
				start: end.AddDate(0, 0, 1).AddDate(0, -n, 0),
				end:   end,
				label: strconv.Itoa(n) + "M to " + end.Format("02 Jan 2006"),
			}, true
		}
	}
	return match{start: yearEnding(end), end: end, label: fiscalLabel(end)}, true
}

func resolveMonthRange(h string, c Calendar) (match, bool) {
	m := monthRange.FindStringSubmatch(h)
	if m == nil {
		return match{}, false
	}
	y1, _ := strconv.Atoi(m[2])
	y2, _ := strconv.Atoi(m[4])
	m1, m2 := monthNumber(m[1]), monthNumber(m[3])
	start := time.Date(y1, m1, 1, 0, 0, 0, 0, time.UTC)
	end := endOfMonth(y2, m2)
	if !end.After(start) {
		return match{}, false
	}
	label := fiscalLabel(end)
	if !yearEnding(end).Equal(start) {
		label = start.Format("Jan 2006") + " - " + end.Format("Jan 2006")
	}
	return match{start: start, end: end, label: label}, true
}

func resolveSlashYear(h string, c Calendar) (match, bool) {
	m := slashYear.FindStringSubmatch(h)
	if m == nil {
		return match{}, false
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	if len(m[2]) == 2 {
		second += first / 100 * 100
		if second < first {
			second += 100
		}
	}
	if second != first+1 {
		return match{}, false
	}
	end := c.yearEnd(second)
	return match{start: yearEnding(end), end: end, label: fiscalLabel(end)}, true
}

func resolveFY(h string, c Calendar) (match, bool) {
	m := fyYear.FindStringSubmatch(h)
	if m == nil {
		return match{}, false
	}
	year, _ := strconv.Atoi(m[1])
	if len(m[1]) == 2 {
		year += 2000
	}
	end := c.yearEnd(year)
	return match{start: yearEnding(end), end: end, label: fiscalLabel(end)}, true
}

func resolveMonthYear(h string, c Calendar) (match, bool) {
	m := monthYear.FindStringSubmatch(h)
	if m == nil {
		return match{}, false
	}
	year, _ := strconv.Atoi(m[2])
	end := endOfMonth(year, monthNumber(m[1]))
	return match{start: yearEnding(end), end: end, label: fiscalLabel(end)}, true
}

func resolveRelative(h string, c Calendar) (match, bool) {
	lower := strings.ToLower(strings.TrimSpace(h))
	for _, rt := range relativeTerms {
		if strings.Contains(lower, rt.term) {
			end := c.yearEnd(c.currentFiscalYear() + rt.offset)
			return match{start: yearEnding(end), end: end, label: fiscalLabel(end), approximate: true}, true
		}
	}
	return match{}, false
}

func resolveBareYear(h string, c Calendar) (match, bool) {
	found := bareYear.FindAllString(h, -1)
	if len(found) == 0 {
		return match{}, false
	}
	// The last year in the text is usually the period's own.
	year, _ := strconv.Atoi(found[len(found)-1])
	end := c.yearEnd(year)
	return match{start: yearEnding(end), end: end, label: fiscalLabel(end), approximate: true}, true
}

// fiscalLabel renders "FY2024" for calendar years and "FY2023-24" otherwise.
func fiscalLabel(end time.Time) string {
	if end.Month() == time.December && end.Day() == 31 {
		return "FY" + strconv.Itoa(end.Year())
	}
	start := yearEnding(end)
	if start.Month() == time.January && start.Day() == 1 {
		return "FY" + strconv.Itoa(end.Year())
	}
	return "FY" + strconv.Itoa(end.Year()-1) + "-" + strconv.Itoa(end.Year())[2:]
}

// Package faq answers a handful of high-value questions instantly,
// bypassing retrieval and generation.
//
// Matching uses dual-keyword gating: an entry fires only when the query
// contains at least one primary keyword AND at least one supporting
// keyword. The second gate suppresses false positives from single
// ambiguous words ("I love sport" must not trigger the sport answer).
package faq

import (
	"strings"

	"github.com/beri-ai/cli/internal/corpus"
)

// Entry is a hand-authored answer with its match predicates.
type Entry struct {
	// Primary keywords; at least one must appear in the query.
	Primary []string
	// Supporting keywords; at least one must also appear.
	Supporting []string
	Answer     string
	Sources    []corpus.Citation
}

// Response is a cache hit: the canned answer plus its citations.
type Response struct {
	Answer  string
	Sources []corpus.Citation
}

// Cache is a static, immutable FAQ table. Lookup is a pure function of
// the query string and the table.
type Cache struct {
	entries []Entry
}

// New creates a cache over the given entries.
func New(entries []Entry) *Cache {
	return &Cache{entries: entries}
}

// Default returns the cache for the four suggested questions.
func Default() *Cache {
	return New(defaultEntries)
}

// Lookup returns the canned response for a query, or nil on a miss.
func (c *Cache) Lookup(query string) *Response {
	lower := strings.ToLower(query)

	for _, entry := range c.entries {
		if !containsAny(lower, entry.Primary) {
			continue
		}
		if !containsAny(lower, entry.Supporting) {
			continue
		}
		return &Response{Answer: entry.Answer, Sources: entry.Sources}
	}

	return nil
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

var defaultEntries = []Entry{
	{
		Primary:    []string{"fees", "fee", "cost", "how much"},
		Supporting: []string{"school", "term", "year", "habs", "tuition", "pay", "annual", "per"},
		Answer: `Tuition fees for 2025-26 (including 20% VAT):
• Pre-Prep (Reception–Year 2): £8,413/term (£25,239/year)
• Prep (Years 3–6): £9,849/term (£29,547/year)
• Senior School (Years 7–11): £10,423/term (£31,269/year)
• Sixth Form (Years 12–13): £10,423/term (£31,269/year)

Fees include stationery, textbooks, and insurance. Prep fees include lunch.
Additional charges: devices £125/term (Y7+), senior lunch £5.25/day.

Source: Fees and Financial Support — Tuition Fees 2025-26`,
		Sources: []corpus.Citation{
			{Source: "Fees and Financial Support", Section: "Tuition Fees 2025-26"},
		},
	},
	{
		Primary:    []string{"11+", "eleven plus", "year 7 entry"},
		Supporting: []string{"apply", "entry", "exam", "test", "how", "process", "date", "when", "deadline", "admission"},
		Answer: `11+ Year 7 Entry (2025-26):
• Registration deadline: Thursday 6 November 2025
• First round assessment: Tuesday 18 & Friday 21 November 2025
• ~100 external places available
• Online adaptive tests: Maths (20 min), Non-Verbal Reasoning (10 min), Verbal Reasoning (10 min), Puzzles (15 min), English (50 min)
• Handwritten creative writing (30 min)
• Based on Key Stage 2 National Curriculum — no tutoring needed
• ~50% of first-round candidates invited for second-round interview
• Offers posted: Thursday 12 February 2026

Contact: admissionsboys@habselstree.org.uk

Source: Admissions — 11+ Year 7 Entry`,
		Sources: []corpus.Citation{
			{Source: "Admissions", Section: "11+ Year 7 Entry"},
		},
	},
	{
		Primary:    []string{"a-level", "a level", "a levels", "alevel"},
		Supporting: []string{"subject", "offer", "available", "choice", "choose", "option", "what", "which", "list"},
		Answer: `A-Level subjects offered (choose 3-4 over 2 years):
Art, Biology, Chemistry, Classical Civilisation*, Classical Greek, Computer Science*, Design & Technology, Drama*, Economics, English Language, English Literature, French, Further Maths, Geography*, German, History*, Latin, Maths, Music, PE*, Philosophy, Physics, Politics, Psychology*, Religious Studies*, Spanish

*Can study without prior GCSE
At least 1 subject taught in mixed-gender classes with Habs Girls.
Entry requirement: 9 GCSEs including Maths and English.

Source: Sixth Form — A-Level Programme`,
		Sources: []corpus.Citation{
			{Source: "Sixth Form (Years 12-13, Ages 16-18)", Section: "A-Level Programme"},
		},
	},
	{
		Primary:    []string{"sport", "sports"},
		Supporting: []string{"what", "available", "offer", "play", "do", "habs", "school"},
		Answer: `Sport at Habs:
• ~160 co-curricular sports activities beyond the timetable
• All students encouraged to participate — competitive, recreational, or social
• Up to 6 teams per age group in weekly competitive action

Seasonal focus:
• Autumn: Football, Rugby
• Spring: Hockey
• Summer: Cricket

High-performance coaching in cricket, football, hockey, rugby, water polo, and swimming, led by professional sportspeople.

Partnerships: Middlesex Cricket, Watford Football, Saracens Rugby, Watford Waterpolo. Teams compete at district, county, and national level.

Facilities: 100-acre campus with the Medburn Centre (sports complex), gym, indoor swimming pool, fitness suite, tennis and netball courts, and sports fields.

Source: Sport and Co-Curricular — Sport Overview`,
		Sources: []corpus.Citation{
			{Source: "Sport and Co-Curricular", Section: "Sport Overview"},
			{Source: "Sport and Co-Curricular", Section: "High-Performance Sport"},
		},
	},
}

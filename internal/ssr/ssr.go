// Package ssr implements C2: a flat catalog of squawk codes and range
// expressions, keyword-classified into categories and a derived priority,
// grounded on original_source/ssr_code_parser.py's SSRCodeParser.
package ssr

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Category is a keyword-derived tag assigned to a code's description.
type Category string

const (
	CategoryEmergency   Category = "EMERGENCY"
	CategoryMilitary    Category = "MILITARY"
	CategorySAR         Category = "SAR"
	CategoryPolice      Category = "POLICE"
	CategoryMedical     Category = "MEDICAL"
	CategoryNATO        Category = "NATO"
	CategorySpecialOps  Category = "SPECIAL_OPS"
	CategoryConspicuity Category = "CONSPICUITY"
	CategoryTransit     Category = "TRANSIT"
	CategoryApproach    Category = "APPROACH"
	CategoryMonitoring  Category = "MONITORING"
	CategoryUnreliable  Category = "UNRELIABLE"
	CategoryHijack      Category = "HIJACK"
	CategoryRadioFail   Category = "RADIO_FAILURE"
)

// Priority is the derived severity used for ATC-relevant sorting/alerting.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Code is a single catalog entry after classification.
type Code struct {
	Code        string
	Description string
	Categories  []Category
	Priority    Priority
	Alert       bool
}

func (c Code) hasCategory(cat Category) bool {
	for _, have := range c.Categories {
		if have == cat {
			return true
		}
	}
	return false
}

// emergencyTriad are the three codes that are always CRITICAL/alert per
// spec.md §4.2, regardless of what the catalog (or its absence) says.
var emergencyTriad = map[string]bool{"7500": true, "7600": true, "7700": true}

// keywordCategories mirrors SSRCodeParser.categorize_codes' elif chain. Order
// matters: the first matching category wins, same as the Python "elif".
var keywordCategories = []struct {
	cat      Category
	keywords []string
}{
	{CategoryEmergency, []string{"EMERGENCY", "HI-JACKING", "HIJACK", "RADIO FAILURE", "MAYDAY", "PAN-PAN"}},
	{CategorySAR, []string{"SAR", "SEARCH AND RESCUE", "AIR AMBULANCE", "HELICOPTER EMERGENCY MEDIVAC", "HEMS", "MEDIVAC"}},
	{CategoryMedical, []string{"AMBULANCE", "MEDIVAC", "MEDICAL", "HEMS"}},
	{CategoryPolice, []string{"POLICE", "ASU", "AIR SUPPORT"}},
	{CategoryNATO, []string{"NATO", "CAOC", "EXERCISES", "AEW AIRCRAFT", "QUICK REACTION"}},
	{CategoryMilitary, []string{"RAF", "RNAS", "MILITARY", "MOD", "SPECIAL TASKS", "ROYAL FLIGHTS"}},
	{CategorySpecialOps, []string{"SPECIAL", "PARADROPPING", "ANTENNA TRAILING", "TARGET TOWING", "HIGH-ENERGY MANOEUVRES", "RED ARROWS", "AEROBATICS", "DISPLAY"}},
	{CategoryConspicuity, []string{"CONSPICUITY"}},
	{CategoryTransit, []string{"TRANSIT", "ORCAM"}},
	{CategoryApproach, []string{"APPROACH"}},
	{CategoryMonitoring, []string{"MONITORING"}},
	{CategoryUnreliable, []string{"UNRELIABLE"}},
}

// alwaysAlert categories always set Alert=true; MILITARY only alerts for the
// "SPECIAL TASKS"/"ROYAL FLIGHTS" subtypes, handled separately below.
var alwaysAlert = map[Category]bool{
	CategoryEmergency:   true,
	CategorySAR:         true,
	CategoryMedical:     true,
	CategoryPolice:      true,
	CategoryNATO:        true,
	CategorySpecialOps:  true,
}

func classify(code, description string) Code {
	upper := strings.ToUpper(description)
	c := Code{Code: code, Description: description}

	for _, kc := range keywordCategories {
		for _, kw := range kc.keywords {
			if strings.Contains(upper, kw) {
				c.Categories = append(c.Categories, kc.cat)
				goto matched
			}
		}
	}
matched:

	c.Priority = priorityFor(c.Categories)
	c.Alert = alertFor(c.Categories, upper)

	if emergencyTriad[code] {
		c.Priority = PriorityCritical
		c.Alert = true
	}
	return c
}

func priorityFor(cats []Category) Priority {
	has := func(want Category) bool {
		for _, c := range cats {
			if c == want {
				return true
			}
		}
		return false
	}
	switch {
	case has(CategoryEmergency) || has(CategoryHijack) || has(CategoryRadioFail):
		return PriorityCritical
	case has(CategorySAR) || has(CategoryMedical) || has(CategoryPolice) || has(CategoryNATO):
		return PriorityHigh
	case has(CategoryMilitary) || has(CategorySpecialOps):
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func alertFor(cats []Category, upperDescription string) bool {
	for _, c := range cats {
		if alwaysAlert[c] {
			return true
		}
		if c == CategoryMilitary && (strings.Contains(upperDescription, "SPECIAL TASKS") || strings.Contains(upperDescription, "ROYAL FLIGHTS")) {
			return true
		}
	}
	return false
}

// catalogLineRe parses "0000. Description" or "0001-0005. Description".
var catalogLineRe = regexp.MustCompile(`^(\d{4})(-?\d*)\.?\s+(.+)$`)

// Catalog is the loaded, classified SSR code table.
type Catalog struct {
	codes map[string]Code
}

// Load parses a flat catalog file such as the one loaded by
// original_source/ssr_code_parser.py.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ssr catalog %q: %w", path, err)
	}
	defer f.Close()

	cat := &Catalog{codes: make(map[string]Code)}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] < '0' || line[0] > '9' {
			continue
		}
		m := catalogLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		startStr, rangeStr, desc := m[1], m[2], m[3]
		if strings.Contains(rangeStr, "-") {
			endStr := strings.TrimPrefix(rangeStr, "-")
			start, errA := strconv.Atoi(startStr)
			end, errB := strconv.Atoi(endStr)
			if errA != nil || errB != nil {
				continue
			}
			for n := start; n <= end; n++ {
				code := fmt.Sprintf("%04d", n)
				cat.codes[code] = classify(code, desc)
			}
		} else {
			cat.codes[startStr] = classify(startStr, desc)
		}
	}
	return cat, sc.Err()
}

// Lookup returns the classified entry for a 4-digit octal squawk code,
// zero-padding if needed. The emergency triad always returns
// priority=CRITICAL, alert=true even when absent from the catalog, per
// spec.md §8 boundary behavior.
func (c *Catalog) Lookup(squawk string) (Code, bool) {
	squawk = strings.ReplaceAll(squawk, " ", "")
	for len(squawk) < 4 {
		squawk = "0" + squawk
	}

	if code, ok := c.codes[squawk]; ok {
		return code, true
	}
	if emergencyTriad[squawk] {
		return Code{Code: squawk, Description: "Emergency (not in catalog)", Priority: PriorityCritical, Alert: true}, true
	}
	return Code{}, false
}

// ByCategory returns every catalog entry tagged with cat.
func (c *Catalog) ByCategory(cat Category) []Code {
	var out []Code
	for _, code := range c.codes {
		if code.hasCategory(cat) {
			out = append(out, code)
		}
	}
	return out
}

// Len reports how many codes are loaded.
func (c *Catalog) Len() int { return len(c.codes) }

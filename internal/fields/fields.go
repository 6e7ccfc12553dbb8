// Package fields derives structured candidate facts from resume text using
// best-effort pattern heuristics. Extraction never fails; missing facts fall
// back to defaults.
package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// Education is the highest degree level detected in a resume.
type Education string

const (
	EducationUnknown   Education = "Unknown"
	EducationBachelors Education = "Bachelors"
	EducationMasters   Education = "Masters"
	EducationPhD       Education = "PhD"
)

// Rank orders education levels; Unknown is 0.
func (e Education) Rank() int {
	switch e {
	case EducationBachelors:
		return 1
	case EducationMasters:
		return 2
	case EducationPhD:
		return 3
	default:
		return 0
	}
}

// ParseEducation maps a free-text level to an Education, defaulting to Unknown.
func ParseEducation(s string) Education {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bachelors", "bachelor", "bachelor's":
		return EducationBachelors
	case "masters", "master", "master's":
		return EducationMasters
	case "phd", "ph.d", "doctorate":
		return EducationPhD
	default:
		return EducationUnknown
	}
}

// FieldSet holds the facts extracted from one resume.
type FieldSet struct {
	Name            string    `json:"name"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	Location        *string   `json:"location"`
	Skills          []string  `json:"skills"`
	ExperienceYears float64   `json:"experience_years"`
	EducationLevel  Education `json:"education_level"`
	Certifications  []string  `json:"certifications"`
	Projects        []string  `json:"projects"`
}

const (
	unknownName       = "Unknown"
	locationScanLines = 10
	maxProjects       = 5
)

var (
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phoneRe      = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?(\(?\d{3}\)?[-.\s]?)?\d{3}[-.\s]?\d{4}`)
	experienceRe = regexp.MustCompile(`(\d+\.?\d*)\s*\+?\s*years?`)

	cities = []string{"bangalore", "mumbai", "delhi", "pune", "hyderabad", "chennai"}

	certKeywords = []string{"aws", "azure", "gcp", "pmp", "scrum", "cissp", "ceh"}

	educationKeywords = []struct {
		level    Education
		keywords []string
	}{
		{EducationPhD, []string{"phd", "ph.d", "doctorate"}},
		{EducationMasters, []string{"master", "mba", "m.tech", "m.sc"}},
		{EducationBachelors, []string{"bachelor", "b.tech", "b.e", "b.sc"}},
	}
)

// Extract derives a FieldSet from plain resume text.
func Extract(text string) FieldSet {
	lower := strings.ToLower(text)
	return FieldSet{
		Name:            extractName(text),
		Email:           firstMatch(emailRe, text),
		Phone:           firstMatch(phoneRe, text),
		Location:        extractLocation(text),
		Skills:          matchSkills(lower),
		ExperienceYears: extractExperience(lower),
		EducationLevel:  extractEducation(lower),
		Certifications:  extractCertifications(lower),
		Projects:        extractProjects(text),
	}
}

func extractName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return unknownName
}

func firstMatch(re *regexp.Regexp, text string) *string {
	m := re.FindString(text)
	if m == "" {
		return nil
	}
	return &m
}

func extractLocation(text string) *string {
	lines := strings.Split(text, "\n")
	if len(lines) > locationScanLines {
		lines = lines[:locationScanLines]
	}
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, city := range cities {
			if strings.Contains(lower, city) {
				loc := strings.TrimSpace(line)
				return &loc
			}
		}
	}
	return nil
}

// extractExperience returns the largest "<n> years" figure in the text.
func extractExperience(lowerText string) float64 {
	var max float64
	for _, m := range experienceRe.FindAllStringSubmatch(lowerText, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max
}

func extractEducation(lowerText string) Education {
	for _, level := range educationKeywords {
		for _, kw := range level.keywords {
			if strings.Contains(lowerText, kw) {
				return level.level
			}
		}
	}
	return EducationUnknown
}

func extractCertifications(lowerText string) []string {
	certs := []string{}
	for _, kw := range certKeywords {
		if strings.Contains(lowerText, kw) {
			certs = append(certs, strings.ToUpper(kw))
		}
	}
	return certs
}

func extractProjects(text string) []string {
	projects := []string{}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "project") && strings.Contains(line, ":") {
			projects = append(projects, strings.TrimSpace(line))
			if len(projects) == maxProjects {
				break
			}
		}
	}
	return projects
}

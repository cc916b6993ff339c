package domain

// Scholarship is one entry of the catalog.
type Scholarship struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`

	Area           string `json:"area,omitempty" yaml:"area"`
	EducationLevel string `json:"education_level,omitempty" yaml:"education_level"`
	Location       string `json:"location,omitempty" yaml:"location"`
	Organization   string `json:"organization,omitempty" yaml:"organization"`

	Requirements []Requirement `json:"requirements,omitempty" yaml:"requirements"`
	Deadlines    []Deadline    `json:"deadlines,omitempty" yaml:"deadlines"`
}

// Value returns the catalog value of f.
func (s Scholarship) Value(f Field) string {
	switch f {
	case FieldArea:
		return s.Area
	case FieldEducationLevel:
		return s.EducationLevel
	case FieldLocation:
		return s.Location
	case FieldOrganization:
		return s.Organization
	}
	return ""
}

// MatchesFilters reports whether s satisfies every filter.
func (s Scholarship) MatchesFilters(fl Filters) bool {
	for _, f := range Fields {
		if !fl.Matches(f, s.Value(f)) {
			return false
		}
	}
	return true
}

// Requirement is a prerequisite to apply for a scholarship.
type Requirement struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Deadline is a dated milestone of a scholarship call.
type Deadline struct {
	Name string `json:"name" yaml:"name"`
	Date string `json:"date" yaml:"date"`
}

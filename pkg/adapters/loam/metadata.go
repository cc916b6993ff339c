package loam

import (
	"path/filepath"
	"strings"

	"github.com/aretw0/becas/pkg/domain"
)

// ScholarshipMetadata is the front matter of a scholarship document.
// Field keys follow the external vocabulary (campo_estudio, nivel, ...)
// so catalog authors use the same names the assistant speaks.
type ScholarshipMetadata struct {
	Name      string `json:"name" mapstructure:"name"`
	Area      string `json:"campo_estudio" mapstructure:"campo_estudio"`
	Nivel     string `json:"nivel" mapstructure:"nivel"`
	Ubicacion string `json:"ubicacion" mapstructure:"ubicacion"`
	Organismo string `json:"organismo" mapstructure:"organismo"`

	Requirements []RequirementMetadata `json:"requirements" mapstructure:"requirements"`
	Deadlines    []DeadlineMetadata    `json:"deadlines" mapstructure:"deadlines"`
}

type RequirementMetadata struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
}

type DeadlineMetadata struct {
	Name string `json:"name" mapstructure:"name"`
	Date string `json:"date" mapstructure:"date"`
}

// toScholarship builds the domain entry. The document ID, without
// extension, names the scholarship when the front matter does not.
func toScholarship(docID string, meta ScholarshipMetadata, body string) domain.Scholarship {
	name := meta.Name
	if name == "" {
		name = trimExtension(docID)
	}

	s := domain.Scholarship{
		Name:           name,
		Description:    strings.TrimSpace(body),
		Area:           normalize(meta.Area),
		EducationLevel: normalize(meta.Nivel),
		Location:       normalize(meta.Ubicacion),
		Organization:   normalize(meta.Organismo),
	}
	for _, r := range meta.Requirements {
		s.Requirements = append(s.Requirements, domain.Requirement{Name: r.Name, Description: r.Description})
	}
	for _, d := range meta.Deadlines {
		s.Deadlines = append(s.Deadlines, domain.Deadline{Name: d.Name, Date: d.Date})
	}
	return s
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	if ext := filepath.Ext(id); ext != "" {
		id = strings.TrimSuffix(id, ext)
	}
	return filepath.Base(id)
}

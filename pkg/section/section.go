// Package section assigns form fields to named sections and orders the
// sections deterministically. Explicit formSection tags win; otherwise the
// property name is matched against keyword sets, and anything left lands in
// the general section.
package section

// Well-known section identifiers, in render priority order.
const (
	SectionIdentity     = "identity"
	SectionGeneral      = "general"
	SectionLicence      = "licence"
	SectionConvictions  = "convictions"
	SectionDisabilities = "disabilities"
	SectionMedical      = "medical"
	SectionClaims       = "claims"
)

// DeclarationBanner is shown when an optional declaration section is
// expanded. The wording is a content policy and must not be reworded.
const DeclarationBanner = "⚠ You must declare everything. Failing to declare may void your cover."

// Definition describes one section: its identity, title, render order, and
// whether it is an optional declaration section that starts collapsed.
type Definition struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Order    int    `json:"order" yaml:"order"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`

	// Banner is the warning surfaced when an optional section is expanded.
	Banner string `json:"banner,omitempty" yaml:"banner,omitempty"`
}

func defaultDefinitions() []Definition {
	return []Definition{
		{ID: SectionIdentity, Title: "Your Details", Order: 0},
		{ID: SectionGeneral, Title: "General", Order: 1},
		{ID: SectionLicence, Title: "Licence Information", Order: 2},
		{ID: SectionConvictions, Title: "Convictions", Order: 3, Optional: true, Banner: DeclarationBanner},
		{ID: SectionDisabilities, Title: "Disabilities & Restrictions", Order: 4, Optional: true, Banner: DeclarationBanner},
		{ID: SectionMedical, Title: "Medical Conditions", Order: 5, Optional: true, Banner: DeclarationBanner},
		{ID: SectionClaims, Title: "Claims & Accidents", Order: 6, Optional: true, Banner: DeclarationBanner},
	}
}

// defaultTags maps explicit formSection tags onto section IDs.
func defaultTags() map[string]string {
	return map[string]string{
		"identity":     SectionIdentity,
		"personal":     SectionIdentity,
		"driver":       SectionIdentity,
		"general":      SectionGeneral,
		"vehicle":      SectionGeneral,
		"policy":       SectionGeneral,
		"licence":      SectionLicence,
		"license":      SectionLicence,
		"convictions":  SectionConvictions,
		"disabilities": SectionDisabilities,
		"medical":      SectionMedical,
		"claims":       SectionClaims,
		"accidents":    SectionClaims,
	}
}

// defaultKeywords maps section IDs to property-name fragments used when no
// explicit tag is present.
func defaultKeywords() map[string][]string {
	return map[string][]string{
		SectionIdentity:     {"title", "firstname", "lastname", "surname", "dateofbirth", "dob", "email", "phone", "postcode", "address", "maritalstatus"},
		SectionLicence:      {"licence", "license"},
		SectionConvictions:  {"conviction", "offence", "ban", "disqualif"},
		SectionDisabilities: {"disabilit", "restriction", "dvla"},
		SectionMedical:      {"medical", "condition", "eyesight"},
		SectionClaims:       {"claim", "accident", "incident"},
	}
}

// keywordOrder fixes the heuristic evaluation order so a property matching
// several keyword sets lands in the same section on every run.
var keywordOrder = []string{
	SectionLicence,
	SectionConvictions,
	SectionDisabilities,
	SectionMedical,
	SectionClaims,
	SectionIdentity,
}

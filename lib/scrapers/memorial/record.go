package memorial

// Gps coordinates are kept as the decimal-degree strings found in the
// source's map link, the mixed precision there makes float parsing lossy.
type Gps struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type Photo struct {
	ImageUrl              string `json:"src"`
	ContributorName       string `json:"contributor_text,omitempty"`
	ContributorProfileUrl string `json:"contributor_href,omitempty"`
}

// FamilyMember is one entry of a memorial's family section. Any field
// may be empty, the source frequently omits dates and profile links.
type FamilyMember struct {
	Name       string `json:"name"`
	BirthDate  string `json:"birth_date,omitempty"`
	DeathDate  string `json:"death_date,omitempty"`
	ProfileUrl string `json:"profile_url,omitempty"`
}

// Record is the normalized form of one memorial page. It is built once
// by extraction and never mutated afterwards. String fields are empty
// when the source page lacks the corresponding element; dates are in
// canonical form ("2006-01-02" or "2006-00-00") or empty when unknown.
type Record struct {
	SourceUrl string `json:"memorial_url"`

	Name           string `json:"name,omitempty"`
	NamePrefix     string `json:"prefix,omitempty"`
	HonorificTitle string `json:"title,omitempty"`

	BirthDate string `json:"birth_date,omitempty"`
	DeathDate string `json:"death_date,omitempty"`

	CemeteryName   string `json:"cemetery,omitempty"`
	CemeteryCity   string `json:"location,omitempty"`
	PlotDescriptor string `json:"plot_value,omitempty"`

	PartialBiography string `json:"part_bio,omitempty"`
	Biography        string `json:"bio,omitempty"`

	ProfileImageUrl  string  `json:"image_url,omitempty"`
	ImageCredits     string  `json:"image_credits,omitempty"`
	ImageCreditsUrl  string  `json:"image_credits_url,omitempty"`
	AdditionalPhotos []Photo `json:"photos,omitempty"`

	Gps *Gps `json:"gps,omitempty"`

	Parents      []FamilyMember `json:"parents,omitempty"`
	Spouses      []FamilyMember `json:"spouses,omitempty"`
	Children     []FamilyMember `json:"children,omitempty"`
	Siblings     []FamilyMember `json:"siblings,omitempty"`
	HalfSiblings []FamilyMember `json:"half_siblings,omitempty"`
}

package privacy

// CreatorProfile carries the creator identity a detector is configured
// with. All fields are optional. The profile is consumed at construction
// time; the detector stores normalized derivatives, never the profile
// itself.
type CreatorProfile struct {
	Name     string
	Handle   string
	Location string
	Employer string
}

// DefaultPlaceholder is substituted for detected PII when sanitizing.
const DefaultPlaceholder = "[REDACTED]"

// Stats exposes the size of each secret set. Only counts are ever
// observable; the stored values have no serialized form.
type Stats struct {
	Names          int `json:"creator_names_count"`
	Handles        int `json:"creator_handles_count"`
	Locations      int `json:"creator_locations_count"`
	Employers      int `json:"creator_employers_count"`
	Family         int `json:"creator_family_count"`
	Phones         int `json:"creator_phone_count"`
	Emails         int `json:"creator_email_count"`
	Addresses      int `json:"creator_address_count"`
	CustomPatterns int `json:"custom_patterns_count"`
}

// Total returns the number of stored secrets across all categories,
// excluding custom patterns.
func (s Stats) Total() int {
	return s.Names + s.Handles + s.Locations + s.Employers +
		s.Family + s.Phones + s.Emails + s.Addresses
}

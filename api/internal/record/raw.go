package record

// RawContact holds contact fields as the collaborator returned them, unvalidated.
type RawContact struct {
	Name          string `json:"name"`
	TaxID         string `json:"tax_id"`
	MobilePhone   string `json:"mobile_phone"`
	LandlinePhone string `json:"landline_phone"`
	Email         string `json:"email"`
}

// RawUnit is one extracted row with up to two contact candidates.
type RawUnit struct {
	Unit        string     `json:"unit"`
	Block       string     `json:"block"`
	Type        string     `json:"type"`
	Profile     string     `json:"profile"`
	Owner       RawContact `json:"owner"`
	Responsible RawContact `json:"responsible"`
}

// RawDocument is the pre-canonical DocumentResult. TotalUnits is whatever the
// collaborator reported and is never trusted.
type RawDocument struct {
	Units           []RawUnit `json:"units"`
	TotalUnits      int       `json:"total_units"`
	CondominiumName string    `json:"condominium_name"`
}

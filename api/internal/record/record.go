// Package record holds the unit-ownership data model: the raw shape returned
// by the extraction collaborator and the canonical shape produced by
// normalization and reconciliation.
package record

// UnitType is the canonical unit category.
type UnitType string

const (
	Apartment UnitType = "Apartment"
	Garage    UnitType = "Garage"
	Room      UnitType = "Room"
	Store     UnitType = "Store"
	Other     UnitType = "Other"
)

// Profile is the role of the person bundled as owner. Only Owner survives canonicalization.
type Profile string

const Owner Profile = "Owner"

// ContactBundle is one person's identification and contact data, every field canonical or empty.
type ContactBundle struct {
	Name          string `json:"name"`
	TaxID         string `json:"tax_id"`         // CPF 000.000.000-00 | CNPJ 00.000.000/0000-00
	MobilePhone   string `json:"mobile_phone"`   // (DD) DDDDD-DDDD
	LandlinePhone string `json:"landline_phone"` // (DD) DDDD-DDDD
	Email         string `json:"email"`
}

// IsZero reports whether no field is populated.
func (c ContactBundle) IsZero() bool {
	return c == ContactBundle{}
}

// SameIdentity reports whether both bundles name the same person: equal name and equal tax id.
func (c ContactBundle) SameIdentity(o ContactBundle) bool {
	return c.Name == o.Name && c.TaxID == o.TaxID
}

// UnitRecord is one canonical row of the dataset.
type UnitRecord struct {
	UnitID      string         `json:"unit_id"`
	Block       string         `json:"block"`
	UnitType    UnitType       `json:"unit_type"`
	UnitTypeRaw string         `json:"unit_type_raw"`
	Profile     Profile        `json:"profile"`
	Owner       ContactBundle  `json:"owner"`
	Responsible *ContactBundle `json:"responsible,omitempty"`
}

// Key identifies the physical unit.
type Key struct {
	UnitID string
	Block  string
}

func (u UnitRecord) Key() Key { return Key{UnitID: u.UnitID, Block: u.Block} }

func (k Key) String() string {
	if k.Block == "" {
		return k.UnitID
	}
	return k.Block + "/" + k.UnitID
}

// Raw turns a canonical record back into the collaborator's shape, so that
// canonicalization can be applied again.
func (u UnitRecord) Raw() RawUnit {
	typ := u.UnitTypeRaw
	if typ == "" && u.UnitType != Apartment {
		// empty raw type canonicalizes to Apartment
		typ = string(u.UnitType)
	}
	r := RawUnit{
		Unit:    u.UnitID,
		Block:   u.Block,
		Type:    typ,
		Profile: string(u.Profile),
		Owner:   rawContact(u.Owner),
	}
	if u.Responsible != nil {
		r.Responsible = rawContact(*u.Responsible)
	}
	return r
}

func rawContact(c ContactBundle) RawContact {
	return RawContact{
		Name:          c.Name,
		TaxID:         c.TaxID,
		MobilePhone:   c.MobilePhone,
		LandlinePhone: c.LandlinePhone,
		Email:         c.Email,
	}
}

// DocumentResult is the canonical, reconciled dataset of one document.
type DocumentResult struct {
	Units           []UnitRecord `json:"units"`
	TotalUnits      int          `json:"total_units"`
	CondominiumName string       `json:"condominium_name,omitempty"`
}

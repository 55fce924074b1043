package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactBundle_SameIdentity(t *testing.T) {
	a := ContactBundle{Name: "João Silva", TaxID: "123.456.789-01", Email: "a@b.com"}

	assert.True(t, a.SameIdentity(ContactBundle{Name: "João Silva", TaxID: "123.456.789-01"}))
	assert.False(t, a.SameIdentity(ContactBundle{Name: "João Silva"}))
	assert.False(t, a.SameIdentity(ContactBundle{Name: "Maria Silva", TaxID: "123.456.789-01"}))
}

func TestUnitRecord_Raw(t *testing.T) {
	u := UnitRecord{
		UnitID:      "101",
		Block:       "A",
		UnitType:    Other,
		UnitTypeRaw: "Cobertura",
		Profile:     Owner,
		Owner:       ContactBundle{Name: "Ana", TaxID: "123.456.789-01"},
		Responsible: &ContactBundle{Name: "Beto"},
	}

	r := u.Raw()
	assert.Equal(t, "101", r.Unit)
	assert.Equal(t, "A", r.Block)
	assert.Equal(t, "Cobertura", r.Type)
	assert.Equal(t, "Ana", r.Owner.Name)
	assert.Equal(t, "Beto", r.Responsible.Name)

	u.UnitTypeRaw = ""
	u.Responsible = nil
	r = u.Raw()
	assert.Equal(t, "Other", r.Type)
	assert.Equal(t, RawContact{}, r.Responsible)
}

func TestUnitRecord_JSONOmitsAbsentResponsible(t *testing.T) {
	b, err := json.Marshal(UnitRecord{UnitID: "1", UnitType: Apartment, Profile: Owner})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "responsible")
	assert.Contains(t, string(b), `"unit_type":"Apartment"`)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "B/12", Key{UnitID: "12", Block: "B"}.String())
	assert.Equal(t, "12", Key{UnitID: "12"}.String())
}

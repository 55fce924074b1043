package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-extract/api/internal/record"
)

func TestRecord(t *testing.T) {
	raw := record.RawUnit{
		Unit:  "Bloco 01 Unidade 01-01",
		Block: "01",
		Type:  "Apto",
		Owner: record.RawContact{
			Name:          "  joão  da silva ",
			TaxID:         "52998224725",
			MobilePhone:   "11987654321",
			LandlinePhone: "1132654321",
			Email:         " John.Doe@Example.COM ",
		},
	}

	got, amb := Record(raw)
	assert.Empty(t, amb)
	assert.Equal(t, record.UnitRecord{
		UnitID:      "01-01",
		Block:       "01",
		UnitType:    record.Apartment,
		UnitTypeRaw: "Apto",
		Profile:     record.Owner,
		Owner: record.ContactBundle{
			Name:          "João Da Silva",
			TaxID:         "529.982.247-25",
			MobilePhone:   "(11) 98765-4321",
			LandlinePhone: "(11) 3265-4321",
			Email:         "john.doe@example.com",
		},
	}, got)
}

func TestRecord_RecoversBlockFromUnit(t *testing.T) {
	got, _ := Record(record.RawUnit{Unit: "Bloco 01 Unidade 01-01"})
	assert.Equal(t, "01", got.Block)
	assert.Equal(t, "01-01", got.UnitID)
}

func TestRecord_RecoversHyphenatedBlockFromUnit(t *testing.T) {
	got, _ := Record(record.RawUnit{Unit: "Unidade 5 Bloco X-1"})
	assert.Equal(t, "X-1", got.Block)
	assert.Equal(t, "5", got.UnitID)

	again, _ := Record(got.Raw())
	assert.Equal(t, got, again)
}

func TestRecord_ResponsibleDuplicateOfOwnerIsFolded(t *testing.T) {
	got, _ := Record(record.RawUnit{
		Unit:        "12",
		Owner:       record.RawContact{Name: "ANA SOUZA", TaxID: "529.982.247-25"},
		Responsible: record.RawContact{Name: "ana souza", TaxID: "52998224725", Email: "ana@x.com"},
	})
	assert.Nil(t, got.Responsible)
	assert.Equal(t, "ana@x.com", got.Owner.Email)
}

func TestRecord_DistinctResponsibleIsKept(t *testing.T) {
	got, _ := Record(record.RawUnit{
		Unit:        "12",
		Owner:       record.RawContact{Name: "Ana Souza", TaxID: "52998224725"},
		Responsible: record.RawContact{Name: "Imobiliária Lar", TaxID: "11222333000181"},
	})
	require.NotNil(t, got.Responsible)
	assert.Equal(t, "Imobiliária Lar", got.Responsible.Name)
	assert.Equal(t, "11.222.333/0001-81", got.Responsible.TaxID)
}

func TestRecord_SameNameDifferentTaxIDIsKept(t *testing.T) {
	got, _ := Record(record.RawUnit{
		Owner:       record.RawContact{Name: "Ana Souza", TaxID: "52998224725"},
		Responsible: record.RawContact{Name: "Ana Souza", TaxID: "11222333000181"},
	})
	assert.NotNil(t, got.Responsible)
}

func TestRecord_EmptyResponsibleIsAbsent(t *testing.T) {
	got, _ := Record(record.RawUnit{Unit: "1", Responsible: record.RawContact{Name: "  "}})
	assert.Nil(t, got.Responsible)
}

func TestRecord_LandlineSlotHoldingMobile(t *testing.T) {
	got, amb := Record(record.RawUnit{
		Owner: record.RawContact{LandlinePhone: "11987654321"},
	})
	assert.Empty(t, amb)
	assert.Equal(t, "(11) 98765-4321", got.Owner.MobilePhone)
	assert.Empty(t, got.Owner.LandlinePhone)

	got, amb = Record(record.RawUnit{
		Owner: record.RawContact{MobilePhone: "21999998888", LandlinePhone: "11987654321"},
	})
	assert.Equal(t, "(21) 99999-8888", got.Owner.MobilePhone)
	assert.Equal(t, "11987654321", got.Owner.LandlinePhone)
	require.Len(t, amb, 1)
	assert.Equal(t, Ambiguity{Field: "owner.landline_phone", Kind: UnrecognizedPhoneLength, Value: "11987654321"}, amb[0])
}

func TestRecord_CollectsAmbiguities(t *testing.T) {
	_, amb := Record(record.RawUnit{
		Unit: "7",
		Type: "Cobertura",
		Owner: record.RawContact{
			TaxID:       "12345678901",
			MobilePhone: "12345",
			Email:       "not-an-email",
		},
		Responsible: record.RawContact{Name: "Beto", TaxID: "999"},
	})

	kinds := map[string]AmbiguityKind{}
	for _, a := range amb {
		kinds[a.Field] = a.Kind
	}
	assert.Equal(t, map[string]AmbiguityKind{
		"unit_type":          UnrecognizedUnitType,
		"owner.tax_id":       InvalidTaxIDChecksum,
		"owner.mobile_phone": UnrecognizedPhoneLength,
		"owner.email":        InvalidEmailShape,
		"responsible.tax_id": UnrecognizedTaxIDLength,
	}, kinds)
}

func TestRecord_Idempotent(t *testing.T) {
	rows := []record.RawUnit{
		{
			Unit: "Bloco 01 Unidade 01-01", Type: "Apto",
			Owner: record.RawContact{Name: " joão da silva", TaxID: "12345678901", MobilePhone: "1187654321", Email: " A@B.COM"},
		},
		{
			Unit: "apto. 101a", Block: "Torre b", Type: "Cobertura",
			Owner:       record.RawContact{Name: "MARIA", MobilePhone: "21999998888", LandlinePhone: "11987654321"},
			Responsible: record.RawContact{Name: "Imobiliária Lar", TaxID: "11222333000181", LandlinePhone: "2132654321"},
		},
		{
			Unit: "Sala Vaga 3", Type: "",
			Owner:       record.RawContact{LandlinePhone: "11987654321", Email: "not-an-email", TaxID: "999"},
			Responsible: record.RawContact{Email: "x@y.com"},
		},
		{},
	}
	for _, raw := range rows {
		once, _ := Record(raw)
		twice, _ := Record(once.Raw())
		assert.Equal(t, once, twice, "row %+v", raw)
	}
}

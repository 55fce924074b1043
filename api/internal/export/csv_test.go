package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-extract/api/internal/record"
)

func TestWriteCSV(t *testing.T) {
	doc := record.DocumentResult{
		TotalUnits: 2,
		Units: []record.UnitRecord{
			{
				UnitID: "101", Block: "A", UnitType: record.Apartment, Profile: record.Owner,
				Owner: record.ContactBundle{Name: "Ana Souza", TaxID: "111.444.777-35", MobilePhone: "(11) 98765-4321", Email: "ana@x.com"},
				Responsible: &record.ContactBundle{Name: "Caio Lima; Jr"},
			},
			{
				UnitID: "G1", UnitType: record.Garage, UnitTypeRaw: "Vaga", Profile: record.Owner,
				Owner: record.ContactBundle{Name: "Bia"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, doc))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Unidade;Bloco;Tipo;Perfil;Nome;CPF_CNPJ;Celular;Telefone_fixo;Email", lines[0])
	assert.Equal(t, "101;A;Apto;Proprietário;Ana Souza;111.444.777-35;(11) 98765-4321;;ana@x.com", lines[1])
	assert.Equal(t, `101;A;Apto;Responsável;"Caio Lima; Jr";;;;`, lines[2])
	assert.Equal(t, "G1;;Vaga;Proprietário;Bia;;;;", lines[3])
}

func TestCSVHasBOM(t *testing.T) {
	b, err := CSV(record.DocumentResult{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\ufeffUnidade;")))
}

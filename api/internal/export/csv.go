// Package export renders a DocumentResult for people checking it by hand.
package export

import (
	"bytes"
	"encoding/csv"
	"io"

	"condo-extract/api/internal/record"
)

// Header of the spreadsheet-friendly CSV.
var Header = []string{"Unidade", "Bloco", "Tipo", "Perfil", "Nome", "CPF_CNPJ", "Celular", "Telefone_fixo", "Email"}

// Profile labels as shown in the sheet.
const (
	ProfileOwner       = "Proprietário"
	ProfileResponsible = "Responsável"
)

var typeLabels = map[record.UnitType]string{
	record.Apartment: "Apto",
	record.Garage:    "Garagem",
	record.Room:      "Sala",
	record.Store:     "Loja",
	record.Other:     "Outro",
}

// WriteCSV writes one row per person: the owner, then the responsible party
// when present. Fields are separated by ';'.
func WriteCSV(w io.Writer, doc record.DocumentResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, u := range doc.Units {
		if err := cw.Write(row(u, ProfileOwner, u.Owner)); err != nil {
			return err
		}
		if u.Responsible != nil {
			if err := cw.Write(row(u, ProfileResponsible, *u.Responsible)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV is WriteCSV into a byte slice.
func CSV(doc record.DocumentResult) ([]byte, error) {
	var buf bytes.Buffer
	// BOM so spreadsheet tools pick UTF-8 for the accented names.
	buf.WriteString("\ufeff")
	if err := WriteCSV(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func row(u record.UnitRecord, profile string, c record.ContactBundle) []string {
	return []string{
		u.UnitID,
		u.Block,
		typeLabel(u),
		profile,
		c.Name,
		c.TaxID,
		c.MobilePhone,
		c.LandlinePhone,
		c.Email,
	}
}

// typeLabel prefers the text the document used.
func typeLabel(u record.UnitRecord) string {
	if u.UnitTypeRaw != "" {
		return u.UnitTypeRaw
	}
	if l, ok := typeLabels[u.UnitType]; ok {
		return l
	}
	return string(u.UnitType)
}

package normalize

import "condo-extract/api/internal/record"

// Record canonicalizes one extracted row. It is pure and never fails:
// unformattable fields come back best-effort and are listed as ambiguities.
//
// The block is resolved first (recovered from the unit text when the row has
// none) because the unit designator is stripped against it. A responsible
// party that is empty, or carries the owner's name and tax id, is folded into
// the owner and left absent.
func Record(raw record.RawUnit) (record.UnitRecord, []Ambiguity) {
	var amb []Ambiguity

	block, _ := Block(raw.Block)
	if block == "" {
		block = BlockFromUnit(raw.Unit)
	}
	unit, _ := UnitDesignator(raw.Unit, block)

	typ, typRaw, conf := UnitType(raw.Type)
	if conf == Ambiguous {
		amb = append(amb, Ambiguity{Field: "unit_type", Kind: UnrecognizedUnitType, Value: raw.Type})
	}

	owner, a := Contact("owner", raw.Owner)
	amb = append(amb, a...)
	resp, a := Contact("responsible", raw.Responsible)
	amb = append(amb, a...)

	out := record.UnitRecord{
		UnitID:      unit,
		Block:       block,
		UnitType:    typ,
		UnitTypeRaw: typRaw,
		Profile:     record.Owner,
		Owner:       owner,
	}
	switch {
	case resp.IsZero():
	case resp.SameIdentity(owner):
		out.Owner = FillContact(owner, resp)
	default:
		out.Responsible = &resp
	}
	return out, amb
}

// Contact canonicalizes every field of a contact bundle. prefix names the
// bundle in the returned ambiguities ("owner", "responsible").
func Contact(prefix string, raw record.RawContact) (record.ContactBundle, []Ambiguity) {
	var amb []Ambiguity
	flag := func(field string, kind AmbiguityKind, value string) {
		amb = append(amb, Ambiguity{Field: prefix + "." + field, Kind: kind, Value: value})
	}

	var c record.ContactBundle
	c.Name, _ = Name(raw.Name)

	var conf Confidence
	c.TaxID, conf = TaxID(raw.TaxID)
	switch {
	case conf == Ambiguous:
		flag("tax_id", UnrecognizedTaxIDLength, raw.TaxID)
	case c.TaxID != "" && !ValidTaxID(c.TaxID):
		flag("tax_id", InvalidTaxIDChecksum, raw.TaxID)
	}

	if c.MobilePhone, conf = Phone(raw.MobilePhone, PhoneMobile); conf == Ambiguous {
		flag("mobile_phone", UnrecognizedPhoneLength, raw.MobilePhone)
	}

	// An 11-digit number in the landline slot is a mobile number.
	if len(digitsOnly(raw.LandlinePhone)) == 11 {
		mobile, _ := Phone(raw.LandlinePhone, PhoneMobile)
		switch c.MobilePhone {
		case "":
			c.MobilePhone = mobile
		case mobile:
		default:
			c.LandlinePhone = digitsOnly(raw.LandlinePhone)
			flag("landline_phone", UnrecognizedPhoneLength, raw.LandlinePhone)
		}
	} else if c.LandlinePhone, conf = Phone(raw.LandlinePhone, PhoneLandline); conf == Ambiguous {
		flag("landline_phone", UnrecognizedPhoneLength, raw.LandlinePhone)
	}

	if c.Email, conf = Email(raw.Email); conf == Ambiguous {
		flag("email", InvalidEmailShape, raw.Email)
	}
	return c, amb
}

// FillContact returns dst with every empty field taken from src.
func FillContact(dst, src record.ContactBundle) record.ContactBundle {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.Name, src.Name)
	fill(&dst.TaxID, src.TaxID)
	fill(&dst.MobilePhone, src.MobilePhone)
	fill(&dst.LandlinePhone, src.LandlinePhone)
	fill(&dst.Email, src.Email)
	return dst
}

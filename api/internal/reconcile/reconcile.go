// Package reconcile merges canonical rows that describe the same physical unit.
package reconcile

import (
	"condo-extract/api/internal/normalize"
	"condo-extract/api/internal/record"
)

type ConflictKind string

const (
	// ResponsibleMismatch: duplicates of a unit name different responsible parties.
	ResponsibleMismatch ConflictKind = "responsible_mismatch"
	// OwnerMismatch: duplicates of a unit name different owners.
	OwnerMismatch ConflictKind = "owner_mismatch"
)

// Conflict is a warning: the first identity was kept, the other dropped.
type Conflict struct {
	UnitID  string               `json:"unit_id"`
	Block   string               `json:"block"`
	Kind    ConflictKind         `json:"kind"`
	Kept    record.ContactBundle `json:"kept"`
	Dropped record.ContactBundle `json:"dropped"`
}

// Result of one reconciliation pass.
type Result struct {
	Document  record.DocumentResult
	Conflicts []Conflict
	// Merged counts input rows folded into an earlier row of the same unit.
	Merged int
}

// Reconcile groups rows by (unit_id, block), merges each group and keeps the
// groups in first-seen order. TotalUnits is always the number of groups.
func Reconcile(rows []record.UnitRecord, condominium string) Result {
	var (
		order  []record.Key
		groups = make(map[record.Key][]record.UnitRecord, len(rows))
	)
	for _, r := range rows {
		k := r.Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	res := Result{Merged: len(rows) - len(order)}
	units := make([]record.UnitRecord, 0, len(order))
	for _, k := range order {
		u, conflicts := merge(groups[k])
		units = append(units, u)
		res.Conflicts = append(res.Conflicts, conflicts...)
	}
	res.Document = record.DocumentResult{
		Units:           units,
		TotalUnits:      len(units),
		CondominiumName: condominium,
	}
	return res
}

// merge folds a group into one record. The first member with an owner name
// leads; every other field takes the first non-empty value in original order.
func merge(group []record.UnitRecord) (record.UnitRecord, []Conflict) {
	if len(group) == 1 {
		return group[0], nil
	}

	lead := 0
	for i, r := range group {
		if r.Owner.Name != "" {
			lead = i
			break
		}
	}
	ordered := make([]record.UnitRecord, 0, len(group))
	ordered = append(ordered, group[lead])
	ordered = append(ordered, group[:lead]...)
	ordered = append(ordered, group[lead+1:]...)

	out := ordered[0]
	out.Responsible = nil
	var conflicts []Conflict
	for _, r := range ordered[1:] {
		if out.UnitTypeRaw == "" && r.UnitTypeRaw != "" {
			out.UnitType, out.UnitTypeRaw = r.UnitType, r.UnitTypeRaw
		}
		if distinct(out.Owner, r.Owner) {
			conflicts = append(conflicts, conflict(out, OwnerMismatch, out.Owner, r.Owner))
		}
		out.Owner = normalize.FillContact(out.Owner, r.Owner)
	}

	// Responsible: first one in original order wins.
	for _, r := range group {
		if r.Responsible == nil {
			continue
		}
		if out.Responsible == nil {
			resp := *r.Responsible
			out.Responsible = &resp
			continue
		}
		if distinct(*out.Responsible, *r.Responsible) {
			conflicts = append(conflicts, conflict(out, ResponsibleMismatch, *out.Responsible, *r.Responsible))
		}
	}

	// Owner may have absorbed the responsible's identity while merging.
	if out.Responsible != nil && out.Responsible.SameIdentity(out.Owner) {
		out.Owner = normalize.FillContact(out.Owner, *out.Responsible)
		out.Responsible = nil
	}
	return out, conflicts
}

// distinct reports whether two bundles name different people: names or tax
// ids that are both present and differ.
func distinct(a, b record.ContactBundle) bool {
	return (a.Name != "" && b.Name != "" && a.Name != b.Name) ||
		(a.TaxID != "" && b.TaxID != "" && a.TaxID != b.TaxID)
}

func conflict(u record.UnitRecord, kind ConflictKind, kept, dropped record.ContactBundle) Conflict {
	return Conflict{UnitID: u.UnitID, Block: u.Block, Kind: kind, Kept: kept, Dropped: dropped}
}

// Package anonymize strips PII/PHI from record sets and replaces raw
// patient identifiers with a deterministic one-way digest.
package anonymize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// ID returns the anonymized form of a raw identifier: the first 16 hex
// characters of its SHA-256 digest. The same input always produces the same
// output, which is what allows anonymized assessments of one patient to be
// joined across runs.
func ID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// DirectIdentifiers are columns that must never reach the warehouse.
var DirectIdentifiers = []string{"patient_name", "email", "phone", "address", "ssn"}

// Anonymizer adds an anonymized identifier column derived from IDColumn and
// drops direct identifier columns. The raw identifier column itself is
// dropped too unless RetainRawID is set; retention is a policy decision for
// deployments that join against clinical systems downstream.
type Anonymizer struct {
	IDColumn    string // default "patient_id"
	OutColumn   string // default "anonymized_id"
	RetainRawID bool
}

func (a *Anonymizer) Name() string { return "anonymize" }

func (a *Anonymizer) idColumn() string {
	if a.IDColumn != "" {
		return a.IDColumn
	}
	return "patient_id"
}

func (a *Anonymizer) outColumn() string {
	if a.OutColumn != "" {
		return a.OutColumn
	}
	return "anonymized_id"
}

func (a *Anonymizer) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	out := in
	idCol, hasID := in.ColumnByName(a.idColumn())
	sc, isString := idCol.(*tbl.StringColumn)
	if hasID && isString {
		cols := make([]tbl.ColumnSchema, len(in.Schema().Columns))
		copy(cols, in.Schema().Columns)
		if !in.Schema().HasColumn(a.outColumn()) {
			cols = append(cols, tbl.ColumnSchema{Name: a.outColumn(), Type: tbl.KindString, Nullable: true})
		}
		out = tbl.New(tbl.Schema{Columns: cols})
		for r := 0; r < in.Rows(); r++ {
			out.AppendNullRow()
			tbl.CopyRow(out, r, in, r)
			if raw, ok := sc.Get(r); ok {
				_ = out.SetCell(r, a.outColumn(), ID(raw))
			}
		}
	}

	drop := make([]string, 0, len(DirectIdentifiers)+1)
	drop = append(drop, DirectIdentifiers...)
	if !a.RetainRawID {
		drop = append(drop, a.idColumn())
	}
	return out.DropColumns(drop...), nil
}

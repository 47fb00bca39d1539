// pkg/cleaner/stages.go
package cleaner

import (
	"fmt"
	"strings"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/failure"
	"github.com/David-Botos/pathprep/pkg/model"
)

// Stage names used in errors, diagnostics and metrics
const (
	StageLoad             = "load"
	StageDropColumns      = "drop_columns"
	StageDeriveType       = "derive_type"
	StageRename           = "rename"
	StageReconcile        = "reconcile"
	StageCanonicalizeYear = "canonicalize_year"
	StageNormalizeText    = "normalize_text"
	StageProject          = "project"
	StagePersist          = "persist"
	StageVerify           = "verify"
)

// Stage functions below never modify their input table.

func missingColumns(t *model.Table, names []string) []string {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// schemaError names the missing columns, pointing at a column that differs
// only in case or surrounding space when the table has one.
func schemaError(t *model.Table, stage string, missing []string) error {
	described := make([]string, len(missing))
	for i, name := range missing {
		described[i] = name
		if col := t.GetColumnByName(name); col != nil {
			described[i] = fmt.Sprintf("%s (found %q)", name, col.Name)
		}
	}
	return failure.Newf(failure.Schema, stage, strings.Join(missing, ","),
		"missing columns: %s", strings.Join(described, ", "))
}

// withoutColumns returns t minus the named columns
func withoutColumns(t *model.Table, names ...string) *model.Table {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}

	out := &model.Table{
		Columns: make([]model.Column, 0, len(t.Columns)),
		Rows:    make([]model.Row, len(t.Rows)),
	}
	for _, col := range t.Columns {
		if !drop[col.Name] {
			out.Columns = append(out.Columns, col)
		}
	}
	for i, row := range t.Rows {
		nr := row.Clone()
		for name := range drop {
			delete(nr, name)
		}
		out.Rows[i] = nr
	}
	return out
}

// DropColumns removes the given columns. Every one of them must exist.
func DropColumns(t *model.Table, cols []DropColumn) (*model.Table, error) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	if missing := missingColumns(t, names); len(missing) > 0 {
		return nil, schemaError(t, StageDropColumns, missing)
	}
	return withoutColumns(t, names...), nil
}

// DeriveType builds the type column from the two classification columns and
// drops them. The new column takes the position of the primary one.
func DeriveType(t *model.Table) (*model.Table, error) {
	if missing := missingColumns(t, []string{ColTypePrimary, ColTypeSecondary}); len(missing) > 0 {
		return nil, schemaError(t, StageDeriveType, missing)
	}

	out := &model.Table{
		Columns: make([]model.Column, 0, len(t.Columns)),
		Rows:    make([]model.Row, len(t.Rows)),
	}
	for _, col := range t.Columns {
		switch col.Name {
		case ColTypePrimary:
			out.Columns = append(out.Columns, model.Column{Name: ColType, Kind: model.KindString, Nullable: true})
		case ColTypeSecondary, ColType:
		default:
			out.Columns = append(out.Columns, col)
		}
	}

	for i, row := range t.Rows {
		nr := row.Clone()
		nr[ColType] = concatType(row[ColTypePrimary], row[ColTypeSecondary])
		delete(nr, ColTypePrimary)
		delete(nr, ColTypeSecondary)
		out.Rows[i] = nr
	}
	return out, nil
}

// Rename applies the rename map. An entry whose source is gone but whose
// target already exists is satisfied; an entry with neither is a schema error.
// A source whose target is also present is ambiguous and rejected.
func Rename(t *model.Table, renames []RenameColumn) (*model.Table, error) {
	mapping := make(map[string]string)
	var missing, conflicting []string

	for _, r := range renames {
		hasFrom, hasTo := t.HasColumn(r.From), t.HasColumn(r.To)
		switch {
		case hasFrom && hasTo && r.From != r.To:
			conflicting = append(conflicting, r.From+"->"+r.To)
		case hasFrom:
			mapping[r.From] = r.To
		case hasTo:
		default:
			missing = append(missing, r.From)
		}
	}
	if len(missing) > 0 {
		return nil, schemaError(t, StageRename, missing)
	}
	if len(conflicting) > 0 {
		return nil, failure.Newf(failure.Schema, StageRename, strings.Join(conflicting, ","),
			"rename targets already exist: %s", strings.Join(conflicting, ", "))
	}

	out := &model.Table{
		Columns: make([]model.Column, len(t.Columns)),
		Rows:    make([]model.Row, len(t.Rows)),
	}
	for i, col := range t.Columns {
		if to, ok := mapping[col.Name]; ok {
			col.Name = to
		}
		out.Columns[i] = col
	}
	for i, row := range t.Rows {
		nr := make(model.Row, len(row))
		for k, v := range row {
			if to, ok := mapping[k]; ok {
				k = to
			}
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out, nil
}

// Partition is the outcome of reconciling a table. RetainedIndex and
// DiscardedIndex give each row's position in the input table.
type Partition struct {
	Retained       *model.Table
	Discarded      *model.Table
	RetainedIndex  []int
	DiscardedIndex []int
}

// PartitionRows splits rows by whether both type and year_of_data are set.
// Each input row lands in exactly one of the two tables, duplicates included.
func PartitionRows(t *model.Table) (*Partition, error) {
	if missing := missingColumns(t, []string{ColType, ColYearOfData}); len(missing) > 0 {
		return nil, schemaError(t, StageReconcile, missing)
	}

	keep, drop := []model.Row{}, []model.Row{}
	p := &Partition{RetainedIndex: []int{}, DiscardedIndex: []int{}}
	for i, row := range t.Rows {
		if discardReason(row) == "" {
			keep = append(keep, row.Clone())
			p.RetainedIndex = append(p.RetainedIndex, i)
		} else {
			drop = append(drop, row.Clone())
			p.DiscardedIndex = append(p.DiscardedIndex, i)
		}
	}
	p.Retained, p.Discarded = t.WithRows(keep), t.WithRows(drop)
	return p, nil
}

// Reconcile is PartitionRows without the source positions
func Reconcile(t *model.Table) (retained, discarded *model.Table, err error) {
	p, err := PartitionRows(t)
	if err != nil {
		return nil, nil, err
	}
	return p.Retained, p.Discarded, nil
}

// YearFallback records a row whose year could not be parsed. Index is the
// row's position in the table given to CanonicalizeYear.
type YearFallback struct {
	Index    int
	Original interface{}
	Row      model.Row
}

// CanonicalizeYear replaces year_of_data with ParseYear's result and makes
// the column int64. Rows that fell back to the sentinel are returned.
func CanonicalizeYear(t *model.Table) (*model.Table, []YearFallback, error) {
	if !t.HasColumn(ColYearOfData) {
		return nil, nil, schemaError(t, StageCanonicalizeYear, []string{ColYearOfData})
	}

	out := t.Clone()
	for i, col := range out.Columns {
		if col.Name == ColYearOfData {
			out.Columns[i].Kind = model.KindInt64
			out.Columns[i].Nullable = false
		}
	}

	var fallbacks []YearFallback
	for i, row := range out.Rows {
		original := row[ColYearOfData]
		year, ok := ParseYear(original)
		if !ok {
			fallbacks = append(fallbacks, YearFallback{Index: i, Original: original, Row: row})
		}
		row[ColYearOfData] = year
	}
	return out, fallbacks, nil
}

// NormalizeTextColumns applies NormalizeText to the named columns. Nulls
// stay null; non-string values are normalized through their string form.
func NormalizeTextColumns(t *model.Table, cols []string) (*model.Table, error) {
	if missing := missingColumns(t, cols); len(missing) > 0 {
		return nil, schemaError(t, StageNormalizeText, missing)
	}

	out := t.Clone()
	target := make(map[string]bool, len(cols))
	for _, name := range cols {
		target[name] = true
	}
	for i, col := range out.Columns {
		if target[col.Name] {
			out.Columns[i].Kind = model.KindString
		}
	}
	for _, row := range out.Rows {
		for _, name := range cols {
			if v := row[name]; v != nil {
				row[name] = NormalizeText(converter.ToString(v))
			}
		}
	}
	return out, nil
}

// Project selects cols in order. Every column must exist.
func Project(t *model.Table, cols []string) (*model.Table, error) {
	if missing := missingColumns(t, cols); len(missing) > 0 {
		return nil, schemaError(t, StageProject, missing)
	}

	out := &model.Table{
		Columns: make([]model.Column, len(cols)),
		Rows:    make([]model.Row, len(t.Rows)),
	}
	for i, name := range cols {
		out.Columns[i], _ = t.Column(name)
	}
	for i, row := range t.Rows {
		nr := make(model.Row, len(cols))
		for _, name := range cols {
			nr[name] = row[name]
		}
		out.Rows[i] = nr
	}
	return out, nil
}

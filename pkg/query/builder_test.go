package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/casefile/pkg/query"
)

var projection = query.NewProjectionMap("public", "document_versions", "v").
	Project("id", "ID").
	Project("case_id", "CaseID").
	Project("version_number", "Number")

func TestBuilder_BuildSelect(t *testing.T) {
	sql, args := query.
		NewBuilder(projection, query.SortField{Field: "Number", Descending: true}).
		WhereEquals("CaseID", "case-1").
		WhereIn("Number", []any{1, 2}).
		Limit(5).
		BuildSelect()

	assert.Equal(t,
		"SELECT v.id, v.case_id, v.version_number FROM public.document_versions v"+
			" WHERE v.case_id = $1 AND v.version_number IN ($2, $3)"+
			" ORDER BY v.version_number DESC LIMIT 5",
		sql,
	)
	assert.Equal(t, []any{"case-1", 1, 2}, args)
}

func TestBuilder_NilConditionsIgnored(t *testing.T) {
	sql, args := query.NewBuilder(projection).
		WhereEquals("CaseID", nil).
		WhereIn("Number", nil).
		BuildSelect()

	assert.Equal(t, "SELECT v.id, v.case_id, v.version_number FROM public.document_versions v", sql)
	assert.Empty(t, args)
}

func TestBuilder_BuildSingleForUpdate(t *testing.T) {
	sql, args := query.NewBuilder(projection).ForUpdate().BuildSingle("ID", "abc")

	assert.Equal(t, "SELECT v.id, v.case_id, v.version_number FROM public.document_versions v WHERE v.id = $1 FOR UPDATE", sql)
	assert.Equal(t, []any{"abc"}, args)
}

func TestBuilder_BuildCount(t *testing.T) {
	sql, args := query.NewBuilder(projection).WhereEquals("CaseID", "c").BuildCount()

	assert.Equal(t, "SELECT COUNT(*) FROM public.document_versions v WHERE v.case_id = $1", sql)
	assert.Equal(t, []any{"c"}, args)
}

func TestProjectionMap_UnknownFieldPassesThrough(t *testing.T) {
	assert.Equal(t, "raw_col", projection.Column("raw_col"))
	assert.Equal(t, "v.case_id", projection.Column("CaseID"))
}

func TestBuilder_BuildPage(t *testing.T) {
	sql, args := query.NewBuilder(projection, query.SortField{Field: "Number"}).
		WhereEquals("CaseID", "c").
		BuildPage(3, 10)

	assert.Equal(t,
		"SELECT v.id, v.case_id, v.version_number FROM public.document_versions v"+
			" WHERE v.case_id = $1 ORDER BY v.version_number ASC LIMIT 10 OFFSET 20",
		sql,
	)
	assert.Equal(t, []any{"c"}, args)
}

package gen

import (
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/pseudomuto/steward/pkg/consts"
)

// accessorTemplate renders one table accessor file. The import block, SQL
// fragments and db.Args literals are precomputed by templateData so the
// template stays purely structural and its output is already gofmt-shaped.
var accessorTemplate = template.Must(template.New("accessor").Parse(`// Code generated by steward gen. DO NOT EDIT.

package {{ .Package }}

{{ .ImportBlock }}

// {{ .Struct }}Table provides typed access to {{ .Qualified }}.
type {{ .Struct }}Table struct {
	q db.Querier
}

// New{{ .Struct }}Table creates an accessor running statements on q, which
// may be a pool, a connection, or a transaction.
func New{{ .Struct }}Table(q db.Querier) {{ .Struct }}Table {
	return {{ .Struct }}Table{q: q}
}

// Insert adds one record.
func (t {{ .Struct }}Table) Insert(ctx context.Context, rec *{{ .Struct }}) error {
	_, err := t.q.Exec(ctx,
		` + "`" + `INSERT INTO {{ .Qualified }} ({{ .ColumnList }}) VALUES ({{ .Placeholders }})` + "`" + `,
		{{ .RecordArgs }},
	)

	return err
}

// Get retrieves the record with the given key.
func (t {{ .Struct }}Table) Get(ctx context.Context, {{ .KeyParams }}) ({{ .Struct }}, error) {
	rows, err := t.q.Query(ctx,
		` + "`" + `SELECT {{ .ColumnList }} FROM {{ .Qualified }} WHERE {{ .KeyWhere }}` + "`" + `,
		{{ .KeyArgs }},
	)
	if err != nil {
		return {{ .Struct }}{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[{{ .Struct }}])
}
{{ if .SetList }}
// Update rewrites the non-key columns of the record with the given key.
func (t {{ .Struct }}Table) Update(ctx context.Context, rec *{{ .Struct }}) error {
	_, err := t.q.Exec(ctx,
		` + "`" + `UPDATE {{ .Qualified }} SET {{ .SetList }} WHERE {{ .KeyWhere }}` + "`" + `,
		{{ .RecordArgs }},
	)

	return err
}
{{ end }}
// Delete removes the record with the given key.
func (t {{ .Struct }}Table) Delete(ctx context.Context, {{ .KeyParams }}) error {
	_, err := t.q.Exec(ctx,
		` + "`" + `DELETE FROM {{ .Qualified }} WHERE {{ .KeyWhere }}` + "`" + `,
		{{ .KeyArgs }},
	)

	return err
}

// List retrieves every record ordered by key.
func (t {{ .Struct }}Table) List(ctx context.Context) ([]{{ .Struct }}, error) {
	rows, err := t.q.Query(ctx, ` + "`" + `SELECT {{ .ColumnList }} FROM {{ .Qualified }} ORDER BY {{ .OrderBy }}` + "`" + `)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[{{ .Struct }}])
}
`))

type accessorData struct {
	Package      string
	Struct       string
	ImportBlock  string
	Qualified    string
	ColumnList   string
	Placeholders string
	RecordArgs   string
	KeyParams    string
	KeyWhere     string
	KeyArgs      string
	SetList      string
	OrderBy      string
}

// Render produces the formatted accessor source for one table.
func Render(t Table) ([]byte, error) {
	var buf strings.Builder
	if err := accessorTemplate.Execute(&buf, templateData(t)); err != nil {
		return nil, errors.Wrapf(err, "failed to render accessor for %s", t.Struct)
	}

	src, err := format.Source([]byte(buf.String()))
	if err != nil {
		return nil, errors.Wrapf(err, "generated accessor for %s does not compile", t.Struct)
	}

	return src, nil
}

// Generate scans dir for annotated structs and writes one accessor file per
// table beside the source, returning the written paths. Existing generated
// files are overwritten; nothing else is touched.
func Generate(dir string) ([]string, error) {
	tables, err := Scan(dir)
	if err != nil {
		return nil, err
	}

	var written []string

	for _, t := range tables {
		src, err := Render(t)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, FileName(t))
		if err := os.WriteFile(path, src, consts.ModeFile); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}

		written = append(written, path)
	}

	return written, nil
}

// FileName returns the generated file's name for a table, e.g.
// user_table.gen.go for struct User.
func FileName(t Table) string {
	return snakeCase(t.Struct) + "_table.gen.go"
}

func templateData(t Table) accessorData {
	data := accessorData{
		Package:     t.Package,
		Struct:      t.Struct,
		ImportBlock: importBlock(t.Imports),
		Qualified:   pgx.Identifier{t.Schema, t.Name}.Sanitize(),
	}

	var (
		cols, phs, recordArgs, setList []string
		keyParams, keyWhere, keyArgs   []string
		order                          []string
	)

	for _, c := range t.Columns {
		quoted := pgx.Identifier{c.Name}.Sanitize()

		cols = append(cols, quoted)
		phs = append(phs, "@"+c.Name)
		recordArgs = append(recordArgs, strconv.Quote(c.Name)+": rec."+c.Field)

		if !c.PK {
			setList = append(setList, quoted+" = @"+c.Name)
		}
	}

	for _, k := range t.Keys() {
		quoted := pgx.Identifier{k.Name}.Sanitize()
		param := lowerCamel(k.Name)

		keyParams = append(keyParams, param+" "+k.Type)
		keyWhere = append(keyWhere, quoted+" = @"+k.Name)
		keyArgs = append(keyArgs, strconv.Quote(k.Name)+": "+param)
		order = append(order, quoted)
	}

	data.ColumnList = strings.Join(cols, ", ")
	data.Placeholders = strings.Join(phs, ", ")
	data.RecordArgs = "db.Args{" + strings.Join(recordArgs, ", ") + "}"
	data.SetList = strings.Join(setList, ", ")
	data.KeyParams = strings.Join(keyParams, ", ")
	data.KeyWhere = strings.Join(keyWhere, " AND ")
	data.KeyArgs = "db.Args{" + strings.Join(keyArgs, ", ") + "}"
	data.OrderBy = strings.Join(order, ", ")

	return data
}

// importBlock renders the generated file's imports: stdlib first, then any
// key-type packages, then the pgx and steward dependencies every accessor
// uses.
func importBlock(extra []string) string {
	var b strings.Builder

	b.WriteString("import (\n")
	b.WriteString("\t\"context\"\n")
	for _, path := range extra {
		b.WriteString("\t" + strconv.Quote(path) + "\n")
	}
	b.WriteString("\n")
	b.WriteString("\t\"github.com/jackc/pgx/v5\"\n")
	b.WriteString("\t\"github.com/pseudomuto/steward/pkg/db\"\n")
	b.WriteString(")")

	return b.String()
}

// lowerCamel converts a column name to a Go parameter name: user_id -> userID.
func lowerCamel(s string) string {
	parts := strings.Split(s, "_")

	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}

		switch {
		case i == 0:
			b.WriteString(p)
		case p == "id":
			b.WriteString("ID")
		default:
			b.WriteString(strings.ToUpper(p[:1]) + p[1:])
		}
	}

	return b.String()
}

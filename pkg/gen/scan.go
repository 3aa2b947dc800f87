package gen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// directive is the doc-comment marker that opts a struct into generation.
const directive = "steward:table"

type (
	// Table is one annotated struct and the table it maps to.
	Table struct {
		// Package is the package name of the scanned directory.
		Package string

		// Struct is the annotated struct's name.
		Struct string

		// Schema and Name locate the table, parsed from the directive.
		Schema string
		Name   string

		// Columns are the db-mapped fields in declaration order.
		Columns []Column

		// Imports are the extra import paths the generated file needs for
		// key-column types (e.g. "time" for a time.Time key).
		Imports []string
	}

	// Column is one db-mapped struct field.
	Column struct {
		// Field is the Go field name.
		Field string

		// Name is the column name: the db tag when present, snake_case of
		// the field name otherwise.
		Name string

		// Type is the field's Go type as written in the source.
		Type string

		// PK marks key columns (db:"...,pk").
		PK bool
	}
)

// Keys returns the table's key columns.
func (t Table) Keys() []Column {
	var keys []Column
	for _, c := range t.Columns {
		if c.PK {
			keys = append(keys, c)
		}
	}

	return keys
}

// NonKeys returns the table's non-key columns.
func (t Table) NonKeys() []Column {
	var cols []Column
	for _, c := range t.Columns {
		if !c.PK {
			cols = append(cols, c)
		}
	}

	return cols
}

// Scan parses the Go package in dir and returns a Table for every struct
// whose doc comment carries a steward:table directive, sorted by struct name.
// Generated and test files are skipped, so Scan's output is stable across
// repeated runs.
func Scan(dir string) ([]Table, error) {
	fset := token.NewFileSet()

	pkgs, err := parser.ParseDir(fset, dir, func(fi fs.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go") && !strings.HasSuffix(fi.Name(), ".gen.go")
	}, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse package in %s", dir)
	}

	var tables []Table

	for _, pkg := range pkgs {
		if strings.HasSuffix(pkg.Name, "_test") {
			continue
		}

		for _, file := range pkg.Files {
			fileTables, err := scanFile(pkg.Name, file)
			if err != nil {
				return nil, err
			}

			tables = append(tables, fileTables...)
		}
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].Struct < tables[j].Struct })

	return tables, nil
}

func scanFile(pkgName string, file *ast.File) ([]Table, error) {
	imports := fileImports(file)

	var tables []Table

	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}

		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)

			doc := ts.Doc
			if doc == nil {
				doc = gd.Doc
			}

			line, ok := directiveLine(doc)
			if !ok {
				continue
			}

			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				return nil, errors.Errorf("%s directive on %s, which is not a struct", directive, ts.Name.Name)
			}

			table, err := buildTable(pkgName, ts.Name.Name, line, st, imports)
			if err != nil {
				return nil, err
			}

			tables = append(tables, table)
		}
	}

	return tables, nil
}

// directiveLine finds the steward:table line in a doc comment.
func directiveLine(doc *ast.CommentGroup) (string, bool) {
	if doc == nil {
		return "", false
	}

	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if strings.HasPrefix(text, directive) {
			return text, true
		}
	}

	return "", false
}

func buildTable(pkgName, structName, line string, st *ast.StructType, imports map[string]string) (Table, error) {
	schema, name, err := parseDirective(structName, line)
	if err != nil {
		return Table{}, err
	}

	table := Table{Package: pkgName, Struct: structName, Schema: schema, Name: name}
	needed := make(map[string]struct{})

	for _, field := range st.Fields.List {
		// Embedded fields have no names and no column mapping.
		for _, ident := range field.Names {
			if !ident.IsExported() {
				continue
			}

			col, ok := buildColumn(ident.Name, field)
			if !ok {
				continue
			}

			if col.PK {
				if path, req := requiredImport(field.Type, imports); req {
					needed[path] = struct{}{}
				}
			}

			table.Columns = append(table.Columns, col)
		}
	}

	switch {
	case len(table.Columns) == 0:
		return Table{}, errors.Errorf("struct %s has no db-mappable fields", structName)
	case len(table.Keys()) == 0:
		return Table{}, errors.Errorf("struct %s has no key column; tag one with db:\"...,pk\"", structName)
	}

	for path := range needed {
		table.Imports = append(table.Imports, path)
	}
	sort.Strings(table.Imports)

	return table, nil
}

// parseDirective splits "steward:table <schema>.<table>" into its parts.
func parseDirective(structName, line string) (string, string, error) {
	target := strings.TrimSpace(strings.TrimPrefix(line, directive))

	schema, name, ok := strings.Cut(target, ".")
	if !ok || schema == "" || name == "" || strings.Contains(name, ".") || strings.ContainsAny(target, " \t") {
		return "", "", errors.Errorf("struct %s has a malformed directive %q; want %s <schema>.<table>", structName, line, directive)
	}

	return schema, name, nil
}

func buildColumn(fieldName string, field *ast.Field) (Column, bool) {
	col := Column{
		Field: fieldName,
		Name:  snakeCase(fieldName),
		Type:  types.ExprString(field.Type),
	}

	if field.Tag == nil {
		return col, true
	}

	tag, _ := strconv.Unquote(field.Tag.Value)
	value, ok := lookupTag(tag, "db")
	if !ok {
		return col, true
	}

	name, opts, _ := strings.Cut(value, ",")
	if name == "-" {
		return Column{}, false
	}

	if name != "" {
		col.Name = name
	}
	col.PK = strings.Contains(","+opts+",", ",pk,")

	return col, true
}

// lookupTag extracts one key from a struct tag without reflect.StructTag's
// panic-on-malformed behavior.
func lookupTag(tag, key string) (string, bool) {
	for tag != "" {
		tag = strings.TrimLeft(tag, " ")

		i := strings.IndexByte(tag, ':')
		if i <= 0 {
			break
		}

		name := tag[:i]
		rest := tag[i+1:]
		if len(rest) < 2 || rest[0] != '"' {
			break
		}

		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			break
		}

		value := rest[1 : end+1]
		tag = rest[end+2:]

		if name == key {
			return value, true
		}
	}

	return "", false
}

// requiredImport reports the import path a qualified type expression (e.g.
// time.Time) needs in the generated file.
func requiredImport(expr ast.Expr, imports map[string]string) (string, bool) {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.ArrayType:
			expr = t.Elt
		case *ast.SelectorExpr:
			if ident, ok := t.X.(*ast.Ident); ok {
				if path, ok := imports[ident.Name]; ok {
					return path, true
				}
			}
			return "", false
		default:
			return "", false
		}
	}
}

// fileImports maps local package names to import paths for one file.
func fileImports(file *ast.File) map[string]string {
	imports := make(map[string]string)

	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}

		name := path
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			name = path[i+1:]
		}
		if imp.Name != nil {
			name = imp.Name.Name
		}

		imports[name] = path
	}

	return imports
}

// snakeCase converts a Go field name to its column-name fallback:
// UserID -> user_id, CreatedAt -> created_at, ID -> id.
func snakeCase(s string) string {
	runes := []rune(s)

	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}

	return b.String()
}

// Package typedecl derives entity type declarations from Go struct
// definitions, so that a model file can be registered without restating
// its columns in configuration.
//
// Fields map to columns through the db tag:
//
//	type Comment struct {
//		ID         int    `db:"id,primaryKey"`
//		Author     string `db:"author,required"`
//		ParentType string `db:"parent_type,morphType" morph:"articles,posts"`
//		ParentID   int    `db:"parent_id,morphID"`
//	}
//
// The type name is the plural snake_case struct name ("comments"). A
// TableName method returning a string literal overrides the table name.
package typedecl

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/mickamy/activerecord/internal/naming"
)

// FieldInfo holds parsed metadata for one struct field.
type FieldInfo struct {
	Name       string // Go field name, e.g. "ID"
	Column     string // DB column name from `db:"id"` tag
	GoType     string // Go type as string, e.g. "int", "string", "time.Time"
	PrimaryKey bool   // tag contains "primaryKey"
	Required   bool   // tag contains "required"
	MorphType  bool   // tag contains "morphType"
	MorphID    bool   // tag contains "morphID"
}

// StructInfo holds parsed metadata for one struct.
type StructInfo struct {
	Name      string      // Go struct name, e.g. "Comment"
	Package   string      // Package name, e.g. "model"
	Fields    []FieldInfo // Non-skipped db fields
	TableName string      // From a TableName() method, if any
	Parents   []string    // From the morph tag, as logical type names
}

// PrimaryKeyField returns the primary key field, or an error if none or
// multiple are defined.
func (s *StructInfo) PrimaryKeyField() (*FieldInfo, error) {
	var pk *FieldInfo
	for i := range s.Fields {
		if s.Fields[i].PrimaryKey {
			if pk != nil {
				return nil, fmt.Errorf("multiple primary keys: %s and %s", pk.Name, s.Fields[i].Name)
			}
			pk = &s.Fields[i]
		}
	}
	if pk == nil {
		return nil, fmt.Errorf("no primary key defined for %s", s.Name)
	}
	return pk, nil
}

// ParseFile reads the Go file at path and returns StructInfo for every
// struct that has at least one db field.
func ParseFile(path string) ([]*StructInfo, error) {
	return Parse(path, nil)
}

// Parse is like ParseFile but reads src when it is non-nil. src may be a
// string, []byte or io.Reader, as accepted by go/parser.
func Parse(filename string, src any) ([]*StructInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	pkg := file.Name.Name
	var infos []*StructInfo
	byName := make(map[string]*StructInfo)

	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec) //nolint:forcetypeassert // TYPE decls only hold TypeSpecs
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}

			fields, parents, err := parseStructFields(st)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ts.Name.Name, err)
			}
			if len(fields) == 0 {
				continue
			}

			info := &StructInfo{Name: ts.Name.Name, Package: pkg, Fields: fields, Parents: parents}
			infos = append(infos, info)
			byName[info.Name] = info
		}
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if recv, table, ok := tableNameMethod(fd); ok {
			if info, found := byName[recv]; found {
				info.TableName = table
			}
		}
	}

	return infos, nil
}

// parseStructFields extracts db fields from an AST struct type, and the
// declared parents from the morph tag.
func parseStructFields(st *ast.StructType) ([]FieldInfo, []string, error) {
	fields := make([]FieldInfo, 0, len(st.Fields.List))
	var parents []string
	for _, field := range st.Fields.List {
		fi, morph, skip := parseField(field)
		if skip {
			continue
		}
		if morph != "" {
			if !fi.MorphType {
				return nil, nil, fmt.Errorf("field %s: morph tag requires the morphType option", fi.Name)
			}
			for _, p := range strings.Split(morph, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parents = append(parents, naming.TableName(p))
				}
			}
		}
		fields = append(fields, fi)
	}
	return fields, parents, nil
}

func parseField(field *ast.Field) (FieldInfo, string, bool) {
	if len(field.Names) == 0 {
		return FieldInfo{}, "", true // embedded field, skip
	}

	name := field.Names[0].Name

	// Skip unexported fields.
	if !field.Names[0].IsExported() {
		return FieldInfo{}, "", true
	}

	fi := FieldInfo{
		Name:   name,
		Column: naming.CamelToSnake(name),
		GoType: typeToString(field.Type),
		// ID field is the primary key unless a tag says otherwise.
		PrimaryKey: name == "ID",
	}

	var morph string
	if field.Tag != nil {
		tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
		if dbTag, ok := tag.Lookup("db"); ok {
			if dbTag == "-" {
				return FieldInfo{}, "", true // explicitly skipped
			}
			parts := strings.Split(dbTag, ",")
			if parts[0] != "" {
				fi.Column = parts[0]
			}
			for _, opt := range parts[1:] {
				switch opt {
				case "primaryKey":
					fi.PrimaryKey = true
				case "required":
					fi.Required = true
				case "morphType":
					fi.MorphType = true
				case "morphID":
					fi.MorphID = true
				}
			}
		}
		morph = tag.Get("morph")
	}

	return fi, morph, false
}

// tableNameMethod recognises
//
//	func (T) TableName() string { return "literal" }
//
// with a value or pointer receiver.
func tableNameMethod(fd *ast.FuncDecl) (recv, table string, ok bool) {
	if fd.Name.Name != "TableName" || fd.Recv == nil || len(fd.Recv.List) != 1 || fd.Body == nil {
		return "", "", false
	}
	if fd.Type.Params.NumFields() != 0 || fd.Type.Results.NumFields() != 1 {
		return "", "", false
	}
	recv = strings.TrimPrefix(typeToString(fd.Recv.List[0].Type), "*")

	if len(fd.Body.List) != 1 {
		return "", "", false
	}
	ret, isRet := fd.Body.List[0].(*ast.ReturnStmt)
	if !isRet || len(ret.Results) != 1 {
		return "", "", false
	}
	lit, isLit := ret.Results[0].(*ast.BasicLit)
	if !isLit || lit.Kind != token.STRING {
		return "", "", false
	}
	table, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", "", false
	}
	return recv, table, true
}

func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return fmt.Sprintf("[%s]%s", typeToString(t.Len), typeToString(t.Elt))
	default:
		return fmt.Sprintf("%T", expr)
	}
}

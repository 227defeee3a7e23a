package ast

// Typed views over PHPX-mode programs. Ordinary PHP ASTs carry none of the
// struct/enum/object-literal/dot-access structure, so downstream stages go
// through these helpers instead of walking Statements directly.

// IsPHPX reports whether the program was parsed in PHPX mode.
func IsPHPX(p *Program) bool {
	return p != nil && p.Mode == ModePHPX
}

// Imports returns every import declaration of the program in order.
func Imports(p *Program) []*ImportDeclaration {
	var out []*ImportDeclaration
	for _, stmt := range p.Statements {
		if imp, ok := stmt.(*ImportDeclaration); ok {
			out = append(out, imp)
		}
	}
	return out
}

// Exports returns every export declaration, both local and re-export forms.
func Exports(p *Program) []*ExportDeclaration {
	var out []*ExportDeclaration
	for _, stmt := range p.Statements {
		if exp, ok := stmt.(*ExportDeclaration); ok {
			out = append(out, exp)
		}
	}
	return out
}

// DeclaredName returns the top-level name a statement declares, or "" for
// non-declaration statements.
func DeclaredName(stmt Statement) string {
	switch s := stmt.(type) {
	case *StructDeclaration:
		return s.Name.Value
	case *EnumDeclaration:
		return s.Name.Value
	case *TypeAliasDeclaration:
		return s.Name.Value
	case *InterfaceDeclaration:
		return s.Name.Value
	case *FunctionDeclaration:
		return s.Name.Value
	case *ConstDeclaration:
		return s.Name.Value
	}
	return ""
}

// DeclaredIdent returns the declaring identifier of a top-level
// declaration, or nil for non-declaration statements.
func DeclaredIdent(stmt Statement) *Identifier {
	switch s := stmt.(type) {
	case *StructDeclaration:
		return s.Name
	case *EnumDeclaration:
		return s.Name
	case *TypeAliasDeclaration:
		return s.Name
	case *InterfaceDeclaration:
		return s.Name
	case *FunctionDeclaration:
		return s.Name
	case *ConstDeclaration:
		return s.Name
	}
	return nil
}

// IsExported reports whether a declaration carries the export modifier.
func IsExported(stmt Statement) bool {
	switch s := stmt.(type) {
	case *StructDeclaration:
		return s.Exported
	case *EnumDeclaration:
		return s.Exported
	case *TypeAliasDeclaration:
		return s.Exported
	case *InterfaceDeclaration:
		return s.Exported
	case *FunctionDeclaration:
		return s.Exported
	case *ConstDeclaration:
		return s.Exported
	}
	return false
}

// ExpandShorthand rewrites `{$x}` entries to `{$x: $x}` in place and
// returns the fields. The checker and compiler always see the long form.
func ExpandShorthand(fields []*ObjectField) []*ObjectField {
	for _, f := range fields {
		if f.Shorthand {
			if v, ok := f.Value.(*Variable); ok && f.Key == "" {
				f.Key = v.Name
			}
			f.Shorthand = false
		}
	}
	return fields
}

// IsMemberAccess reports whether a dot node is the tight member-access
// form. The whitespace decision was made at parse time; a loose dot with a
// numeric RHS was already parsed as something else, so a non-tight
// DotAccess reaching the checker is treated as ordinary concatenation and
// never as member access.
func IsMemberAccess(d *DotAccess) bool {
	return d != nil && d.Tight && d.Member != nil
}

package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// CamelToSnake converts a CamelCase string to snake_case.
// Consecutive uppercase letters (acronyms) are kept together:
// "ID" → "id", "UserID" → "user_id", "CreatedAt" → "created_at".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TableName infers a table name from a logical type name.
// "Article" → "articles", "BlogPost" → "blog_posts", "comments" → "comments".
func TableName(typeName string) string {
	return ChildAccessor(typeName)
}

// ChildAccessor returns the name under which children of the given type are
// reached from a parent: the plural snake_case form of the type name.
// The result is the same whether the input is singular or plural.
func ChildAccessor(typeName string) string {
	if typeName == "" {
		return ""
	}
	return inflection.Plural(ParentAccessor(typeName))
}

// ParentAccessor returns the name under which a parent of the given type is
// reached from a child: the singular snake_case form of the type name.
func ParentAccessor(typeName string) string {
	if typeName == "" {
		return ""
	}
	return inflection.Singular(CamelToSnake(typeName))
}

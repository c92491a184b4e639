// Package service implements the business rules of the catalog on top of
// the shared gorm handle. Every method receives the acting identity
// explicitly and enforces its policy before touching the datastore.
package service

import (
	"context"
	"strings"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/web/entity"

	"gorm.io/gorm"
)

func conn(ctx context.Context) *gorm.DB {
	return database.GetDB().WithContext(ctx)
}

func paginate(q *gorm.DB, p entity.PageRequest) *gorm.DB {
	if p.Size <= 0 {
		return q
	}
	return q.Offset(p.Offset()).Limit(p.Size)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern for use with
// "LOWER(col) LIKE ? ESCAPE '\'".
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

package persistence

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/stitchwork/backend/internal/domain/shared"
)

// identifierPattern accepts plain column names only, to keep user-supplied
// sort fields out of SQL
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// applyFilter applies pagination and ordering from a shared.Filter to a query
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.OrderBy != "" && identifierPattern.MatchString(filter.OrderBy) {
		dir := "ASC"
		if strings.EqualFold(filter.OrderDir, "desc") {
			dir = "DESC"
		}
		query = query.Order(fmt.Sprintf("%s %s", filter.OrderBy, dir))
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

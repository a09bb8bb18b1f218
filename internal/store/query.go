package store

import (
	"strconv"
	"strings"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

// Placeholder renders the n-th (1-based) bind parameter of a driver.
type Placeholder func(n int) string

// Dollar renders Postgres style placeholders ($1, $2, ...).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question renders SQLite style placeholders.
func Question(int) string { return "?" }

var sortColumns = map[string]string{
	model.SortByName:      "name",
	model.SortByCreatedAt: "created_at",
}

// ListClauses builds the WHERE and ORDER BY clauses of a listing for a
// normalized filter. Type is matched exactly, Name as a substring. Both the
// page query and the count query must use the same where and args.
func ListClauses(f model.ListFilter, ph Placeholder) (where string, args []any, orderBy string) {
	var conds []string
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, "type = "+ph(len(args)))
	}
	if f.Name != "" {
		args = append(args, "%"+escapeLike(f.Name)+"%")
		conds = append(conds, "name LIKE "+ph(len(args))+` ESCAPE '\'`)
	}
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "name"
	}
	dir := "ASC"
	if f.SortOrder == model.SortDesc {
		dir = "DESC"
	}
	orderBy = " ORDER BY " + col + " " + dir + ", id " + dir
	return where, args, orderBy
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Package postgres holds the concrete SQL stores. All queries are built with
// goqu and executed on the storage.Querier handed in by the caller, so the
// same code runs on the pool and inside a transaction.
package postgres

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var pg = goqu.Dialect("postgres")

// paginate applies page/pageSize as limit/offset. Page numbers start at 1;
// zero values disable paging.
func paginate(ds *goqu.SelectDataset, page, pageSize int) *goqu.SelectDataset {
	if pageSize <= 0 {
		return ds
	}
	if page < 1 {
		page = 1
	}
	return ds.Limit(uint(pageSize)).Offset(uint((page - 1) * pageSize))
}

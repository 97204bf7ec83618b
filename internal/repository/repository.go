package repository

import (
	"errors"
	"strings"
)

// ErrNoRowsAffected signals that an update or delete matched no rows. Services
// translate it into a not-found error.
var ErrNoRowsAffected = errors.New("no rows affected")

func sortColumn(requested string, allowed map[string]string) string {
	if column, ok := allowed[requested]; ok {
		return column
	}
	return "created_at"
}

func sortOrder(requested string) string {
	order := strings.ToUpper(requested)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return order
}

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

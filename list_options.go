package main

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SortType is the direction receipts are listed in. Only the two constants
// below are valid, since the value ends up in an ORDER BY clause.
type SortType string

const (
	SortTypeAscending  SortType = "asc"
	SortTypeDescending SortType = "desc"
)

// ToString returns the SQL keyword for s.
func (s SortType) ToString() string {
	return strings.ToUpper(string(s))
}

// ParseSortType accepts "asc" or "desc" in any case.
func ParseSortType(s string) (SortType, error) {
	switch st := SortType(strings.ToLower(s)); st {
	case SortTypeAscending, SortTypeDescending:
		return st, nil
	default:
		return "", fmt.Errorf("unsupported sort type: %s", s)
	}
}

// applySort orders by column, falling back to defaultSort when sortType is nil.
func applySort(db *gorm.DB, column string, defaultSort SortType, sortType *SortType) *gorm.DB {
	direction := defaultSort
	if sortType != nil {
		direction = *sortType
	}
	return db.Order(column + " " + direction.ToString())
}

// Page sizes for receipt listings.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// paginate returns a gorm scope. A missing or zero limit means DefaultLimit;
// anything above MaxLimit is capped.
func paginate(rawOffset, rawLimit *uint32) func(db *gorm.DB) *gorm.DB {
	var offset int
	if rawOffset != nil {
		offset = int(*rawOffset)
	}

	limit := DefaultLimit
	if rawLimit != nil && *rawLimit != 0 {
		limit = min(int(*rawLimit), MaxLimit)
	}

	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}

// ListOptions selects a page of receipts. It is filled from the offset, limit
// and sort query parameters or the params of a get_receipts call.
type ListOptions struct {
	Offset uint32    `json:"offset,omitempty"`
	Limit  uint32    `json:"limit,omitempty"`
	Sort   *SortType `json:"sort,omitempty"`
}

// applyListOptions sorts by column and paginates. Nil options give the first
// page in defaultSort order.
func applyListOptions(db *gorm.DB, column string, defaultSort SortType, options *ListOptions) *gorm.DB {
	if options == nil {
		options = &ListOptions{}
	}
	return applySort(db, column, defaultSort, options.Sort).Scopes(paginate(&options.Offset, &options.Limit))
}

package services

import "github.com/pizza-app/auth-service/repositories"

const (
	DefaultPage    = 1
	DefaultPerPage = 6
	MaxPerPage     = 100
)

// Page is one page of a listing with its paging metadata
type Page[T any] struct {
	Items       []T
	Total       int
	CurrentPage int
	PerPage     int
}

// NormalizeFilter applies default and maximum paging values
func NormalizeFilter(f repositories.ListFilter) repositories.ListFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	return f
}

// NewPage builds a page from a normalized filter
func NewPage[T any](items []T, total int, f repositories.ListFilter) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, CurrentPage: f.Page, PerPage: f.PerPage}
}

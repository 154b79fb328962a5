// Package listing builds the directory-listing model consumed by the page
// renderer: entry collection plus the sort/order query-parameter contract.
package listing

import (
	"os"
	"sort"
	"strings"
	"time"

	"quickserve/internal/errs"
)

// SortingMethod selects the listing sort key.
type SortingMethod string

const (
	SortByName SortingMethod = "name"
	SortBySize SortingMethod = "size"
	SortByDate SortingMethod = "date"
)

// SortingOrder selects the listing sort direction.
type SortingOrder string

const (
	OrderAsc  SortingOrder = "asc"
	OrderDesc SortingOrder = "desc"
)

// Sorting is the parsed sort/order query-parameter pair. The raw strings are
// kept so error pages can echo the client's state back.
type Sorting struct {
	Method SortingMethod
	Order  SortingOrder
}

// ParseSorting interprets the sort and order query parameters, falling back
// to name/asc for absent or unknown values.
func ParseSorting(sortParam, orderParam string) Sorting {
	s := Sorting{Method: SortByName, Order: OrderAsc}
	switch SortingMethod(sortParam) {
	case SortBySize:
		s.Method = SortBySize
	case SortByDate:
		s.Method = SortByDate
	}
	if SortingOrder(orderParam) == OrderDesc {
		s.Order = OrderDesc
	}
	return s
}

// Entry is one row of a directory listing.
type Entry struct {
	Name    string
	Path    string // slash-relative to the served root
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// List reads the entries of an already-sandboxed directory, sorted per s.
// rel is the slash-relative listing path used to build child links.
func List(absDir, rel string, s Sorting) ([]Entry, *errs.Error) {
	dirents, err := os.ReadDir(absDir)
	if err != nil {
		return nil, errs.IO("failed to read directory "+absDir, err)
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			continue
		}
		childRel := d.Name()
		if rel != "" {
			childRel = rel + "/" + d.Name()
		}
		entries = append(entries, Entry{
			Name:    d.Name(),
			Path:    childRel,
			IsDir:   d.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	Sort(entries, s)
	return entries, nil
}

// Sort orders entries directories-first, then by the requested key.
func Sort(entries []Entry, s Sorting) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		var less bool
		switch s.Method {
		case SortBySize:
			less = a.Size < b.Size
		case SortByDate:
			less = a.ModTime.Before(b.ModTime)
		default:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		if s.Order == OrderDesc {
			return !less && !equalKey(a, b, s.Method)
		}
		return less
	})
}

func equalKey(a, b Entry, m SortingMethod) bool {
	switch m {
	case SortBySize:
		return a.Size == b.Size
	case SortByDate:
		return a.ModTime.Equal(b.ModTime)
	default:
		return strings.EqualFold(a.Name, b.Name)
	}
}

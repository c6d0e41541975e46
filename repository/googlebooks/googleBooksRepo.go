package googlebooksrepo

import "context"

// Volume is the subset of the Google Books volume payload the catalog
// importer consumes.
type Volume struct {
	ISBN          string
	Title         string
	Author        string
	Publisher     string
	PublishedDate string
	Description   string
	PageCount     int
	Language      string
	Thumbnail     string
}

type SearchResult struct {
	TotalItems int      `json:"total_items"`
	Volumes    []Volume `json:"volumes"`
}

type Repo interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	ByISBN(ctx context.Context, isbn string) (*Volume, error)
}

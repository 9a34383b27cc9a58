package domain

import "time"

// Location is a root directory the catalog indexes files from.
type Location struct {
	ID           string        `json:"id"`
	Path         string        `json:"path"`
	DateAdded    time.Time     `json:"dateAdded"`
	Index        int           `json:"index"`
	SubLocations []SubLocation `json:"subLocations"`
}

// SubLocation is a directory below a location, optionally excluded from indexing.
type SubLocation struct {
	Name         string        `json:"name"`
	IsExcluded   bool          `json:"isExcluded"`
	SubLocations []SubLocation `json:"subLocations"`
}

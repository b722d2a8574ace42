package types

// Package is an archive advertised by a remote store listing
type Package struct {
	File string `json:"file"` // Archive file name, e.g. weatherapp.zip
	Name string `json:"name"` // File name without extension
}

// CatalogEntry is the metadata a store publishes for one app
type CatalogEntry struct {
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Version      string   `json:"version,omitempty"`
	Author       string   `json:"author,omitempty"`
	Category     string   `json:"category,omitempty"`
	Icon         string   `json:"icon,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// Extra is a binary-format download (Android package) from the extras root
type Extra struct {
	File     string `json:"file"`
	Name     string `json:"name"`
	Category string `json:"category"`
	URL      string `json:"url"`
	Size     string `json:"size,omitempty"` // As shown by the index page, e.g. 12M
}

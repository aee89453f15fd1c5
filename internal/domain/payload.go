package domain

import "encoding/json"

// ProductPayload describes one product as the remote Planet catalog returns it.
// Raw keeps the exact response object so the content fingerprint covers every
// field, including ones this service does not map yet.
type ProductPayload struct {
	RemoteID       int64           `json:"id"`
	Title          string          `json:"desc"`
	ProductCode    string          `json:"name"`
	Slug           string          `json:"slug"`
	Overview       string          `json:"overview"`
	Applications   string          `json:"applications"`
	KeyFeatures    string          `json:"keyfeatures"`
	Price          string          `json:"price"`
	Specifications []SpecGroup     `json:"specifications"`
	Image          string          `json:"image"`
	Gallery        []string        `json:"gallery"`
	Categories     []CategoryRef   `json:"1st_categories"`
	Raw            json.RawMessage `json:"-"`
}

// CategoryRef is a remote category reference embedded in a product payload.
type CategoryRef struct {
	RemoteID int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
}

// SpecGroup is one titled block of the product specification table.
type SpecGroup struct {
	Title   string       `json:"title"`
	Details []SpecDetail `json:"details"`
}

type SpecDetail struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// ProductListEntry is the compact form the remote list endpoint returns.
// Slug is the natural key; entries without one cannot be fetched in detail.
type ProductListEntry struct {
	RemoteID     int64  `json:"id"`
	Title        string `json:"desc"`
	ProductCode  string `json:"name"`
	Slug         string `json:"slug"`
	CategorySlug string `json:"category_slug"`
}

// RemoteCategory describes one remote category at a given list level.
type RemoteCategory struct {
	RemoteID    int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"desc"`
}

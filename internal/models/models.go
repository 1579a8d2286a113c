package models

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Song is a catalogued song.
type Song struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Lyrics         string  `json:"lyrics"`
	LocalPhotoRef  *string `json:"local_photo_ref,omitempty"`
	RemotePhotoURL *string `json:"remote_photo_url,omitempty"`
}

// HasPhoto reports whether the song references a locally stored image.
func (s *Song) HasPhoto() bool {
	return s.LocalPhotoRef != nil && *s.LocalPhotoRef != ""
}

// IsPublished reports whether the photo has a remote copy.
func (s *Song) IsPublished() bool {
	return s.RemotePhotoURL != nil && *s.RemotePhotoURL != ""
}

// Photo returns the local photo reference or an empty string.
func (s *Song) Photo() string {
	if s.LocalPhotoRef == nil {
		return ""
	}
	return *s.LocalPhotoRef
}

// RemoteURL returns the remote photo URL or an empty string.
func (s *Song) RemoteURL() string {
	if s.RemotePhotoURL == nil {
		return ""
	}
	return *s.RemotePhotoURL
}

// ReplacePhoto points the song at a new local image and drops the published copy,
// which no longer matches.
func (s *Song) ReplacePhoto(ref string) {
	s.LocalPhotoRef = &ref
	s.RemotePhotoURL = nil
}

// PublicID returns the name a remote copy of the photo is published under: "{id}_{stem}".
func (s *Song) PublicID() string {
	ref := s.Photo()
	stem := strings.TrimSuffix(ref, filepath.Ext(ref))
	return strconv.FormatInt(s.ID, 10) + "_" + stem
}

// Page is one page of songs together with its pagination state.
type Page struct {
	Songs      []Song `json:"songs"`
	Query      string `json:"query,omitempty"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

// NewPage normalises the requested page number and returns an empty page ready for results.
//
// Pages are 1-based; anything below 1 is treated as the first page. Page numbers whose
// offset would not fit in an int are capped, which still lands past the last row.
func NewPage(query string, page, pageSize int) *Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if limit := math.MaxInt / pageSize; page > limit {
		page = limit
	}
	return &Page{Query: query, Page: page, PageSize: pageSize, Songs: []Song{}}
}

// Offset returns the number of rows preceding this page.
func (p *Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// SetTotal records the number of matching rows and derives the page count.
func (p *Page) SetTotal(total int) {
	p.Total = total
	p.TotalPages = (total + p.PageSize - 1) / p.PageSize
}

// HasPrev reports whether a previous page exists.
func (p *Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p *Page) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number.
func (p *Page) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number.
func (p *Page) NextPage() int { return p.Page + 1 }

// Pages lists every page number, for rendering page links.
func (p *Page) Pages() []int {
	pages := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}

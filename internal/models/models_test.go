package models

import (
	"math"
	"testing"
)

func TestPage(t *testing.T) {
	t.Run("NewPage clamps page numbers", func(t *testing.T) {
		for _, requested := range []int{-3, 0, 1} {
			p := NewPage("", requested, 5)
			if p.Page != 1 {
				t.Errorf("page %d: expected 1, got %d", requested, p.Page)
			}
			if p.Offset() != 0 {
				t.Errorf("page %d: expected offset 0, got %d", requested, p.Offset())
			}
		}
	})

	t.Run("NewPage caps huge page numbers", func(t *testing.T) {
		for _, size := range []int{1, 5, 7} {
			p := NewPage("", math.MaxInt/size+2, size)
			if p.Offset() < 0 {
				t.Fatalf("size %d: offset overflowed to %d", size, p.Offset())
			}
			if p.Offset() < 12 {
				t.Errorf("size %d: expected an offset past the first rows, got %d", size, p.Offset())
			}
		}

		p := NewPage("", math.MaxInt, 5)
		p.SetTotal(12)
		if p.HasNext() {
			t.Error("expected no next page")
		}
	})

	t.Run("Offset", func(t *testing.T) {
		p := NewPage("", 3, 5)
		if p.Offset() != 10 {
			t.Errorf("expected offset 10, got %d", p.Offset())
		}
	})

	t.Run("SetTotal", func(t *testing.T) {
		tc := []struct {
			total int
			want  int
		}{
			{total: 0, want: 0},
			{total: 1, want: 1},
			{total: 5, want: 1},
			{total: 6, want: 2},
			{total: 12, want: 3},
		}

		for _, tt := range tc {
			p := NewPage("", 1, 5)
			p.SetTotal(tt.total)
			if p.TotalPages != tt.want {
				t.Errorf("total %d: expected %d pages, got %d", tt.total, tt.want, p.TotalPages)
			}
		}
	})

	t.Run("Navigation", func(t *testing.T) {
		p := NewPage("", 2, 5)
		p.SetTotal(12)

		if !p.HasPrev() || p.PrevPage() != 1 {
			t.Error("page 2 should link back to page 1")
		}
		if !p.HasNext() || p.NextPage() != 3 {
			t.Error("page 2 should link forward to page 3")
		}
		if got := p.Pages(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
			t.Errorf("unexpected page list %v", got)
		}

		last := NewPage("", 3, 5)
		last.SetTotal(12)
		if last.HasNext() {
			t.Error("last page should not have a next page")
		}
	})
}

func TestSong(t *testing.T) {
	t.Run("no photo", func(t *testing.T) {
		s := Song{ID: 1, Title: "t", Lyrics: "l"}
		if s.HasPhoto() || s.IsPublished() {
			t.Error("song without photo should report neither photo nor remote copy")
		}
		if s.Photo() != "" || s.RemoteURL() != "" {
			t.Error("accessors should return empty strings")
		}
	})

	t.Run("ReplacePhoto clears remote url", func(t *testing.T) {
		old := "abc_old.png"
		url := "https://cdn.example.com/old.png"
		s := Song{ID: 7, LocalPhotoRef: &old, RemotePhotoURL: &url}

		s.ReplacePhoto("def_new.jpg")

		if s.Photo() != "def_new.jpg" {
			t.Errorf("expected new photo ref, got %s", s.Photo())
		}
		if s.RemotePhotoURL != nil {
			t.Error("remote url should be cleared when the photo changes")
		}
	})

	t.Run("PublicID", func(t *testing.T) {
		ref := "0123abcd_cover.png"
		s := Song{ID: 42, LocalPhotoRef: &ref}
		if got := s.PublicID(); got != "42_0123abcd_cover" {
			t.Errorf("expected 42_0123abcd_cover, got %s", got)
		}
	})
}

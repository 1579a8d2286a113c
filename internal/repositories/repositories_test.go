package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/desertthunder/cancionero/internal/models"
	"github.com/desertthunder/cancionero/internal/shared"
	tu "github.com/desertthunder/cancionero/internal/testing"
)

func strPtr(s string) *string { return &s }

func seedSongs(t *testing.T, repo *SongRepository, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		song := &models.Song{Title: fmt.Sprintf("Song %02d", i), Lyrics: fmt.Sprintf("verse %d", i)}
		id, err := repo.Create(context.Background(), song)
		if err != nil {
			t.Fatalf("failed to create song %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestSongRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		song := &models.Song{Title: "Cielito lindo", Lyrics: "De la sierra morena"}

		id, err := repo.Create(ctx, song)
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		if id <= 0 || song.ID != id {
			t.Errorf("expected song ID to be set, got id=%d song.ID=%d", id, song.ID)
		}
	})

	t.Run("IDs are not reused", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		ids := seedSongs(t, repo, 2)

		if err := repo.Delete(ctx, ids[1]); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		next := &models.Song{Title: "t", Lyrics: "l"}
		id, err := repo.Create(ctx, next)
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		if id <= ids[1] {
			t.Errorf("expected id greater than %d, got %d", ids[1], id)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		song := &models.Song{Title: "Bésame mucho", Lyrics: "como si fuera esta noche", LocalPhotoRef: strPtr("abc_cover.png")}

		if _, err := repo.Create(ctx, song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		retrieved, err := repo.Get(ctx, song.ID)
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}

		if retrieved.Title != song.Title {
			t.Errorf("expected title %s, got %s", song.Title, retrieved.Title)
		}
		if retrieved.Photo() != "abc_cover.png" {
			t.Errorf("expected photo abc_cover.png, got %s", retrieved.Photo())
		}
		if retrieved.RemotePhotoURL != nil {
			t.Error("remote url should be NULL")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		song := &models.Song{Title: "old", Lyrics: "old", LocalPhotoRef: strPtr("a_x.png"), RemotePhotoURL: strPtr("https://cdn/x")}
		if _, err := repo.Create(ctx, song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		song.Title = "new"
		song.ReplacePhoto("b_y.png")
		if err := repo.Update(ctx, song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		retrieved, err := repo.Get(ctx, song.ID)
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if retrieved.Title != "new" || retrieved.Photo() != "b_y.png" {
			t.Errorf("update not persisted: %+v", retrieved)
		}
		if retrieved.RemotePhotoURL != nil {
			t.Error("remote url should be cleared")
		}
	})

	t.Run("SetRemotePhotoURL", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		song := &models.Song{Title: "t", Lyrics: "l", LocalPhotoRef: strPtr("a_x.png")}
		if _, err := repo.Create(ctx, song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		if err := repo.SetRemotePhotoURL(ctx, song.ID, "https://cdn.example.com/x.png"); err != nil {
			t.Fatalf("failed to set remote url: %v", err)
		}

		retrieved, _ := repo.Get(ctx, song.ID)
		if retrieved.RemoteURL() != "https://cdn.example.com/x.png" {
			t.Errorf("unexpected remote url %q", retrieved.RemoteURL())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		ids := seedSongs(t, repo, 1)

		if err := repo.Delete(ctx, ids[0]); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		if _, err := repo.Get(ctx, ids[0]); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		if err := repo.Delete(ctx, ids[0]); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("Count and All", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		seedSongs(t, repo, 3)

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 songs, got %d", count)
		}

		all, err := repo.All(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 || all[0].Title != "Song 03" {
			t.Errorf("expected newest first, got %+v", all)
		}
	})
}

func TestSongRepositoryListPage(t *testing.T) {
	ctx := context.Background()

	t.Run("Pagination", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		seedSongs(t, repo, 12)

		tc := []struct {
			name      string
			page      int
			wantLen   int
			wantFirst string
		}{
			{name: "first page", page: 1, wantLen: 5, wantFirst: "Song 12"},
			{name: "second page", page: 2, wantLen: 5, wantFirst: "Song 07"},
			{name: "last page", page: 3, wantLen: 2, wantFirst: "Song 02"},
			{name: "past the end", page: 4, wantLen: 0},
			{name: "far past the end", page: math.MaxInt/5 + 2, wantLen: 0},
			{name: "largest page", page: math.MaxInt, wantLen: 0},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				p := models.NewPage("", tt.page, 5)
				songs, total, err := repo.ListPage(ctx, "", p.Offset(), p.PageSize)
				if err != nil {
					t.Fatalf("failed to list page: %v", err)
				}
				p.SetTotal(total)

				if total != 12 {
					t.Errorf("expected total 12, got %d", total)
				}
				if p.TotalPages != 3 {
					t.Errorf("expected 3 pages, got %d", p.TotalPages)
				}
				if len(songs) != tt.wantLen {
					t.Fatalf("expected %d songs, got %d", tt.wantLen, len(songs))
				}
				if tt.wantLen > 0 && songs[0].Title != tt.wantFirst {
					t.Errorf("expected first song %s, got %s", tt.wantFirst, songs[0].Title)
				}
			})
		}
	})

	t.Run("Search matches lyrics", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		for _, s := range []*models.Song{
			{Title: "Alpha", Lyrics: "nothing here"},
			{Title: "Beta", Lyrics: "un gran AMOR perdido"},
			{Title: "Gamma", Lyrics: "otra cosa"},
		} {
			if _, err := repo.Create(ctx, s); err != nil {
				t.Fatalf("failed to create song: %v", err)
			}
		}

		songs, total, err := repo.ListPage(ctx, "amor", 0, 5)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if total != 1 || len(songs) != 1 || songs[0].Title != "Beta" {
			t.Errorf("expected only Beta, got total=%d songs=%+v", total, songs)
		}
	})

	t.Run("Search matches title", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		seedSongs(t, repo, 12)

		songs, total, err := repo.ListPage(ctx, "song 1", 0, 5)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if total != 3 || len(songs) != 3 {
			t.Errorf("expected songs 10-12, got total=%d len=%d", total, len(songs))
		}
	})

	t.Run("Wildcards match literally", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		for _, s := range []*models.Song{
			{Title: "100% puro", Lyrics: "l"},
			{Title: "1000 puro", Lyrics: "l"},
			{Title: "a_b", Lyrics: "l"},
			{Title: "axb", Lyrics: "l"},
			{Title: `back\slash`, Lyrics: "l"},
		} {
			if _, err := repo.Create(ctx, s); err != nil {
				t.Fatalf("failed to create song: %v", err)
			}
		}

		tc := []struct {
			term string
			want string
		}{
			{term: "0%", want: "100% puro"},
			{term: "a_b", want: "a_b"},
			{term: `k\s`, want: `back\slash`},
		}

		for _, tt := range tc {
			songs, total, err := repo.ListPage(ctx, tt.term, 0, 10)
			if err != nil {
				t.Fatalf("failed to search %q: %v", tt.term, err)
			}
			if total != 1 || len(songs) != 1 || songs[0].Title != tt.want {
				t.Errorf("search %q: expected only %q, got %+v", tt.term, tt.want, songs)
			}
		}
	})

	t.Run("No matches", func(t *testing.T) {
		repo := NewSongRepository(tu.OpenTestDB(t))
		seedSongs(t, repo, 2)

		songs, total, err := repo.ListPage(ctx, "zzz", 0, 5)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if total != 0 || songs == nil || len(songs) != 0 {
			t.Errorf("expected an empty non-nil result, got total=%d songs=%v", total, songs)
		}
	})
}

func TestContainsPattern(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{in: "amor", want: "%amor%"},
		{in: "50%", want: `%50\%%`},
		{in: "a_b", want: `%a\_b%`},
		{in: `c:\x`, want: `%c:\\x%`},
	}

	for _, tt := range tc {
		if got := containsPattern(tt.in); got != tt.want {
			t.Errorf("containsPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

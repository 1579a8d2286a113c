package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/desertthunder/cancionero/internal/models"
	"github.com/desertthunder/cancionero/internal/shared"
)

var errDisk = errors.New("disk I/O error")

func newMockRepo(t *testing.T) (*SongRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewSongRepository(db), mock
}

func TestSongRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "titulo", "letra", "ruta_foto", "url_web_foto"}

	t.Run("ListPage", func(t *testing.T) {
		t.Run("CountFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM canciones`).WillReturnError(errDisk)

			if _, _, err := repo.ListPage(ctx, "x", 0, 5); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})

		t.Run("QueryFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM canciones`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
			mock.ExpectQuery(`SELECT id, titulo`).WillReturnError(errDisk)

			if _, _, err := repo.ListPage(ctx, "", 0, 5); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})

		t.Run("RowError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM canciones`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
			mock.ExpectQuery(`ORDER BY id DESC LIMIT`).
				WillReturnRows(sqlmock.NewRows(columns).
					AddRow(2, "b", "l", nil, nil).
					AddRow(1, "a", "l", nil, nil).
					RowError(1, errDisk))

			if _, _, err := repo.ListPage(ctx, "", 0, 5); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`WHERE id = \?`).WillReturnRows(sqlmock.NewRows(columns))

			if _, err := repo.Get(ctx, 99); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("ScanFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`WHERE id = \?`).
				WillReturnRows(sqlmock.NewRows(columns).AddRow("not-a-number", "t", "l", nil, nil))

			_, err := repo.Get(ctx, 1)
			if !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
			if errors.Is(err, shared.ErrNotFound) {
				t.Error("scan failure must not be reported as not found")
			}
		})
	})

	t.Run("Create", func(t *testing.T) {
		t.Run("ExecFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`INSERT INTO canciones`).WillReturnError(errDisk)

			song := &models.Song{Title: "t", Lyrics: "l"}
			if _, err := repo.Create(ctx, song); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
			if song.ID != 0 {
				t.Error("song ID should stay unset on failure")
			}
		})

		t.Run("LastInsertIdFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`INSERT INTO canciones`).WillReturnResult(sqlmock.NewErrorResult(errDisk))

			if _, err := repo.Create(ctx, &models.Song{Title: "t", Lyrics: "l"}); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`UPDATE canciones`).WillReturnResult(sqlmock.NewResult(0, 0))

			if err := repo.Update(ctx, &models.Song{ID: 5, Title: "t", Lyrics: "l"}); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("ExecFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`UPDATE canciones`).WillReturnError(errDisk)

			if err := repo.Update(ctx, &models.Song{ID: 5}); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})
	})

	t.Run("SetRemotePhotoURL", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE canciones SET url_web_foto`).WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.SetRemotePhotoURL(ctx, 5, "https://x"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("RowsAffectedFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`DELETE FROM canciones`).WillReturnResult(sqlmock.NewErrorResult(errDisk))

			if err := repo.Delete(ctx, 1); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})

		t.Run("ExecFails", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`DELETE FROM canciones`).WillReturnError(errDisk)

			if err := repo.Delete(ctx, 1); !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})
	})

	t.Run("Count", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\)`).WillReturnError(errDisk)

		if _, err := repo.Count(ctx); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
	})
}

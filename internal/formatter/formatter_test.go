package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/cancionero/internal/models"
	"github.com/desertthunder/cancionero/internal/shared"
	th "github.com/desertthunder/cancionero/internal/testing"
)

func strPtr(s string) *string { return &s }

func testSongs() []models.Song {
	return []models.Song{
		{
			ID:             3,
			Title:          "Bésame <b>mucho</b>",
			Lyrics:         "Bésame<br>como si fuera esta noche",
			LocalPhotoRef:  strPtr("abc_besame.png"),
			RemotePhotoURL: strPtr("https://cdn.example.com/3_abc_besame.png"),
		},
		{
			ID:            2,
			Title:         "Cielito lindo",
			Lyrics:        "De la sierra morena, cielito lindo",
			LocalPhotoRef: strPtr("def_cielito.jpg"),
		},
		{
			ID:     1,
			Title:  "La bamba",
			Lyrics: "Para bailar la bamba &amp; más",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "csv", want: FormatCSV},
		{in: "md", want: FormatMarkdown},
		{in: " markdown ", want: FormatMarkdown},
	}

	for _, tt := range tc {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected ErrValidation for yaml, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testSongs())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("CSV output is not parseable: %v", err)
		}

		if len(records) != 4 {
			t.Fatalf("expected header and 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "ID,Title,Lyrics,Photo,Remote URL" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}

		first := records[1]
		if first[0] != "3" || first[1] != "Bésame mucho" {
			t.Errorf("unexpected first row: %v", first)
		}
		if first[2] != "Bésame\ncomo si fuera esta noche" {
			t.Errorf("lyrics should be plain text with line breaks, got %q", first[2])
		}
		if first[4] != "https://cdn.example.com/3_abc_besame.png" {
			t.Errorf("unexpected remote URL %q", first[4])
		}

		if records[3][2] != "Para bailar la bamba & más" {
			t.Errorf("entities should be decoded, got %q", records[3][2])
		}
		if records[3][3] != "" || records[3][4] != "" {
			t.Errorf("song without photo should have empty photo columns: %v", records[3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testSongs(), "uploads/")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		expected := []string{
			"# Cancionero",
			"**Songs**: 3",
			"## Bésame mucho",
			"![Photo](https://cdn.example.com/3_abc_besame.png)",
			"> Bésame\n> como si fuera esta noche",
			"## Cielito lindo",
			"![Photo](uploads/def_cielito.jpg)",
			"## La bamba",
		}
		for _, want := range expected {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}

		if strings.Count(output, "![Photo]") != 2 {
			t.Errorf("expected 2 photos, got:\n%s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testSongs())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		expected := []string{
			"Songs: 3",
			"3. Bésame mucho [published]",
			"2. Cielito lindo [photo]",
			"1. La bamba\n",
		}
		for _, want := range expected {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testSongs())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var songs []models.Song
		if err := json.Unmarshal(data, &songs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(songs) != 3 || songs[0].ID != 3 {
			t.Errorf("unexpected songs: %+v", songs)
		}
		if songs[2].LocalPhotoRef != nil {
			t.Error("song without photo should omit the photo field")
		}

		empty, err := ExportToJSON(nil)
		if err != nil {
			t.Fatalf("ExportToJSON(nil) failed: %v", err)
		}
		if strings.TrimSpace(string(empty)) != "[]" {
			t.Errorf("expected empty array, got %s", empty)
		}
	})

	t.Run("Render", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Render(f, testSongs()); err != nil {
				t.Errorf("Render(%s) failed: %v", f, err)
			}
		}
		if _, err := Render(Format("xml"), nil); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestWritePage(t *testing.T) {
	page := models.NewPage("", 2, 3)
	page.Songs = testSongs()
	page.SetTotal(7)

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WritePage(&buf, FormatText, page); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}
		if !strings.Contains(buf.String(), "Page 2 of 3 (7 songs)") {
			t.Errorf("missing footer, got:\n%s", buf.String())
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WritePage(&buf, FormatJSON, page); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}

		var got models.Page
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Page != 2 || got.Total != 7 || len(got.Songs) != 3 {
			t.Errorf("unexpected page: %+v", got)
		}
	})

	t.Run("CSV has no footer", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WritePage(&buf, FormatCSV, page); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}
		if strings.Contains(buf.String(), "Page 2") {
			t.Errorf("CSV output should not carry a footer")
		}
	})

	t.Run("WriteFails", func(t *testing.T) {
		if err := WritePage(&th.FWriter{}, FormatText, page); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteExport(testSongs(), FormatCSV, "", "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		if path != "canciones.csv" {
			t.Errorf("expected canciones.csv, got %s", path)
		}
		th.AssertFileExists(t, path)

		content := th.MustReadFile(t, path)
		if !strings.HasPrefix(content, "ID,Title,Lyrics") {
			t.Errorf("unexpected CSV content: %s", content)
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "songbook.md")

		got, err := WriteExport(testSongs(), FormatMarkdown, path, "uploads")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertDirExists(t, filepath.Dir(path))
		content := th.MustReadFile(t, got)
		if !strings.Contains(content, "![Photo](uploads/def_cielito.jpg)") {
			t.Errorf("expected photo link relative to the media directory, got:\n%s", content)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		th.MustWriteFile(t, blocker, []byte("x"))

		if _, err := WriteExport(testSongs(), FormatText, filepath.Join(blocker, "out.txt"), ""); err == nil {
			t.Error("expected error when the parent is a file")
		}
	})
}

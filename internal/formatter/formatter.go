// package formatter renders songs as CSV, Markdown, plain text or JSON for the terminal and file exports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/cancionero/internal/models"
	"github.com/desertthunder/cancionero/internal/sanitize"
	"github.com/desertthunder/cancionero/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format, in the order shown in help text.
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat resolves a format name. "md" is accepted for Markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrValidation, name)
}

// Extension returns the file extension used when exporting in f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// ExportToCSV converts songs to CSV with columns: ID, Title, Lyrics, Photo, Remote URL
func ExportToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Lyrics", "Photo", "Remote URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			strconv.FormatInt(song.ID, 10),
			sanitize.Plain(song.Title),
			sanitize.Plain(song.Lyrics),
			song.Photo(),
			song.RemoteURL(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts songs to a Markdown songbook, one section per song.
//
// Photos link to the published copy when there is one, otherwise to mediaPrefix + the local reference.
func ExportToMarkdown(songs []models.Song, mediaPrefix string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Cancionero\n\n")
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(songs)))

	for _, song := range songs {
		buf.WriteString(fmt.Sprintf("## %s\n\n", sanitize.Plain(song.Title)))

		switch {
		case song.IsPublished():
			buf.WriteString(fmt.Sprintf("![Photo](%s)\n\n", song.RemoteURL()))
		case song.HasPhoto():
			buf.WriteString(fmt.Sprintf("![Photo](%s%s)\n\n", mediaPrefix, song.Photo()))
		}

		for line := range strings.SplitSeq(sanitize.Plain(song.Lyrics), "\n") {
			buf.WriteString("> " + line + "\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts songs to plain text, one numbered line per song
func ExportToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(songs)))
	for _, song := range songs {
		marker := ""
		switch {
		case song.IsPublished():
			marker = " [published]"
		case song.HasPhoto():
			marker = " [photo]"
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", song.ID, firstLine(sanitize.Plain(song.Title)), marker))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts songs to indented JSON
func ExportToJSON(songs []models.Song) ([]byte, error) {
	if songs == nil {
		songs = []models.Song{}
	}
	data, err := shared.MarshalJSON(songs, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal songs: %w", err)
	}
	return append(data, '\n'), nil
}

// Render formats songs in f.
func Render(f Format, songs []models.Song) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(songs)
	case FormatCSV:
		return ExportToCSV(songs)
	case FormatMarkdown:
		return ExportToMarkdown(songs, "")
	case FormatText:
		return ExportToText(songs)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrValidation, f)
}

// WritePage renders one listing page to w, with a paging footer for text output.
func WritePage(w io.Writer, f Format, page *models.Page) error {
	if f == FormatJSON {
		data, err := shared.MarshalJSON(page, true)
		if err != nil {
			return fmt.Errorf("failed to marshal page: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}

	data, err := Render(f, page.Songs)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	if f == FormatText && page.TotalPages > 0 {
		_, err = fmt.Fprintf(w, "\nPage %d of %d (%d songs)\n", page.Page, page.TotalPages, page.Total)
	}
	return err
}

// WriteExport writes the full catalogue to path in format f.
//
// Defaults to canciones{ext} in the working directory. Markdown exports link photos relative to mediaDir.
func WriteExport(songs []models.Song, f Format, path, mediaDir string) (string, error) {
	if path == "" {
		path = "canciones" + f.Extension()
	}

	var (
		data []byte
		err  error
	)
	if f == FormatMarkdown {
		prefix := ""
		if mediaDir != "" {
			prefix = filepath.ToSlash(mediaDir) + "/"
		}
		data, err = ExportToMarkdown(songs, prefix)
	} else {
		data, err = Render(f, songs)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

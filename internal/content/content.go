// Package content prepares book text for the reader.
//
// Pagination addresses text by rune offset, so every stored book is first
// brought into a single canonical form: a leading byte order mark is dropped,
// line endings become "\n", and the text is NFC-normalised so that a
// decomposed "é" counts as one character like its precomposed twin.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxFileSize limits imported text files.
const MaxFileSize = 32 << 20

var (
	ErrNotText  = errors.New("content is not a text file")
	ErrTooLarge = fmt.Errorf("content exceeds %d bytes", MaxFileSize)
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize returns s in canonical form.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = lineEndings.Replace(s)
	return norm.NFC.String(s)
}

// Runes returns the canonical form of s as the rune sequence the paginator works on.
func Runes(s string) []rune {
	return []rune(Normalize(s))
}

// Length returns the number of characters in the canonical form of s.
func Length(s string) int {
	return utf8.RuneCountInString(Normalize(s))
}

// Read decodes UTF-8 or BOM-marked UTF-16 text from r and normalises it.
// Ill-formed sequences become U+FFFD; input containing NUL bytes is rejected
// as binary.
func Read(r io.Reader) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(io.LimitReader(transform.NewReader(r, decoder), MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	if len(data) > MaxFileSize {
		return "", ErrTooLarge
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrNotText
	}
	return Normalize(string(data)), nil
}

// LoadFile reads a text file from disk.
func LoadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	text, err := Read(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// TitleFromPath derives a display title from a file name,
// e.g. "the_time-machine.txt" becomes "The Time Machine".
func TitleFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(language.English).String(name)
}

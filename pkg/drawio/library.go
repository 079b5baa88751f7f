// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package drawio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Extension is the file extension of library files.
const Extension = ".drawio"

const (
	libraryOpenPrefix = "<mxlibrary title='"
	libraryOpenSuffix = "'>"
	libraryClose      = "</mxlibrary>"
)

// Library is one mxlibrary container: a title and its icons in order.
type Library struct {
	Title string
	Icons []Descriptor
}

// Bytes renders the container:
//
//	<mxlibrary title='TITLE'>[{...},{...}]</mxlibrary>
func (l *Library) Bytes() ([]byte, error) {
	icons := l.Icons
	if icons == nil {
		icons = []Descriptor{}
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(icons); err != nil {
		return nil, fmt.Errorf("encode library %q: %w", l.Title, err)
	}

	var out bytes.Buffer
	out.WriteString(libraryOpenPrefix)
	out.WriteString(titleEscaper.Replace(l.Title))
	out.WriteString(libraryOpenSuffix)
	out.Write(bytes.TrimRight(body.Bytes(), "\n"))
	out.WriteString(libraryClose)
	return out.Bytes(), nil
}

// WriteTo writes the rendered container to w.
func (l *Library) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// WriteFile writes the container to path, replacing any existing file.
// It returns the number of bytes written.
func (l *Library) WriteFile(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create library file: %w", err)
	}
	n, err := l.WriteTo(f)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("write library file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close library file %s: %w", path, err)
	}
	return n, nil
}

// ParseLibrary reads a container written by Bytes.
func ParseLibrary(r io.Reader) (*Library, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	s := strings.TrimSpace(string(data))

	if !strings.HasPrefix(s, libraryOpenPrefix) || !strings.HasSuffix(s, libraryClose) {
		return nil, fmt.Errorf("%w: missing mxlibrary envelope", ErrPayload)
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, libraryOpenPrefix), libraryClose)
	end := strings.Index(s, libraryOpenSuffix)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated title attribute", ErrPayload)
	}

	lib := &Library{Title: titleUnescaper.Replace(s[:end])}
	if err := json.Unmarshal([]byte(s[end+len(libraryOpenSuffix):]), &lib.Icons); err != nil {
		return nil, fmt.Errorf("%w: icon list: %v", ErrPayload, err)
	}
	return lib, nil
}

// FileName is the library file name for a group title. Path separators
// in the title become '-'. An empty ext means Extension.
func FileName(title, ext string) string {
	if ext == "" {
		ext = Extension
	}
	return pathSeparators.Replace(title) + ext
}

var (
	pathSeparators = strings.NewReplacer("/", "-", "\\", "-")
	titleEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", "'", "&apos;")
	titleUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&apos;", "'")
)

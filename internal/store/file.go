package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// fileDoc is the on-disk layout of a File store.
type fileDoc struct {
	Entries   map[string]string `json:"entries"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// File keeps every entry in one JSON document, rewritten atomically on change.
type File struct {
	mu    sync.Mutex
	path  string
	quota int64
	doc   fileDoc
	usage int64
}

// NewFile loads path, or starts empty if the file doesn't exist.
func NewFile(path string, quota int64) (*File, error) {
	f := &File{path: path, quota: quota, doc: fileDoc{Entries: map[string]string{}}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.doc); err != nil {
			return nil, fmt.Errorf("parse store file: %w", err)
		}
	}
	if f.doc.Entries == nil {
		f.doc.Entries = map[string]string{}
	}
	for k, v := range f.doc.Entries {
		f.usage += entrySize(k, []byte(v))
	}
	return f, nil
}

// save writes the document to a temp file and renames it over path. Caller holds mu.
func (f *File) save() error {
	f.doc.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.doc.Entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, had := f.doc.Entries[key]
	var oldSize int64
	if had {
		oldSize = entrySize(key, []byte(old))
	}
	newSize := entrySize(key, value)
	if err := checkQuota(key, f.usage, oldSize, newSize, f.quota); err != nil {
		return err
	}
	f.doc.Entries[key] = string(value)
	if err := f.save(); err != nil {
		if had {
			f.doc.Entries[key] = old
		} else {
			delete(f.doc.Entries, key)
		}
		return err
	}
	f.usage += newSize - oldSize
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.doc.Entries[key]
	if !ok {
		return nil
	}
	delete(f.doc.Entries, key)
	if err := f.save(); err != nil {
		f.doc.Entries[key] = old
		return err
	}
	f.usage -= entrySize(key, []byte(old))
	return nil
}

func (f *File) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.doc.Entries))
	for k := range f.doc.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *File) Usage(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage, nil
}

func (f *File) Close() error { return nil }

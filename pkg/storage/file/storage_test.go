// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return fs
}

func TestNew(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}

	root := filepath.Join(t.TempDir(), "nested", "store")
	fs, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	info, err := os.Stat(fs.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("root directory not created: %v", err)
	}
}

func TestPutGet(t *testing.T) {
	fs := newTestStorage(t)
	value := []byte{0x00, 0x10, 0xFF}

	if err := fs.Put("sets/abc/1.share", value, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := fs.Get("sets/abc/1.share")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get() = %v, want %v", got, value)
	}

	if _, err := fs.Get("sets/abc/2.share"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}
}

func TestOverwrite(t *testing.T) {
	fs := newTestStorage(t)
	_ = fs.Put("k", []byte("first"), nil)
	_ = fs.Put("k", []byte("second"), nil)

	got, _ := fs.Get("k")
	if string(got) != "second" {
		t.Errorf("Get() = %q, want second", got)
	}

	entries, _ := os.ReadDir(fs.Root())
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	fs := newTestStorage(t)

	_ = fs.Put("default", []byte("v"), nil)
	_ = fs.Put("custom", []byte("v"), &storage.Options{Permissions: 0640})

	for key, want := range map[string]os.FileMode{"default": 0600, "custom": 0640} {
		info, err := os.Stat(filepath.Join(fs.Root(), key))
		if err != nil {
			t.Fatal(err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s permissions = %o, want %o", key, got, want)
		}
	}
}

func TestInvalidKeys(t *testing.T) {
	fs := newTestStorage(t)
	for _, key := range []string{"", "../escape", "/abs", "a/../../b"} {
		if err := fs.Put(key, []byte("v"), nil); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidKey", key, err)
		}
		if _, err := fs.Get(key); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestDeletePrunesDirectories(t *testing.T) {
	fs := newTestStorage(t)
	_ = fs.Put("sets/abc/1.share", []byte("v"), nil)

	if err := fs.Delete("sets/abc/1.share"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(fs.Root(), "sets")); !os.IsNotExist(err) {
		t.Errorf("expected empty directories to be pruned, stat error = %v", err)
	}
	if _, err := os.Stat(fs.Root()); err != nil {
		t.Errorf("root directory must survive Delete: %v", err)
	}
	if err := fs.Delete("sets/abc/1.share"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() missing error = %v, want ErrNotFound", err)
	}
}

func TestListAndExists(t *testing.T) {
	fs := newTestStorage(t)
	for _, k := range []string{"sets/b/2.share", "sets/a/manifest.yaml", "sets/b/1.share"} {
		if err := fs.Put(k, []byte("v"), nil); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := fs.List("sets/b/")
	if err != nil {
		t.Fatal(err)
	}
	if want := "[sets/b/1.share sets/b/2.share]"; fmt.Sprint(keys) != want {
		t.Errorf("List() = %v, want %v", keys, want)
	}

	if ok, err := fs.Exists("sets/a/manifest.yaml"); err != nil || !ok {
		t.Errorf("Exists() = %v, %v", ok, err)
	}
	if ok, _ := fs.Exists("sets/a/missing"); ok {
		t.Error("Exists() = true for missing key")
	}
}

func TestClose(t *testing.T) {
	fs := newTestStorage(t)
	_ = fs.Put("k", []byte("v"), nil)
	if err := fs.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Get("k"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Get() after Close error = %v", err)
	}
	if _, err := fs.List(""); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("List() after Close error = %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	fs := newTestStorage(t)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("sets/c/%d.share", n)
			if err := fs.Put(key, []byte{byte(n)}, nil); err != nil {
				t.Errorf("Put() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	keys, _ := fs.List("sets/c/")
	if len(keys) != 10 {
		t.Errorf("expected 10 keys, got %d", len(keys))
	}
}

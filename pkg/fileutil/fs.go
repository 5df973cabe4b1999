// Package fileutil provides unified access to program files on disk and in
// embedded file systems.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// Tree は実ディレクトリまたは埋め込みファイルシステム上のファイル群を表す
// パスは常に "/" 区切りで、ルートからの相対パス
type Tree struct {
	fsys     fs.FS
	root     string
	embedded bool
}

// Dir は実ディレクトリ用のTreeを作成する
func Dir(dir string) *Tree {
	return &Tree{fsys: os.DirFS(dir), root: dir}
}

// Embedded は埋め込みファイルシステム用のTreeを作成する
// root はfsys内のディレクトリ（"." で全体）
func Embedded(fsys fs.FS, root string) *Tree {
	if root == "" {
		root = "."
	}
	sub, err := fs.Sub(fsys, root)
	if err != nil {
		// fs.Sub only fails on an invalid root; keep the full tree.
		sub = fsys
	}
	return &Tree{fsys: sub, root: root, embedded: true}
}

// Root はTreeのルートを返す
func (t *Tree) Root() string {
	return t.root
}

// IsEmbedded は埋め込みファイルシステムかどうかを返す
func (t *Tree) IsEmbedded() bool {
	return t.embedded
}

// FS は内部のfs.FSを返す
func (t *Tree) FS() fs.FS {
	return t.fsys
}

// Find は大文字小文字を無視してファイルを検索し、実際の相対パスを返す
func (t *Tree) Find(name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/"))

	// まず直接アクセスを試みる
	if info, err := fs.Stat(t.fsys, clean); err == nil && !info.IsDir() {
		return clean, nil
	}

	return FindFileCaseInsensitiveFS(t.fsys, path.Dir(clean), path.Base(clean))
}

// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
func (t *Tree) ReadFile(name string) ([]byte, error) {
	actual, err := t.Find(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(t.fsys, actual)
}

// Stat はファイル情報を返す（大文字小文字を無視）
func (t *Tree) Stat(name string) (fs.FileInfo, error) {
	actual, err := t.Find(name)
	if err != nil {
		return nil, err
	}
	return fs.Stat(t.fsys, actual)
}

// Walk はTree全体を辞書順に走査し、ファイルごとにfnを呼ぶ
func (t *Tree) Walk(fn func(name string, d fs.DirEntry) error) error {
	return fs.WalkDir(t.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", p, err)
		}
		if d.IsDir() {
			return nil
		}
		return fn(p, d)
	})
}

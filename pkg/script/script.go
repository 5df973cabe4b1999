package script

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/mya/pkg/fileutil"
)

// Extensions はASTドキュメントとして読み込む拡張子
var Extensions = []string{".yaml", ".yml", ".json"}

// Encoding はファイルの文字コード
type Encoding string

const (
	// EncodingAuto はBOM付きUTF-8、UTF-8、Shift-JISの順に判定する
	EncodingAuto     Encoding = "auto"
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift-jis"
)

// ParseEncoding は文字コード名を解釈する
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "shift-jis", "shift_jis", "sjis", "cp932":
		return EncodingShiftJIS, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", name)
	}
}

// Script はASTドキュメントのファイルを表す
type Script struct {
	FileName string // ファイル名
	Path     string // ルートからの相対パス
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
}

// Loader はASTドキュメントの読み込みを行う
type Loader struct {
	tree     *fileutil.Tree
	encoding Encoding
}

// NewLoader はディレクトリから読み込むLoaderを作成
func NewLoader(dir string) *Loader {
	return &Loader{tree: fileutil.Dir(dir), encoding: EncodingAuto}
}

// NewLoaderFS は埋め込みファイルシステムから読み込むLoaderを作成
func NewLoaderFS(fsys fs.FS, root string) *Loader {
	return &Loader{tree: fileutil.Embedded(fsys, root), encoding: EncodingAuto}
}

// WithEncoding は文字コードを指定したLoaderを返す
func (l *Loader) WithEncoding(enc Encoding) *Loader {
	return &Loader{tree: l.tree, encoding: enc}
}

// Root は読み込み元のルートを返す
func (l *Loader) Root() string {
	return l.tree.Root()
}

// LoadAllScripts はルート以下のすべてのASTドキュメントをパス順に読み込む
func (l *Loader) LoadAllScripts() ([]Script, error) {
	names, err := l.findScriptFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no script files found in %s", l.tree.Root())
	}

	scripts := make([]Script, 0, len(names))
	for _, name := range names {
		s, err := l.LoadScript(name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *s)
	}

	return scripts, nil
}

// LoadScript は単一のASTドキュメントを読み込む（大文字小文字を無視）
func (l *Loader) LoadScript(name string) (*Script, error) {
	info, err := l.tree.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}

	data, err := l.tree.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}

	content, err := Decode(data, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", name, err)
	}

	return &Script{
		FileName: info.Name(),
		Path:     filepath.ToSlash(name),
		Content:  content,
		Size:     info.Size(),
	}, nil
}

// findScriptFiles は対象拡張子のファイルを検出（case-insensitive）
func (l *Loader) findScriptFiles() ([]string, error) {
	var names []string
	err := l.tree.Walk(func(name string, d fs.DirEntry) error {
		if fileutil.HasExtension(name, Extensions...) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// LoadFile はディスク上の単一ファイルを読み込む
func LoadFile(path string, enc Encoding) (*Script, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, err := Decode(data, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", path, err)
	}

	return &Script{
		FileName: filepath.Base(path),
		Path:     filepath.ToSlash(path),
		Content:  content,
		Size:     info.Size(),
	}, nil
}

// Decode はバイト列をUTF-8文字列に変換する
// UTF-8のBOMは常に除去する
func Decode(data []byte, enc Encoding) (string, error) {
	var decoder *encoding.Decoder
	switch enc {
	case EncodingShiftJIS:
		decoder = japanese.ShiftJIS.NewDecoder()
	case EncodingUTF8:
		decoder = unicode.UTF8BOM.NewDecoder()
	case EncodingAuto, "":
		if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) || utf8.Valid(data) {
			decoder = unicode.UTF8BOM.NewDecoder()
		} else {
			decoder = japanese.ShiftJIS.NewDecoder()
		}
	default:
		return "", fmt.Errorf("unsupported encoding: %s", enc)
	}

	reader := transform.NewReader(bytes.NewReader(data), decoder)
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}

	return string(utf8Data), nil
}

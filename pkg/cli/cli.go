package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/zurustar/mya/pkg/backend"
	"github.com/zurustar/mya/pkg/script"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	InputPath string          // ASTドキュメントまたはディレクトリのパス（空の場合は組み込みサンプル）
	Sample    string          // 組み込みサンプル名（空の場合はすべて）
	Emit      string          // 出力形式（listing, tree, entries, signatures）
	LogLevel  string          // ログレベル（debug, info, warn, error）
	LogFormat string          // ログ形式（text, pretty）
	Encoding  script.Encoding // 入力ファイルの文字コード
	Color     string          // 色付け（auto, always, never）
	ShowHelp  bool            // ヘルプ表示フラグ
}

// 既定値
const (
	DefaultEmit      = "listing"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultColor     = "auto"
)

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h":     true,
	"-help":  true,
	"--help": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("mya", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var encoding string
	fs.StringVar(&config.Emit, "emit", DefaultEmit, "出力形式")
	fs.StringVar(&config.Emit, "e", DefaultEmit, "出力形式（短縮形）")
	fs.StringVar(&config.Sample, "sample", "", "組み込みサンプル名")
	fs.StringVar(&config.Sample, "s", "", "組み込みサンプル名（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", DefaultLogLevel, "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", DefaultLogFormat, "ログ形式（text, pretty）")
	fs.StringVar(&encoding, "encoding", string(script.EncodingAuto), "入力ファイルの文字コード")
	fs.StringVar(&config.Color, "color", DefaultColor, "色付け（auto, always, never）")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.ShowHelp = true
			return config, nil
		}
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if config.LogLevel == DefaultLogLevel {
		if v := os.Getenv("LOG_LEVEL"); v != "" {
			config.LogLevel = strings.ToLower(v)
		}
	}
	if config.Emit == DefaultEmit {
		if v := os.Getenv("MYA_EMIT"); v != "" {
			config.Emit = strings.ToLower(v)
		}
	}
	if encoding == string(script.EncodingAuto) {
		if v := os.Getenv("MYA_ENCODING"); v != "" {
			encoding = v
		}
	}
	// NO_COLOR convention: https://no-color.org/
	if config.Color == DefaultColor {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			config.Color = "never"
		}
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.LogFormat != "text" && config.LogFormat != "pretty" {
		return nil, fmt.Errorf("invalid log format: %s (must be text or pretty)", config.LogFormat)
	}

	if _, err := backend.Lookup(config.Emit); err != nil {
		return nil, fmt.Errorf("invalid emit format: %s (must be one of %s)", config.Emit, strings.Join(backend.Names(), ", "))
	}

	enc, err := script.ParseEncoding(encoding)
	if err != nil {
		return nil, err
	}
	config.Encoding = enc

	switch config.Color {
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("invalid color mode: %s (must be auto, always, or never)", config.Color)
	}

	// 位置引数（入力パス）
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("too many arguments: %v", fs.Args())
	}
	if fs.NArg() == 1 {
		config.InputPath = fs.Arg(0)
	}

	if config.InputPath != "" && config.Sample != "" {
		return nil, fmt.Errorf("--sample cannot be combined with an input path")
	}

	return config, nil
}

// ColorEnabled は出力先fに色を付けるかを返す
func (c *Config) ColorEnabled(f *os.File) bool {
	switch c.Color {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LoadEnvFile は.envファイルから環境変数を読み込む
// ファイルが存在しない場合はエラーにしない。既に設定済みの変数は上書きしない
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック
			// （-e tree のような場合。--emit=tree は1つの引数）
			if !boolFlags[arg] && !strings.Contains(arg, "=") &&
				i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	// "--" を挟んで "-" で始まる位置引数をフラグとして解釈させない
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `mya - typed IR compiler front end

Usage:
  mya [options] [path]

Arguments:
  path          ASTドキュメント（.yaml, .yml, .json）またはディレクトリのパス（省略可）
                ディレクトリを指定した場合、含まれるすべてのドキュメントを個別にコンパイル
                省略した場合、組み込みサンプルをコンパイル

Options:
  -e, --emit <format>         出力形式: %s（デフォルト: %s）
  -s, --sample <name>         組み込みサンプルを1つだけコンパイル（例: fib.yaml）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: %s）
  --log-format <format>       ログ形式: text, pretty（デフォルト: %s）
  --encoding <name>           入力の文字コード: auto, utf-8, shift-jis（デフォルト: auto）
  --color <mode>              色付け: auto, always, never（デフォルト: %s）
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  MYA_EMIT=<format>           出力形式
  MYA_ENCODING=<name>         入力の文字コード
  NO_COLOR=1                  色付けを無効化
  （カレントディレクトリの .env からも読み込む）

Examples:
  mya                             組み込みサンプルをすべてコンパイル
  mya --sample fib.yaml -e tree   組み込みサンプルをネスト表示
  mya program.yaml                ファイルを指定
  mya -e signatures ./programs    ディレクトリ内のすべてのドキュメント
  mya --log-level debug x.json    デバッグログを有効化
`, strings.Join(backend.Names(), ", "), DefaultEmit, DefaultLogLevel, DefaultLogFormat, DefaultColor)
}

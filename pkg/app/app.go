package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/zurustar/mya/pkg/backend"
	"github.com/zurustar/mya/pkg/cli"
	"github.com/zurustar/mya/pkg/compiler"
	"github.com/zurustar/mya/pkg/ir"
	"github.com/zurustar/mya/pkg/logger"
	"github.com/zurustar/mya/pkg/script"
)

// SamplesRoot は組み込みファイルシステム内のサンプルディレクトリ
const SamplesRoot = "samples"

// EnvFile はカレントディレクトリから読み込む環境変数ファイル
const EnvFile = ".env"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	samples fs.FS     // 組み込みサンプル
	stdout  io.Writer // IRの出力先
	stderr  io.Writer // ログとエラーの出力先
	color   bool      // エラー表示に色を付けるか
}

// New Applicationを作成
func New(samples fs.FS) *Application {
	return &Application{
		samples: samples,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithOutput 出力先を差し替える
func (app *Application) WithOutput(stdout, stderr io.Writer) *Application {
	app.stdout = stdout
	app.stderr = stderr
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := cli.LoadEnvFile(EnvFile); err != nil {
		return err
	}
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Debug("Application started", "emit", app.config.Emit, "encoding", string(app.config.Encoding))

	// 3. ASTドキュメントの読み込み
	scripts, err := app.loadScripts()
	if err != nil {
		return fmt.Errorf("failed to load scripts: %w", err)
	}

	app.log.Info("Scripts loaded", "count", len(scripts))
	for _, s := range scripts {
		app.log.Debug("Script file", "path", s.Path, "size", s.Size)
		app.log.Debug("Script content preview", "path", s.Path, "preview", truncate(s.Content, 100))
	}

	// 4. コンパイル
	results := compiler.CompileScriptsWithResults(scripts)

	// 5. 出力
	b, err := backend.Lookup(app.config.Emit)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			app.reportErrors(r)
			continue
		}

		app.log.Info("Compiled", "path", r.Path, "instructions", r.Program.Len(), "methods", len(r.Program.Methods.Names()))
		app.log.Debug("Instructions generated", "path", r.Path, "instructions", formatInstructionsPreview(r.Program, 10))

		if err := b.Emit(r.Program, r.Path, app.stdout); err != nil {
			return fmt.Errorf("failed to emit %s: %w", r.Path, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to compile scripts: %d of %d failed", failed, len(results))
	}

	app.log.Debug("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	app.color = app.colorEnabled()
	err := logger.InitLoggerWithOptions(logger.Options{
		Level:  app.config.LogLevel,
		Format: app.config.LogFormat,
		Writer: app.stderr,
		Color:  app.color,
	})
	if err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// colorEnabled 標準エラー出力に色を付けるか
// 差し替えた出力先は端末ではないので、alwaysのときだけ色を付ける
func (app *Application) colorEnabled() bool {
	if f, ok := app.stderr.(*os.File); ok {
		return app.config.ColorEnabled(f)
	}
	return app.config.Color == "always"
}

// loadScripts ASTドキュメントを読み込む
// 入力パスがファイルならそれだけ、ディレクトリなら配下すべて、
// 省略された場合は組み込みサンプルを読み込む
func (app *Application) loadScripts() ([]script.Script, error) {
	path := app.config.InputPath
	if path == "" {
		return app.loadSamples()
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("input path does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to access input path: %w", err)
	}

	if info.IsDir() {
		app.log.Debug("Loading directory", "path", path)
		return script.NewLoader(path).WithEncoding(app.config.Encoding).LoadAllScripts()
	}

	s, err := script.LoadFile(path, app.config.Encoding)
	if err != nil {
		return nil, err
	}
	return []script.Script{*s}, nil
}

// loadSamples 組み込みサンプルを読み込む
func (app *Application) loadSamples() ([]script.Script, error) {
	if app.samples == nil {
		return nil, fmt.Errorf("no input path given and no embedded samples available")
	}

	loader := script.NewLoaderFS(app.samples, SamplesRoot).WithEncoding(app.config.Encoding)
	app.log.Debug("Loading embedded samples", "root", loader.Root(), "sample", app.config.Sample)

	if app.config.Sample == "" {
		return loader.LoadAllScripts()
	}

	s, err := loader.LoadScript(app.config.Sample)
	if err != nil {
		return nil, fmt.Errorf("unknown sample %s: %w", app.config.Sample, err)
	}
	return []script.Script{*s}, nil
}

// reportErrors コンパイルエラーを標準エラー出力に表示
func (app *Application) reportErrors(r compiler.CompileResult) {
	header := color.New(color.FgRed, color.Bold)
	phase := color.New(color.FgYellow)
	if app.color {
		header.EnableColor()
		phase.EnableColor()
	} else {
		header.DisableColor()
		phase.DisableColor()
	}

	app.log.Error("Compilation failed", "path", r.Path, "compile_id", r.ID.String(), "errors", len(r.Errors))

	for _, err := range r.Errors {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			fmt.Fprintf(app.stderr, "%s %s\n", header.Sprint(r.Path+":"), phase.Sprint(ce.Error()))
			continue
		}
		fmt.Fprintf(app.stderr, "%s %v\n", header.Sprint(r.Path+":"), err)
	}
}

// truncate 文字列を指定した長さで切り詰める
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// formatInstructionsPreview 命令列のプレビューを生成（デバッグ用）
func formatInstructionsPreview(p *ir.Program, maxCount int) string {
	if p.Len() == 0 {
		return "[]"
	}

	count := p.Len()
	if count > maxCount {
		count = maxCount
	}

	var sb strings.Builder
	for i := 0; i < count; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("{Cmd: %s}", p.Instructions[i].Cmd))
	}

	if p.Len() > maxCount {
		sb.WriteString(fmt.Sprintf(", ... (%d more)", p.Len()-maxCount))
	}

	return "[" + sb.String() + "]"
}

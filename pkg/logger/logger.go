package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var globalLogger *slog.Logger

// Options はロガーの設定
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // text または pretty
	Writer io.Writer // 出力先（nilの場合はos.Stderr）
	Color  bool      // prettyフォーマットで色を付けるか
}

// ParseLevel はログレベル名をslog.Levelに変換
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// InitLogger ログレベルに応じてslogを初期化
// 出力はIRの出力と混ざらないよう標準エラー出力
func InitLogger(level string) error {
	return InitLoggerWithOptions(Options{Level: level, Format: "text"})
}

// InitLoggerWithOptions 設定に応じてslogを初期化
func InitLoggerWithOptions(opts Options) error {
	slogLevel, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	switch opts.Format {
	case "", "text":
		handler = slog.NewTextHandler(w, &handlerOpts)
	case "pretty":
		handler = NewPrettyHandler(w, PrettyHandlerOptions{
			SlogOpts: handlerOpts,
			Color:    opts.Color,
		})
	default:
		return fmt.Errorf("invalid log format: %s", opts.Format)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		// デフォルトロガーを返す
		return slog.Default()
	}
	return globalLogger
}

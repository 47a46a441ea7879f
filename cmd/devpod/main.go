// =============================================================================
// devpod 命令行入口
// =============================================================================
// 使用方法:
//
//	devpod run -project shop -requirements reqs.txt     # 执行完整流程
//	devpod stories -project shop -requirements reqs.txt # 只生成用户故事
//	devpod query -project shop -text "login"            # 检索已存储制品
//	devpod ask -project shop -question "What is left?"  # 向项目负责人提问
//	devpod migrate -config devpod.yaml up               # 应用 SQL 存储的表结构迁移
//	devpod version                                      # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/devpod/config"
)

// 构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run 分派子命令并返回退出码
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "run":
		err = runAll(ctx, args[1:], stdin, stdout)
	case "stories":
		err = runStories(ctx, args[1:], stdin, stdout)
	case "query":
		err = runQuery(ctx, args[1:], stdout)
	case "ask":
		err = runAsk(ctx, args[1:], stdin, stdout)
	case "migrate":
		err = runMigrate(ctx, args[1:], stdout)
	case "version":
		printVersion(stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "devpod %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "devpod %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `devpod - structured artifact pipeline for a simulated development team

Usage:
  devpod <command> [options]

Commands:
  run       Run every phase from requirements to test results
  stories   Generate user stories only
  query     Search the stored artifacts of a project
  ask       Ask the project lead a question
  migrate   Manage the SQL store schema (up, down, version, status)
  version   Show version information
  help      Show this help message

Common options:
  -config <path>        Path to configuration file (YAML)
  -project <name>       Project name
  -requirements <path>  Requirements file, "-" reads stdin

Examples:
  devpod run -project shop -requirements reqs.txt
  DEVPOD_LLM_PROVIDER=offline devpod stories -project shop -requirements -
  devpod query -config devpod.yaml -project shop -text "password reset" -limit 3
  devpod ask -project shop -requirements reqs.txt -question "Which tests fail?"
  devpod migrate -config devpod.yaml up`)
}

// =============================================================================
// 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}

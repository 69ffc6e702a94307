// Основной пакет сервиса inline-text. Читает конфигурацию и реестр полей, подключается к базе данных,
// создает таблицу значений и запускает HTTP-сервер.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/aisa-it/inline-text/internal/inlinetext"
	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/dao"
)

var version string = "DEV"

// Пример запуска: go run ./cmd/inline-text --trace --noMigration
func main() {
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	slog.Info("Inline-text start.")

	fields, err := config.LoadFields(cfg.FieldsPath)
	if err != nil {
		slog.Error("Fail load fields", "path", cfg.FieldsPath, "err", err)
		os.Exit(1)
	}

	db, err := dao.OpenDB(cfg, *paramQueries)
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	if !*noMigration {
		if err := dao.NewStore(db).Migrate(); err != nil {
			slog.Error("Fail migrate DB", "err", err)
			os.Exit(1)
		}
	}

	inlinetext.Server(db, cfg, fields, version)
}

func PrintBanner() {
	banner := `
 _       _ _                 _            _
(_)_ __ | (_)_ __   ___     | |_ _____  _| |_
| | '_ \| | | '_ \ / _ \____| __/ _ \ \/ / __|
| | | | | | | | | |  __/____| ||  __/>  <| |_
|_|_| |_|_|_|_| |_|\___|     \__\___/_/\_\\__| %s
Inline rich text sanitizer and converter
----------------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}

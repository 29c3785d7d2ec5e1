package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/importer"
	"github.com/stemsi/exstem-drill/internal/logger"
	"github.com/stemsi/exstem-drill/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	var in, out string
	flag.StringVar(&in, "in", "", "Extracted text of the exam dump")
	flag.StringVar(&out, "out", "", "JSONL bank to write (default <in>.jsonl in BANK_DIR)")
	flag.Parse()

	if in == "" {
		fmt.Println("Usage: import-text -in dump.txt [-out bank.jsonl]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		out = filepath.Join(cfg.BankDir, base+repository.BankExt)
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		log.Fatal().Err(err).Str("file", in).Msg("Failed to read dump")
	}

	res := importer.ParseExamText(string(raw))
	if len(res.Skipped) > 0 {
		log.Warn().Ints("questions", res.Skipped).Msg("Questions skipped")
	}
	if len(res.Questions) == 0 {
		log.Fatal().Msg("No questions found")
	}

	if err := writeJSONL(out, res); err != nil {
		log.Fatal().Err(err).Str("file", out).Msg("Failed to write bank")
	}
	log.Info().Str("file", out).Int("questions", len(res.Questions)).Msg("Bank written")
}

func writeJSONL(path string, res importer.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, q := range res.Questions {
		if err := enc.Encode(q); err != nil {
			return err
		}
	}
	return w.Flush()
}

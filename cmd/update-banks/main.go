package main

import (
	"flag"

	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/logger"
	"github.com/stemsi/exstem-drill/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	var dir string
	flag.StringVar(&dir, "dir", cfg.BankDir, "Directory holding the *.jsonl banks")
	flag.Parse()

	catalog := repository.NewBankCatalogRepository(dir)

	files, err := catalog.Scan()
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("Failed to scan bank directory")
	}
	if err := catalog.WriteCatalog(files); err != nil {
		log.Fatal().Err(err).Msg("Failed to write catalog")
	}

	for _, f := range files {
		log.Info().Str("file", f).Str("bank", repository.BankName(f)).Msg("Listed")
	}
	log.Info().Int("banks", len(files)).Str("catalog", repository.CatalogFile).Msg("Catalog updated")
}

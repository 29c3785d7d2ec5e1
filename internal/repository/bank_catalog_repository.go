package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// CatalogFile lists the bundled bank files to load at startup.
const CatalogFile = "banks.json"

// BankExt is the only file extension accepted for banks.
const BankExt = ".jsonl"

// BankCatalogRepository reads bundled JSONL banks from a directory.
type BankCatalogRepository struct {
	dir string
}

func NewBankCatalogRepository(dir string) *BankCatalogRepository {
	return &BankCatalogRepository{dir: dir}
}

func (r *BankCatalogRepository) Dir() string { return r.dir }

// ReadCatalog returns the filenames listed in banks.json.
func (r *BankCatalogRepository) ReadCatalog() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, CatalogFile))
	if err != nil {
		return nil, err
	}
	var files []string
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CatalogFile, err)
	}
	return files, nil
}

// OpenBank opens a catalog entry. Only the base name is honoured so a
// catalog cannot reach outside the bank directory.
func (r *BankCatalogRepository) OpenBank(filename string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(r.dir, filepath.Base(filename)))
}

// Scan lists the *.jsonl files in the bank directory, sorted by name.
func (r *BankCatalogRepository) Scan() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), BankExt) {
			continue
		}
		files = append(files, e.Name())
	}
	slices.Sort(files)
	return files, nil
}

// WriteCatalog overwrites banks.json with files, indented by two spaces.
func (r *BankCatalogRepository) WriteCatalog(files []string) error {
	if files == nil {
		files = []string{}
	}
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.dir, CatalogFile), append(data, '\n'), 0o644)
}

// BankName derives a bank name from its filename.
func BankName(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), BankExt)
}

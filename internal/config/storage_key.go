package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type StorageKeyStruct struct {
	// CustomBanks holds the JSON list of user-uploaded banks.
	CustomBanks string
	// TranslatePreference holds "true" or "false".
	TranslatePreference string
	// PracticeHistory holds the practice ledger: bank -> question id -> record.
	PracticeHistory string
}

// Translation returns the Redis key caching the translation of text into lang.
func (k *StorageKeyStruct) Translation(lang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("translate:%s:%s", lang, hex.EncodeToString(sum[:]))
}

var StorageKey = &StorageKeyStruct{
	CustomBanks:         "pdf2quiz_custom_banks",
	TranslatePreference: "pdf2quiz_translate_enabled",
	PracticeHistory:     "pdf2quiz_practice_history",
}

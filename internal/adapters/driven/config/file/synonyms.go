package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/medkb-labs/icdassist/internal/core/domain"
)

// SynonymsFileName is the synonym table file within the config
// directory.
const SynonymsFileName = "synonyms.toml"

// defaultSynonyms maps informal terms to their formal ICD-11
// terminology. The table is configuration data: the file written on
// first load can be edited and extended without a code change.
var defaultSynonyms = domain.SynonymTable{
	{Informal: "heart attack", Formal: "myocardial infarction"},
	{Informal: "stroke", Formal: "cerebrovascular accident"},
	{Informal: "flu", Formal: "influenza"},
	{Informal: "chickenpox", Formal: "varicella"},
	{Informal: "whooping cough", Formal: "pertussis"},
	{Informal: "lockjaw", Formal: "tetanus"},
	{Informal: "german measles", Formal: "rubella"},
}

// synonymsFile is the TOML shape of synonyms.toml.
type synonymsFile struct {
	Synonyms []synonymEntry `toml:"synonyms"`
}

type synonymEntry struct {
	Informal string `toml:"informal"`
	Formal   string `toml:"formal"`
}

// LoadSynonyms reads the synonym table from synonyms.toml in the given
// config directory. When the file does not exist it is created with
// the default table, so users have something concrete to edit.
func LoadSynonyms(configDir string) (domain.SynonymTable, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	path := filepath.Join(configDir, SynonymsFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeDefaultSynonyms(path); writeErr != nil {
				// Not fatal, fall back to the embedded table
				return defaultSynonyms, nil
			}
			return defaultSynonyms, nil
		}
		return nil, fmt.Errorf("reading synonyms: %w", err)
	}

	var parsed synonymsFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing synonyms: %w", err)
	}

	table := make(domain.SynonymTable, 0, len(parsed.Synonyms))
	for _, e := range parsed.Synonyms {
		if e.Informal == "" || e.Formal == "" {
			continue
		}
		table = append(table, domain.SynonymPair{Informal: e.Informal, Formal: e.Formal})
	}
	return table, nil
}

func writeDefaultSynonyms(path string) error {
	out := synonymsFile{Synonyms: make([]synonymEntry, len(defaultSynonyms))}
	for i, p := range defaultSynonyms {
		out.Synonyms[i] = synonymEntry{Informal: p.Informal, Formal: p.Formal}
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

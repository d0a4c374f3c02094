package openingbook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/movetext"
)

// CatalogFiles are the files LoadCatalogDir expects, in load order.
var CatalogFiles = []string{
	"ecoA.json",
	"ecoB.json",
	"ecoC.json",
	"ecoD.json",
	"ecoE.json",
	"eco_interpolated.json",
}

type catalogRecord struct {
	ECO       string `json:"eco"`
	Name      string `json:"name"`
	Moves     string `json:"moves"`
	Source    string `json:"src"`
	IsECORoot bool   `json:"isEcoRoot"`
}

// ResolveCatalogDir returns dir when set, otherwise the first default
// location holding every catalog file. An empty result means none was found.
func ResolveCatalogDir(dir string) (string, error) {
	if strings.TrimSpace(dir) != "" {
		if !exists(dir) {
			return "", fmt.Errorf("opening catalog dir %s does not exist", dir)
		}
		return dir, nil
	}
	for _, candidate := range defaultCatalogDirs() {
		if len(missingCatalogFiles(candidate)) == 0 {
			return candidate, nil
		}
	}
	return "", nil
}

func defaultCatalogDirs() []string {
	return []string{
		filepath.Join("resources", "opening"),
		"data",
	}
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func missingCatalogFiles(dir string) []string {
	var missing []string
	for _, name := range CatalogFiles {
		if !exists(filepath.Join(dir, name)) {
			missing = append(missing, name)
		}
	}
	return missing
}

// LoadCatalogDir loads every file in CatalogFiles from dir. All files must exist.
func LoadCatalogDir(dir string) ([]domain.Opening, error) {
	if missing := missingCatalogFiles(dir); len(missing) > 0 {
		return nil, fmt.Errorf("opening catalog %s: missing files: %s", dir, strings.Join(missing, ", "))
	}
	var out []domain.Opening
	for _, name := range CatalogFiles {
		refs, err := LoadCatalogFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
	}
	return out, nil
}

// LoadCatalogFile reads one JSON catalog object keyed by FEN. FENs are
// canonicalized to fingerprints; entries come back sorted by fingerprint.
func LoadCatalogFile(path string) ([]domain.Opening, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open opening catalog %q: %w", path, err)
	}
	defer file.Close()

	var payload map[string]catalogRecord
	if err := json.NewDecoder(file).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode opening catalog %q: %w", path, err)
	}

	fens := make([]string, 0, len(payload))
	for fen := range payload {
		fens = append(fens, fen)
	}
	sort.Strings(fens)

	out := make([]domain.Opening, 0, len(payload))
	for _, fen := range fens {
		rec := payload[fen]
		fp, err := chess.FingerprintFromFEN(fen)
		if err != nil {
			return nil, fmt.Errorf("opening catalog %q: %w", path, err)
		}
		out = append(out, domain.Opening{
			Fingerprint: fp,
			ECOCode:     strings.TrimSpace(rec.ECO),
			Name:        strings.TrimSpace(rec.Name),
			Moves:       rec.Moves,
			PlyCount:    countPlies(rec.Moves),
			Source:      rec.Source,
			IsECORoot:   rec.IsECORoot,
		})
	}
	return out, nil
}

func countPlies(moves string) int {
	n, _ := movetext.PlyCount(movetext.SeparateNumbers(moves))
	return n
}

// Package catalog tracks which languages the engines support and which
// file extensions map to them. Lift and lower registries feed it; the
// batch walker and the CLI read it.
package catalog

import (
	"sort"
	"strings"
	"sync"
)

// LanguageInfo captures metadata about a supported language.
type LanguageInfo struct {
	ID         string
	Extensions []string
}

var (
	mu     sync.RWMutex
	byLang = make(map[string]LanguageInfo)
	byExt  = make(map[string]LanguageInfo)
)

// Register stores language metadata for extension lookups. Registering the
// same language again overwrites prior data so the catalog follows the
// latest engine definition.
func Register(info LanguageInfo) {
	if info.ID == "" {
		return
	}
	info.Extensions = uniqueExtensions(info.Extensions)

	mu.Lock()
	defer mu.Unlock()
	byLang[strings.ToLower(info.ID)] = info
	for _, ext := range info.Extensions {
		byExt[ext] = info
	}
}

// LookupByExtension returns the language registered for a file extension
// (with or without the leading dot).
func LookupByExtension(ext string) (LanguageInfo, bool) {
	normalized := strings.ToLower(strings.TrimSpace(ext))
	if normalized != "" && !strings.HasPrefix(normalized, ".") {
		normalized = "." + normalized
	}
	mu.RLock()
	defer mu.RUnlock()
	info, ok := byExt[normalized]
	return info, ok
}

// Lookup returns the language info for an identifier.
func Lookup(id string) (LanguageInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()
	info, ok := byLang[strings.ToLower(id)]
	return info, ok
}

// Languages returns all registered languages sorted by ID.
func Languages() []LanguageInfo {
	mu.RLock()
	defer mu.RUnlock()
	infos := make([]LanguageInfo, 0, len(byLang))
	for _, info := range byLang {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func uniqueExtensions(exts []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(exts))
	for _, ext := range exts {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

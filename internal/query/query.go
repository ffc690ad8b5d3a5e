// Package query builds the store search text for a request.
package query

import (
	"fmt"
	"strings"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/requirement"
)

const fallback = "computadora"

var genericTerms = map[model.Intent]string{
	model.IntentComputer: "computadora",
	model.IntentMemory:   "memoria RAM",
	model.IntentStorage:  "disco duro",
	model.IntentPrinter:  "impresora",
}

// Build returns one search string for intent and e. Tokens keep a fixed
// precedence and are deduplicated case-insensitively, first occurrence wins.
func Build(intent model.Intent, e model.Entities) string {
	var tokens []string
	switch intent {
	case model.IntentMemory:
		tokens = memoryTokens(e.Specs)
	case model.IntentStorage:
		tokens = storageTokens(e.Specs)
	default:
		tokens = computerTokens(e)
	}

	out := dedupe(tokens)
	if out == "" {
		if term, ok := genericTerms[intent]; ok {
			return term
		}
		return fallback
	}
	return out
}

func computerTokens(e model.Entities) []string {
	s := e.Specs
	tokens := []string{productType(e.Modality)}
	if s.RAMGB != nil && *s.RAMGB > 0 {
		tokens = append(tokens, fmt.Sprintf("%dGB RAM", *s.RAMGB))
	}
	if s.StorageGB != nil && *s.StorageGB > 0 {
		tokens = append(tokens, fmt.Sprintf("%dGB %s", *s.StorageGB, storageKeyword(s.StorageType)))
	}
	if b, ok := model.ParseCPUBrand(s.CPUBrand); ok {
		tokens = append(tokens, string(b))
	}
	switch {
	case strings.TrimSpace(s.GPUModel) != "":
		tokens = append(tokens, strings.TrimSpace(s.GPUModel))
	case s.GPURequired != nil && *s.GPURequired:
		tokens = append(tokens, "tarjeta grafica")
	}
	tokens = append(tokens, qualifier(e.Purpose))
	return tokens
}

func memoryTokens(s model.RequestedSpecs) []string {
	if s.RAMGB == nil || *s.RAMGB <= 0 {
		return nil
	}
	return []string{fmt.Sprintf("memoria RAM %dGB", *s.RAMGB)}
}

func storageTokens(s model.RequestedSpecs) []string {
	if s.StorageGB == nil || *s.StorageGB <= 0 {
		return nil
	}
	return []string{fmt.Sprintf("disco duro %s %dGB", storageKeyword(s.StorageType), *s.StorageGB)}
}

func productType(modality []string) string {
	for _, m := range modality {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "desktop", "escritorio", "pc", "computadora de escritorio":
			return "computadora escritorio"
		case "laptop", "portatil", "portátil", "notebook":
			return "laptop"
		}
	}
	return "laptop"
}

func storageKeyword(raw string) string {
	if st, ok := model.ParseStorageType(raw); ok {
		if st == model.StorageNVMe {
			return "NVMe"
		}
		return string(st)
	}
	return string(model.StorageSSD)
}

func qualifier(purposes []string) string {
	var design bool
	for _, raw := range purposes {
		switch p, _ := requirement.ParsePurpose(raw); p {
		case requirement.PurposeGaming:
			return "gamer"
		case requirement.PurposeDesign:
			design = true
		}
	}
	if design {
		return "profesional"
	}
	return ""
}

func dedupe(tokens []string) string {
	seen := make(map[string]bool, len(tokens))
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, t)
	}
	return strings.Join(kept, " ")
}

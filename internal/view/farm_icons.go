package view

import "strings"

// FarmIconOption describes a selectable icon option for farm entities.
type FarmIconOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type farmIconAsset struct {
	Key   string
	SVG   string
	Label string
}

var (
	speciesIconDefinitions = []farmIconAsset{
		{Key: "cattle", Label: "牛", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M4 6c-1.5 0-2.5-1-2.5-2.5M20 6c1.5 0 2.5-1 2.5-2.5M7 7h10l2 4v5a4 4 0 0 1-4 4H9a4 4 0 0 1-4-4v-5l2-4Z"/><path d="M9 15h.01M15 15h.01M10 19h4"/></svg>`},
		{Key: "sheep", Label: "羊", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M6 10a3 3 0 0 1 0-6 3 3 0 0 1 5-2 3 3 0 0 1 5 2 3 3 0 0 1 0 6v4a5 5 0 0 1-10 0v-4Z"/><path d="M9 12h.01M13 12h.01M8 19l-1 3M15 19l1 3"/></svg>`},
		{Key: "goat", Label: "山羊", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M5 4c0 2 1 3 2 4M19 4c0 2-1 3-2 4M7 8h10l1.5 5-2.5 7H8L5.5 13 7 8Z"/><path d="M10 13h.01M14 13h.01M12 16v2"/></svg>`},
		{Key: "pig", Label: "猪", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><circle cx="12" cy="12" r="8"/><ellipse cx="12" cy="13" rx="2.5" ry="2"/><path d="M11 13h.01M13 13h.01M8 9l-2-2M16 9l2-2"/></svg>`},
		{Key: "chicken", Label: "鸡", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M12 3c1 0 2 .5 2 2l2-1-1 2c2 1 3 3 3 5a6 6 0 0 1-12 0c0-2 1-4 3-5L8 4l2 1c0-1.5 1-2 2-2Z"/><path d="M12 17v3M10 20h4"/></svg>`},
		{Key: "horse", Label: "马", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M5 20v-6l3-8 4-3 7 5-2 3-3-1-1 4v6"/><path d="M9 20h.01M5 12l-2 2"/></svg>`},
		{Key: "other", Label: "其他", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M8 6a4 4 0 0 1 8 0c0 2-1 3-1 5h-6c0-2-1-3-1-5Z"/><path d="M9 15h6M10 18h4M11 21h2"/></svg>`},
	}
	eventIconDefinitions = []farmIconAsset{
		{Key: "breeding", Label: "配种", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M12 21c-4-3.5-8-6.5-8-10.5C4 7 6 5 8.5 5c1.5 0 2.7.7 3.5 2 .8-1.3 2-2 3.5-2C18 5 20 7 20 10.5c0 4-4 7-8 10.5Z"/></svg>`},
		{Key: "weighing", Label: "称重", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M6 3h12l3 7H3l3-7ZM3 10v9a2 2 0 0 0 2 2h14a2 2 0 0 0 2-2v-9"/><path d="M12 13v4M9 15h6"/></svg>`},
		{Key: "shearing", Label: "剪毛", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><circle cx="6" cy="6" r="3"/><circle cx="6" cy="18" r="3"/><path d="M8.5 7.5 20 19M8.5 16.5 20 5"/></svg>`},
		{Key: "maintenance", Label: "维护", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M14.7 6.3a4 4 0 0 0-5.4 5.4L3 18v3h3l6.3-6.3a4 4 0 0 0 5.4-5.4L15 12l-3-3 2.7-2.7Z"/></svg>`},
		{Key: "harvest", Label: "收获", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M12 3v6M12 9c0-3 2-5 5-5 0 3-2 5-5 5ZM12 9c0-3-2-5-5-5 0 3 2 5 5 5Z"/><path d="M5 13h14l-1.5 8h-11L5 13Z"/></svg>`},
		{Key: "other", Label: "其他", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><circle cx="12" cy="12" r="9"/><path d="M12 8v4l3 3"/></svg>`},
	}
	defaultFarmIcon = farmIconAsset{Key: "default", Label: "默认", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M3 11l9-7 9 7v9a1 1 0 0 1-1 1h-5v-6h-6v6H4a1 1 0 0 1-1-1v-9Z"/></svg>`}

	speciesIconLookup = buildFarmIconLookup(speciesIconDefinitions)
	eventIconLookup   = buildFarmIconLookup(eventIconDefinitions)
)

func buildFarmIconLookup(definitions []farmIconAsset) map[string]farmIconAsset {
	lookup := make(map[string]farmIconAsset, len(definitions)+1)
	for _, icon := range definitions {
		lookup[icon.Key] = icon
	}
	lookup[defaultFarmIcon.Key] = defaultFarmIcon
	return lookup
}

// SpeciesIconOptions exposes the selectable species icon metadata for admin UI.
func SpeciesIconOptions() []FarmIconOption {
	options := make([]FarmIconOption, 0, len(speciesIconDefinitions))
	for _, icon := range speciesIconDefinitions {
		options = append(options, FarmIconOption{Key: icon.Key, Label: icon.Label})
	}
	return options
}

// SpeciesIconSVGMap returns a copy of the species key-to-SVG map including the fallback.
func SpeciesIconSVGMap() map[string]string {
	clones := make(map[string]string, len(speciesIconLookup))
	for key, icon := range speciesIconLookup {
		clones[key] = icon.SVG
	}
	return clones
}

// SpeciesIconSVG resolves the SVG string for a species, falling back to the default icon.
func SpeciesIconSVG(key string) string {
	trimmed := strings.ToLower(strings.TrimSpace(key))
	if trimmed == "" {
		return defaultFarmIcon.SVG
	}
	if icon, ok := speciesIconLookup[trimmed]; ok {
		return icon.SVG
	}
	return defaultFarmIcon.SVG
}

// EventIconSVGMap returns a copy of the event key-to-SVG map including the fallback.
func EventIconSVGMap() map[string]string {
	clones := make(map[string]string, len(eventIconLookup))
	for key, icon := range eventIconLookup {
		clones[key] = icon.SVG
	}
	return clones
}

// EventIconSVG resolves the SVG string for an event type, falling back to the default icon.
func EventIconSVG(key string) string {
	trimmed := strings.ToLower(strings.TrimSpace(key))
	if trimmed == "" {
		return defaultFarmIcon.SVG
	}
	if icon, ok := eventIconLookup[trimmed]; ok {
		return icon.SVG
	}
	return defaultFarmIcon.SVG
}

package badge

import (
	"fmt"

	"posterforge/models"
)

// Domain identifies one badge configuration domain. Each domain owns a main
// settings document, a source list and a source-tuning document.
type Domain string

const (
	DomainReview     Domain = "review"
	DomainResolution Domain = "resolution"
)

// ErrUnknownDomain is returned for domains outside the default catalog.
var ErrUnknownDomain = fmt.Errorf("unknown badge domain")

// ParseDomain validates a domain string from the API.
func ParseDomain(raw string) (Domain, error) {
	switch Domain(raw) {
	case DomainReview:
		return DomainReview, nil
	case DomainResolution:
		return DomainResolution, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDomain, raw)
}

// DefaultSources returns the catalog source list for a domain. Every call
// returns an independent copy; IDs are stable and never reassigned.
func DefaultSources(domain Domain) []models.Source {
	switch domain {
	case DomainResolution:
		return models.CloneSources(resolutionSources)
	default:
		return models.CloneSources(reviewSources)
	}
}

// DefaultDocument returns the catalog settings document for a domain as an
// independent copy that the caller may mutate freely.
func DefaultDocument(domain Domain) Document {
	var doc Document
	switch domain {
	case DomainResolution:
		doc = resolutionDocument()
	default:
		doc = reviewDocument()
	}
	doc[SectionSources] = defaultSourcesSection(domain)
	return doc
}

// defaultSourcesSection builds the flat Sources section (enable keys plus
// priorityOrder) from the catalog source list.
func defaultSourcesSection(domain Domain) Section {
	sources := DefaultSources(domain)
	return SyncToBag(sources, Section{})
}

var reviewSources = []models.Source{
	{ID: 1, Name: "IMDb", Enabled: true, Priority: 1, DisplayOrder: 1, MaxVariants: 1},
	{ID: 2, Name: "Rotten Tomatoes Critics", Enabled: true, Priority: 2, DisplayOrder: 2, MaxVariants: 1},
	{ID: 3, Name: "Rotten Tomatoes Audience", Enabled: false, Priority: 3, DisplayOrder: 3, MaxVariants: 1},
	{ID: 4, Name: "Metacritic", Enabled: true, Priority: 4, DisplayOrder: 4, MaxVariants: 1},
	{ID: 5, Name: "TMDb", Enabled: false, Priority: 5, DisplayOrder: 5, MaxVariants: 1},
	{ID: 6, Name: "Letterboxd", Enabled: false, Priority: 6, DisplayOrder: 6, MaxVariants: 1},
	{ID: 7, Name: "Trakt", Enabled: false, Priority: 7, DisplayOrder: 7, MaxVariants: 1},
	{ID: 8, Name: "MyAnimeList", Enabled: false, Priority: 8, DisplayOrder: 8, MaxVariants: 1, Conditions: map[string]any{"contentType": "anime"}},
	{ID: 9, Name: "AniDB", Enabled: false, Priority: 9, DisplayOrder: 9, MaxVariants: 1, Conditions: map[string]any{"contentType": "anime"}},
}

var resolutionSources = []models.Source{
	{ID: 1, Name: "4K HDR", Enabled: true, Priority: 1, DisplayOrder: 1, MaxVariants: 1},
	{ID: 2, Name: "4K DV", Enabled: true, Priority: 2, DisplayOrder: 2, MaxVariants: 1},
	{ID: 3, Name: "4K", Enabled: true, Priority: 3, DisplayOrder: 3, MaxVariants: 1},
	{ID: 4, Name: "1080p", Enabled: true, Priority: 4, DisplayOrder: 4, MaxVariants: 1},
	{ID: 5, Name: "720p", Enabled: false, Priority: 5, DisplayOrder: 5, MaxVariants: 1},
	{ID: 6, Name: "576p", Enabled: false, Priority: 6, DisplayOrder: 6, MaxVariants: 1},
	{ID: 7, Name: "480p", Enabled: false, Priority: 7, DisplayOrder: 7, MaxVariants: 1},
}

func reviewDocument() Document {
	return Document{
		SectionGeneral: {
			"badge_position":    "bottom-left",
			"badge_size":        100,
			"badge_orientation": "vertical",
			"edge_padding":      30,
			"badge_spacing":     15,
			"use_percentage":    false,
		},
		SectionText: {
			"font":          "AvenirNextLTProBold.ttf",
			"fallback_font": "DejaVuSans.ttf",
			"font_size":     60,
			"text-color":    "#FFFFFF",
		},
		SectionBackground: {
			"background-color":   "#2C2C2C",
			"background_opacity": 60,
		},
		SectionBorder: {
			"border-color":  "#000000",
			"border_width":  1,
			"border-radius": 10,
		},
		SectionShadow: {
			"shadow_enable":   false,
			"shadow_blur":     8,
			"shadow_offset_x": 2,
			"shadow_offset_y": 2,
		},
		SectionImageBadges: {
			"enable_images":    true,
			"image_padding":    20,
			"image_saturation": 100,
		},
		SectionImageMapping: {
			"imdb":       "rating/imdb.png",
			"tomatoes":   "rating/rt_fresh.png",
			"audience":   "rating/rt_popcorn.png",
			"metacritic": "rating/metacritic.png",
			"tmdb":       "rating/tmdb.png",
		},
	}
}

func resolutionDocument() Document {
	return Document{
		SectionGeneral: {
			"badge_position":    "top-right",
			"badge_size":        100,
			"badge_orientation": "vertical",
			"edge_padding":      30,
			"badge_spacing":     15,
			"use_percentage":    false,
		},
		SectionText: {
			"font":          "AvenirNextLTProBold.ttf",
			"fallback_font": "DejaVuSans.ttf",
			"font_size":     55,
			"text-color":    "#FFFFFF",
		},
		SectionBackground: {
			"background-color":   "#000000",
			"background_opacity": 40,
		},
		SectionBorder: {
			"border-color":  "#000000",
			"border_width":  1,
			"border-radius": 10,
		},
		SectionShadow: {
			"shadow_enable":   false,
			"shadow_blur":     8,
			"shadow_offset_x": 2,
			"shadow_offset_y": 2,
		},
		SectionImageBadges: {
			"enable_images":    true,
			"image_padding":    20,
			"image_saturation": 100,
		},
		SectionImageMapping: {
			"4k_hdr": "resolution/4k-hdr.png",
			"4k_dv":  "resolution/4k-dv.png",
			"4k":     "resolution/4k.png",
			"1080p":  "resolution/1080p.png",
			"720p":   "resolution/720p.png",
		},
	}
}

// Package sample bundles the placeholder content shown when no gateway is
// configured. It is read-only stand-in data; nothing here is ever persisted.
package sample

import (
	"time"

	"github.com/FullBlownAinz/dotcom/internal/content"
)

// Posts returns the placeholder feed.
func Posts() []content.Post {
	return []content.Post{
		{
			ID:              "sample-post-1",
			CreatedAt:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Title:           "SYSTEM ONLINE",
			HeaderMediaURL:  "https://placehold.co/600x600/E10600/FFFFFF?text=FBA:01",
			HeaderMediaKind: content.MediaImage,
			Body: content.StructuredText(
				content.Heading(2, "SYSTEM ONLINE"),
				content.Paragraph("Welcome to THE.SCRL. This is the primary feed. Connect a backend and log in to begin posting your own content."),
			),
			ExternalLinks: []content.ExternalLink{
				{Label: "View on X", URL: "https://x.com"},
			},
			OrderRank: 0,
		},
		{
			ID:              "sample-post-2",
			CreatedAt:       time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			Title:           "TILE INFORMATION",
			HeaderMediaURL:  "https://placehold.co/600x600/000000/FFFFFF?text=FBA:02",
			HeaderMediaKind: content.MediaImage,
			Body: content.StructuredText(
				content.Paragraph("Each tile opens to reveal more information. This one has a list."),
				content.Block{Kind: content.BlockList, Items: []string{"Item One", "Item Two", "Item Three"}},
			),
			OrderRank: 1,
		},
	}
}

// Merch returns the placeholder merch listing.
func Merch() []content.MerchItem {
	return []content.MerchItem{
		{
			ID:         "sample-merch-1",
			CreatedAt:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Name:       "FBA Standard Issue Tee",
			ImageURL:   "https://placehold.co/600x800/000000/E10600?text=FBA+TEE",
			ImageURLs:  []string{"https://placehold.co/600x800/000000/E10600?text=FBA+TEE"},
			PriceCents: 2999,
			Currency:   "USD",
			Description: content.NewDescription(
				content.PlainText("High quality cotton tee. Black with red logo. The official uniform."),
			),
			ExternalURL: "#",
			OrderRank:   0,
		},
	}
}

// Apps returns the placeholder app listing.
func Apps() []content.AppItem {
	return []content.AppItem{
		{
			ID:        "sample-app-1",
			CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Name:      "Project Chimera",
			IconURL:   "https://placehold.co/128x128/E10600/000000?text=PC",
			ShortDesc: "A sample application entry.",
			Body: content.StructuredText(
				content.Paragraph("This is a description of Project Chimera. It does many amazing things."),
			),
			Links: []content.ExternalLink{
				{Label: "Learn More", URL: "#"},
			},
			OrderRank: 0,
		},
	}
}

// Info returns the placeholder info document.
func Info() content.SiteInfo {
	return content.SiteInfo{
		Body: content.StructuredText(
			content.Heading(1, "THE.INFO"),
			content.Paragraph("This is the main information hub. In disconnected mode, this content is loaded from a local file. Once a backend is connected and an operator logs in, this content is managed from the database."),
		),
	}
}

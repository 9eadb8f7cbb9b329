package dashboard

func sizePtr(w, h int) *Size {
	return &Size{W: w, H: h}
}

var defaultWidgetMetadata = []WidgetMetadata{
	{
		Type:                "plex",
		Name:                "Plex",
		Description:         "Now playing and recently added items from a Plex server",
		Category:            "media",
		DefaultSize:         Size{W: 8, H: 4},
		MinSize:             sizePtr(4, 2),
		MaxSize:             sizePtr(24, 10),
		RequiresIntegration: "plex",
		Schema:              mediaServerSchema(),
	},
	{
		Type:                "jellyfin",
		Name:                "Jellyfin",
		Description:         "Active sessions and latest media from Jellyfin",
		Category:            "media",
		DefaultSize:         Size{W: 8, H: 4},
		MinSize:             sizePtr(4, 2),
		MaxSize:             sizePtr(24, 10),
		RequiresIntegration: "jellyfin",
		Schema:              mediaServerSchema(),
	},
	{
		Type:        "media-requests",
		Name:        "Media Requests",
		Description: "Pending requests from Overseerr or Jellyseerr",
		NameLocalized: map[string]string{
			"es": "Solicitudes de medios",
		},
		Category:             "media",
		DefaultSize:          Size{W: 8, H: 5},
		MinSize:              sizePtr(4, 3),
		MaxSize:              sizePtr(16, 12),
		RequiresIntegrations: []string{"overseerr", "jellyseerr"},
	},
	{
		Type:                 "release-calendar",
		Name:                 "Release Calendar",
		Description:          "Upcoming episodes and movies from Sonarr and Radarr",
		Category:             "media",
		DefaultSize:          Size{W: 12, H: 6},
		MinSize:              sizePtr(6, 4),
		RequiresIntegrations: []string{"sonarr", "radarr"},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":      map[string]any{"type": "string"},
				"showHeader": map[string]any{"type": "boolean"},
				"daysAhead":  map[string]any{"type": "integer", "minimum": 1, "maximum": 60, "default": 14},
				"view":       map[string]any{"type": "string", "enum": []string{"list", "agenda", "month"}},
			},
		},
	},
	{
		Type:                "qbittorrent",
		Name:                "qBittorrent",
		Description:         "Transfer speeds and active torrents",
		Category:            "downloads",
		DefaultSize:         Size{W: 6, H: 4},
		MinSize:             sizePtr(4, 2),
		MaxSize:             sizePtr(12, 8),
		RequiresIntegration: "qbittorrent",
		Schema:              downloadClientSchema(),
	},
	{
		Type:                "transmission",
		Name:                "Transmission",
		Description:         "Transfer speeds and active torrents",
		Category:            "downloads",
		DefaultSize:         Size{W: 6, H: 4},
		MinSize:             sizePtr(4, 2),
		MaxSize:             sizePtr(12, 8),
		RequiresIntegration: "transmission",
		Schema:              downloadClientSchema(),
	},
	{
		Type:                "sabnzbd",
		Name:                "SABnzbd",
		Description:         "Usenet queue and history",
		Category:            "downloads",
		DefaultSize:         Size{W: 6, H: 4},
		MinSize:             sizePtr(4, 2),
		MaxSize:             sizePtr(12, 8),
		RequiresIntegration: "sabnzbd",
		Schema:              downloadClientSchema(),
	},
	{
		Type:        "system-monitor",
		Name:        "System Monitor",
		Description: "CPU, memory, temperature and uptime of the host",
		NameLocalized: map[string]string{
			"es": "Monitor del sistema",
		},
		Category:    "system",
		DefaultSize: Size{W: 6, H: 3},
		MinSize:     sizePtr(3, 2),
		MaxSize:     sizePtr(12, 6),
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":      map[string]any{"type": "string"},
				"showHeader": map[string]any{"type": "boolean"},
				"metrics": map[string]any{
					"type":        "array",
					"uniqueItems": true,
					"items": map[string]any{
						"type": "string",
						"enum": []string{"cpu", "memory", "temperature", "uptime", "load"},
					},
				},
			},
		},
	},
	{
		Type:        "disk-usage",
		Name:        "Disk Usage",
		Description: "Capacity of mounted volumes",
		Category:    "system",
		DefaultSize: Size{W: 6, H: 3},
		MinSize:     sizePtr(3, 2),
		MaxSize:     sizePtr(12, 8),
	},
	{
		Type:                "pihole",
		Name:                "Pi-hole",
		Description:         "DNS queries and blocked percentage",
		Category:            "system",
		DefaultSize:         Size{W: 6, H: 3},
		MinSize:             sizePtr(4, 2),
		MaxSize:             sizePtr(12, 6),
		RequiresIntegration: "pihole",
	},
	{
		Type:        "weather",
		Name:        "Weather",
		Description: "Current conditions and forecast",
		NameLocalized: map[string]string{
			"es": "Clima",
		},
		Category:    "misc",
		DefaultSize: Size{W: 4, H: 3},
		MinSize:     sizePtr(3, 2),
		MaxSize:     sizePtr(12, 6),
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":      map[string]any{"type": "string"},
				"showHeader": map[string]any{"type": "boolean"},
				"location":   map[string]any{"type": "string"},
				"units":      map[string]any{"type": "string", "enum": []string{"metric", "imperial"}},
			},
		},
	},
	{
		Type:        "clock",
		Name:        "Clock",
		Description: "Date and time",
		NameLocalized: map[string]string{
			"es": "Reloj",
		},
		Category:    "misc",
		DefaultSize: Size{W: 4, H: 2},
		MinSize:     sizePtr(2, 1),
		MaxSize:     sizePtr(8, 4),
	},
	{
		Type:        "link-grid",
		Name:        "Link Grid",
		Description: "Shortcuts to self-hosted services",
		Category:    "misc",
		DefaultSize: Size{W: 8, H: 3},
		MinSize:     sizePtr(2, 1),
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":      map[string]any{"type": "string"},
				"showHeader": map[string]any{"type": "boolean"},
				"alignment":  map[string]any{"type": "string", "enum": []string{"left", "center", "right"}},
				"links": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []string{"url"},
						"properties": map[string]any{
							"label": map[string]any{"type": "string"},
							"url":   map[string]any{"type": "string", "minLength": 1},
							"icon":  map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	},
	{
		Type:        "iframe",
		Name:        "Embedded Page",
		Description: "Embeds an external service in an iframe",
		Category:    "misc",
		DefaultSize: Size{W: 12, H: 8},
		MinSize:     sizePtr(4, 3),
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"url"},
			"properties": map[string]any{
				"title":      map[string]any{"type": "string"},
				"showHeader": map[string]any{"type": "boolean"},
				"url":        map[string]any{"type": "string", "minLength": 1},
			},
		},
	},
}

func mediaServerSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":          map[string]any{"type": "string"},
			"showHeader":     map[string]any{"type": "boolean"},
			"showNowPlaying": map[string]any{"type": "boolean"},
			"recentLimit":    map[string]any{"type": "integer", "minimum": 0, "maximum": 50},
		},
	}
}

func downloadClientSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string"},
			"showHeader":   map[string]any{"type": "boolean"},
			"showSpeeds":   map[string]any{"type": "boolean"},
			"maxItems":     map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
			"hideComplete": map[string]any{"type": "boolean"},
		},
	}
}

// DefaultWidgetMetadata returns a copy of the built-in widget catalog.
func DefaultWidgetMetadata() []WidgetMetadata {
	out := make([]WidgetMetadata, len(defaultWidgetMetadata))
	copy(out, defaultWidgetMetadata)
	return out
}

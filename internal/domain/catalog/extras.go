package catalog

import (
	"context"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"go.uber.org/zap"
)

const (
	extrasKey       = "android_apks"
	extrasExt       = ".apk"
	defaultCategory = "Utility"
)

// Checked in order; the first keyword found in the name decides.
var extraCategories = []struct {
	name     string
	keywords []string
}{
	{"Utility", []string{"util", "tool", "manager", "cleaner", "optimizer", "battery", "file", "system"}},
	{"Emulator", []string{"emulator", "emu", "retro", "arcade", "console", "nintendo", "sega", "playstation"}},
	{"Launcher", []string{"launcher", "home", "desktop", "theme", "icon"}},
	{"Browser", []string{"browser", "web", "chrome", "firefox", "opera", "internet"}},
	{"Productivity", []string{"office", "document", "pdf", "note", "calendar", "task", "todo", "editor"}},
	{"Communications", []string{"chat", "message", "mail", "email", "social", "whatsapp", "telegram", "discord"}},
	{"Coding", []string{"code", "editor", "ide", "git", "terminal", "ssh", "ftp", "developer"}},
	{"Game", []string{"game", "play", "puzzle", "action", "adventure", "strategy", "rpg", "racing"}},
}

// Extras lists the binary packages published on the extras root
func (c *Client) Extras(ctx context.Context) ([]types.Extra, error) {
	body, err := c.fetch(ctx, extrasKey, c.cfg.ExtrasURL)
	if err != nil {
		return nil, err
	}

	files := parseListing(body, extrasExt)
	sizes := parseSizes(body, extrasExt)
	extras := make([]types.Extra, 0, len(files))
	for _, file := range files {
		link, err := url.JoinPath(c.cfg.ExtrasURL, file)
		if err != nil {
			c.log.Warn("Skipping extra with bad link", zap.String("file", file), zap.Error(err))
			continue
		}

		name := strings.TrimSuffix(file, extrasExt)
		extras = append(extras, types.Extra{
			File:     file,
			Name:     name,
			Category: Categorize(name),
			URL:      link,
			Size:     sizes[file],
		})
	}
	return extras, nil
}

// Categorize guesses a display category from a package name
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, category := range extraCategories {
		for _, keyword := range category.keywords {
			if strings.Contains(lower, keyword) {
				return category.name
			}
		}
	}
	return defaultCategory
}

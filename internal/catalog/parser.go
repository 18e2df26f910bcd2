package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes one collection document from r. Sites that fail validation
// or repeat an earlier ID are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) (*Collection, error) {
	var c Collection
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	if c.Name == "" {
		return nil, fmt.Errorf("collection has no name")
	}

	seen := make(map[string]bool, len(c.Sites))
	sites := c.Sites[:0]
	for i, s := range c.Sites {
		s.ID = strings.ToLower(strings.TrimSpace(s.ID))
		s.Description = strings.TrimSpace(s.Description)
		if err := validate.Struct(s); err != nil {
			logger.Warn("skipping invalid site", "collection", c.Name, "index", i, "id", s.ID, "error", err)
			continue
		}
		if seen[s.ID] {
			logger.Warn("skipping duplicate site", "collection", c.Name, "id", s.ID)
			continue
		}
		seen[s.ID] = true
		s.Selected = false
		sites = append(sites, s)
	}
	c.Sites = sites
	return &c, nil
}

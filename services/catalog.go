package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"github.com/studyhub/missions/models"
	"github.com/studyhub/missions/utils"
)

const (
	maxTemplateText = 255
	maxTemplateType = 32

	// maxSlugBase leaves room for the digest suffix inside the 191 character slug column.
	maxSlugBase   = 160
	slugDigestLen = 12
)

// TemplateInput is the shape of a catalog entry in seed files and admin requests.
type TemplateInput struct {
	Text        string            `json:"text" binding:"required"`
	Type        string            `json:"type" binding:"required"`
	Difficulty  models.Difficulty `json:"difficulty" binding:"required"`
	TargetValue int               `json:"target_value"`
}

// NewTemplate validates and normalizes in into a catalog row.
func NewTemplate(in TemplateInput) (models.MissionTemplate, error) {
	text := utils.SanitizeText(in.Text)
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	difficulty := models.Difficulty(strings.ToUpper(strings.TrimSpace(string(in.Difficulty))))

	switch {
	case text == "" || utf8.RuneCountInString(text) > maxTemplateText:
		return models.MissionTemplate{}, fmt.Errorf("%w: text must be 1-%d characters", ErrInvalidTemplate, maxTemplateText)
	case typ == "" || utf8.RuneCountInString(typ) > maxTemplateType:
		return models.MissionTemplate{}, fmt.Errorf("%w: type must be 1-%d characters", ErrInvalidTemplate, maxTemplateType)
	case !difficulty.Valid():
		return models.MissionTemplate{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidTemplate, in.Difficulty)
	case in.TargetValue < 0:
		return models.MissionTemplate{}, fmt.Errorf("%w: target_value must not be negative", ErrInvalidTemplate)
	}

	return models.MissionTemplate{
		Slug:        templateSlug(difficulty, typ, text, in.TargetValue),
		Text:        text,
		Type:        typ,
		Difficulty:  difficulty,
		TargetValue: in.TargetValue,
	}, nil
}

// templateSlug builds the catalog key: a readable prefix capped at
// maxSlugBase plus a digest of the exact difficulty, type, text and target,
// so templates that differ only in punctuation or case stay distinct.
func templateSlug(difficulty models.Difficulty, typ, text string, target int) string {
	base := slug.Make(string(difficulty) + " " + text)
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	sum := sha256.Sum256([]byte(string(difficulty) + "\x00" + typ + "\x00" + text + "\x00" + strconv.Itoa(target)))
	return base + "-" + hex.EncodeToString(sum[:])[:slugDigestLen]
}

// SeedCatalog loads templates from a JSON file and inserts the ones not
// present yet. Exact repeats inside the file collapse into one row. A missing
// file is not an error.
func SeedCatalog(ctx context.Context, w CatalogWriter, path string) (int64, error) {
	if path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read catalog seed %s: %w", path, err)
	}

	var inputs []TemplateInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return 0, fmt.Errorf("parse catalog seed %s: %w", path, err)
	}

	templates := make([]models.MissionTemplate, 0, len(inputs))
	seen := map[string]bool{}
	for i, in := range inputs {
		t, err := NewTemplate(in)
		if err != nil {
			return 0, fmt.Errorf("catalog seed entry %d: %w", i, err)
		}
		if seen[t.Slug] {
			continue
		}
		seen[t.Slug] = true
		templates = append(templates, t)
	}
	return w.AddTemplates(ctx, templates)
}

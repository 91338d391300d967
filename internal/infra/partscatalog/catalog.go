package partscatalog

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// IssueFolders maps the special issues to their image folders.
var IssueFolders = map[string]string{
	"Lights Not Working Inside":      "Lights Not Working Images",
	"Water Leakage Inside / Outside": "Water Leakage",
	"Door Not Sealing Properly":      "Door Not Sealing Properly",
}

var (
	filenamePattern = regexp.MustCompile(`^(.+?)\s*-\s*Price\s*\$\s*([\d.]+)$`)
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

	errImageNotFound = apperrors.Wrap(apperrors.CodeNotFound, "part image not found", nil)
)

// Catalog reads part images from a directory tree, one folder per issue.
type Catalog struct {
	dir    string
	logger *slog.Logger
}

// New constructs a catalog rooted at dir.
func New(dir string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{dir: dir, logger: logger.With("component", "partscatalog.catalog")}
}

// IsSpecialIssue reports whether issue resolves to a catalog folder, using
// the same matching as FolderFor.
func (c *Catalog) IsSpecialIssue(issue string) bool {
	_, ok := FolderFor(issue)
	return ok
}

// PartsForIssue lists the parts pictured in the issue's folder, sorted by
// filename. Unknown issues and missing folders yield no parts.
func (c *Catalog) PartsForIssue(issue string) ([]appliance.CatalogPart, error) {
	folder, ok := FolderFor(issue)
	if !ok {
		return nil, nil
	}
	resolved, ok, err := c.resolveFolder(folder)
	if err != nil || !ok {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(c.dir, resolved))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "read parts folder", err)
	}
	var parts []appliance.CatalogPart
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		part, ok := ParseFilename(entry.Name())
		if !ok {
			c.logger.Debug("skipping catalog file", "folder", resolved, "file", entry.Name())
			continue
		}
		part.ImagePath = path.Join(resolved, entry.Name())
		parts = append(parts, part)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Filename < parts[j].Filename })
	return parts, nil
}

// ImageFile returns the absolute path of a catalog image given its
// ImagePath. Paths escaping the catalog root are rejected.
func (c *Catalog) ImageFile(rel string) (string, error) {
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == "" || !imageExtensions[strings.ToLower(path.Ext(rel))] {
		return "", errImageNotFound
	}
	full := filepath.Join(c.dir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", errImageNotFound
	}
	return full, nil
}

// FolderFor maps an issue to its image folder: exact key, then
// case-insensitive key, then either string containing the other.
func FolderFor(issue string) (string, bool) {
	if key, ok := exactKey(issue); ok {
		return IssueFolders[key], true
	}
	lower := strings.ToLower(strings.TrimSpace(issue))
	if lower == "" {
		return "", false
	}
	for _, key := range sortedKeys() {
		k := strings.ToLower(key)
		if strings.Contains(lower, k) || strings.Contains(k, lower) {
			return IssueFolders[key], true
		}
	}
	return "", false
}

// ParseFilename reads "<name> - Price $<amount>.<ext>" image filenames.
func ParseFilename(filename string) (appliance.CatalogPart, bool) {
	ext := filepath.Ext(filename)
	if !imageExtensions[strings.ToLower(ext)] {
		return appliance.CatalogPart{}, false
	}
	m := filenamePattern.FindStringSubmatch(strings.TrimSuffix(filename, ext))
	if m == nil {
		return appliance.CatalogPart{}, false
	}
	price, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return appliance.CatalogPart{}, false
	}
	return appliance.CatalogPart{
		Name:     strings.TrimSpace(m[1]),
		Price:    price,
		Filename: filename,
	}, true
}

func exactKey(issue string) (string, bool) {
	if _, ok := IssueFolders[issue]; ok {
		return issue, true
	}
	for _, key := range sortedKeys() {
		if strings.EqualFold(key, strings.TrimSpace(issue)) {
			return key, true
		}
	}
	return "", false
}

func sortedKeys() []string {
	keys := make([]string, 0, len(IssueFolders))
	for k := range IssueFolders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveFolder finds folder under the catalog root, falling back to a
// case-insensitive directory match.
func (c *Catalog) resolveFolder(folder string) (string, bool, error) {
	info, err := os.Stat(filepath.Join(c.dir, folder))
	if err == nil && info.IsDir() {
		return folder, true, nil
	}
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.CodeStorage, "read parts catalog", err)
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.EqualFold(entry.Name(), folder) {
			return entry.Name(), true, nil
		}
	}
	return "", false, nil
}

var _ appliance.PartsCatalog = (*Catalog)(nil)

package registration

import (
	"path/filepath"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULTS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultFaculties - факультеты в порядке отображения на клавиатуре.
var DefaultFaculties = []string{
	"РФиКТ",
	"ФМО",
	"ЭКОНОМфак",
	"ЮрФак",
	"ФПМИ",
	"МехМат",
	"ИстФак",
	"Мгэи",
	"ХимФак",
	"БиоФак",
	"ФСК",
	"ЖурФак",
	"ГеоФак",
	"ФилФак",
	"Институт Бизнеса",
	"ТеоФак",
	"ВоенФак",
	"ФФСН",
}

// DefaultExtensions - допустимые форматы мотивационного письма.
var DefaultExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".rtf"}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog is the immutable set of choices a registrant can make: the ordered
// faculty list and the allowed document extensions. It is built once at
// startup and shared read-only by every session.
type Catalog struct {
	faculties  []string
	extensions []string
	allowed    map[string]struct{}
}

// NewCatalog validates and copies the given lists. Extensions are stored
// lower-cased and must include the leading dot.
func NewCatalog(faculties, extensions []string) (*Catalog, error) {
	if len(faculties) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]struct{}, len(faculties))
	fs := make([]string, 0, len(faculties))
	for _, f := range faculties {
		f = strings.TrimSpace(f)
		if f == "" || strings.ContainsAny(f, `/\`) || f == "." || f == ".." {
			return nil, ErrUnknownFaculty
		}
		if _, dup := seen[f]; dup {
			return nil, ErrDuplicateFaculty
		}
		seen[f] = struct{}{}
		fs = append(fs, f)
	}

	allowed := make(map[string]struct{}, len(extensions))
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if len(e) < 2 || e[0] != '.' {
			return nil, ErrInvalidExtension
		}
		if _, dup := allowed[e]; dup {
			continue
		}
		allowed[e] = struct{}{}
		exts = append(exts, e)
	}

	return &Catalog{faculties: fs, extensions: exts, allowed: allowed}, nil
}

// MustDefaultCatalog returns the catalog built from DefaultFaculties and
// DefaultExtensions.
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultFaculties, DefaultExtensions)
	if err != nil {
		panic(err)
	}
	return c
}

// Faculties returns a copy of the ordered faculty list.
func (c *Catalog) Faculties() []string {
	out := make([]string, len(c.faculties))
	copy(out, c.faculties)
	return out
}

// FacultyCount returns the number of faculties.
func (c *Catalog) FacultyCount() int {
	return len(c.faculties)
}

// FacultyAt resolves a list position to the canonical faculty name.
func (c *Catalog) FacultyAt(index int) (string, error) {
	if index < 0 || index >= len(c.faculties) {
		return "", ErrUnknownFaculty
	}
	return c.faculties[index], nil
}

// HasFaculty reports whether name is one of the configured faculties.
func (c *Catalog) HasFaculty(name string) bool {
	for _, f := range c.faculties {
		if f == name {
			return true
		}
	}
	return false
}

// Extensions returns the allowed extensions in configuration order.
func (c *Catalog) Extensions() []string {
	out := make([]string, len(c.extensions))
	copy(out, c.extensions)
	return out
}

// ExtensionOf returns the lower-cased extension of a file name, including
// the dot. A name without extension yields "".
func ExtensionOf(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}

// CheckExtension validates the extension of fileName and returns it lower-cased.
func (c *Catalog) CheckExtension(fileName string) (string, error) {
	ext := ExtensionOf(fileName)
	if _, ok := c.allowed[ext]; !ok {
		return ext, ErrExtensionRejected
	}
	return ext, nil
}

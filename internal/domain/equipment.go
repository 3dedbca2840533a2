package domain

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Equipment Category
// =============================================================================

// EquipmentCategory is the fixed set of equipment kinds. Each has exactly one
// checklist template.
type EquipmentCategory string

const (
	CategoryStacker        EquipmentCategory = "stacker"
	CategoryPalletTruck    EquipmentCategory = "pallet-truck"
	CategoryElectricLift   EquipmentCategory = "electric-lift"
	CategoryCombustionLift EquipmentCategory = "combustion-lift"
)

// Categories lists every category in catalog order.
var Categories = []EquipmentCategory{
	CategoryStacker,
	CategoryPalletTruck,
	CategoryElectricLift,
	CategoryCombustionLift,
}

// IsValid returns true if the category is a recognized value.
func (c EquipmentCategory) IsValid() bool {
	switch c {
	case CategoryStacker, CategoryPalletTruck, CategoryElectricLift, CategoryCombustionLift:
		return true
	}
	return false
}

// Label returns the category name printed on checklists.
func (c EquipmentCategory) Label() string {
	switch c {
	case CategoryStacker:
		return "apilador"
	case CategoryPalletTruck:
		return "transpaleta"
	case CategoryElectricLift:
		return "montacargas eléctrico"
	case CategoryCombustionLift:
		return "montacargas combustión"
	}
	return string(c)
}

// =============================================================================
// Catalog Types
// =============================================================================

// EquipmentDescriptor identifies one physical unit.
type EquipmentDescriptor struct {
	Category EquipmentCategory `yaml:"category"`
	Code     string            `yaml:"code"`
	Name     string            `yaml:"name"`
}

// ChecklistSection is an ordered group of checklist item names.
type ChecklistSection struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

// ChecklistTemplate is the ordered checklist for one category.
type ChecklistTemplate struct {
	Category EquipmentCategory  `yaml:"category"`
	Sections []ChecklistSection `yaml:"sections"`
}

// ItemCount returns the number of checklist lines in the template.
func (t ChecklistTemplate) ItemCount() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Items)
	}
	return n
}

// Catalog is the immutable fleet and template registry loaded at startup.
type Catalog struct {
	equipment []EquipmentDescriptor
	byCode    map[string]EquipmentDescriptor
	templates map[EquipmentCategory]ChecklistTemplate
}

type catalogDocument struct {
	Equipment []EquipmentDescriptor `yaml:"equipment"`
	Templates []ChecklistTemplate   `yaml:"templates"`
}

//go:embed catalog.yaml
var defaultCatalog string

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(strings.NewReader(defaultCatalog))
}

// LoadCatalogFile reads a catalog from a YAML file on disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes and validates a YAML catalog document.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	const op = "catalog.load"

	var doc catalogDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, Wrap(err, EINVALID, op, "catalog is not valid YAML")
	}

	c := &Catalog{
		byCode:    make(map[string]EquipmentDescriptor, len(doc.Equipment)),
		templates: make(map[EquipmentCategory]ChecklistTemplate, len(doc.Templates)),
	}

	for _, t := range doc.Templates {
		if !t.Category.IsValid() {
			return nil, Errorf(EINVALID, op, "template for unknown category %q", t.Category)
		}
		if _, dup := c.templates[t.Category]; dup {
			return nil, Errorf(EINVALID, op, "category %q has more than one template", t.Category)
		}
		if len(t.Sections) == 0 {
			return nil, Errorf(EINVALID, op, "template %q has no sections", t.Category)
		}
		for _, s := range t.Sections {
			if strings.TrimSpace(s.Name) == "" || len(s.Items) == 0 {
				return nil, Errorf(EINVALID, op, "template %q has an empty section", t.Category)
			}
			seen := make(map[string]bool, len(s.Items))
			for _, item := range s.Items {
				if strings.TrimSpace(item) == "" {
					return nil, Errorf(EINVALID, op, "template %q section %q has a blank item", t.Category, s.Name)
				}
				if seen[item] {
					return nil, Errorf(EINVALID, op, "template %q section %q lists %q twice", t.Category, s.Name, item)
				}
				seen[item] = true
			}
		}
		c.templates[t.Category] = t
	}

	for _, cat := range Categories {
		if _, ok := c.templates[cat]; !ok {
			return nil, Errorf(EINVALID, op, "category %q has no template", cat)
		}
	}

	for _, e := range doc.Equipment {
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" {
			return nil, Invalid(op, "equipment code is required")
		}
		if !e.Category.IsValid() {
			return nil, Errorf(EINVALID, op, "equipment %s has unknown category %q", e.Code, e.Category)
		}
		if _, dup := c.byCode[e.Code]; dup {
			return nil, Errorf(EINVALID, op, "equipment code %s is declared twice", e.Code)
		}
		if e.Name == "" {
			e.Name = e.Code
		}
		c.byCode[e.Code] = e
		c.equipment = append(c.equipment, e)
	}

	return c, nil
}

// Equipment returns the fleet in catalog order.
func (c *Catalog) Equipment() []EquipmentDescriptor {
	out := make([]EquipmentDescriptor, len(c.equipment))
	copy(out, c.equipment)
	return out
}

// Lookup finds a unit by code.
func (c *Catalog) Lookup(code string) (EquipmentDescriptor, bool) {
	e, ok := c.byCode[code]
	return e, ok
}

// Template returns the checklist for a category.
func (c *Catalog) Template(category EquipmentCategory) (ChecklistTemplate, bool) {
	t, ok := c.templates[category]
	return t, ok
}

// Size returns the number of units in the fleet.
func (c *Catalog) Size() int {
	return len(c.equipment)
}

// Contains reports whether code names a unit in the fleet.
func (c *Catalog) Contains(code string) bool {
	_, ok := c.byCode[code]
	return ok
}

package core

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleKind tags the variant of a FieldRule.
type RuleKind string

const (
	RuleFreeText RuleKind = "text"
	RuleNumeric  RuleKind = "numeric"
	RuleDate     RuleKind = "date"
	RuleEnum     RuleKind = "enum"
	RulePattern  RuleKind = "pattern"
)

// DateLayout names the date convention a field or schema expects.
type DateLayout string

const (
	DateISO      DateLayout = "ISO"
	DateDDMMYYYY DateLayout = "DD-MM-YYYY"
)

// goLayout returns the time layout used when rendering dates in this convention.
func (l DateLayout) goLayout() string {
	if l == DateISO {
		return "2006-01-02"
	}
	return "02-01-2006"
}

// FieldRule is one check applied to a non-empty cell. Only the members that
// belong to Kind are meaningful.
type FieldRule struct {
	Kind            RuleKind
	Layout          DateLayout     // RuleDate
	Values          []string       // RuleEnum
	CaseInsensitive bool           // RuleEnum
	Pattern         *regexp.Regexp // RulePattern
	Hint            string         // RulePattern: human description of the expected shape
}

// Numeric returns a rule accepting finite decimal numbers.
func Numeric() FieldRule { return FieldRule{Kind: RuleNumeric} }

// Date returns a rule accepting dates in the given convention.
func Date(layout DateLayout) FieldRule { return FieldRule{Kind: RuleDate, Layout: layout} }

// Enum returns a rule accepting only the listed values.
func Enum(caseInsensitive bool, values ...string) FieldRule {
	return FieldRule{Kind: RuleEnum, Values: values, CaseInsensitive: caseInsensitive}
}

// Pattern returns a rule accepting values that match expr.
func Pattern(expr, hint string) (FieldRule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return FieldRule{}, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return FieldRule{Kind: RulePattern, Pattern: re, Hint: hint}, nil
}

// FreeText returns a rule that accepts anything.
func FreeText() FieldRule { return FieldRule{Kind: RuleFreeText} }

// RuleDefinition is the declarative form of a FieldRule, as stored in schema files.
type RuleDefinition struct {
	Type            string   `yaml:"type"`
	Layout          string   `yaml:"layout,omitempty"`
	Values          []string `yaml:"values,omitempty"`
	CaseInsensitive bool     `yaml:"case_insensitive,omitempty"`
	Regex           string   `yaml:"regex,omitempty"`
	Hint            string   `yaml:"hint,omitempty"`
}

// FieldDefinition is the declarative form of one canonical field.
type FieldDefinition struct {
	Name     string           `yaml:"name"`
	Label    string           `yaml:"label,omitempty"`
	Required bool             `yaml:"required,omitempty"`
	Sample   string           `yaml:"sample,omitempty"`
	Rules    []RuleDefinition `yaml:"rules,omitempty"`
}

// SchemaDefinition is the declarative form of a Schema.
type SchemaDefinition struct {
	Type              string            `yaml:"type"`
	Label             string            `yaml:"label"`
	Group             string            `yaml:"group"`
	AllowExtraColumns bool              `yaml:"allow_extra_columns,omitempty"`
	DateLayout        string            `yaml:"date_layout,omitempty"`
	Fields            []FieldDefinition `yaml:"fields"`
}

// Schema is the immutable rule set for one document type. Build it with
// NewSchema; its accessors return copies.
type Schema struct {
	typ        string
	label      string
	group      string
	fields     []string
	labels     []string
	samples    []string
	required   map[string]bool
	rules      map[string][]FieldRule
	aliases    map[string]string
	allowExtra bool
	dateLayout DateLayout
}

// NewSchema validates a definition and builds the Schema it describes.
func NewSchema(def SchemaDefinition) (*Schema, error) {
	typ := strings.ToLower(strings.TrimSpace(def.Type))
	if typ == "" {
		return nil, fmt.Errorf("schema type is required")
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields defined", typ)
	}

	s := &Schema{
		typ:        typ,
		label:      def.Label,
		group:      def.Group,
		required:   make(map[string]bool),
		rules:      make(map[string][]FieldRule),
		aliases:    make(map[string]string),
		allowExtra: def.AllowExtraColumns,
		dateLayout: DateDDMMYYYY,
	}
	if s.label == "" {
		s.label = typ
	}
	if def.DateLayout != "" {
		layout, err := parseDateLayout(def.DateLayout)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", typ, err)
		}
		s.dateLayout = layout
	}

	for _, fd := range def.Fields {
		name := normalizeHeader(fd.Name)
		if name == "" {
			return nil, fmt.Errorf("schema %s: field with empty name", typ)
		}
		if _, dup := s.rules[name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", typ, name)
		}

		rules := make([]FieldRule, 0, len(fd.Rules))
		for _, rd := range fd.Rules {
			rule, err := buildRule(rd)
			if err != nil {
				return nil, fmt.Errorf("schema %s field %s: %w", typ, name, err)
			}
			rules = append(rules, rule)
		}

		s.fields = append(s.fields, name)
		s.labels = append(s.labels, strings.TrimSpace(fd.Label))
		s.samples = append(s.samples, fd.Sample)
		s.rules[name] = rules
		if fd.Required {
			s.required[name] = true
		}
	}

	// Aliases are resolved after all canonical names are known so a label can
	// never shadow a different field's canonical key.
	for i, name := range s.fields {
		label := s.labels[i]
		if label == "" {
			continue
		}
		key := normalizeHeader(label)
		if other, ok := s.aliases[key]; ok {
			return nil, fmt.Errorf("schema %s: label %q used by both %s and %s", typ, label, other, name)
		}
		if _, isField := s.rules[key]; isField && key != name {
			return nil, fmt.Errorf("schema %s: label %q of %s collides with field %s", typ, label, name, key)
		}
		s.aliases[key] = name
	}

	return s, nil
}

// MustSchema is NewSchema that panics on error. For package-level definitions.
func MustSchema(def SchemaDefinition) *Schema {
	s, err := NewSchema(def)
	if err != nil {
		panic(err)
	}
	return s
}

func parseDateLayout(s string) (DateLayout, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ISO", "YYYY-MM-DD":
		return DateISO, nil
	case "DD-MM-YYYY":
		return DateDDMMYYYY, nil
	}
	return "", fmt.Errorf("unknown date layout %q", s)
}

func buildRule(rd RuleDefinition) (FieldRule, error) {
	switch RuleKind(strings.ToLower(rd.Type)) {
	case RuleNumeric:
		return Numeric(), nil
	case RuleFreeText, "":
		return FreeText(), nil
	case RuleDate:
		layout := DateDDMMYYYY
		if rd.Layout != "" {
			l, err := parseDateLayout(rd.Layout)
			if err != nil {
				return FieldRule{}, err
			}
			layout = l
		}
		return Date(layout), nil
	case RuleEnum:
		if len(rd.Values) == 0 {
			return FieldRule{}, fmt.Errorf("enum rule without values")
		}
		return Enum(rd.CaseInsensitive, rd.Values...), nil
	case RulePattern:
		if rd.Regex == "" {
			return FieldRule{}, fmt.Errorf("pattern rule without regex")
		}
		return Pattern(rd.Regex, rd.Hint)
	}
	return FieldRule{}, fmt.Errorf("unknown rule type %q", rd.Type)
}

// Type returns the document type key, e.g. "mtm".
func (s *Schema) Type() string { return s.typ }

// Label returns the human-facing name of the document type.
func (s *Schema) Label() string { return s.label }

// Group returns the document family, e.g. "Exposures".
func (s *Schema) Group() string { return s.group }

// Fields returns the canonical fields in expected column order.
func (s *Schema) Fields() []string { return append([]string(nil), s.fields...) }

// RequiredFields returns the required fields in canonical order.
func (s *Schema) RequiredFields() []string {
	var out []string
	for _, f := range s.fields {
		if s.required[f] {
			out = append(out, f)
		}
	}
	return out
}

// IsRequired reports whether field must be present and non-blank.
func (s *Schema) IsRequired(field string) bool { return s.required[normalizeHeader(field)] }

// HasField reports whether field is one of the canonical fields.
func (s *Schema) HasField(field string) bool {
	_, ok := s.rules[normalizeHeader(field)]
	return ok
}

// Rules returns the rules attached to field.
func (s *Schema) Rules(field string) []FieldRule {
	return append([]FieldRule(nil), s.rules[normalizeHeader(field)]...)
}

// AllowsExtraColumns reports whether headers outside the canonical set are tolerated.
func (s *Schema) AllowsExtraColumns() bool { return s.allowExtra }

// DateLayout returns the convention used when coercing spreadsheet dates.
func (s *Schema) DateLayout() DateLayout { return s.dateLayout }

// DisplayLabel returns the template label for field, or the field name itself.
func (s *Schema) DisplayLabel(field string) string {
	field = normalizeHeader(field)
	for i, f := range s.fields {
		if f == field && s.labels[i] != "" {
			return s.labels[i]
		}
	}
	return field
}

// DisplayHeader returns the human-facing header row used in downloadable templates.
func (s *Schema) DisplayHeader() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f
		if s.labels[i] != "" {
			out[i] = s.labels[i]
		}
	}
	return out
}

// SampleRow returns the example values used in downloadable templates.
func (s *Schema) SampleRow() []string { return append([]string(nil), s.samples...) }

// Canonical resolves a display label to its canonical field, case-insensitively.
func (s *Schema) Canonical(label string) (string, bool) {
	f, ok := s.aliases[normalizeHeader(label)]
	return f, ok
}

// normalizeHeader lower-cases and trims a header cell for comparison.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

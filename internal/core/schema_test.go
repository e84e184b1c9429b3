package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewSchema_Errors(t *testing.T) {
	tests := []struct {
		name    string
		def     SchemaDefinition
		wantErr string
	}{
		{
			name:    "missing type",
			def:     SchemaDefinition{Fields: []FieldDefinition{{Name: "a"}}},
			wantErr: "schema type is required",
		},
		{
			name:    "no fields",
			def:     SchemaDefinition{Type: "x"},
			wantErr: "no fields defined",
		},
		{
			name:    "duplicate field",
			def:     SchemaDefinition{Type: "x", Fields: []FieldDefinition{{Name: "a"}, {Name: "A"}}},
			wantErr: `duplicate field "a"`,
		},
		{
			name: "label shared by two fields",
			def: SchemaDefinition{Type: "x", Fields: []FieldDefinition{
				{Name: "a", Label: "Amount"}, {Name: "b", Label: "amount"},
			}},
			wantErr: "used by both",
		},
		{
			name: "label shadows another field",
			def: SchemaDefinition{Type: "x", Fields: []FieldDefinition{
				{Name: "a", Label: "b"}, {Name: "b"},
			}},
			wantErr: "collides with field b",
		},
		{
			name: "bad regex",
			def: SchemaDefinition{Type: "x", Fields: []FieldDefinition{
				{Name: "a", Rules: []RuleDefinition{{Type: "pattern", Regex: "("}}},
			}},
			wantErr: "compile pattern",
		},
		{
			name: "enum without values",
			def: SchemaDefinition{Type: "x", Fields: []FieldDefinition{
				{Name: "a", Rules: []RuleDefinition{{Type: "enum"}}},
			}},
			wantErr: "enum rule without values",
		},
		{
			name: "unknown rule type",
			def: SchemaDefinition{Type: "x", Fields: []FieldDefinition{
				{Name: "a", Rules: []RuleDefinition{{Type: "currency"}}},
			}},
			wantErr: `unknown rule type "currency"`,
		},
		{
			name: "unknown date layout",
			def: SchemaDefinition{Type: "x", DateLayout: "MM/DD/YYYY", Fields: []FieldDefinition{
				{Name: "a"},
			}},
			wantErr: "unknown date layout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.def)
			if err == nil {
				t.Fatal("NewSchema() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewSchema() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestSchema_Accessors(t *testing.T) {
	s := tradeSchema(t)

	if s.Type() != "trade-test" || s.Label() != "Test Trades" || s.Group() != "Test" {
		t.Errorf("identity = %s/%s/%s", s.Type(), s.Label(), s.Group())
	}
	if !reflect.DeepEqual(s.Fields(), tradeHeader) {
		t.Errorf("Fields() = %v, want %v", s.Fields(), tradeHeader)
	}
	wantRequired := []string{"ref", "deal_date", "currency_pair", "side", "amount"}
	if !reflect.DeepEqual(s.RequiredFields(), wantRequired) {
		t.Errorf("RequiredFields() = %v, want %v", s.RequiredFields(), wantRequired)
	}
	if !s.IsRequired("AMOUNT") || s.IsRequired("note") {
		t.Error("IsRequired should be case-insensitive and false for optional fields")
	}
	if s.DateLayout() != DateISO {
		t.Errorf("DateLayout() = %s, want ISO", s.DateLayout())
	}
	if got := s.DisplayLabel("side"); got != "Buy/Sell" {
		t.Errorf("DisplayLabel(side) = %q", got)
	}
	if got := s.DisplayHeader()[0]; got != "Reference" {
		t.Errorf("DisplayHeader()[0] = %q", got)
	}
	if got := s.SampleRow(); len(got) != len(tradeHeader) || got[2] != "USD/INR" {
		t.Errorf("SampleRow() = %v", got)
	}

	// Accessors hand out copies.
	f := s.Fields()
	f[0] = "mutated"
	if s.Fields()[0] != "ref" {
		t.Error("Fields() exposed internal slice")
	}
}

func TestSchema_DefaultDateLayout(t *testing.T) {
	s := MustSchema(SchemaDefinition{Type: "dl-test", Fields: []FieldDefinition{{Name: "a"}}})
	if s.DateLayout() != DateDDMMYYYY {
		t.Errorf("DateLayout() = %s, want DD-MM-YYYY", s.DateLayout())
	}
	if s.Label() != "dl-test" {
		t.Errorf("Label() = %q, want type as fallback", s.Label())
	}
}

func TestMustSchema_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustSchema with invalid definition did not panic")
		}
	}()
	MustSchema(SchemaDefinition{})
}

func TestMapDisplayToCanonical(t *testing.T) {
	s := tradeSchema(t)

	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{
			name:   "labels mapped",
			header: []string{"Reference", "Deal Date", "Currency Pair"},
			want:   []string{"ref", "deal_date", "currency_pair"},
		},
		{
			name:   "case and whitespace insensitive",
			header: []string{"  deal date ", "BUY/SELL"},
			want:   []string{"deal_date", "side"},
		},
		{
			name:   "canonical names pass through",
			header: []string{"ref", "amount"},
			want:   []string{"ref", "amount"},
		},
		{
			name:   "unknown headers untouched",
			header: []string{"Broker Name", "Deal Date"},
			want:   []string{"Broker Name", "deal_date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDisplayToCanonical(s, tt.header)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MapDisplayToCanonical(%v) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

// TestMapDisplayToCanonical_ThenValidate checks that a header written with
// template labels validates the same as one written with canonical names.
func TestMapDisplayToCanonical_ThenValidate(t *testing.T) {
	s := tradeSchema(t)

	g := Grid{
		Header: MapDisplayToCanonical(s, s.DisplayHeader()),
		Rows:   [][]string{validTradeRow()},
	}
	if diags := Validate(g, s); len(diags) != 0 {
		t.Errorf("Validate() after mapping = %+v, want none", diags)
	}
}

func TestRegistry(t *testing.T) {
	s := MustSchema(SchemaDefinition{
		Type:  "Registry-Test",
		Group: "zz-registry-test",
		Fields: []FieldDefinition{
			{Name: "a", Required: true},
		},
	})
	Register(s)

	got, ok := Get("  REGISTRY-TEST ")
	if !ok || got != s {
		t.Errorf("Get() = %v, %v; want registered schema", got, ok)
	}

	if _, err := Resolve("no-such-type"); !errors.Is(err, ErrUnknownDocumentType) {
		t.Errorf("Resolve(unknown) error = %v, want ErrUnknownDocumentType", err)
	}

	if byGroup := ByGroup("zz-registry-test"); len(byGroup) != 1 || byGroup[0] != s {
		t.Errorf("ByGroup() = %v", byGroup)
	}

	found := false
	for _, g := range Groups() {
		if g == "zz-registry-test" {
			found = true
		}
	}
	if !found {
		t.Error("Groups() does not include the registered group")
	}
	if SchemaCount() < 1 {
		t.Errorf("SchemaCount() = %d", SchemaCount())
	}

	defer func() {
		if recover() == nil {
			t.Error("registering a duplicate type did not panic")
		}
	}()
	Register(MustSchema(SchemaDefinition{Type: "registry-test", Fields: []FieldDefinition{{Name: "b"}}}))
}

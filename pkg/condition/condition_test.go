package condition

import (
	"reflect"
	"testing"
	"time"

	"github.com/mdscan/mdscan/pkg/pathstore"
)

var env = Env{MinAPI: 45, Now: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)}

func tree(t *testing.T, values map[string]any) pathstore.Tree {
	t.Helper()
	tr := pathstore.New()
	for p, v := range values {
		if err := tr.Set(p, v); err != nil {
			t.Fatal(err)
		}
	}
	return tr
}

func TestBetweenIsExclusive(t *testing.T) {
	tests := []struct {
		value int
		want  bool
	}{
		{10, false},
		{11, true},
		{19, true},
		{20, false},
	}
	for _, tt := range tests {
		tr := tree(t, map[string]any{"ApexClass.count": tt.value})
		c := &Condition{MetadataType: "ApexClass.count", Operator: Between, Operand: []any{10, 20}}
		if got := Evaluate(c, tr, env).Passed; got != tt.want {
			t.Errorf("between(10,20) on %d: expected %v, got %v", tt.value, tt.want, got)
		}
	}
}

func TestBetweenMinAPIBound(t *testing.T) {
	tr := tree(t, map[string]any{
		"apiVersions.ApexClass.Old": 30,
		"apiVersions.ApexClass.New": 58,
		"apiVersions.ApexClass.Min": 45,
	})
	c := &Condition{MetadataType: "apiVersions.ApexClass.*", Operator: Between, Operand: []any{0, MinAPI}, ShowDetails: true}
	res := Evaluate(c, tr, env)
	if !res.Passed || !reflect.DeepEqual(res.Items, []string{"Old"}) {
		t.Fatalf("expected [Old], got %+v", res)
	}
}

func TestPerItemAnd(t *testing.T) {
	tr := tree(t, map[string]any{
		"CustomField.objects.A.count":      2,
		"ApexTrigger.objects.A.count":      0,
		"CustomField.objects.B.count":      1,
		"ApexTrigger.objects.B.count":      3,
		"ApexTrigger.objects.Orphan.count": 4,
	})
	c := &Condition{
		MetadataType: "CustomField.objects.*.count",
		Operator:     GTE,
		Operand:      1,
		ShowDetails:  true,
		And: &Condition{
			MetadataType: "ApexTrigger.objects.*.count",
			Operator:     GTE,
			Operand:      1,
			PerItem:      true,
		},
	}
	res := Evaluate(c, tr, env)
	if !res.Passed {
		t.Fatal("expected pass through B")
	}
	if !reflect.DeepEqual(res.Items, []string{"B"}) {
		t.Fatalf("expected exactly [B], got %v", res.Items)
	}

	_ = tr.Set("ApexTrigger.objects.B.count", 0)
	if Evaluate(c, tr, env).Passed {
		t.Fatal("expected failure once no object satisfies both sides")
	}
}

func TestPerItemAndWithoutWildcards(t *testing.T) {
	tr := tree(t, map[string]any{
		"Flow.count":      2,
		"ApexClass.count": 1,
		"ApexPage.count":  0,
	})
	c := &Condition{
		MetadataType: "Flow.count",
		Operator:     GTE,
		Operand:      1,
		And:          &Condition{MetadataType: "ApexClass.count", Operator: GTE, Operand: 1, PerItem: true},
	}
	res := Evaluate(c, tr, env)
	if !res.Passed || len(res.Items) != 0 {
		t.Fatalf("expected a boolean pass with no items, got %+v", res)
	}

	c.And.MetadataType = "ApexPage.count"
	if Evaluate(c, tr, env).Passed {
		t.Fatal("expected failure when the right side fails")
	}
}

func TestPlainAndIsBoolean(t *testing.T) {
	tr := tree(t, map[string]any{
		"CustomField.objects.A.count": 2,
		"ApexTrigger.objects.C.count": 1,
	})
	c := &Condition{
		MetadataType: "CustomField.objects.*.count",
		Operator:     GTE,
		Operand:      1,
		And:          &Condition{MetadataType: "ApexTrigger.objects.*.count", Operator: GTE, Operand: 1},
	}
	res := Evaluate(c, tr, env)
	if !res.Passed || !reflect.DeepEqual(res.Items, []string{"A", "C"}) {
		t.Fatalf("expected pass over disjoint items [A C], got %+v", res)
	}
}

func TestAndShortCircuit(t *testing.T) {
	tr := tree(t, map[string]any{"ApexClass.objects.X.count": 1})
	lazy := &Condition{
		MetadataType: "Flow.count",
		Operator:     GT,
		Operand:      0,
		And:          &Condition{MetadataType: "ApexClass.objects.*.count", Operator: GT, Operand: 0},
	}
	if res := Evaluate(lazy, tr, env); res.Passed || len(res.Items) != 0 {
		t.Fatalf("expected short-circuit with no items, got %+v", res)
	}

	lazy.And.ProcessAlways = true
	res := Evaluate(lazy, tr, env)
	if res.Passed {
		t.Fatal("AND must still fail")
	}
	if !reflect.DeepEqual(res.Items, []string{"X"}) {
		t.Fatalf("expected the always-processed branch's items, got %v", res.Items)
	}
}

func TestOrProcessAlwaysCollectsItems(t *testing.T) {
	tr := tree(t, map[string]any{
		"Flow.count": 3,
		`ApexClass.hardcodedURLs.a\.salesforce\.com`: 2,
	})
	c := &Condition{
		MetadataType: "Flow.count",
		Operator:     GT,
		Operand:      0,
		Or: &Condition{
			MetadataType:  "ApexClass.hardcodedURLs.*",
			Operator:      GT,
			Operand:       0,
			ProcessAlways: true,
		},
	}
	res := Evaluate(c, tr, env)
	if !res.Passed {
		t.Fatal("expected pass")
	}
	if !reflect.DeepEqual(res.Items, []string{"a.salesforce.com"}) {
		t.Fatalf("expected right-branch items, got %v", res.Items)
	}

	c.Or.ProcessAlways = false
	if res := Evaluate(c, tr, env); len(res.Items) != 0 {
		t.Fatalf("expected short-circuit without items, got %v", res.Items)
	}
}

func TestAndOrPrecedence(t *testing.T) {
	tr := tree(t, map[string]any{"Flow.count": 0, "ApexClass.count": 5})
	// (Flow > 0 AND never) OR ApexClass > 1
	c := &Condition{
		MetadataType: "Flow.count",
		Operator:     GT,
		Operand:      0,
		And:          &Condition{Operator: Never},
		Or:           &Condition{MetadataType: "ApexClass.count", Operator: GT, Operand: 1},
	}
	if !Evaluate(c, tr, env).Passed {
		t.Fatal("expected (base AND and) OR or to pass through the OR child")
	}
}

func TestOperators(t *testing.T) {
	tr := tree(t, map[string]any{
		"Flow.count":           3,
		"ApexClass.count":      0,
		"ConnectedApp.flagged": true,
	})
	_ = tr.Set("Empty", pathstore.New())
	tests := []struct {
		c    Condition
		want bool
	}{
		{Condition{Operator: Always}, true},
		{Condition{Operator: Never}, false},
		{Condition{MetadataType: "Flow", Operator: Exists}, true},
		{Condition{MetadataType: "Empty", Operator: Exists}, false},
		{Condition{MetadataType: "Missing", Operator: NotExists}, true},
		{Condition{MetadataType: "Missing", Operator: Null}, true},
		{Condition{MetadataType: "ApexClass.count", Operator: Null}, false},
		{Condition{MetadataType: "Flow", Operator: GT, Operand: 2}, true},
		{Condition{MetadataType: "Flow.count", Operator: GTE, Operand: 3}, true},
		{Condition{MetadataType: "Flow.count", Operator: LT, Operand: 3}, false},
		{Condition{MetadataType: "Flow.count", Operator: LTE, Operand: 3.0}, true},
		{Condition{MetadataType: "Missing.count", Operator: EQ, Operand: 0}, true},
		{Condition{MetadataType: "ConnectedApp.flagged", Operator: EQ, Operand: 1}, true},
		{Condition{MetadataType: "Flow.count", Operator: GT, Operand: MinAPI}, false},
	}
	for i, tt := range tests {
		c := tt.c
		if got := Evaluate(&c, tr, env).Passed; got != tt.want {
			t.Errorf("case %d (%s %s %v): expected %v, got %v", i, c.MetadataType, c.Operator, c.Operand, tt.want, got)
		}
	}
}

func TestExpiredConditionNeverPasses(t *testing.T) {
	c := &Condition{Operator: Always, Expiration: "2026-01-01"}
	if Evaluate(c, pathstore.New(), env).Passed {
		t.Fatal("expired condition must not pass")
	}
	c.Expiration = "2027-01-01"
	if !Evaluate(c, pathstore.New(), env).Passed {
		t.Fatal("unexpired condition must pass")
	}
}

func TestValidate(t *testing.T) {
	bad := []Condition{
		{Operator: "bogus"},
		{Operator: GT, Operand: 1},
		{MetadataType: "Flow.count", Operator: GT},
		{MetadataType: "Flow.count", Operator: Between, Operand: []any{1}},
		{MetadataType: "Flow.count", Operator: Between, Operand: []any{1, "nope"}},
		{Operator: Always, Expiration: "soon"},
		{Operator: Always, And: &Condition{Operator: LT}},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected a validation error", i)
		}
	}

	good := Condition{
		MetadataType: "apiVersions.*.*",
		Operator:     Between,
		Operand:      []any{0, MinAPI},
		Or:           &Condition{MetadataType: "Flow", Operator: Exists},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

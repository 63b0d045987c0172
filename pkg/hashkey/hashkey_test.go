package hashkey

import (
	"strings"
	"testing"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/dialect"
)

func strp(s string) *string { return &s }

func TestSum_Deterministic(t *testing.T) {
	a := Sum([]*string{strp("ACME"), strp("42")})
	b := Sum([]*string{strp("ACME"), strp("42")})
	if a != b {
		t.Errorf("same input hashed differently: %s vs %s", a, b)
	}
	if len(a) != 40 {
		t.Errorf("expected 40 hex chars, got %d (%s)", len(a), a)
	}
	if a != strings.ToLower(a) {
		t.Errorf("expected lowercase hex, got %s", a)
	}
}

func TestSum_Normalization(t *testing.T) {
	base := Sum([]*string{strp("acme")})

	if got := Sum([]*string{strp("ACME")}); got != base {
		t.Error("case must not affect the hash")
	}
	if got := Sum([]*string{strp("  acme  ")}); got != base {
		t.Error("surrounding whitespace must not affect the hash")
	}
	if got := Sum([]*string{strp("acme inc")}); got == base {
		t.Error("different values must hash differently")
	}
}

func TestSum_NullVsEmpty(t *testing.T) {
	null := Sum([]*string{nil})
	empty := Sum([]*string{strp("")})
	if null == empty {
		t.Error("NULL and empty string must hash differently")
	}

	// A literal sentinel value collides with NULL. Documented property of
	// the derivation, not a defect this package can fix.
	if got := Sum([]*string{strp(NullToken)}); got != null {
		t.Error("sentinel literal is defined to hash like NULL")
	}
}

func TestSum_ColumnOrder(t *testing.T) {
	ab := Sum([]*string{strp("a"), strp("b")})
	ba := Sum([]*string{strp("b"), strp("a")})
	if ab == ba {
		t.Error("column order must affect the hash")
	}
}

func TestSum_DelimiterPreventsShifting(t *testing.T) {
	// ("ab", "c") and ("a", "bc") must not collide.
	left := Sum([]*string{strp("ab"), strp("c")})
	right := Sum([]*string{strp("a"), strp("bc")})
	if left == right {
		t.Error("value boundaries must be preserved by the delimiter")
	}
}

func TestNormalizeExpr(t *testing.T) {
	d, _ := dialect.Get("fabric")
	got := NormalizeExpr(d, "customer_id")
	want := "COALESCE(UPPER(TRIM(CAST(customer_id AS VARCHAR(8000)))), '~~N~~')"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConcatExpr_OrderPreserved(t *testing.T) {
	d, _ := dialect.Get("duckdb")
	got := ConcatExpr(d, []string{"b", "a"})
	if !strings.HasPrefix(got, "CONCAT_WS('||', ") {
		t.Errorf("unexpected prefix: %q", got)
	}
	if strings.Index(got, "CAST(b AS") > strings.Index(got, "CAST(a AS") {
		t.Errorf("declared column order not preserved: %q", got)
	}
}

func TestKeyExpr_PerDialect(t *testing.T) {
	cases := []struct {
		dialect string
		want    string
	}{
		{"fabric", "LOWER(CONVERT(CHAR(40), HASHBYTES('SHA1', CONCAT_WS('||', COALESCE(UPPER(TRIM(CAST(id AS VARCHAR(8000)))), '~~N~~'))), 2))"},
		{"duckdb", "sha1(CONCAT_WS('||', COALESCE(UPPER(TRIM(CAST(id AS VARCHAR))), '~~N~~')))"},
		{"postgres", "encode(digest(CONCAT_WS('||', COALESCE(UPPER(TRIM(CAST(id AS VARCHAR))), '~~N~~')), 'sha1'), 'hex')"},
	}
	for _, tc := range cases {
		d, ok := dialect.Get(tc.dialect)
		if !ok {
			t.Fatalf("dialect %s not registered", tc.dialect)
		}
		if got := KeyExpr(d, []string{"id"}); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.dialect, got, tc.want)
		}
	}
}

package tenant

import "testing"

func TestDeriveTenantIDDeterministic(t *testing.T) {
	a := DeriveTenantID("1.2.3.4", "curl/8.0", "pepper")
	b := DeriveTenantID("1.2.3.4", "curl/8.0", "pepper")
	if a != b {
		t.Fatalf("expected deterministic output, got %q != %q", a, b)
	}
	if len(a) != idHexLen {
		t.Fatalf("expected %d hex chars, got %d (%q)", idHexLen, len(a), a)
	}
}

func TestDeriveTenantIDDistinguishesInputs(t *testing.T) {
	base := DeriveTenantID("1.2.3.4", "curl/8.0", "pepper")
	variants := []string{
		DeriveTenantID("1.2.3.5", "curl/8.0", "pepper"),
		DeriveTenantID("1.2.3.4", "curl/8.1", "pepper"),
		DeriveTenantID("1.2.3.4", "curl/8.0", "salt2"),
	}
	for _, v := range variants {
		if v == base {
			t.Fatalf("expected distinct id, collided with base: %q", v)
		}
	}
}

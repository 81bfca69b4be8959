package zapcard

import "testing"

func memberOf(pool []string, name string) bool {
	for _, n := range pool {
		if n == name {
			return true
		}
	}
	return false
}

func TestFirstNameHonorsGenderHint(t *testing.T) {
	n := NewNameSynthesizer()
	pool := namePools["US"]

	for i := 0; i < 50; i++ {
		if name := n.FirstName("US", GenderMale); !memberOf(pool.male, name) {
			t.Fatalf("%q is not in the US male pool", name)
		}
		if name := n.FirstName("US", GenderFemale); !memberOf(pool.female, name) {
			t.Fatalf("%q is not in the US female pool", name)
		}
	}
}

func TestFirstNameNoHintDrawsFromEitherPool(t *testing.T) {
	n := NewNameSynthesizer()
	pool := namePools["GB"]

	for i := 0; i < 50; i++ {
		name := n.FirstName("GB", "")
		if !memberOf(pool.male, name) && !memberOf(pool.female, name) {
			t.Fatalf("%q is not in any GB pool", name)
		}
	}
}

func TestLastNameMatchesCountry(t *testing.T) {
	for country, pool := range namePools {
		n := NewNameSynthesizer()
		if name := n.LastName(country); !memberOf(pool.last, name) {
			t.Errorf("%q is not a %s surname", name, country)
		}
	}
}

func TestUnknownCountryFallsBackToUS(t *testing.T) {
	n := NewNameSynthesizer()
	pool := namePools["US"]

	if name := n.LastName("ZZ"); !memberOf(pool.last, name) {
		t.Errorf("%q is not in the US fallback pool", name)
	}
}

func TestCountryLookupIsCaseInsensitive(t *testing.T) {
	n := NewNameSynthesizer()
	pool := namePools["DE"]

	if name := n.LastName("de"); !memberOf(pool.last, name) {
		t.Errorf("%q is not a DE surname", name)
	}
}

func TestFullName(t *testing.T) {
	n := NewNameSynthesizer()
	pool := namePools["FR"]

	first, last := n.FullName("FR", GenderFemale)
	if !memberOf(pool.female, first) {
		t.Errorf("first name %q not in FR female pool", first)
	}
	if !memberOf(pool.last, last) {
		t.Errorf("surname %q not in FR pool", last)
	}
}

package zapcard

import (
	"math/rand"
	"strings"
	"time"
)

// Gender hints for name synthesis. An empty hint picks either pool.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

type namePool struct {
	male   []string
	female []string
	last   []string
}

// Small per-country pools. The widget only needs a plausible name for its
// contact form; anything beyond that is wasted bytes.
var namePools = map[string]namePool{
	"US": {
		male:   []string{"James", "Michael", "David", "Daniel", "Matthew", "Andrew", "Ryan", "Tyler"},
		female: []string{"Emily", "Sarah", "Jessica", "Ashley", "Amanda", "Rachel", "Lauren", "Megan"},
		last:   []string{"Smith", "Johnson", "Williams", "Brown", "Miller", "Davis", "Wilson", "Anderson"},
	},
	"GB": {
		male:   []string{"Oliver", "George", "Harry", "Jack", "Charlie", "Thomas", "Oscar", "William"},
		female: []string{"Olivia", "Amelia", "Isla", "Emily", "Grace", "Sophie", "Charlotte", "Alice"},
		last:   []string{"Taylor", "Walker", "Evans", "Roberts", "Wright", "Hughes", "Edwards", "Green"},
	},
	"DE": {
		male:   []string{"Lukas", "Leon", "Finn", "Jonas", "Paul", "Felix", "Maximilian", "Jan"},
		female: []string{"Mia", "Emma", "Hannah", "Lena", "Anna", "Leonie", "Laura", "Sophia"},
		last:   []string{"Müller", "Schmidt", "Schneider", "Fischer", "Weber", "Wagner", "Becker", "Hoffmann"},
	},
	"FR": {
		male:   []string{"Lucas", "Hugo", "Louis", "Nathan", "Gabriel", "Arthur", "Jules", "Théo"},
		female: []string{"Emma", "Léa", "Chloé", "Manon", "Camille", "Inès", "Louise", "Juliette"},
		last:   []string{"Martin", "Bernard", "Dubois", "Petit", "Durand", "Leroy", "Moreau", "Fournier"},
	},
	"BR": {
		male:   []string{"Gabriel", "Lucas", "Matheus", "Rafael", "Felipe", "Bruno", "Thiago", "Pedro"},
		female: []string{"Ana", "Beatriz", "Camila", "Juliana", "Larissa", "Mariana", "Fernanda", "Gabriela"},
		last:   []string{"Silva", "Santos", "Oliveira", "Souza", "Lima", "Pereira", "Costa", "Almeida"},
	},
}

// NameSynthesizer produces plausible identities for the widget's contact
// form when the caller doesn't supply one.
type NameSynthesizer struct {
	rand *rand.Rand
}

func NewNameSynthesizer() *NameSynthesizer {
	return &NameSynthesizer{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (n *NameSynthesizer) pool(country string) namePool {
	if p, ok := namePools[strings.ToUpper(country)]; ok {
		return p
	}
	return namePools["US"]
}

// FirstName returns a first name for the country, honoring the gender hint
// when one is given.
func (n *NameSynthesizer) FirstName(country, gender string) string {
	p := n.pool(country)
	switch strings.ToLower(gender) {
	case GenderMale:
		return p.male[n.rand.Intn(len(p.male))]
	case GenderFemale:
		return p.female[n.rand.Intn(len(p.female))]
	default:
		all := append(append([]string{}, p.male...), p.female...)
		return all[n.rand.Intn(len(all))]
	}
}

// LastName returns a surname for the country.
func (n *NameSynthesizer) LastName(country string) string {
	p := n.pool(country)
	return p.last[n.rand.Intn(len(p.last))]
}

// FullName fills both fields at once.
func (n *NameSynthesizer) FullName(country, gender string) (string, string) {
	return n.FirstName(country, gender), n.LastName(country)
}

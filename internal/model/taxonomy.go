package model

import "slices"

// Domain is a top-level skill category.
type Domain string

const (
	DomainReading Domain = "Reading"
	DomainWriting Domain = "Writing"
)

// Domains lists both domains in display order.
var Domains = []Domain{DomainReading, DomainWriting}

// Skill is a macro skill such as "R1 Literal" or "W3 Grammar".
type Skill string

type skillEntry struct {
	skill  Skill
	domain Domain
	tags   []string
}

var seedSkills = []skillEntry{
	{"R1 Literal", DomainReading, []string{"Misread fact", "Missed detail", "Wrong number/figure"}},
	{"R2 Inference", DomainReading, []string{"Unsupported inference", "Wrong conclusion", "Misinterpretation"}},
	{"R3 Vocabulary", DomainReading, []string{"Wrong meaning", "Figurative misunderstanding", "Term misspelling"}},
	{"R4 Sequencing", DomainReading, []string{"Wrong order", "Skipped step", "Misunderstood process"}},
	{"R5 Critical Eval", DomainReading, []string{"Misjudged purpose", "Did not identify bias", "Did not compare info"}},
	{"R6 Language Analysis", DomainReading, []string{"Misinterpreted tone", "Misread style", "Ignored literary device"}},
	{"W1 Content", DomainWriting, []string{"Fact incorrect", "Off-topic", "Missing detail"}},
	{"W2 Organisation", DomainWriting, []string{"Poor paragraphing", "Lack of linking", "Illogical sequence"}},
	{"W3 Grammar", DomainWriting, []string{
		"Punctuation error", "Apostrophe misuse", "Quotes misuse", "Capitalisation error",
		"Sentence fragment", "Run-on sentence", "Subject-verb agreement", "Complex sentence error",
	}},
	{"W4 Vocabulary", DomainWriting, []string{"Word choice inappropriate", "Repetition", "Technical term missing"}},
	{"W5 Audience", DomainWriting, []string{"Tone too informal", "Style inappropriate", "Lack of formality"}},
	{"W6 Creativity", DomainWriting, []string{"Ideas underdeveloped", "Lack of interesting facts", "Poor expression"}},
}

var (
	bySkill  map[Skill]*skillEntry
	byDomain map[Domain][]Skill
)

func init() {
	bySkill = make(map[Skill]*skillEntry, len(seedSkills))
	byDomain = make(map[Domain][]Skill, len(Domains))
	for i := range seedSkills {
		e := &seedSkills[i]
		bySkill[e.skill] = e
		byDomain[e.domain] = append(byDomain[e.domain], e.skill)
	}
}

// Skills returns a copy of the macro skills of a domain in taxonomy order.
func Skills(d Domain) []Skill {
	return slices.Clone(byDomain[d])
}

// Tags returns a copy of the micro-skill tags of a macro skill, or nil if
// unknown.
func Tags(s Skill) []string {
	if e, ok := bySkill[s]; ok {
		return slices.Clone(e.tags)
	}
	return nil
}

// DomainOf reports which domain a skill belongs to.
func DomainOf(s Skill) (Domain, bool) {
	e, ok := bySkill[s]
	if !ok {
		return "", false
	}
	return e.domain, true
}

// IsSkill reports whether s is a macro skill of domain d.
func IsSkill(d Domain, s Skill) bool {
	got, ok := DomainOf(s)
	return ok && got == d
}

// HasTag reports whether tag belongs to the micro-skill list of s.
func HasTag(s Skill, tag string) bool {
	for _, t := range Tags(s) {
		if t == tag {
			return true
		}
	}
	return false
}

package models

import (
	"time"
)

// Status is the admin review state of a guide registration. Any status may move to any other.
type Status string

const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusContacted, StatusApproved, StatusRejected}

var statusLabels = map[Status]string{
	StatusPending:   "Pendente",
	StatusContacted: "Contatado",
	StatusApproved:  "Aprovado",
	StatusRejected:  "Rejeitado",
}

// Valid reports whether s is one of the four statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the pt-BR display label.
func (s Status) Label() string { return labelOr(statusLabels, s) }

// Specialty is the guide's main practice.
type Specialty string

var specialtyLabels = map[Specialty]string{
	"tarot":      "Tarô",
	"lenormand":  "Lenormand",
	"runes":      "Runas",
	"buzios":     "Búzios",
	"iching":     "I-Ching",
	"angels":     "Cartas dos Anjos",
	"astrology":  "Astrologia",
	"numerology": "Numerologia",
	"mediumship": "Canalização Espiritual",
	"other":      "Outra",
}

func (s Specialty) Valid() bool {
	_, ok := specialtyLabels[s]
	return ok
}

func (s Specialty) Label() string { return labelOr(specialtyLabels, s) }

// Experience is the guide's self-reported seniority.
type Experience string

var experienceLabels = map[Experience]string{
	"beginner":     "Iniciante (menos de 1 ano)",
	"intermediate": "Intermediário (1-3 anos)",
	"advanced":     "Avançado (3-5 anos)",
	"professional": "Profissional (5+ anos)",
}

func (e Experience) Valid() bool {
	_, ok := experienceLabels[e]
	return ok
}

func (e Experience) Label() string { return labelOr(experienceLabels, e) }

func labelOr[K ~string](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// CountryOther is accepted in place of an ISO-3166 alpha-2 code.
const CountryOther = "OTHER"

// GuideRegistration is a spiritual guide (service provider) signup.
type GuideRegistration struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Country      string     `json:"country"`
	Phone        string     `json:"phone"`
	Specialty    Specialty  `json:"specialty"`
	Experience   Experience `json:"experience"`
	Message      string     `json:"message"`
	RegisteredAt time.Time  `json:"registeredAt"`
	Status       Status     `json:"status"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// FullName joins first and last name with a single space.
func (g *GuideRegistration) FullName() string {
	return g.FirstName + " " + g.LastName
}

// RegistrationEntry is the {key, value} pair returned by list endpoints.
type RegistrationEntry struct {
	Key   string            `json:"key"`
	Value GuideRegistration `json:"value"`
}

package mailing

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/outreach-engine/internal/domain"
)

// Personalizer renders step templates with Liquid. Parsed templates are
// cached by source text; the cache never invalidates because templates are
// immutable once a campaign is active.
type Personalizer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewPersonalizer builds the engine with the filters step templates use.
func NewPersonalizer() *Personalizer {
	engine := liquid.NewEngine()

	// {{ first_name | default: "there" }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil || value == "" {
			return defaultVal
		}
		return value
	})

	return &Personalizer{engine: engine}
}

// Render produces the subject and body for one contact and step.
func (p *Personalizer) Render(step *domain.SequenceStep, contact *domain.Contact) (subject, body string, err error) {
	bindings := map[string]interface{}{
		"first_name": contact.FirstName,
		"last_name":  contact.LastName,
		"email":      contact.Email,
		"company":    contact.Company,
		"location":   contact.Location,
	}

	if subject, err = p.render(step.Subject, bindings); err != nil {
		return "", "", fmt.Errorf("render subject for step %d: %w", step.StepNumber, err)
	}
	if body, err = p.render(step.Body, bindings); err != nil {
		return "", "", fmt.Errorf("render body for step %d: %w", step.StepNumber, err)
	}
	return subject, body, nil
}

func (p *Personalizer) render(source string, bindings map[string]interface{}) (string, error) {
	var tmpl *liquid.Template
	if cached, ok := p.cache.Load(source); ok {
		tmpl = cached.(*liquid.Template)
	} else {
		parsed, err := p.engine.ParseString(source)
		if err != nil {
			return "", err
		}
		p.cache.Store(source, parsed)
		tmpl = parsed
	}
	return tmpl.RenderString(bindings)
}

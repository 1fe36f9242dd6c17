package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefinitionSchemaV1 = "crestline.workflow.v1"

const (
	InvestorOnboarding  = "investor_onboarding"
	SyndicateOnboarding = "syndicate_onboarding"
	LeadRegistration    = "lead_registration"
)

// Registry is a pure lookup from workflow name to step definitions. The
// built-in definitions cover the three platform flows; deployments may
// override or extend them from YAML documents.
type Registry struct {
	definitions map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{definitions: builtinDefinitions()}
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.definitions[strings.TrimSpace(name)]
	return def, ok
}

func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.definitions[def.Name] = def
	return nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseDefinition decodes and validates one YAML workflow document.
func ParseDefinition(input []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(input, &def); err != nil {
		return Definition{}, fmt.Errorf("decode workflow: %w", err)
	}
	if strings.TrimSpace(def.Schema) != DefinitionSchemaV1 {
		return Definition{}, fmt.Errorf("workflow schema must be %q", DefinitionSchemaV1)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDir registers every *.yaml workflow document in dir, overriding
// built-ins on name collision.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read workflow dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ext := filepath.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read workflow %s: %w", name, err)
		}
		def, err := ParseDefinition(raw)
		if err != nil {
			return fmt.Errorf("workflow %s: %w", name, err)
		}
		r.definitions[def.Name] = def
	}
	return nil
}

func builtinDefinitions() map[string]Definition {
	defs := []Definition{
		{
			Schema: DefinitionSchemaV1,
			Name:   InvestorOnboarding,
			Steps: []Step{
				{Number: 1, Label: "Personal details", Fields: []string{"full_name", "email", "phone", "country"}},
				{Number: 2, Label: "Identity verification", Fields: []string{"id_type"}, Files: []string{"government_id"}},
				{Number: 3, Label: "Banking", Fields: []string{"bank_name", "account_holder", "iban"}},
				{Number: 4, Label: "Investment experience", Fields: []string{"investment_experience", "annual_income_band"}},
				{Number: 5, Label: "Agreements", Fields: []string{
					"terms_and_conditions_accepted",
					"risk_disclosure_accepted",
					"privacy_policy_accepted",
					"confirmation_of_true_information",
				}},
				{Number: 6, Label: "Review and sign", Fields: []string{"signature_name"}},
			},
		},
		{
			Schema: DefinitionSchemaV1,
			Name:   SyndicateOnboarding,
			Steps: []Step{
				{Number: 1, Label: "Entity", Fields: []string{"legal_name", "entity_type", "jurisdiction"}},
				{Number: 2, Label: "Leadership", Fields: []string{"lead_full_name", "lead_email", "lead_phone"}},
				{Number: 3, Label: "Formation", Fields: []string{"ein"}, Files: []string{"formation_document"}},
				{
					Number:       4,
					Label:        "Accreditation",
					Optional:     true,
					Fields:       []string{"is_accredited_investor"},
					Files:        []string{"accreditation_proof"},
					DeclineField: "accreditation_declined",
				},
				{Number: 5, Label: "Agreements", Fields: []string{
					"terms_and_conditions_accepted",
					"risk_disclosure_accepted",
					"privacy_policy_accepted",
					"confirmation_of_true_information",
				}},
			},
		},
		{
			Schema: DefinitionSchemaV1,
			Name:   LeadRegistration,
			Steps: []Step{
				{Number: 1, Label: "Account", Fields: []string{"email", "password_hash", "full_name"}},
				{Number: 2, Label: "Verification", Fields: []string{"two_factor_confirmed"}},
				{Number: 3, Label: "Agreements", Fields: []string{
					"terms_and_conditions_accepted",
					"privacy_policy_accepted",
				}},
			},
		},
	}

	out := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			panic(fmt.Sprintf("builtin workflow %q invalid: %v", def.Name, err))
		}
		out[def.Name] = def
	}
	return out
}

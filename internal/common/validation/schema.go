package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"ria-hunter/internal/models"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var (
	decompositionSchema  = mustCompile(DecompositionSchema())
	searchRequestSchema  = mustCompile(SearchRequestSchema())
	searchResponseSchema = mustCompile(SearchResponseSchema())
)

func mustCompile(schema map[string]interface{}) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return compiled
}

func nullable(t string) []interface{} {
	return []interface{}{t, "null"}
}

func enumWithNull[T ~string](values []T) []interface{} {
	out := make([]interface{}, 0, len(values)+1)
	for _, v := range values {
		out = append(out, string(v))
	}
	return append(out, nil)
}

func stringEnum[T ~string](values []T) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

// DecompositionSchema is the shape a language model must return for a
// decomposed query.
func DecompositionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"location", "confidence"},
		"properties": map[string]interface{}{
			"location": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"city":  map[string]interface{}{"type": nullable("string")},
					"state": map[string]interface{}{"type": nullable("string")},
				},
			},
			"fundTypeIntent": map[string]interface{}{
				"enum": enumWithNull(models.AllFundTypes),
			},
			"minAum": map[string]interface{}{
				"type":    nullable("number"),
				"minimum": 0,
			},
			"queryType": map[string]interface{}{
				"enum": stringEnum(models.AllQueryTypes),
			},
			"confidence": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"topN": map[string]interface{}{
				"type":    nullable("integer"),
				"minimum": 1,
			},
			"crd": map[string]interface{}{
				"type":    nullable("string"),
				"pattern": "^[0-9]+$",
			},
		},
	}
}

// SearchRequestSchema validates an inbound query submission.
func SearchRequestSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"text"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":      "string",
				"minLength": 1,
				"maxLength": 1000,
				"pattern":   `\S`,
			},
			"filters": map[string]interface{}{
				"type": nullable("object"),
				"properties": map[string]interface{}{
					"city":          map[string]interface{}{"type": nullable("string")},
					"state":         map[string]interface{}{"type": nullable("string")},
					"minAum":        map[string]interface{}{"type": nullable("number"), "minimum": 0},
					"hasVcActivity": map[string]interface{}{"type": nullable("boolean")},
				},
				"additionalProperties": false,
			},
			"limit": map[string]interface{}{
				"type":    nullable("integer"),
				"minimum": 1,
			},
		},
	}
}

// SearchResponseSchema describes the outbound response envelope.
func SearchResponseSchema() map[string]interface{} {
	candidate := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"id", "name", "city", "state", "aum", "narrative", "executives", "funds", "derivedFlags"},
		"properties": map[string]interface{}{
			"id":         map[string]interface{}{"type": "string"},
			"executives": map[string]interface{}{"type": "array"},
			"funds":      map[string]interface{}{"type": "array"},
			"similarity": map[string]interface{}{"type": nullable("number")},
			"derivedFlags": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"hasVcActivity"},
			},
		},
	}
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"query", "results", "metadata"},
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
			"results": map[string]interface{}{
				"type":  "array",
				"items": candidate,
			},
			"metadata": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"searchStrategy", "queryType", "confidence", "durationMs"},
				"properties": map[string]interface{}{
					"searchStrategy": map[string]interface{}{"enum": []interface{}{string(models.SearchStrategyLLM), string(models.SearchStrategyFallback)}},
					"queryType":      map[string]interface{}{"enum": stringEnum(models.AllQueryTypes)},
					"confidence":     map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
					"durationMs":     map[string]interface{}{"type": "integer", "minimum": 0},
				},
			},
		},
	}
}

// ValidateDecomposition checks a decoded language-model payload.
func ValidateDecomposition(doc interface{}) *ValidationResult {
	return validateCompiled(decompositionSchema, doc)
}

// ValidateSearchRequest checks a decoded inbound request.
func ValidateSearchRequest(doc interface{}) *ValidationResult {
	return validateCompiled(searchRequestSchema, doc)
}

// ValidateSearchResponse checks a response value, typically a *models.SearchResponse.
func ValidateSearchResponse(doc interface{}) *ValidationResult {
	return validateCompiled(searchResponseSchema, doc)
}

// ValidateDocument validates doc against an ad-hoc schema map.
func ValidateDocument(schema map[string]interface{}, doc interface{}) *ValidationResult {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return invalidDocument(err)
	}
	return toResult(result)
}

func validateCompiled(schema *gojsonschema.Schema, doc interface{}) *ValidationResult {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return invalidDocument(err)
	}
	return toResult(result)
}

func invalidDocument(err error) *ValidationResult {
	return &ValidationResult{
		Valid: false,
		Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}},
	}
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// ValidateActivityNaming validates activity ID follows naming convention
func ValidateActivityNaming(activityId string) error {
	namingPattern := regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)
	if !namingPattern.MatchString(activityId) {
		return fmt.Errorf("activity ID must follow format: domain.subdomain.action (e.g., ria.search.decompose)")
	}
	return nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Error joins all messages, for wrapping into error values.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}

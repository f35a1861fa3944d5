package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dealdesk/internal/registry"
)

var clauseTemplates = map[string]string{
	"confidentiality": "Each party shall keep confidential all non-public information disclosed by the other party in connection with this agreement, shall use it solely to perform its obligations hereunder, and shall not disclose it to any third party without the disclosing party's prior written consent, except as required by law.",
	"termination":     "Either party may terminate this agreement upon thirty (30) days' prior written notice. Either party may terminate immediately upon written notice if the other party materially breaches this agreement and fails to cure such breach within fifteen (15) days of receiving notice thereof.",
	"liability":       "Neither party shall be liable to the other for any indirect, incidental, consequential, or punitive damages arising out of this agreement. Each party's aggregate liability shall not exceed the total fees paid or payable under this agreement in the twelve (12) months preceding the claim.",
	"payment":         "Fees are due within thirty (30) days of the invoice date. Late payments accrue interest at the lesser of 1.5% per month or the maximum rate permitted by law. All fees are exclusive of taxes, which are the responsibility of the paying party.",
}

func opGenerateClause() registry.Operation {
	types := make([]string, 0, len(clauseTemplates))
	for t := range clauseTemplates {
		types = append(types, t)
	}
	sort.Strings(types)

	return registry.Operation{
		Name:        "generate_clause",
		Description: "Return a boilerplate contract clause of the requested type.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"clauseType": {Type: "string", Enum: types},
			},
			Required: []string{"clauseType"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			clauseType := stringArg(args, "clauseType")
			clause, ok := clauseTemplates[strings.ToLower(clauseType)]
			if !ok {
				return "", fmt.Errorf("unknown clause type %q, available: %s", clauseType, strings.Join(types, ", "))
			}
			return clause, nil
		},
	}
}

package service

import (
	"github.com/openai/openai-go"
)

// AgentTools is the static catalog advertised to the model. Adding a
// platform capability means one entry here and a matching handler in the
// executor registry.
var AgentTools = []openai.ChatCompletionToolParam{
	toolDef("get_user_info",
		"Get profile information of a user. Without userId, returns the current user's own profile.",
		objectSchema(map[string]any{
			"userId": property("integer", "ID of the user to look up. Omit for the current user."),
		}, nil)),
	toolDef("get_posting_list",
		"Get a page of job postings. Company users always see only their own postings.",
		objectSchema(map[string]any{
			"page":     property("integer", "Zero-based page number. Defaults to 0."),
			"size":     property("integer", "Page size. Defaults to 20."),
			"posterId": property("integer", "Restrict to postings created by this company."),
		}, nil)),
	toolDef("get_posting_detail",
		"Get the full detail of a single job posting.",
		objectSchema(map[string]any{
			"postingId": property("integer", "ID of the posting."),
		}, []string{"postingId"})),
	toolDef("filter_postings",
		"Get details for a specific set of posting IDs. Unknown IDs are skipped.",
		objectSchema(map[string]any{
			"postingIds": map[string]any{
				"type":        "array",
				"description": "IDs of the postings to fetch.",
				"items":       map[string]any{"type": "integer"},
			},
		}, []string{"postingIds"})),
	toolDef("get_my_applications",
		"List all applications the current student user has submitted.",
		objectSchema(map[string]any{}, nil)),
	toolDef("get_my_postings",
		"List the current company user's own postings, paged.",
		objectSchema(map[string]any{
			"page": property("integer", "Zero-based page number. Defaults to 0."),
			"size": property("integer", "Page size. Defaults to 20."),
		}, nil)),
	toolDef("get_applications_for_posting",
		"List applications submitted to one of the current company user's postings.",
		objectSchema(map[string]any{
			"postingId": property("integer", "ID of the posting."),
		}, []string{"postingId"})),
	toolDef("get_billing_list",
		"List the current company user's monthly billings.",
		objectSchema(map[string]any{}, nil)),
	toolDef("get_billing_detail",
		"Get one billing with its per-application charge breakdown.",
		objectSchema(map[string]any{
			"billingId": property("integer", "ID of the billing."),
		}, []string{"billingId"})),
	toolDef("update_user_profile",
		"Update the current student user's profile.",
		objectSchema(map[string]any{
			"name":        property("string", "Display name."),
			"phoneNumber": property("string", "Phone number."),
			"description": property("string", "Self introduction."),
			"bankNumber":  property("string", "Bank account number."),
			"bankName":    property("string", "Bank name."),
		}, []string{"name"})),
	toolDef("update_company_profile",
		"Update the current company user's profile.",
		objectSchema(map[string]any{
			"name":        property("string", "Company name."),
			"companyCode": property("string", "Business registration code."),
			"companyUrl":  property("string", "Company web site URL."),
			"description": property("string", "Company introduction."),
			"bankNumber":  property("string", "Bank account number."),
			"bankName":    property("string", "Bank name."),
		}, []string{"name"})),
	toolDef("create_posting",
		"Create a new job posting for the current company user.",
		objectSchema(map[string]any{
			"title":        property("string", "Posting title."),
			"body":         property("string", "Posting body."),
			"compensation": property("integer", "Compensation amount in KRW."),
			"tags":         property("string", "Comma-separated tags."),
		}, []string{"title", "body", "compensation"})),
	toolDef("update_posting",
		"Update one of the current company user's postings.",
		objectSchema(map[string]any{
			"postingId":    property("integer", "ID of the posting."),
			"title":        property("string", "Posting title."),
			"body":         property("string", "Posting body."),
			"compensation": property("integer", "Compensation amount in KRW."),
			"tags":         property("string", "Comma-separated tags."),
		}, []string{"postingId", "title", "body", "compensation"})),
	toolDef("delete_posting",
		"Delete one of the current company user's postings.",
		objectSchema(map[string]any{
			"postingId": property("integer", "ID of the posting."),
		}, []string{"postingId"})),
	toolDef("apply_to_posting",
		"Apply the current student user to a posting.",
		objectSchema(map[string]any{
			"postingId": property("integer", "ID of the posting."),
		}, []string{"postingId"})),
	toolDef("update_application_status",
		"Approve or reject an application to one of the current company user's postings.",
		objectSchema(map[string]any{
			"applicationId": property("integer", "ID of the application."),
			"status": map[string]any{
				"type":        "string",
				"description": "New status for the application.",
				"enum":        []string{"PENDING", "APPROVED", "REJECTED"},
			},
		}, []string{"applicationId", "status"})),
}

func toolDef(name, description string, parameters map[string]any) openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        name,
			Description: openai.String(description),
			Parameters:  openai.FunctionParameters(parameters),
		},
	}
}

func objectSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func property(typ, description string) map[string]any {
	return map[string]any{
		"type":        typ,
		"description": description,
	}
}

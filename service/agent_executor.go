package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"campusbridge/model"
)

// strippedFields are removed from every tool result before it is handed
// back to the model. They carry base64 binaries that would blow up the
// transcript and leak into model context.
var strippedFields = map[string]bool{
	"profileImage":          true,
	"logoImage":             true,
	"backgroundImage":       true,
	"verificationFile":      true,
	"applicantProfileImage": true,
	"image":                 true,
	"logo":                  true,
	"thumbnail":             true,
	"photo":                 true,
	"file":                  true,
	"attachment":            true,
}

type agentHandler func(argumentsJSON string, callerID uint) (any, error)

// AgentFunctionExecutor maps tool-call names onto the platform services.
// Every failure mode, including an unknown name, becomes a structured
// {"error": ...} payload; nothing here may abort the orchestration loop.
type AgentFunctionExecutor struct {
	Users    *UserService
	Postings *PostingService
	Billings *BillingService

	handlers map[string]agentHandler
}

func NewAgentFunctionExecutor(users *UserService, postings *PostingService, billings *BillingService) *AgentFunctionExecutor {
	e := &AgentFunctionExecutor{
		Users:    users,
		Postings: postings,
		Billings: billings,
	}
	e.handlers = map[string]agentHandler{
		"get_user_info":                e.getUserInfo,
		"get_posting_list":             e.getPostingList,
		"get_posting_detail":           e.getPostingDetail,
		"filter_postings":              e.filterPostings,
		"get_my_applications":          e.getMyApplications,
		"get_my_postings":              e.getMyPostings,
		"get_applications_for_posting": e.getApplicationsForPosting,
		"get_billing_list":             e.getBillingList,
		"get_billing_detail":           e.getBillingDetail,
		"update_user_profile":          e.updateUserProfile,
		"update_company_profile":       e.updateCompanyProfile,
		"create_posting":               e.createPosting,
		"update_posting":               e.updatePosting,
		"delete_posting":               e.deletePosting,
		"apply_to_posting":             e.applyToPosting,
		"update_application_status":    e.updateApplicationStatus,
	}
	return e
}

// Execute runs one tool call for the authenticated caller and returns the
// serialized result. The caller id always comes from the token, never from
// the model's arguments (get_user_info's read-only lookup excepted).
func (e *AgentFunctionExecutor) Execute(functionName, argumentsJSON string, callerID uint) string {
	handler, ok := e.handlers[functionName]
	if !ok {
		return errorPayload(fmt.Sprintf("Unknown function: %s", functionName))
	}

	result, err := handler(argumentsJSON, callerID)
	if err != nil {
		return errorPayload(err.Error())
	}
	return serializeStripped(result)
}

func (e *AgentFunctionExecutor) getUserInfo(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		UserID *uint `json:"userId"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	userID := callerID
	if args.UserID != nil {
		userID = *args.UserID
	}
	return e.Users.GetUserByID(userID)
}

func (e *AgentFunctionExecutor) getPostingList(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		Page     *int  `json:"page"`
		Size     *int  `json:"size"`
		PosterID *uint `json:"posterId"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}

	// company callers only ever see their own postings
	posterID := args.PosterID
	caller, err := e.Users.GetUserByID(callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role == model.RoleCompany {
		posterID = &callerID
	}
	return e.Postings.GetPosterPage(intOrDefault(args.Page, 0), intOrDefault(args.Size, 20), posterID)
}

func (e *AgentFunctionExecutor) getPostingDetail(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		PostingID uint `json:"postingId"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	detail, err := e.Postings.GetDetail(args.PostingID)
	if errors.Is(err, ErrPostingNotFound) {
		return map[string]any{"error": "Posting not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (e *AgentFunctionExecutor) filterPostings(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		PostingIDs []uint `json:"postingIds"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	details := make([]*PostingDetail, 0, len(args.PostingIDs))
	for _, id := range args.PostingIDs {
		detail, err := e.Postings.GetDetail(id)
		if err != nil {
			continue
		}
		details = append(details, detail)
	}
	return details, nil
}

func (e *AgentFunctionExecutor) getMyApplications(argumentsJSON string, callerID uint) (any, error) {
	return e.Postings.GetApplicationsByUser(callerID)
}

func (e *AgentFunctionExecutor) getMyPostings(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		Page *int `json:"page"`
		Size *int `json:"size"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	posterID := callerID
	return e.Postings.GetPosterPage(intOrDefault(args.Page, 0), intOrDefault(args.Size, 20), &posterID)
}

func (e *AgentFunctionExecutor) getApplicationsForPosting(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		PostingID uint `json:"postingId"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	return e.Postings.GetApplicationsByPosting(args.PostingID, callerID)
}

func (e *AgentFunctionExecutor) getBillingList(argumentsJSON string, callerID uint) (any, error) {
	return e.Billings.GetAllBillingsByCompany(callerID)
}

func (e *AgentFunctionExecutor) getBillingDetail(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		BillingID uint `json:"billingId"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	return e.Billings.GetBillingDetail(args.BillingID, callerID)
}

func (e *AgentFunctionExecutor) updateUserProfile(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phoneNumber"`
		Description string `json:"description"`
		BankNumber  string `json:"bankNumber"`
		BankName    string `json:"bankName"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	// images cannot be changed through the agent
	if err := e.Users.UpdateUserProfile(callerID, args.Name, args.PhoneNumber, args.Description, args.BankNumber, args.BankName, nil); err != nil {
		return nil, err
	}
	return successPayload("프로필이 업데이트되었습니다."), nil
}

func (e *AgentFunctionExecutor) updateCompanyProfile(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		Name        string `json:"name"`
		CompanyCode string `json:"companyCode"`
		CompanyURL  string `json:"companyUrl"`
		Description string `json:"description"`
		BankNumber  string `json:"bankNumber"`
		BankName    string `json:"bankName"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	if err := e.Users.UpdateCompanyProfile(callerID, args.Name, args.CompanyCode, args.CompanyURL, args.Description, args.BankNumber, args.BankName, nil, nil); err != nil {
		return nil, err
	}
	return successPayload("회사 프로필이 업데이트되었습니다."), nil
}

func (e *AgentFunctionExecutor) createPosting(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		Title        string `json:"title"`
		Body         string `json:"body"`
		Compensation int64  `json:"compensation"`
		Tags         string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	return e.Postings.CreatePosting(callerID, CreatePostingRequest{
		Title:        args.Title,
		Body:         args.Body,
		Compensation: args.Compensation,
		Tags:         splitTags(args.Tags),
	})
}

func (e *AgentFunctionExecutor) updatePosting(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		PostingID    uint   `json:"postingId"`
		Title        string `json:"title"`
		Body         string `json:"body"`
		Compensation int64  `json:"compensation"`
		Tags         string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	return e.Postings.UpdatePosting(args.PostingID, callerID, CreatePostingRequest{
		Title:        args.Title,
		Body:         args.Body,
		Compensation: args.Compensation,
		Tags:         splitTags(args.Tags),
	})
}

func (e *AgentFunctionExecutor) deletePosting(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		PostingID uint `json:"postingId"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	if err := e.Postings.DeletePosting(args.PostingID, callerID); err != nil {
		return nil, err
	}
	return successPayload("공고가 삭제되었습니다."), nil
}

func (e *AgentFunctionExecutor) applyToPosting(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		PostingID uint `json:"postingId"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	if err := e.Postings.ApplyToPosting(callerID, args.PostingID); err != nil {
		return nil, err
	}
	return successPayload("공고에 지원했습니다."), nil
}

func (e *AgentFunctionExecutor) updateApplicationStatus(argumentsJSON string, callerID uint) (any, error) {
	var args struct {
		ApplicationID uint   `json:"applicationId"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, err
	}
	status := model.ApplicationStatus(strings.ToUpper(args.Status))
	switch status {
	case model.ApplicationPending, model.ApplicationApproved, model.ApplicationRejected:
	default:
		return nil, fmt.Errorf("invalid application status: %s", args.Status)
	}
	if err := e.Postings.UpdateApplicationStatus(args.ApplicationID, status, callerID); err != nil {
		return nil, err
	}
	return successPayload("지원 상태가 변경되었습니다."), nil
}

// serializeStripped round-trips the value through JSON and removes the
// denylisted fields at every depth before serializing the final payload.
func serializeStripped(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return errorPayload(err.Error())
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return string(raw)
	}
	stripped := StripLargeFields(tree)
	out, err := json.Marshal(stripped)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// StripLargeFields walks a json-decoded value and returns a copy with the
// denylisted field names removed from every object, arrays included. It is
// total: any value it does not recognize passes through unchanged.
func StripLargeFields(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for key, value := range node {
			if strippedFields[key] {
				continue
			}
			out[key] = StripLargeFields(value)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, value := range node {
			out[i] = StripLargeFields(value)
		}
		return out
	default:
		return v
	}
}

func errorPayload(message string) string {
	out, _ := json.Marshal(map[string]any{"error": message})
	return string(out)
}

func successPayload(message string) map[string]any {
	return map[string]any{"success": true, "message": message}
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

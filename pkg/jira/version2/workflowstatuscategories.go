package version2

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tansive/jiraclient/pkg/jira"
)

// WorkflowStatusCategories covers /rest/api/2/statuscategory.
type WorkflowStatusCategories struct {
	client *jira.Client
}

func NewWorkflowStatusCategories(c *jira.Client) *WorkflowStatusCategories {
	return &WorkflowStatusCategories{client: c}
}

// GetStatusCategories returns a list of all status categories.
//
// Permissions required: permission to access Jira.
func (w *WorkflowStatusCategories) GetStatusCategories(ctx context.Context) ([]StatusCategory, error) {
	return jira.Do[[]StatusCategory](ctx, w.client, getStatusCategoriesRequest())
}

// GetStatusCategoriesWithCallback is GetStatusCategories with callback
// delivery. cb must not be nil.
func (w *WorkflowStatusCategories) GetStatusCategoriesWithCallback(ctx context.Context, cb jira.Callback[[]StatusCategory]) {
	jira.DoCallback(ctx, w.client, getStatusCategoriesRequest(), cb)
}

// GetStatusCategory returns a status category. Status categories provide a
// mechanism for categorizing statuses.
//
// Permissions required: permission to access Jira.
func (w *WorkflowStatusCategories) GetStatusCategory(ctx context.Context, params GetStatusCategory) (*StatusCategory, error) {
	if err := validateParams(params); err != nil {
		return jira.Fail[*StatusCategory](err, nil)
	}
	return jira.Do[*StatusCategory](ctx, w.client, getStatusCategoryRequest(params))
}

// GetStatusCategoryWithCallback is GetStatusCategory with callback delivery.
// cb must not be nil.
func (w *WorkflowStatusCategories) GetStatusCategoryWithCallback(ctx context.Context, params GetStatusCategory, cb jira.Callback[*StatusCategory]) {
	jira.MustCallback(cb)
	if err := validateParams(params); err != nil {
		jira.Fail(err, cb)
		return
	}
	jira.DoCallback(ctx, w.client, getStatusCategoryRequest(params), cb)
}

func getStatusCategoriesRequest() jira.RequestDescriptor {
	return jira.RequestDescriptor{
		Method:    http.MethodGet,
		Path:      "/rest/api/2/statuscategory",
		Operation: "getStatusCategories",
	}
}

func getStatusCategoryRequest(params GetStatusCategory) jira.RequestDescriptor {
	return jira.RequestDescriptor{
		Method:    http.MethodGet,
		Path:      "/rest/api/2/statuscategory/" + url.PathEscape(params.IDOrKey),
		Operation: "getStatusCategory",
	}
}

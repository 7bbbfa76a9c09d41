// Package version2 groups the Jira REST API v2 endpoints by resource. Each
// endpoint comes in two forms: one returning the typed result and an error,
// and a WithCallback form that delivers the same outcome to a callback.
package version2

import "github.com/tansive/jiraclient/pkg/jira"

// Version2 exposes the v2 resource groups over one client.
type Version2 struct {
	WorkflowStatusCategories *WorkflowStatusCategories
}

// New returns the v2 resource groups bound to c.
func New(c *jira.Client) *Version2 {
	return &Version2{
		WorkflowStatusCategories: NewWorkflowStatusCategories(c),
	}
}

package version2

import (
	"github.com/go-playground/validator/v10"
	"github.com/tansive/jiraclient/pkg/jira"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GetStatusCategory identifies a status category by ID or key.
type GetStatusCategory struct {
	IDOrKey string `validate:"required"`
}

func validateParams(p any) error {
	if err := validate.Struct(p); err != nil {
		return jira.ErrInvalidRequest.MsgErr("invalid parameters", err)
	}
	return nil
}

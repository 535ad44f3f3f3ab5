package types

type CreateBranchRequest struct {
    Name          string         `json:"name" validate:"required"`
    Parent        string         `json:"parent" validate:"required"`
    Strategy      string         `json:"strategy" validate:"required"`
    Configuration map[string]any `json:"configuration"`
}

package activity

import "github.com/WailSalutem-Health-Care/clinic-gateway/internal/pagination"

// Entry is one line of the clinic's audit trail.
type Entry struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name,omitempty"`
	Role        string `json:"role,omitempty"`
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type ListResponse struct {
	Success    bool            `json:"success"`
	Logs       []Entry         `json:"logs"`
	Pagination pagination.Meta `json:"pagination"`
}

package service

// Request and response messages for the Connect services. All amounts cross
// the wire as decimal strings ("10.00"), never as floats; internal/money
// converts them to cents at this boundary.

// UserInfo is the client-visible view of a user.
type UserInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  UserInfo `json:"user"`
	Token string   `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  UserInfo `json:"user"`
	Token string   `json:"token"`
}

// GroupInfo is the client-visible view of a group.
type GroupInfo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	ChatID    int64    `json:"chat_id,omitempty"`
	MemberIDs []string `json:"member_ids"`
	CreatedAt int64    `json:"created_at"`
}

type CreateGroupRequest struct {
	Name      string   `json:"name"`
	ChatID    int64    `json:"chat_id,omitempty"`
	MemberIDs []string `json:"member_ids,omitempty"`
}

type CreateGroupResponse struct {
	Group GroupInfo `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group GroupInfo `json:"group"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type AddMemberResponse struct{}

type ListMembersRequest struct {
	GroupID string `json:"group_id"`
}

type ListMembersResponse struct {
	Members []UserInfo `json:"members"`
}

// SplitInput is one member's share of a new expense.
type SplitInput struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

type RecordExpenseRequest struct {
	GroupID     string       `json:"group_id"`
	Description string       `json:"description"`
	Amount      string       `json:"amount"`
	PayerID     string       `json:"payer_id,omitempty"` // defaults to the caller
	Splits      []SplitInput `json:"splits"`
}

type RecordExpenseResponse struct {
	ExpenseID string `json:"expense_id"`
}

type RemoveExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type RemoveExpenseResponse struct{}

// DebtInfo is one proposed settling payment.
type DebtInfo struct {
	FromUserID string `json:"from_user_id"`
	FromName   string `json:"from_name"`
	ToUserID   string `json:"to_user_id"`
	ToName     string `json:"to_name"`
	Amount     string `json:"amount"`
}

type ComputeSimplifiedDebtsRequest struct {
	GroupID string `json:"group_id"`
}

type ComputeSimplifiedDebtsResponse struct {
	Debts []DebtInfo `json:"debts"`
}

// SettlementInput is one accepted simplified debt to record as paid.
type SettlementInput struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
}

type RecordSettlementRequest struct {
	GroupID     string            `json:"group_id"`
	Settlements []SettlementInput `json:"settlements"`
}

type RecordSettlementResponse struct {
	SettlementIDs []string `json:"settlement_ids"`
}

type RemoveSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type RemoveSettlementResponse struct{}

// BalanceInfo is one member's net position: positive means the group owes
// them, negative means they owe the group.
type BalanceInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Net         string `json:"net"`
}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	Balances []BalanceInfo `json:"balances"`
}

type ExpenseSplitInfo struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

type ExpenseInfo struct {
	ID          string             `json:"id"`
	Description string             `json:"description"`
	Amount      string             `json:"amount"`
	PaidBy      string             `json:"paid_by"`
	CreatedAt   int64              `json:"created_at"`
	Splits      []ExpenseSplitInfo `json:"splits"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []ExpenseInfo `json:"expenses"`
}

type SettlementInfo struct {
	ID         string `json:"id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	CreatedAt  int64  `json:"created_at"`
	CreatedBy  string `json:"created_by"`
	Note       string `json:"note,omitempty"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []SettlementInfo `json:"settlements"`
}

// GroupScope implementations let the logging middleware tag access logs
// with the group a request targets.

func (r *GetGroupRequest) GroupScope() string               { return r.GroupID }
func (r *AddMemberRequest) GroupScope() string              { return r.GroupID }
func (r *ListMembersRequest) GroupScope() string            { return r.GroupID }
func (r *RecordExpenseRequest) GroupScope() string          { return r.GroupID }
func (r *ComputeSimplifiedDebtsRequest) GroupScope() string { return r.GroupID }
func (r *RecordSettlementRequest) GroupScope() string       { return r.GroupID }
func (r *GetBalancesRequest) GroupScope() string            { return r.GroupID }
func (r *ListExpensesRequest) GroupScope() string           { return r.GroupID }
func (r *ListSettlementsRequest) GroupScope() string        { return r.GroupID }

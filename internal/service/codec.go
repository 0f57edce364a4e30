package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/coconutsplit/coconutsplit/internal/ledger"
	"github.com/coconutsplit/coconutsplit/internal/storage"
)

// Procedure paths follow the Connect naming convention so clients address
// services the same way generated stubs would.
const (
	AuthRegisterProcedure = "/coconutsplit.v1.AuthService/Register"
	AuthLoginProcedure    = "/coconutsplit.v1.AuthService/Login"

	GroupCreateProcedure      = "/coconutsplit.v1.GroupService/CreateGroup"
	GroupGetProcedure         = "/coconutsplit.v1.GroupService/GetGroup"
	GroupAddMemberProcedure   = "/coconutsplit.v1.GroupService/AddMember"
	GroupListMembersProcedure = "/coconutsplit.v1.GroupService/ListMembers"

	LedgerRecordExpenseProcedure    = "/coconutsplit.v1.LedgerService/RecordExpense"
	LedgerRemoveExpenseProcedure    = "/coconutsplit.v1.LedgerService/RemoveExpense"
	LedgerSimplifiedDebtsProcedure  = "/coconutsplit.v1.LedgerService/ComputeSimplifiedDebts"
	LedgerRecordSettlementProcedure = "/coconutsplit.v1.LedgerService/RecordSettlement"
	LedgerRemoveSettlementProcedure = "/coconutsplit.v1.LedgerService/RemoveSettlement"
	LedgerGetBalancesProcedure      = "/coconutsplit.v1.LedgerService/GetBalances"
	LedgerListExpensesProcedure     = "/coconutsplit.v1.LedgerService/ListExpenses"
	LedgerListSettlementsProcedure  = "/coconutsplit.v1.LedgerService/ListSettlements"
)

// jsonCodec serializes RPC messages with encoding/json. The services carry
// plain Go structs over the Connect protocol; there is no protobuf schema.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	return json.Unmarshal(data, message)
}

// handlerOptions prepends the JSON codec to caller-supplied options.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

// ClientOptions returns the options a connect.Client needs to talk to these
// services: the matching JSON codec.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{connect.WithCodec(jsonCodec{})}
}

// NewAuthServiceHandler returns the path prefix and handler for AuthService.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthRegisterProcedure, connect.NewUnaryHandler(AuthRegisterProcedure, svc.Register, o...))
	mux.Handle(AuthLoginProcedure, connect.NewUnaryHandler(AuthLoginProcedure, svc.Login, o...))
	return "/coconutsplit.v1.AuthService/", mux
}

// NewGroupServiceHandler returns the path prefix and handler for GroupService.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GroupCreateProcedure, connect.NewUnaryHandler(GroupCreateProcedure, svc.CreateGroup, o...))
	mux.Handle(GroupGetProcedure, connect.NewUnaryHandler(GroupGetProcedure, svc.GetGroup, o...))
	mux.Handle(GroupAddMemberProcedure, connect.NewUnaryHandler(GroupAddMemberProcedure, svc.AddMember, o...))
	mux.Handle(GroupListMembersProcedure, connect.NewUnaryHandler(GroupListMembersProcedure, svc.ListMembers, o...))
	return "/coconutsplit.v1.GroupService/", mux
}

// NewLedgerServiceHandler returns the path prefix and handler for LedgerService.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(LedgerRecordExpenseProcedure, connect.NewUnaryHandler(LedgerRecordExpenseProcedure, svc.RecordExpense, o...))
	mux.Handle(LedgerRemoveExpenseProcedure, connect.NewUnaryHandler(LedgerRemoveExpenseProcedure, svc.RemoveExpense, o...))
	mux.Handle(LedgerSimplifiedDebtsProcedure, connect.NewUnaryHandler(LedgerSimplifiedDebtsProcedure, svc.ComputeSimplifiedDebts, o...))
	mux.Handle(LedgerRecordSettlementProcedure, connect.NewUnaryHandler(LedgerRecordSettlementProcedure, svc.RecordSettlement, o...))
	mux.Handle(LedgerRemoveSettlementProcedure, connect.NewUnaryHandler(LedgerRemoveSettlementProcedure, svc.RemoveSettlement, o...))
	mux.Handle(LedgerGetBalancesProcedure, connect.NewUnaryHandler(LedgerGetBalancesProcedure, svc.GetBalances, o...))
	mux.Handle(LedgerListExpensesProcedure, connect.NewUnaryHandler(LedgerListExpensesProcedure, svc.ListExpenses, o...))
	mux.Handle(LedgerListSettlementsProcedure, connect.NewUnaryHandler(LedgerListSettlementsProcedure, svc.ListSettlements, o...))
	return "/coconutsplit.v1.LedgerService/", mux
}

// asConnectError maps core and storage errors onto Connect codes.
func asConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSplitMismatch),
		errors.Is(err, ledger.ErrInvalidBalanceInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrNotAGroupMember):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrLedgerWriteConflict):
		return connect.NewError(connect.CodeAborted, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

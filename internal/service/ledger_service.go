package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/coconutsplit/coconutsplit/internal/ledger"
	"github.com/coconutsplit/coconutsplit/internal/middleware"
	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/money"
	"github.com/coconutsplit/coconutsplit/internal/notify"
	"github.com/coconutsplit/coconutsplit/internal/storage"
)

// LedgerService records expenses and settlements against a group's pairwise
// debt ledger and proposes simplified repayment plans.
//
// Every event writes in two phases: the history record first, then its
// balance increments in one storage transaction. If the increments fail the
// history record is rolled back best-effort, so the balance table stays the
// source of truth.
type LedgerService struct {
	store    storage.Store
	acc      *ledger.Accumulator
	notifier *notify.Publisher
}

// NewLedgerService creates a LedgerService. notifier may be nil, in which
// case settlement notifications are skipped.
func NewLedgerService(store storage.Store, notifier *notify.Publisher) *LedgerService {
	return &LedgerService{
		store:    store,
		acc:      ledger.NewAccumulator(store),
		notifier: notifier,
	}
}

func parseAmount(s string) (money.Amount, error) {
	amt, err := money.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ledger.ErrInvalidAmount, s, err)
	}
	return amt, nil
}

// memberSet loads a group and returns it with its membership as a set.
func (s *LedgerService) memberSet(ctx context.Context, groupID string) (*models.Group, map[string]bool, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	set := make(map[string]bool, len(group.MemberIDs))
	for _, id := range group.MemberIDs {
		set[id] = true
	}
	return group, set, nil
}

// RecordExpense validates and persists an expense, then folds its mirrored
// increments into the group's balances.
func (s *LedgerService) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if len(req.Msg.Splits) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("at least one split is required"))
	}

	group, members, err := s.memberSet(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, asConnectError(err)
	}

	payerID := req.Msg.PayerID
	if payerID == "" {
		payerID = callerID
	}
	if !members[callerID] {
		return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, callerID))
	}
	if !members[payerID] {
		return nil, asConnectError(fmt.Errorf("%w: payer %s", ledger.ErrNotAGroupMember, payerID))
	}

	total, err := parseAmount(req.Msg.Amount)
	if err != nil {
		return nil, asConnectError(err)
	}
	splits := make([]models.Split, 0, len(req.Msg.Splits))
	for _, in := range req.Msg.Splits {
		if !members[in.UserID] {
			return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, in.UserID))
		}
		amt, err := parseAmount(in.Amount)
		if err != nil {
			return nil, asConnectError(err)
		}
		splits = append(splits, models.Split{UserID: in.UserID, Amount: amt})
	}

	// Validate before any write so invalid expenses never reach storage.
	if _, err := ledger.ExpenseIncrements(payerID, total, splits); err != nil {
		return nil, asConnectError(err)
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		Description: req.Msg.Description,
		Amount:      total,
		PaidBy:      payerID,
		Splits:      splits,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if err := s.acc.ApplyExpenseAdded(ctx, expense); err != nil {
		slog.Error("Expense increments failed, rolling back", "expense_id", expense.ID, "error", err)
		if delErr := s.store.DeleteExpense(ctx, expense.ID); delErr != nil {
			slog.Error("Expense rollback failed", "expense_id", expense.ID, "error", delErr)
		}
		return nil, asConnectError(err)
	}

	ledgerEvents.WithLabelValues("expense_added").Inc()
	slog.Info("Expense recorded", "expense_id", expense.ID, "group_id", group.ID, "amount", total.String())
	return connect.NewResponse(&RecordExpenseResponse{ExpenseID: expense.ID}), nil
}

// RemoveExpense deletes an expense and replays the exact negation of its
// original splits, restoring balances to their prior state.
func (s *LedgerService) RemoveExpense(ctx context.Context, req *connect.Request[RemoveExpenseRequest]) (*connect.Response[RemoveExpenseResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, asConnectError(err)
	}
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, asConnectError(err)
	}
	if !group.HasMember(callerID) {
		return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, callerID))
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, asConnectError(err)
	}
	if err := s.acc.ApplyExpenseRemoved(ctx, expense); err != nil {
		slog.Error("Expense removal increments failed, restoring", "expense_id", expense.ID, "error", err)
		if creErr := s.store.CreateExpense(ctx, expense); creErr != nil {
			slog.Error("Expense restore failed", "expense_id", expense.ID, "error", creErr)
		}
		return nil, asConnectError(err)
	}

	ledgerEvents.WithLabelValues("expense_removed").Inc()
	slog.Info("Expense removed", "expense_id", expense.ID, "group_id", expense.GroupID)
	return connect.NewResponse(&RemoveExpenseResponse{}), nil
}

// ComputeSimplifiedDebts proposes the minimal payment set that clears every
// net balance in the group. It reads, never writes: the same ledger state
// always yields the same plan.
func (s *LedgerService) ComputeSimplifiedDebts(ctx context.Context, req *connect.Request[ComputeSimplifiedDebtsRequest]) (*connect.Response[ComputeSimplifiedDebtsResponse], error) {
	_, members, err := s.memberSet(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, asConnectError(err)
	}
	rows, err := s.store.ReadPositiveBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	start := time.Now()
	debts, err := ledger.Simplify(rows, members)
	simplifyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, asConnectError(err)
	}

	names, err := s.displayNames(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	resp := &ComputeSimplifiedDebtsResponse{Debts: make([]DebtInfo, 0, len(debts))}
	for _, d := range debts {
		resp.Debts = append(resp.Debts, DebtInfo{
			FromUserID: d.FromUserID,
			FromName:   names[d.FromUserID],
			ToUserID:   d.ToUserID,
			ToName:     names[d.ToUserID],
			Amount:     d.Amount.String(),
		})
	}
	return connect.NewResponse(resp), nil
}

// RecordSettlement persists a batch of settlements and applies their debt
// reversals as one atomic ledger write. Either the whole batch lands or the
// balances are untouched.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if len(req.Msg.Settlements) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("at least one settlement is required"))
	}

	group, members, err := s.memberSet(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, asConnectError(err)
	}
	if !members[callerID] {
		return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, callerID))
	}

	settlements := make([]*models.Settlement, 0, len(req.Msg.Settlements))
	debts := make([]models.SimplifiedDebt, 0, len(req.Msg.Settlements))
	for _, in := range req.Msg.Settlements {
		if !members[in.FromUserID] {
			return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, in.FromUserID))
		}
		if !members[in.ToUserID] {
			return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, in.ToUserID))
		}
		amt, err := parseAmount(in.Amount)
		if err != nil {
			return nil, asConnectError(err)
		}
		if _, err := ledger.SettlementIncrements(in.FromUserID, in.ToUserID, amt); err != nil {
			return nil, asConnectError(err)
		}
		settlements = append(settlements, &models.Settlement{
			GroupID:    group.ID,
			FromUserID: in.FromUserID,
			ToUserID:   in.ToUserID,
			Amount:     amt,
			CreatedBy:  callerID,
			Note:       in.Note,
		})
		debts = append(debts, models.SimplifiedDebt{
			FromUserID: in.FromUserID,
			ToUserID:   in.ToUserID,
			Amount:     amt,
		})
	}

	if err := s.store.CreateSettlements(ctx, settlements); err != nil {
		slog.Error("CreateSettlements failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if err := s.acc.ApplySettlementsRecorded(ctx, group.ID, debts); err != nil {
		slog.Error("Settlement increments failed, rolling back", "group_id", group.ID, "error", err)
		for _, st := range settlements {
			if delErr := s.store.DeleteSettlement(ctx, st.ID); delErr != nil {
				slog.Error("Settlement rollback failed", "settlement_id", st.ID, "error", delErr)
			}
		}
		return nil, asConnectError(err)
	}

	ledgerEvents.WithLabelValues("settlement_recorded").Add(float64(len(settlements)))
	s.notifier.PublishSettlements(ctx, settlements)

	resp := &RecordSettlementResponse{SettlementIDs: make([]string, 0, len(settlements))}
	for _, st := range settlements {
		resp.SettlementIDs = append(resp.SettlementIDs, st.ID)
	}
	slog.Info("Settlements recorded", "group_id", group.ID, "count", len(settlements))
	return connect.NewResponse(resp), nil
}

// RemoveSettlement deletes a settlement record and reinstates the debt it
// had cleared.
func (s *LedgerService) RemoveSettlement(ctx context.Context, req *connect.Request[RemoveSettlementRequest]) (*connect.Response[RemoveSettlementResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	settlement, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		return nil, asConnectError(err)
	}
	group, err := s.store.GetGroup(ctx, settlement.GroupID)
	if err != nil {
		return nil, asConnectError(err)
	}
	if !group.HasMember(callerID) {
		return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, callerID))
	}

	if err := s.store.DeleteSettlement(ctx, settlement.ID); err != nil {
		return nil, asConnectError(err)
	}
	if err := s.acc.ApplySettlementRemoved(ctx, settlement); err != nil {
		slog.Error("Settlement removal increments failed, restoring", "settlement_id", settlement.ID, "error", err)
		if creErr := s.store.CreateSettlements(ctx, []*models.Settlement{settlement}); creErr != nil {
			slog.Error("Settlement restore failed", "settlement_id", settlement.ID, "error", creErr)
		}
		return nil, asConnectError(err)
	}

	ledgerEvents.WithLabelValues("settlement_removed").Inc()
	slog.Info("Settlement removed", "settlement_id", settlement.ID, "group_id", settlement.GroupID)
	return connect.NewResponse(&RemoveSettlementResponse{}), nil
}

// GetBalances returns every member's net position, including members at
// exactly zero.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, asConnectError(err)
	}

	rows, err := s.store.ReadPositiveBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	nets := ledger.NetBalances(rows)

	members, err := s.store.ListGroupMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &GetBalancesResponse{Balances: make([]BalanceInfo, 0, len(members))}
	for _, m := range members {
		resp.Balances = append(resp.Balances, BalanceInfo{
			UserID:      m.ID,
			DisplayName: m.DisplayName,
			Net:         nets[m.ID].String(),
		})
	}
	return connect.NewResponse(resp), nil
}

// ListExpenses returns a group's expense history, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, asConnectError(err)
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ListExpensesResponse{Expenses: make([]ExpenseInfo, 0, len(expenses))}
	for _, e := range expenses {
		info := ExpenseInfo{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.String(),
			PaidBy:      e.PaidBy,
			CreatedAt:   e.CreatedAt,
			Splits:      make([]ExpenseSplitInfo, 0, len(e.Splits)),
		}
		for _, sp := range e.Splits {
			info.Splits = append(info.Splits, ExpenseSplitInfo{UserID: sp.UserID, Amount: sp.Amount.String()})
		}
		resp.Expenses = append(resp.Expenses, info)
	}
	return connect.NewResponse(resp), nil
}

// ListSettlements returns a group's settlement history, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, asConnectError(err)
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ListSettlementsResponse{Settlements: make([]SettlementInfo, 0, len(settlements))}
	for _, st := range settlements {
		resp.Settlements = append(resp.Settlements, SettlementInfo{
			ID:         st.ID,
			FromUserID: st.FromUserID,
			ToUserID:   st.ToUserID,
			Amount:     st.Amount.String(),
			CreatedAt:  st.CreatedAt,
			CreatedBy:  st.CreatedBy,
			Note:       st.Note,
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *LedgerService) displayNames(ctx context.Context, groupID string) (map[string]string, error) {
	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName
	}
	return names, nil
}

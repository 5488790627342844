package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/trustfreeze/backend/internal/models"
)

var exportHeader = []string{
	"id", "operation_id", "created_at", "target_account", "asset_code", "asset_issuer",
	"action", "scope", "tx_hash", "initiated_by", "reason",
}

// ExportLogs writes every audit row matching filter to w as CSV, newest first.
// Page and Limit of the filter are ignored.
func (s *FreezeService) ExportLogs(ctx context.Context, filter LogFilter, w io.Writer) error {
	filter.Page, filter.Limit = 0, 0
	filter, err := normalizeLogFilter(filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	var written int64
	for offset := 0; ; offset += MaxLogLimit {
		rows, total, err := s.store.List(ctx, filter, offset, MaxLogLimit)
		if err != nil {
			return err
		}
		for i := range rows {
			if err := cw.Write(exportRecord(&rows[i])); err != nil {
				return fmt.Errorf("write export row: %w", err)
			}
		}
		written += int64(len(rows))
		if len(rows) < MaxLogLimit || written >= total {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

func exportRecord(l *models.FreezeAuditLog) []string {
	reason := ""
	if l.Reason != nil {
		reason = escapeFormula(*l.Reason)
	}
	return []string{
		strconv.FormatUint(uint64(l.ID), 10),
		l.OperationID,
		l.CreatedAt.UTC().Format(time.RFC3339Nano),
		l.TargetAccount,
		l.AssetCode,
		l.AssetIssuer,
		string(l.Action),
		string(l.Scope),
		l.TxHash,
		l.InitiatedBy,
		reason,
	}
}

// escapeFormula keeps spreadsheet applications from evaluating free text.
func escapeFormula(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"defter/internal/amqp"
	"defter/internal/core"
	applog "defter/internal/log"
)

// ImportFormat selects the decoder for a legacy export.
type ImportFormat string

const (
	FormatJSON ImportFormat = "json"
	FormatYAML ImportFormat = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) ImportFormat {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// legacyExport mirrors the browser database dump: amounts are floats,
// transactions point at their entity through customerId and dates are
// either ISO strings or already formatted labels.
type legacyExport struct {
	Entities     []legacyEntity      `json:"entities" yaml:"entities"`
	Transactions []legacyTransaction `json:"transactions" yaml:"transactions"`
}

type legacyEntity struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	PhoneNumber string `json:"phoneNumber" yaml:"phoneNumber"`
	Note        string `json:"note" yaml:"note"`
}

type legacyTransaction struct {
	ID         int64   `json:"id" yaml:"id"`
	CustomerID int64   `json:"customerId" yaml:"customerId"`
	Type       string  `json:"type" yaml:"type"`
	Amount     float64 `json:"amount" yaml:"amount"`
	Date       string  `json:"date" yaml:"date"`
	Note       string  `json:"note" yaml:"note"`
}

// ErrImportPartial means a failed import could not remove everything it
// had written; running it again will duplicate the leftovers.
var ErrImportPartial = errors.New("import partially applied")

// ImportResult counts what an import wrote and what it had to skip.
type ImportResult struct {
	Entities     int
	Transactions int
	Skipped      int
	// IDMap maps legacy entity ids to the ids assigned on import.
	IDMap map[int64]int64
}

// Import loads a legacy export. Entities get fresh ids; transactions keep
// their original type labels so the classifier decides their polarity.
// Invalid rows are skipped and logged. A store failure undoes the entities
// created so far, so a failed import can be run again without duplicates.
func (s *LedgerService) Import(ctx context.Context, r io.Reader, format ImportFormat) (ImportResult, error) {
	var export legacyExport
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&export); err != nil {
			return ImportResult{}, fmt.Errorf("%w: decode json export: %w", ErrValidation, err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&export); err != nil {
			return ImportResult{}, fmt.Errorf("%w: decode yaml export: %w", ErrValidation, err)
		}
	default:
		return ImportResult{}, fmt.Errorf("%w: unsupported import format %q", ErrValidation, format)
	}

	result := ImportResult{IDMap: make(map[int64]int64, len(export.Entities))}

	for _, le := range export.Entities {
		e := core.Entity{
			Name:        strings.TrimSpace(le.Name),
			PhoneNumber: strings.TrimSpace(le.PhoneNumber),
			Note:        le.Note,
		}
		if err := e.Validate(); err != nil {
			s.logger.WarnContext(ctx, "Skipping legacy entity", "legacy_id", le.ID, applog.FieldError, err)
			result.Skipped++
			continue
		}
		id, err := s.store.CreateEntity(ctx, e)
		if err != nil {
			return ImportResult{}, s.abortImport(ctx, result.IDMap, fmt.Errorf("import entity %d: %w", le.ID, err))
		}
		result.IDMap[le.ID] = id
		result.Entities++
	}

	touched := make(map[int64]struct{})
	for _, lt := range export.Transactions {
		entityID, ok := result.IDMap[lt.CustomerID]
		if !ok {
			s.logger.WarnContext(ctx, "Skipping transaction of unknown entity",
				"legacy_id", lt.ID, "customer_id", lt.CustomerID)
			result.Skipped++
			continue
		}
		amount, err := core.MoneyFromFloat(lt.Amount)
		if err != nil || amount.Cents < 0 {
			s.logger.WarnContext(ctx, "Skipping transaction with invalid amount",
				"legacy_id", lt.ID, "amount", lt.Amount)
			result.Skipped++
			continue
		}

		tx := core.Transaction{
			EntityID: entityID,
			Type:     lt.Type,
			Amount:   amount,
			Note:     lt.Note,
		}
		if d, ok := parseLegacyDate(lt.Date); ok {
			tx.Date = d
		} else {
			tx.DateLabel = strings.TrimSpace(lt.Date)
		}

		if _, err := s.store.AddTransaction(ctx, tx); err != nil {
			return ImportResult{}, s.abortImport(ctx, result.IDMap, fmt.Errorf("import transaction %d: %w", lt.ID, err))
		}
		if core.Classify(lt.Type) == core.PolarityUnknown {
			s.events.LogUnclassified(ctx, entityID, lt.ID, lt.Type, amount.Cents)
		}
		touched[entityID] = struct{}{}
		result.Transactions++
	}

	for _, id := range result.IDMap {
		s.invalidate(id)
		if _, ok := touched[id]; ok {
			s.publish(ctx, amqp.KindTransactionRecorded, id)
		} else {
			s.publish(ctx, amqp.KindEntityCreated, id)
		}
	}

	s.logger.InfoContext(ctx, "Legacy export imported",
		applog.FieldOperation, applog.OpImport,
		"entities", result.Entities,
		"transactions", result.Transactions,
		"skipped", result.Skipped)
	return result, nil
}

// abortImport deletes the entities an import created, their transactions
// going with them. Nothing was published yet, so no event needs undoing.
func (s *LedgerService) abortImport(ctx context.Context, created map[int64]int64, cause error) error {
	// The caller's context may be the reason for the failure.
	cleanupCtx := context.WithoutCancel(ctx)
	var errs []error
	for legacyID, id := range created {
		if err := s.store.DeleteEntity(cleanupCtx, id); err != nil {
			errs = append(errs, fmt.Errorf("undo entity %d: %w", legacyID, err))
		}
	}
	if len(errs) > 0 {
		s.logger.ErrorContext(ctx, "Import rollback incomplete",
			applog.FieldOperation, applog.OpImport,
			applog.FieldError, errors.Join(errs...))
		return errors.Join(append([]error{cause, ErrImportPartial}, errs...)...)
	}
	s.logger.WarnContext(ctx, "Import failed, created entities removed",
		applog.FieldOperation, applog.OpImport,
		"removed", len(created),
		applog.FieldError, cause)
	return cause
}

func parseLegacyDate(v string) (core.Date, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return core.NewDate(t.Year(), int(t.Month()), t.Day()), true
		}
	}
	return core.Date{}, false
}

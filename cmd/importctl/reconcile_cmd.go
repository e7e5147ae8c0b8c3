package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rigsync/backend/internal/domain"
	"github.com/rigsync/backend/internal/infrastructure/memory"
	"github.com/rigsync/backend/internal/infrastructure/spreadsheet"
	"github.com/rigsync/backend/internal/usecase"
)

type reportMatch struct {
	ProductID         uuid.UUID        `json:"product_id"`
	Product           string           `json:"product"`
	IdentifierCode    string           `json:"identifier_code,omitempty"`
	ConfidencePercent int              `json:"confidence_percent"`
	MatchType         domain.MatchType `json:"match_type"`
}

type reportRow struct {
	Row             int              `json:"row"`
	Status          domain.RowStatus `json:"status"`
	Quantity        int              `json:"quantity"`
	Description     string           `json:"description"`
	ModelCode       string           `json:"model_code,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Matches         []reportMatch    `json:"matches"`
}

type reconcileReport struct {
	File         string      `json:"file"`
	TotalRows    int         `json:"total_rows"`
	ValidRows    int         `json:"valid_rows"`
	RejectedRows int         `json:"rejected_rows"`
	Matched      int         `json:"matched"`
	Rows         []reportRow `json:"rows"`
}

func newReconcileCmd() *cobra.Command {
	var (
		catalogPath   string
		format        string
		top           int
		minConfidence float64
		maxRows       int
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile [flags] FILE",
		Short: "Stage and analyze a spreadsheet against a JSON catalog without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid --format %q: want text or json", format)
			}

			logger := zap.NewNop()
			if verbose {
				var err error
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}

			products, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			catalog, err := memory.NewCatalogStore(products...)
			if err != nil {
				return fmt.Errorf("invalid catalog %s: %w", catalogPath, err)
			}
			sessions := memory.NewSessionStore()
			service := usecase.NewImportService(
				catalog,
				sessions,
				memory.NewTransactor(catalog, memory.NewStockStore(), sessions),
				memory.NewLocker(0),
				usecase.ImportConfig{MaxRows: maxRows, AnalyzeMinConfidence: minConfidence},
				logger,
			)

			report, err := reconcile(cmd.Context(), service, catalog, args[0], top)
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeTable(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "JSON file with an array of catalog products (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().IntVar(&top, "top", 3, "Candidates shown per row")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", usecase.AnalyzeMinConfidence, "Lowest confidence surfaced")
	cmd.Flags().IntVar(&maxRows, "max-rows", usecase.DefaultMaxRows, "Maximum data rows accepted")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log matching decisions to stderr")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func loadCatalog(path string) ([]domain.CatalogProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var products []domain.CatalogProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return products, nil
}

func reconcile(
	ctx context.Context,
	service *usecase.ImportService,
	catalog domain.CatalogRepository,
	path string,
	top int,
) (reconcileReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return reconcileReport{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return reconcileReport{}, err
	}
	sheet, err := spreadsheet.NewReader(0).Read(file)
	if err != nil {
		return reconcileReport{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	staged, err := service.Stage(ctx, usecase.StageRequest{
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		FileName:  filepath.Base(path),
		FileSize:  info.Size(),
		Rows:      spreadsheet.MapRows(sheet),
	})
	if err != nil {
		return reconcileReport{}, err
	}
	analyzed, err := service.Analyze(ctx, staged.Session.ID)
	if err != nil {
		return reconcileReport{}, err
	}

	session := analyzed.Session
	report := reconcileReport{
		File:         filepath.Base(path),
		TotalRows:    session.TotalRows,
		ValidRows:    session.ValidRows,
		RejectedRows: session.RejectedRows,
		Rows:         make([]reportRow, 0, len(analyzed.Rows)),
	}
	for _, row := range analyzed.Rows {
		out := reportRow{
			Row:             row.RowNumber,
			Status:          row.Status,
			Quantity:        row.Quantity,
			Description:     row.Description,
			ModelCode:       row.ModelCode,
			RejectionReason: row.RejectionReason,
			Matches:         []reportMatch{},
		}
		for i, c := range row.Candidates {
			if top > 0 && i >= top {
				break
			}
			name := c.ProductID.String()
			if p, err := catalog.FindProductByID(ctx, c.ProductID); err == nil {
				name = p.DisplayName()
			}
			out.Matches = append(out.Matches, reportMatch{
				ProductID:         c.ProductID,
				Product:           name,
				IdentifierCode:    c.IdentifierCode,
				ConfidencePercent: int(math.Round(c.Confidence * 100)),
				MatchType:         c.MatchType,
			})
		}
		if len(out.Matches) > 0 {
			report.Matched++
		}
		report.Rows = append(report.Rows, out)
	}
	return report, nil
}

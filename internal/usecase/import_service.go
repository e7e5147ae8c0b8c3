package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rigsync/backend/internal/domain"
)

// Upload limits
const (
	DefaultMaxRows       = 100
	DefaultMaxFileSizeKB = 20480
)

// ImportConfig is injected at construction; zero values take the defaults
type ImportConfig struct {
	MaxRows       int
	MaxFileSizeKB int

	AnalyzeMinConfidence float64
	CreateMinConfidence  float64
	DuplicateConfidence  float64

	Normalizer NormalizerConfig
}

// StageRequest is a parsed upload. A nil SessionID stages into a new session.
type StageRequest struct {
	SessionID *uuid.UUID
	UserID    uuid.UUID
	CompanyID uuid.UUID
	FileName  string
	FileSize  int64
	Rows      []domain.RawRow
}

// ConfirmItem is the operator's decision for one row
type ConfirmItem struct {
	RowNumber int              `json:"row"`
	Action    domain.RowAction `json:"action"`
	// ProductID is the attach target; empty means the top stored candidate
	ProductID *uuid.UUID       `json:"product_id,omitempty"`
}

// ConfirmResult reports one confirm batch. Created and Attached count this
// batch only; the session carries the running totals.
type ConfirmResult struct {
	Created  int                   `json:"created"`
	Attached int                   `json:"attached"`
	Pending  int                   `json:"pending"`
	Errors   []domain.RowError     `json:"errors"`
	Session  *domain.ImportSession `json:"session"`
}

// SessionDetails is a session with its rows, each carrying stored candidates
type SessionDetails struct {
	Session *domain.ImportSession `json:"session"`
	Rows    []domain.ImportRow    `json:"rows"`
}

// ImportService drives an import session through stage, analyze and confirm
type ImportService struct {
	catalog  domain.CatalogRepository
	sessions domain.SessionRepository
	tx       domain.Transactor
	locker   domain.Locker

	normalizer *Normalizer
	validator  *DescriptionValidator
	matcher    *ProductMatcher
	inferencer *TypeInferencer
	allocator  *CodeAllocator

	config ImportConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewImportService wires the orchestrator and its matching pipeline
func NewImportService(
	catalog domain.CatalogRepository,
	sessions domain.SessionRepository,
	tx domain.Transactor,
	locker domain.Locker,
	config ImportConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRows <= 0 {
		config.MaxRows = DefaultMaxRows
	}
	if config.MaxFileSizeKB <= 0 {
		config.MaxFileSizeKB = DefaultMaxFileSizeKB
	}
	if config.AnalyzeMinConfidence <= 0 {
		config.AnalyzeMinConfidence = AnalyzeMinConfidence
	}
	if config.CreateMinConfidence <= 0 {
		config.CreateMinConfidence = CreateMinConfidence
	}
	if config.DuplicateConfidence <= 0 {
		config.DuplicateConfidence = DuplicateConfidence
	}

	normalizer := NewNormalizer(config.Normalizer)
	return &ImportService{
		catalog:    catalog,
		sessions:   sessions,
		tx:         tx,
		locker:     locker,
		normalizer: normalizer,
		validator:  NewDescriptionValidator(normalizer),
		matcher:    NewProductMatcher(normalizer, logger),
		inferencer: NewTypeInferencer(normalizer),
		allocator:  NewCodeAllocator(locker),
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

func sessionLockKey(id uuid.UUID) string {
	return "import_session:" + id.String()
}

// Stage validates raw rows and stores them, replacing any previous rows of
// the session. Upload limits are checked before any row is looked at and
// nothing is persisted when no row passes validation.
func (s *ImportService) Stage(ctx context.Context, req StageRequest) (*SessionDetails, error) {
	if req.FileSize > int64(s.config.MaxFileSizeKB)*1024 {
		return nil, domain.ErrFileTooLarge
	}
	if len(req.Rows) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if len(req.Rows) > s.config.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", domain.ErrTooManyRows, len(req.Rows), s.config.MaxRows)
	}

	var session *domain.ImportSession
	if req.SessionID != nil {
		release, err := s.lockSession(ctx, *req.SessionID)
		if err != nil {
			return nil, err
		}
		defer release()

		session, err = s.sessions.FindSession(ctx, *req.SessionID)
		if err != nil {
			return nil, err
		}
		if err := requireActive(session); err != nil {
			return nil, err
		}
	}

	rows := s.validateRows(req.Rows)
	if countStatus(rows, domain.RowRejected) == len(rows) {
		return nil, domain.ErrNoValidRows
	}

	now := s.now()
	if session == nil {
		session = &domain.ImportSession{
			ID:        uuid.New(),
			UserID:    req.UserID,
			CompanyID: req.CompanyID,
			Status:    domain.SessionActive,
			FileName:  req.FileName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.sessions.CreateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	} else {
		session.FileName = req.FileName
	}

	for i := range rows {
		rows[i].SessionID = session.ID
	}
	if err := s.sessions.ReplaceRows(ctx, session.ID, rows); err != nil {
		return nil, fmt.Errorf("failed to store rows: %w", err)
	}

	recount(session, rows)
	session.UpdatedAt = now
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.logger.Info("staged import",
		zap.String("session_id", session.ID.String()),
		zap.Int("total_rows", session.TotalRows),
		zap.Int("rejected_rows", session.RejectedRows))
	return &SessionDetails{Session: session, Rows: rows}, nil
}

func (s *ImportService) validateRows(raw []domain.RawRow) []domain.ImportRow {
	rows := make([]domain.ImportRow, 0, len(raw))
	for _, r := range raw {
		description := strings.TrimSpace(r.Description)
		quantity := r.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		row := domain.ImportRow{
			ID:           uuid.New(),
			RowNumber:    r.RowNumber,
			Description:  description,
			Quantity:     quantity,
			SoftwareCode: strings.TrimSpace(r.SoftwareCode),
			Price:        r.Price,
		}

		if err := s.validator.Validate(description); err != nil {
			row.Status = domain.RowRejected
			row.RejectionReason = rejectionReason(err)
			s.logger.Warn("rejected row",
				zap.Int("row", r.RowNumber),
				zap.String("reason", row.RejectionReason))
		} else {
			row.Status = domain.RowPending
			row.ModelCode = s.normalizer.ExtractModelCode(description)
			row.NormalizedModel = CanonicalModelKey(row.ModelCode)
			row.NormalizedDescription = s.normalizer.Normalize(description)
		}
		recordRowStaged(row.Status)
		rows = append(rows, row)
	}
	return rows
}

func rejectionReason(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return err.Error()
}

// Analyze matches every pending row and stores its candidates. Rows that are
// already analyzed or rejected are left alone, so repeated calls are no-ops.
func (s *ImportService) Analyze(ctx context.Context, sessionID uuid.UUID) (*SessionDetails, error) {
	start := time.Now()
	defer recordAnalyzeDuration(start)

	release, err := s.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(session); err != nil {
		return nil, err
	}

	rows, err := s.sessions.ListRows(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}

	var snapshot *CatalogSnapshot
	for i := range rows {
		row := &rows[i]
		if row.Status != domain.RowPending {
			continue
		}
		if snapshot == nil {
			if snapshot, err = s.loadSnapshot(ctx); err != nil {
				return nil, err
			}
		}

		candidates, err := s.matcher.FindMatches(ctx, snapshot, queryFor(row), s.config.AnalyzeMinConfidence)
		if err != nil {
			return nil, fmt.Errorf("failed to match row %d: %w", row.RowNumber, err)
		}
		if err := s.sessions.ReplaceCandidates(ctx, row.ID, candidates); err != nil {
			return nil, fmt.Errorf("failed to store candidates for row %d: %w", row.RowNumber, err)
		}
		row.Status = domain.RowAnalyzed
		if err := s.sessions.UpdateRow(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to update row %d: %w", row.RowNumber, err)
		}
		recordCandidates(candidates)

		s.logger.Debug("analyzed row",
			zap.String("session_id", sessionID.String()),
			zap.Int("row", row.RowNumber),
			zap.Int("candidates", len(candidates)))
	}

	recount(session, rows)
	session.UpdatedAt = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return s.details(ctx, session, rows)
}

// Confirm applies a batch of operator decisions while holding the session
// lock. Row level problems are collected into the result and never abort the
// batch; only a finalized session or a storage failure outside a row is
// returned as an error.
func (s *ImportService) Confirm(ctx context.Context, sessionID uuid.UUID, items []ConfirmItem) (*ConfirmResult, error) {
	release, err := s.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, domain.ErrSessionFinalized
	}

	rows, err := s.sessions.ListRows(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	candidates, err := s.sessions.ListCandidates(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	byNumber := make(map[int]int, len(rows))
	for i, row := range rows {
		byNumber[row.RowNumber] = i
	}

	result := &ConfirmResult{Errors: []domain.RowError{}}
	var snapshot *CatalogSnapshot

	for _, item := range items {
		idx, ok := byNumber[item.RowNumber]
		if !ok {
			result.Errors = append(result.Errors, domain.RowError{
				RowNumber: item.RowNumber,
				ErrorType: domain.ErrorTypeRowNotFound,
				Message:   fmt.Sprintf("row %d does not exist in this session", item.RowNumber),
			})
			continue
		}
		row := &rows[idx]

		if row.Status == domain.RowConfirmed || row.Skipped {
			continue
		}
		if row.Status == domain.RowRejected {
			result.Errors = append(result.Errors, domain.RowError{
				RowNumber: row.RowNumber,
				ErrorType: domain.ErrorTypeRowRejected,
				Message:   "row was rejected during validation: " + row.RejectionReason,
			})
			continue
		}

		if item.Action == domain.ActionCreate && snapshot == nil {
			if snapshot, err = s.loadSnapshot(ctx); err != nil {
				return nil, err
			}
		}

		decision, err := s.decide(ctx, snapshot, row, item, candidates[row.ID])
		if err == nil {
			err = s.apply(ctx, session, snapshot, row, decision)
		}
		if err != nil {
			result.Errors = append(result.Errors, s.rowError(ctx, session, row, item, err))
			continue
		}

		recordConfirmOutcome(item.Action, "confirmed")
		switch decision.Kind {
		case domain.DecisionCreate:
			result.Created++
		case domain.DecisionAttach:
			result.Attached++
		}
	}

	recount(session, rows)
	result.Pending = countBlocking(rows)
	now := s.now()
	session.UpdatedAt = now
	if result.Pending == 0 {
		session.Status = domain.SessionConfirmed
		session.CompletedAt = &now
	}
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	result.Session = session

	s.logger.Info("confirmed import batch",
		zap.String("session_id", session.ID.String()),
		zap.Int("created", result.Created),
		zap.Int("attached", result.Attached),
		zap.Int("pending", result.Pending),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// decide turns an item into a tagged decision without touching any store
// other than reads
func (s *ImportService) decide(
	ctx context.Context,
	snapshot *CatalogSnapshot,
	row *domain.ImportRow,
	item ConfirmItem,
	stored []domain.MatchCandidate,
) (domain.Decision, error) {
	switch item.Action {
	case domain.ActionAttach:
		var target uuid.UUID
		switch {
		case item.ProductID != nil:
			target = *item.ProductID
		case len(stored) > 0:
			target = stored[0].ProductID
		default:
			return domain.RejectedDecision(domain.ErrorTypeMissingProduct,
				"attach needs a product id and the row has no candidates"), nil
		}

		if _, err := s.catalog.FindProductByID(ctx, target); err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return domain.RejectedDecision(domain.ErrorTypeProductNotFound,
					fmt.Sprintf("product %s does not exist", target)), nil
			}
			return domain.Decision{}, err
		}
		return domain.AttachDecision(target), nil

	case domain.ActionCreate:
		matches, err := s.matcher.FindMatches(ctx, snapshot, queryFor(row), s.config.CreateMinConfidence)
		if err != nil {
			return domain.Decision{}, err
		}
		if len(matches) > 0 && matches[0].Confidence >= s.config.DuplicateConfidence {
			return domain.ConflictDecision(matches[0]), nil
		}

		related := make([]domain.CatalogProduct, 0, len(matches))
		for _, m := range matches {
			if p, ok := snapshot.Product(m.ProductID); ok {
				related = append(related, p)
			}
		}
		return domain.CreateDecision(s.inferencer.InferTypes(row.Description, related, snapshot)), nil

	default:
		return domain.RejectedDecision(domain.ErrorTypeInvalidAction,
			fmt.Sprintf("unknown action %q", item.Action)), nil
	}
}

// rowFailure carries a decision that ends the row without an infrastructure error
type rowFailure struct {
	decision domain.Decision
}

func (f *rowFailure) Error() string {
	if f.decision.Kind == domain.DecisionConflict {
		return "near-duplicate product exists"
	}
	return f.decision.Reason
}

// apply executes a decision and marks the row confirmed. Product creation,
// the stock write and the row update share one transaction, and row is only
// changed once it has committed.
func (s *ImportService) apply(
	ctx context.Context,
	session *domain.ImportSession,
	snapshot *CatalogSnapshot,
	row *domain.ImportRow,
	decision domain.Decision,
) error {
	switch decision.Kind {
	case domain.DecisionRejected, domain.DecisionConflict:
		return &rowFailure{decision: decision}
	case domain.DecisionCreate:
		release, err := s.allocator.Lock(ctx)
		if err != nil {
			return err
		}
		defer release()
	}

	updated := *row
	var created *domain.CatalogProduct
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, stores domain.Stores) error {
		productID, action := decision.ProductID, domain.ActionAttach
		if decision.Kind == domain.DecisionCreate {
			product := newCatalogProduct(row.Description, decision.Types, s.now())
			if err := s.allocator.CreateWithNextCode(ctx, stores.Catalog, &product); err != nil {
				return err
			}
			created = &product
			productID, action = product.ID, domain.ActionCreate
		}

		if err := s.addStock(ctx, stores.Stock, session, productID, row); err != nil {
			return err
		}

		updated.Status = domain.RowConfirmed
		updated.Action = action
		updated.ProductID = &productID
		if err := stores.Sessions.UpdateRow(ctx, &updated); err != nil {
			return fmt.Errorf("failed to update row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	*row = updated
	if created != nil {
		snapshot.Add(*created)
		s.logger.Info("created catalog product",
			zap.String("session_id", session.ID.String()),
			zap.Int("row", row.RowNumber),
			zap.String("identifier_code", created.IdentifierCode))
	}
	return nil
}

// addStock adds the row quantity to an existing record or creates one. The
// stored price changes only when the row supplied one.
func (s *ImportService) addStock(
	ctx context.Context,
	stock domain.StockRepository,
	session *domain.ImportSession,
	productID uuid.UUID,
	row *domain.ImportRow,
) error {
	record, err := stock.FindStock(ctx, session.UserID, session.CompanyID, productID)
	switch {
	case err == nil:
		record.Quantity += row.Quantity
		if row.Price != nil {
			price := *row.Price
			record.Price = &price
		}
		record.UpdatedAt = s.now()
		if err := stock.UpdateStock(ctx, record); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		return nil

	case errors.Is(err, domain.ErrStockNotFound):
		record = &domain.StockRecord{
			ID:        uuid.New(),
			UserID:    session.UserID,
			CompanyID: session.CompanyID,
			ProductID: productID,
			Quantity:  row.Quantity,
			Price:     row.Price,
			UpdatedAt: s.now(),
		}
		if err := stock.CreateStock(ctx, record); err != nil {
			return fmt.Errorf("failed to create stock: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("failed to read stock: %w", err)
	}
}

// rowError converts a per-row failure into its reported form
func (s *ImportService) rowError(
	ctx context.Context,
	session *domain.ImportSession,
	row *domain.ImportRow,
	item ConfirmItem,
	err error,
) domain.RowError {
	var failure *rowFailure
	if !errors.As(err, &failure) {
		s.logger.Error("confirm row failed",
			zap.String("session_id", session.ID.String()),
			zap.Int("row", row.RowNumber),
			zap.Error(err))
		recordConfirmOutcome(item.Action, domain.ErrorTypeInternal)
		return domain.RowError{
			RowNumber: row.RowNumber,
			ErrorType: domain.ErrorTypeInternal,
			Message:   err.Error(),
		}
	}

	decision := failure.decision
	if decision.Kind != domain.DecisionConflict {
		recordConfirmOutcome(item.Action, decision.ErrorType)
		return domain.RowError{
			RowNumber: row.RowNumber,
			ErrorType: decision.ErrorType,
			Message:   decision.Reason,
		}
	}

	conflict := decision.Conflict
	percent := int(math.Round(conflict.Confidence * 100))
	existing := &domain.ExistingProduct{
		ProductID:         conflict.ProductID.String(),
		IdentifierCode:    conflict.IdentifierCode,
		ConfidencePercent: percent,
		MatchType:         string(conflict.MatchType),
	}
	if conflict.IdentifierCode != "" {
		variants, err := s.catalog.FindProductsByIdentifierCode(ctx, conflict.IdentifierCode)
		if err != nil {
			s.logger.Warn("failed to load identifier code variants",
				zap.String("identifier_code", conflict.IdentifierCode),
				zap.Error(err))
		}
		for _, v := range variants {
			existing.VariantIDs = append(existing.VariantIDs, v.ID.String())
		}
	}

	s.logger.Warn("duplicate product detected",
		zap.String("session_id", session.ID.String()),
		zap.Int("row", row.RowNumber),
		zap.String("product_id", existing.ProductID),
		zap.Int("confidence_percent", percent))
	recordDuplicate()
	recordConfirmOutcome(item.Action, domain.ErrorTypeDuplicateDetected)

	message := fmt.Sprintf("a matching product already exists (%d%% confidence)", percent)
	if existing.IdentifierCode != "" {
		message = fmt.Sprintf("a matching product already exists as %s (%d%% confidence)", existing.IdentifierCode, percent)
	}
	return domain.RowError{
		RowNumber: row.RowNumber,
		ErrorType: domain.ErrorTypeDuplicateDetected,
		Message:   message,
		Existing:  existing,
	}
}

// Cancel moves an active session to cancelled
func (s *ImportService) Cancel(ctx context.Context, sessionID uuid.UUID) (*domain.ImportSession, error) {
	release, err := s.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, domain.ErrSessionFinalized
	}

	session.Status = domain.SessionCancelled
	session.UpdatedAt = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	s.logger.Info("cancelled import", zap.String("session_id", sessionID.String()))
	return session, nil
}

// SetRowSkipped sets the manual skip flag. The row status is unchanged.
func (s *ImportService) SetRowSkipped(ctx context.Context, sessionID uuid.UUID, rowNumber int, skipped bool) (*domain.ImportRow, error) {
	release, err := s.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(session); err != nil {
		return nil, err
	}

	rows, err := s.sessions.ListRows(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	for i := range rows {
		if rows[i].RowNumber != rowNumber {
			continue
		}
		rows[i].Skipped = skipped
		if err := s.sessions.UpdateRow(ctx, &rows[i]); err != nil {
			return nil, fmt.Errorf("failed to update row: %w", err)
		}
		return &rows[i], nil
	}
	return nil, domain.ErrRowNotFound
}

// GetSession returns a session with its rows and their stored candidates
func (s *ImportService) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionDetails, error) {
	session, err := s.sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.sessions.ListRows(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	return s.details(ctx, session, rows)
}

func (s *ImportService) details(ctx context.Context, session *domain.ImportSession, rows []domain.ImportRow) (*SessionDetails, error) {
	candidates, err := s.sessions.ListCandidates(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	for i := range rows {
		rows[i].Candidates = candidates[rows[i].ID]
	}
	return &SessionDetails{Session: session, Rows: rows}, nil
}

func (s *ImportService) lockSession(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	release, err := s.locker.Lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock session %s: %w", sessionID, err)
	}
	return release, nil
}

func (s *ImportService) loadSnapshot(ctx context.Context) (*CatalogSnapshot, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return NewCatalogSnapshot(s.normalizer, products), nil
}

func requireActive(session *domain.ImportSession) error {
	switch session.Status {
	case domain.SessionCancelled:
		return domain.ErrSessionCancelled
	case domain.SessionConfirmed:
		return domain.ErrSessionFinalized
	}
	return nil
}

func queryFor(row *domain.ImportRow) MatchQuery {
	return MatchQuery{Description: row.Description, ModelCode: row.ModelCode}
}

// newCatalogProduct uses the description as the model text, minus a leading
// brand name when one was inferred
func newCatalogProduct(description string, types domain.InferredTypes, now time.Time) domain.CatalogProduct {
	model := strings.TrimSpace(description)
	if types.Brand != "" {
		prefix := strings.ToLower(types.Brand) + " "
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			if rest := strings.TrimSpace(model[len(prefix):]); rest != "" {
				model = rest
			}
		}
	}
	return domain.CatalogProduct{
		ID:          uuid.New(),
		Category:    types.Category,
		SubCategory: types.SubCategory,
		Brand:       types.Brand,
		Model:       model,
		CreatedAt:   now,
	}
}

// recount derives every session counter from row state
func recount(session *domain.ImportSession, rows []domain.ImportRow) {
	session.TotalRows = len(rows)
	session.RejectedRows = countStatus(rows, domain.RowRejected)
	session.ValidRows = session.TotalRows - session.RejectedRows
	session.ProductsCreated, session.ProductsAttached = 0, 0
	for _, row := range rows {
		if row.Status != domain.RowConfirmed {
			continue
		}
		switch row.Action {
		case domain.ActionCreate:
			session.ProductsCreated++
		case domain.ActionAttach:
			session.ProductsAttached++
		}
	}
}

func countStatus(rows []domain.ImportRow, status domain.RowStatus) int {
	n := 0
	for _, row := range rows {
		if row.Status == status {
			n++
		}
	}
	return n
}

func countBlocking(rows []domain.ImportRow) int {
	n := 0
	for _, row := range rows {
		if row.IsBlocking() {
			n++
		}
	}
	return n
}

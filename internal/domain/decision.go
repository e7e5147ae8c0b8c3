package domain

import "github.com/google/uuid"

// DecisionKind tags the outcome of reconciling one row at confirm time
type DecisionKind string

const (
	DecisionAttach   DecisionKind = "attach"
	DecisionCreate   DecisionKind = "create"
	DecisionRejected DecisionKind = "rejected"
	DecisionConflict DecisionKind = "conflict"
)

// Decision is Attach(productID) | CreateNew(types) | Rejected(reason) | Conflict(candidate).
// Only the fields belonging to Kind are set.
type Decision struct {
	Kind DecisionKind

	ProductID uuid.UUID
	Types     InferredTypes

	ErrorType string
	Reason    string

	Conflict *MatchCandidate
}

func AttachDecision(productID uuid.UUID) Decision {
	return Decision{Kind: DecisionAttach, ProductID: productID}
}

func CreateDecision(types InferredTypes) Decision {
	return Decision{Kind: DecisionCreate, Types: types}
}

func RejectedDecision(errorType, reason string) Decision {
	return Decision{Kind: DecisionRejected, ErrorType: errorType, Reason: reason}
}

func ConflictDecision(candidate MatchCandidate) Decision {
	return Decision{Kind: DecisionConflict, Conflict: &candidate}
}

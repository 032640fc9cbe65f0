package vtable

import (
	"encoding/json"

	"github.com/urisql/urisql/internal/sqlerr"
)

// encodedPlan is the JSON shape carried in BestIndex's IdxStr, round
// tripped through Filter so the cursor knows, without re-deriving
// anything, which argv slot binds which column under which operator, and
// which ORDER BY terms the adapter is expected to honor itself.
type encodedPlan struct {
	Bounds []BoundRequest `json:"bounds"`
	Order  []OrderRequest `json:"order"`
}

func encodePlan(plan Plan) (string, error) {
	data, err := json.Marshal(encodedPlan{Bounds: plan.Bounds, Order: plan.OrderTerms})
	if err != nil {
		return "", sqlerr.NewInternalError("failed to encode index plan", err)
	}
	return string(data), nil
}

func decodePlan(idxStr string) (encodedPlan, error) {
	var plan encodedPlan
	if idxStr == "" {
		return plan, nil
	}
	if err := json.Unmarshal([]byte(idxStr), &plan); err != nil {
		return plan, sqlerr.NewInternalError("failed to decode index plan", err)
	}
	return plan, nil
}

package plan

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/big"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/sirupsen/logrus"
)

// DefaultScanLimit bounds Scan when the caller passes a non-positive limit.
const DefaultScanLimit = 1000

// Reader queries plans on one SavingCore deployment.
type Reader struct {
	caller  *contract.Caller
	address string
	log     logrus.FieldLogger
}

// NewReader creates a Reader for the SavingCore contract at address.
func NewReader(client *chain.EVMClient, address string, log logrus.FieldLogger) (*Reader, error) {
	caller, err := contract.NewCaller(client, contract.GetBuiltinABI("savingcore"))
	if err != nil {
		return nil, err
	}
	return &Reader{
		caller:  caller,
		address: address,
		log:     log.WithField("contract", address),
	}, nil
}

// Address returns the SavingCore address being read.
func (r *Reader) Address() string { return r.address }

// GetPlan reads a plan through getPlan(id). Unknown ids return a Plan with ID 0.
func (r *Reader) GetPlan(ctx context.Context, id uint64) (Plan, error) {
	raw, err := contract.CallAs[rawPlan](ctx, r.caller, r.address, "getPlan", new(big.Int).SetUint64(id))
	if err != nil {
		return Plan{}, fmt.Errorf("getPlan(%d): %w", id, err)
	}
	return r.decode("getPlan", raw)
}

// PlanAt reads a plan through the public plans(id) mapping accessor.
func (r *Reader) PlanAt(ctx context.Context, id uint64) (Plan, error) {
	out, err := r.caller.Call(ctx, r.address, "plans", new(big.Int).SetUint64(id))
	if err != nil {
		return Plan{}, fmt.Errorf("plans(%d): %w", id, err)
	}
	if len(out) != 4 {
		return Plan{}, &chain.CallError{Method: "plans", Err: fmt.Errorf("expected 4 outputs, got %d", len(out))}
	}

	var raw rawPlan
	if raw.PlanId, err = contract.Convert[*big.Int](out[0]); err != nil {
		return Plan{}, &chain.CallError{Method: "plans", Err: err}
	}
	if raw.TenorSeconds, err = contract.Convert[*big.Int](out[1]); err != nil {
		return Plan{}, &chain.CallError{Method: "plans", Err: err}
	}
	if raw.AprBps, err = contract.Convert[*big.Int](out[2]); err != nil {
		return Plan{}, &chain.CallError{Method: "plans", Err: err}
	}
	if raw.IsActive, err = contract.Convert[bool](out[3]); err != nil {
		return Plan{}, &chain.CallError{Method: "plans", Err: err}
	}
	return r.decode("plans", raw)
}

// GetAllPlans reads the whole catalogue in one call.
func (r *Reader) GetAllPlans(ctx context.Context) ([]Plan, error) {
	raws, err := contract.CallAs[[]rawPlan](ctx, r.caller, r.address, "getAllPlans")
	if err != nil {
		return nil, fmt.Errorf("getAllPlans: %w", err)
	}
	plans := make([]Plan, 0, len(raws))
	for _, raw := range raws {
		p, err := r.decode("getAllPlans", raw)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// PlanCount returns getPlanCount().
func (r *Reader) PlanCount(ctx context.Context) (uint64, error) {
	n, err := contract.CallAs[*big.Int](ctx, r.caller, r.address, "getPlanCount")
	if err != nil {
		return 0, fmt.Errorf("getPlanCount: %w", err)
	}
	count, err := toUint64("count", n)
	if err != nil {
		return 0, &chain.CallError{Method: "getPlanCount", Err: err}
	}
	return count, nil
}

// Scan reads plans(1), plans(2), ... and yields each plan until the first
// sentinel record (ID 0) or until limit ids have been read. A failed call is
// yielded once and ends the sequence.
func (r *Reader) Scan(ctx context.Context, limit int) iter.Seq2[Plan, error] {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	return func(yield func(Plan, error) bool) {
		for id := uint64(1); id <= uint64(limit); id++ {
			if err := ctx.Err(); err != nil {
				yield(Plan{}, err)
				return
			}
			p, err := r.PlanAt(ctx, id)
			if err != nil {
				r.log.WithError(err).WithField("plan_id", id).Warn("plan scan aborted")
				yield(Plan{}, err)
				return
			}
			if !p.Exists() {
				r.log.WithField("plans", id-1).Debug("plan scan reached end of catalogue")
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		r.log.WithField("limit", limit).Warn("plan scan stopped at limit before end of catalogue")
	}
}

// Mismatch is an id where getPlan and plans disagree.
type Mismatch struct {
	ID        uint64
	ByGetter  Plan
	ByMapping Plan
}

// ErrScanTruncated reports a verification that hit its id limit before the
// end of the catalogue.
var ErrScanTruncated = errors.New("plan scan stopped at limit before end of catalogue")

// Verification is the result of VerifyAccessors.
type Verification struct {
	Checked    int        // ids compared, including the first id past the end
	Plans      []Plan     // plans found through the mapping accessor
	Mismatches []Mismatch // ids where the accessors disagree
	Truncated  bool       // the limit was reached; the id past the end was not checked
}

// Consistent reports whether both accessors agreed everywhere.
func (v *Verification) Consistent() bool { return len(v.Mismatches) == 0 }

// VerifyAccessors compares getPlan(id) with plans(id) for every plan and for
// the first id past the end, where both must return the sentinel.
// When the scan stops at limit instead of the sentinel, the result is marked
// Truncated and the past-end check is skipped.
func (r *Reader) VerifyAccessors(ctx context.Context, limit int) (*Verification, error) {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	v := &Verification{}
	var id uint64
	for p, err := range r.Scan(ctx, limit) {
		if err != nil {
			return nil, err
		}
		id++
		v.Plans = append(v.Plans, p)
		if err := r.compare(ctx, v, id, p); err != nil {
			return nil, err
		}
	}

	if id >= uint64(limit) {
		v.Truncated = true
		return v, nil
	}

	// Scan read ids 1..n in order; id n+1 must be empty for both accessors.
	next := id + 1
	end, err := r.PlanAt(ctx, next)
	if err != nil {
		return nil, err
	}
	if err := r.compare(ctx, v, next, end); err != nil {
		return nil, err
	}
	// A plan added between the scan and this read leaves the catalogue unfinished.
	v.Truncated = end.Exists()
	return v, nil
}

func (r *Reader) compare(ctx context.Context, v *Verification, id uint64, byMapping Plan) error {
	byGetter, err := r.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	v.Checked++
	if byGetter != byMapping {
		r.log.WithFields(logrus.Fields{
			"plan_id": id,
			"getPlan": byGetter,
			"plans":   byMapping,
		}).Warn("plan accessors disagree")
		v.Mismatches = append(v.Mismatches, Mismatch{ID: id, ByGetter: byGetter, ByMapping: byMapping})
	}
	return nil
}

func (r *Reader) decode(method string, raw rawPlan) (Plan, error) {
	p, err := raw.toPlan()
	if err != nil {
		return Plan{}, &chain.CallError{Method: method, Err: err}
	}
	return p, nil
}

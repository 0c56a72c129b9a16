// Package filter classifies catalog properties against a portal's filter
// configuration. It is pure: no I/O, no mutation of its input.
package filter

import (
	"portal_syndicator/internal/domain"
)

type Stage string

const (
	// StageBusiness rejections come from the status switches.
	StageBusiness Stage = "business"
	// StageCompleteness rejections come from data completeness post-filters.
	StageCompleteness Stage = "completeness"
	// StageNotice marks admitted properties with incomplete data.
	StageNotice Stage = "notice"
)

type Rejection struct {
	PropertyID string
	Reason     domain.Reason
	Stage      Stage
}

// Result partitions the candidates: every candidate is either admitted or
// rejected, never both. Notices only refer to admitted properties.
type Result struct {
	Admitted []domain.Property
	Rejected []Rejection
	Notices  []Rejection
}

// Engine evaluates filter configurations. The zero value is ready to use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Evaluate(cfg domain.FilterConfig, candidates []domain.Property) Result {
	var res Result

	narrowed := make([]*domain.Property, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		if !passesStatus(cfg, p) {
			res.Rejected = append(res.Rejected, Rejection{
				PropertyID: p.ID,
				Reason:     domain.ReasonFilteredOut,
				Stage:      StageBusiness,
			})
			continue
		}
		narrowed = append(narrowed, p)
	}

	res.Admitted = make([]domain.Property, 0, len(narrowed))
	for _, p := range narrowed {
		if reason, rejected := failsCompleteness(cfg, p); rejected {
			res.Rejected = append(res.Rejected, Rejection{
				PropertyID: p.ID,
				Reason:     reason,
				Stage:      StageCompleteness,
			})
			continue
		}
		res.Admitted = append(res.Admitted, *p)
		res.Notices = append(res.Notices, notices(p)...)
	}

	return res
}

func passesStatus(cfg domain.FilterConfig, p *domain.Property) bool {
	if cfg.IsActiveOnly() && !p.IsActive() {
		return false
	}
	if cfg.IsSaleOnly() && !p.ForSale {
		return false
	}
	if cfg.IsRentalOnly() && !p.ForRent {
		return false
	}
	if cfg.IsFeaturedOnly() && !p.Featured {
		return false
	}
	return true
}

// failsCompleteness reports the first failing post-filter; photos are checked
// before address.
func failsCompleteness(cfg domain.FilterConfig, p *domain.Property) (domain.Reason, bool) {
	if cfg.ExcludesNoPhotos() && !p.HasPhotos() {
		return domain.ReasonMissingPhotos, true
	}
	if cfg.ExcludesNoAddress() && !p.HasAddress() {
		return domain.ReasonMissingAddress, true
	}
	return "", false
}

func notices(p *domain.Property) []Rejection {
	var out []Rejection
	add := func(reason domain.Reason) {
		out = append(out, Rejection{PropertyID: p.ID, Reason: reason, Stage: StageNotice})
	}
	if !p.HasPrice() {
		add(domain.ReasonMissingPrice)
	}
	if !p.HasPhotos() {
		add(domain.ReasonMissingPhotos)
	}
	if !p.HasDescription() {
		add(domain.ReasonMissingDescription)
	}
	if !p.HasAddress() {
		add(domain.ReasonMissingAddress)
	}
	return out
}

// BusinessExcluded is the number of properties dropped by status switches.
func (r Result) BusinessExcluded() int {
	return r.countRejected(StageBusiness)
}

// CompletenessExcluded is the number of properties dropped by post-filters.
func (r Result) CompletenessExcluded() int {
	return r.countRejected(StageCompleteness)
}

func (r Result) countRejected(stage Stage) int {
	n := 0
	for _, rej := range r.Rejected {
		if rej.Stage == stage {
			n++
		}
	}
	return n
}

// RejectedByReason counts rejections per reason.
func (r Result) RejectedByReason() map[domain.Reason]int {
	counts := make(map[domain.Reason]int)
	for _, rej := range r.Rejected {
		counts[rej.Reason]++
	}
	return counts
}

// CountByReason counts rejections and notices together, which is what
// operators see as data quality warnings.
func (r Result) CountByReason() map[domain.Reason]int {
	counts := r.RejectedByReason()
	for _, n := range r.Notices {
		counts[n.Reason]++
	}
	return counts
}

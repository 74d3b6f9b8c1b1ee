package service

import (
	"context"
	"sort"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/models"
	"github.com/leadpilot/backend/internal/utils"
)

const estimateSampleSize = 5

type Estimate struct {
	EstimatedContacts int              `json:"estimated_contacts"`
	SampleContacts    []models.Contact `json:"sample_contacts"`
}

// EstimateImpact performs the dry computation behind the "estimate"
// button: how many contacts a job of this type would touch, plus a small
// stable sample. No job is created.
func (r *Reclassifier) EstimateImpact(ctx context.Context, jobType string) (Estimate, error) {
	catchAllID, err := r.catchAllID(ctx, jobType)
	if err != nil {
		return Estimate{}, err
	}
	contacts, err := r.Store.ListContactsForJob(ctx, jobType, catchAllID)
	if err != nil {
		return Estimate{}, err
	}

	// hash-ordered so the sample is a stable spread rather than the
	// first rows by id
	sort.Slice(contacts, func(i, j int) bool {
		return utils.HashStringToUint64(contacts[i].ID) < utils.HashStringToUint64(contacts[j].ID)
	})

	est := Estimate{
		EstimatedContacts: len(contacts),
		SampleContacts:    []models.Contact{},
	}
	for _, c := range contacts {
		if len(est.SampleContacts) == estimateSampleSize {
			break
		}
		est.SampleContacts = append(est.SampleContacts, c)
	}
	return est, nil
}

type ScopedResult struct {
	Matched int `json:"matched"`
	Updated int `json:"updated"`
}

// ReclassifyByKeyword runs a synchronous pass over all contacts whose job
// title matches the given keyword and whose winning persona is that
// keyword's persona. Locked contacts count as matched but stay untouched.
func (r *Reclassifier) ReclassifyByKeyword(ctx context.Context, keywordID string) (ScopedResult, error) {
	keyword, err := r.Store.GetKeyword(ctx, keywordID)
	if err != nil {
		return ScopedResult{}, err
	}
	return r.scopedPass(ctx, func(d models.Diagnosis) bool {
		for _, m := range d.Matches {
			if m.Keyword == keyword.Text {
				return d.WinningPersonaID == keyword.PersonaID
			}
		}
		return false
	})
}

// ReclassifyByPersona runs a synchronous pass over all contacts whose
// winning persona is the given persona.
func (r *Reclassifier) ReclassifyByPersona(ctx context.Context, personaID string) (ScopedResult, error) {
	return r.scopedPass(ctx, func(d models.Diagnosis) bool {
		return !d.IsDefault && d.WinningPersonaID == personaID
	})
}

func (r *Reclassifier) scopedPass(ctx context.Context, inScope func(models.Diagnosis) bool) (ScopedResult, error) {
	personas, err := r.Store.ListPersonas(ctx)
	if err != nil {
		return ScopedResult{}, err
	}
	keywords, err := r.Store.ListKeywords(ctx)
	if err != nil {
		return ScopedResult{}, err
	}
	contacts, err := r.Store.ListContactsForJob(ctx, models.JobTypeAll, "")
	if err != nil {
		return ScopedResult{}, err
	}

	var res ScopedResult
	for _, c := range contacts {
		d := classifier.Classify(c.JobTitle, keywords, personas)
		if !inScope(d) {
			continue
		}
		res.Matched++
		if c.PersonaLocked {
			continue
		}
		if c.PersonaID != nil && *c.PersonaID == d.WinningPersonaID {
			continue
		}
		updated, err := r.Store.UpdateContactPersona(ctx, c.ID, d.WinningPersonaID)
		if err != nil {
			return res, err
		}
		if updated {
			res.Updated++
		}
	}
	return res, nil
}
